package model

import (
	"strings"
	"time"
)

// Status is the incident workflow state. The wire values are the Spanish
// labels the product has always persisted; treat them as opaque ids.
type Status string

const (
	StatusOpen       Status = "abierta"
	StatusInProgress Status = "en_proceso"
	StatusClosed     Status = "cerrada"
)

// KnownStatuses returns the workflow states in board order.
func KnownStatuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusClosed}
}

func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "baja"
	PriorityMedium   Priority = "media"
	PriorityHigh     Priority = "alta"
	PriorityCritical Priority = "critica"
)

// Rank orders priorities for sorting: critical first, low last.
// Unknown or missing priorities rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

func (p Priority) Urgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// KnownPriorities returns the priorities from most to least urgent.
func KnownPriorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// FileRef describes one stored attachment of an incident.
type FileRef struct {
	Name string `json:"nombre"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// ChecklistStep is one entry of an incident checklist. Explicit checklists
// are stored on the incident; template checklists are derived on demand.
type ChecklistStep struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Incident is the central entity. JSON field names match the historical
// document format, so records survive round-trips through the backend.
type Incident struct {
	ID          string   `json:"id"`
	Title       string   `json:"titulo"`
	Description string   `json:"descripcion,omitempty"`
	Status      Status   `json:"estado"`
	Priority    Priority `json:"prioridad"`

	BuildingID   string   `json:"edificioId,omitempty"`
	ContractorID string   `json:"reparadorId,omitempty"`
	Tags         []string `json:"etiquetas,omitempty"`

	IsClaim  bool   `json:"esSiniestro"`
	PolicyID string `json:"polizaId,omitempty"`
	ClaimRef string `json:"referenciaSiniestro,omitempty"`

	CreatedAt time.Time  `json:"fechaCreacion"`
	UpdatedAt time.Time  `json:"fechaActualizacion"`
	DueDate   string     `json:"fechaLimite,omitempty"` // YYYY-MM-DD
	ClosedAt  *time.Time `json:"fechaCierre,omitempty"`

	Files []FileRef `json:"archivos,omitempty"`

	Checklist      []ChecklistStep `json:"checklist,omitempty"`
	ChecklistState map[string]bool `json:"checklistEstado,omitempty"`
}

// DueTime parses the due date as a local calendar day. ok is false when the
// date is absent or unparseable; callers treat that permissively.
func (in Incident) DueTime() (time.Time, bool) {
	return ParseDay(in.DueDate)
}

func (in Incident) HasTag(tag string) bool {
	for _, t := range in.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Building is a reference-catalog entry. Name carries the current field;
// LegacyName covers documents written before the rename.
type Building struct {
	ID              string `json:"id"`
	Name            string `json:"nombre,omitempty"`
	LegacyName      string `json:"razonSocial,omitempty"`
	Address         string `json:"direccion,omitempty"`
	Contact         string `json:"contacto,omitempty"`
	DefaultPolicyID string `json:"defaultPolizaId,omitempty"`
}

func (b Building) DisplayName() string {
	return firstNonEmpty(b.Name, b.LegacyName, b.ID)
}

type Contractor struct {
	ID         string `json:"id"`
	Name       string `json:"nombre,omitempty"`
	LegacyName string `json:"razonSocial,omitempty"`
	Phone      string `json:"telefono,omitempty"`
	Email      string `json:"email,omitempty"`
	Trade      string `json:"especialidad,omitempty"`
}

func (c Contractor) DisplayName() string {
	return firstNonEmpty(c.Name, c.LegacyName, c.ID)
}

type Policy struct {
	ID      string `json:"id"`
	Name    string `json:"nombre,omitempty"`
	Ref     string `json:"referencia,omitempty"`
	Insurer string `json:"aseguradora,omitempty"`
	Notes   string `json:"notas,omitempty"`
}

func (p Policy) DisplayName() string {
	return firstNonEmpty(p.Name, p.Ref, p.ID)
}

// Communication is an append-only note on one incident. Immutable once
// created; rendered newest-first.
type Communication struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incidenciaId"`
	Type       string    `json:"tipo"`
	Message    string    `json:"mensaje"`
	Author     string    `json:"autor"`
	CreatedAt  time.Time `json:"fechaCreacion"`
}

// SavedFilter is a user-scoped named criteria bundle. Criteria stays raw
// JSON here; the filter package owns its shape and normalization.
type SavedFilter struct {
	ID       string         `json:"id"`
	UserID   string         `json:"usuarioId"`
	Name     string         `json:"nombre"`
	Criteria map[string]any `json:"criterios,omitempty"`
}

// User is a backend credential record.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"nombre,omitempty"`
}

// Author returns the name communications should be attributed to.
func (u User) Author() string {
	return firstNonEmpty(u.DisplayName, u.Email, "Equipo")
}

// Event is one row of the backend's append-only change log.
type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	UserID   string    `json:"userId"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}

// ParseDay parses a YYYY-MM-DD string (or an RFC 3339 timestamp, for legacy
// documents) into a local-midnight time. Unparseable input returns ok=false.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.Local()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
	}
	return time.Time{}, false
}

// DayKey formats a time as the YYYY-MM-DD bucket key used by the calendar
// and metrics derivations (local date, time-of-day ignored).
func DayKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if strings.TrimSpace(x) != "" {
			return x
		}
	}
	return ""
}
