// Package mutate holds the write-side rules of the dashboard: validation,
// defaulting, optimistic checklist toggles and the attachment lifecycle.
// Functions here do not touch UI state beyond what they are handed; the
// surfaces decide how to present the errors.
package mutate

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"incidencias-cli/internal/model"
)

const minDescriptionLen = 15

// Validation failures carry user-facing text; surfaces show them verbatim.
var (
	ErrTitleRequired    = errors.New("el título es obligatorio")
	ErrDescriptionShort = fmt.Errorf("la descripción debe tener al menos %d caracteres", minDescriptionLen)
	ErrClaimRefRequired = errors.New("un siniestro necesita referencia de siniestro")
	ErrInvalidStatus    = errors.New("estado no válido")
	ErrInvalidPriority  = errors.New("prioridad no válida")
	ErrDueBeforeToday   = errors.New("la fecha límite no puede ser anterior a hoy")
	ErrDueBeforeCreated = errors.New("la fecha límite no puede ser anterior a la fecha de creación")
	ErrBadDueDate       = errors.New("la fecha límite no es válida")
)

// ValidateIncident checks the form-level rules before a save is attempted.
// isNew distinguishes the create rule for the due date (>= today) from the
// edit rule (>= creation date, so old incidents stay editable).
func ValidateIncident(in model.Incident, isNew bool, now time.Time) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if desc := strings.TrimSpace(in.Description); desc != "" && utf8.RuneCountInString(desc) < minDescriptionLen {
		return ErrDescriptionShort
	}
	if in.IsClaim && strings.TrimSpace(in.ClaimRef) == "" {
		return ErrClaimRefRequired
	}
	if in.Status != "" && !in.Status.Known() {
		return ErrInvalidStatus
	}
	if in.Priority != "" && !in.Priority.Known() {
		return ErrInvalidPriority
	}
	if strings.TrimSpace(in.DueDate) != "" {
		due, ok := model.ParseDay(in.DueDate)
		if !ok {
			return ErrBadDueDate
		}
		if isNew {
			if due.Before(dayStart(now)) {
				return ErrDueBeforeToday
			}
		} else if !in.CreatedAt.IsZero() && due.Before(dayStart(in.CreatedAt)) {
			return ErrDueBeforeCreated
		}
	}
	return nil
}

func dayStart(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
