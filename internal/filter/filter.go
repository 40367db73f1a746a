// Package filter evaluates incident filter criteria.
//
// Every criterion is optional; an absent or empty field imposes no
// constraint, and present fields combine with AND semantics. Malformed
// criteria never raise errors: unparseable dates and unknown fields are
// simply ignored, which keeps saved filters from older versions working.
package filter

import (
	"strings"

	"incidencias-cli/internal/model"
)

// Criteria is one filter bundle. The JSON shape matches saved-filter
// documents, including the ones written by earlier releases.
type Criteria struct {
	Search       string         `json:"busqueda,omitempty"`
	Status       model.Status   `json:"estado,omitempty"`
	Priority     model.Priority `json:"prioridad,omitempty"`
	BuildingID   string         `json:"edificioId,omitempty"`
	ContractorID string         `json:"reparadorId,omitempty"`
	ClaimsOnly   bool           `json:"soloSiniestros,omitempty"`
	Tags         []string       `json:"etiquetas,omitempty"`
	From         string         `json:"desde,omitempty"` // YYYY-MM-DD, inclusive
	To           string         `json:"hasta,omitempty"` // YYYY-MM-DD, inclusive
}

// IsZero reports whether the criteria impose no constraint at all.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" &&
		c.Status == "" &&
		c.Priority == "" &&
		strings.TrimSpace(c.BuildingID) == "" &&
		strings.TrimSpace(c.ContractorID) == "" &&
		!c.ClaimsOnly &&
		len(c.Tags) == 0 &&
		strings.TrimSpace(c.From) == "" &&
		strings.TrimSpace(c.To) == ""
}

// Matches reports whether the incident satisfies every present criterion.
// Evaluation short-circuits on the first failing rule.
func Matches(in model.Incident, c Criteria) bool {
	if q := strings.TrimSpace(c.Search); q != "" {
		haystack := strings.ToLower(in.Title + " " + in.ClaimRef)
		if !strings.Contains(haystack, strings.ToLower(q)) {
			return false
		}
	}
	if c.Status != "" && in.Status != c.Status {
		return false
	}
	if c.Priority != "" && in.Priority != c.Priority {
		return false
	}
	if id := strings.TrimSpace(c.BuildingID); id != "" && in.BuildingID != id {
		return false
	}
	if id := strings.TrimSpace(c.ContractorID); id != "" && in.ContractorID != id {
		return false
	}
	if c.ClaimsOnly && !in.IsClaim {
		return false
	}
	for _, tag := range c.Tags {
		if !in.HasTag(tag) {
			return false
		}
	}
	// Date bounds are permissive: a bound only excludes when both the bound
	// and the incident's creation date parse.
	if from, ok := model.ParseDay(c.From); ok && !in.CreatedAt.IsZero() {
		if in.CreatedAt.Before(from) {
			return false
		}
	}
	if to, ok := model.ParseDay(c.To); ok && !in.CreatedAt.IsZero() {
		// Inclusive upper bound: anything before the end of that day passes.
		if !in.CreatedAt.Before(to.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

// Apply returns the incidents matching c, preserving input order.
func Apply(ins []model.Incident, c Criteria) []model.Incident {
	out := make([]model.Incident, 0, len(ins))
	for _, in := range ins {
		if Matches(in, c) {
			out = append(out, in)
		}
	}
	return out
}

// ParseTags splits a comma-separated tag string into clean tags.
func ParseTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Normalize rebuilds Criteria from a raw saved-filter payload. Older
// documents stored tags as a comma-separated string and booleans as "on";
// anything unrecognized is dropped rather than rejected.
func Normalize(raw map[string]any) Criteria {
	c := Criteria{
		Search:       rawString(raw, "busqueda"),
		Status:       model.Status(rawString(raw, "estado")),
		Priority:     model.Priority(rawString(raw, "prioridad")),
		BuildingID:   rawString(raw, "edificioId"),
		ContractorID: rawString(raw, "reparadorId"),
		From:         rawString(raw, "desde"),
		To:           rawString(raw, "hasta"),
		ClaimsOnly:   rawBool(raw, "soloSiniestros"),
	}
	switch v := raw["etiquetas"].(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				c.Tags = append(c.Tags, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				c.Tags = append(c.Tags, strings.TrimSpace(s))
			}
		}
	case string:
		c.Tags = ParseTags(v)
	}
	return c
}

// Raw converts Criteria into the saved-filter document payload.
func (c Criteria) Raw() map[string]any {
	raw := map[string]any{}
	if c.Search != "" {
		raw["busqueda"] = c.Search
	}
	if c.Status != "" {
		raw["estado"] = string(c.Status)
	}
	if c.Priority != "" {
		raw["prioridad"] = string(c.Priority)
	}
	if c.BuildingID != "" {
		raw["edificioId"] = c.BuildingID
	}
	if c.ContractorID != "" {
		raw["reparadorId"] = c.ContractorID
	}
	if c.ClaimsOnly {
		raw["soloSiniestros"] = true
	}
	if len(c.Tags) > 0 {
		tags := make([]any, 0, len(c.Tags))
		for _, t := range c.Tags {
			tags = append(tags, t)
		}
		raw["etiquetas"] = tags
	}
	if c.From != "" {
		raw["desde"] = c.From
	}
	if c.To != "" {
		raw["hasta"] = c.To
	}
	return raw
}

func rawString(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func rawBool(raw map[string]any, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on" || v == "1"
	case float64:
		return v == 1
	}
	return false
}
