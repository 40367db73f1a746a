package derive

import (
	"fmt"
	"strings"

	"incidencias-cli/internal/model"
)

// Fixed checklist templates. An incident without an explicit checklist gets
// one of these depending on its flags, evaluated in this order:
// insurance claim, then urgent priority, then the general fallback.
var (
	claimTemplate = []model.ChecklistStep{
		{ID: "notificar-aseguradora", Label: "Notificar a la aseguradora"},
		{ID: "adjuntar-parte", Label: "Adjuntar el parte de siniestro"},
		{ID: "confirmar-referencia", Label: "Confirmar la referencia del siniestro"},
		{ID: "revisar-cobertura", Label: "Revisar la cobertura de la póliza"},
	}
	urgentTemplate = []model.ChecklistStep{
		{ID: "contactar-reparador", Label: "Contactar al reparador"},
		{ID: "confirmar-acceso", Label: "Confirmar el acceso al edificio"},
		{ID: "planificar-urgencia", Label: "Planificar la intervención urgente"},
	}
	generalTemplate = []model.ChecklistStep{
		{ID: "evaluar-alcance", Label: "Evaluar el alcance del daño"},
		{ID: "pedir-presupuesto", Label: "Solicitar presupuesto"},
		{ID: "programar-reparacion", Label: "Programar la reparación"},
	}
)

// Checklist returns the effective checklist for an incident: the explicit
// one when present (normalized), otherwise a template. Urgent incidents get
// the urgent steps plus the first two general ones.
func Checklist(in model.Incident) []model.ChecklistStep {
	if len(in.Checklist) > 0 {
		return NormalizeChecklist(in.Checklist)
	}
	switch {
	case in.IsClaim:
		return clonedSteps(claimTemplate)
	case in.Priority.Urgent():
		steps := clonedSteps(urgentTemplate)
		return append(steps, clonedSteps(generalTemplate[:2])...)
	default:
		return clonedSteps(generalTemplate)
	}
}

// NormalizeChecklist fills in missing step ids: slug of the label when one
// exists, positional fallback otherwise.
func NormalizeChecklist(steps []model.ChecklistStep) []model.ChecklistStep {
	out := make([]model.ChecklistStep, len(steps))
	for i, step := range steps {
		id := strings.TrimSpace(step.ID)
		if id == "" {
			id = Slug(step.Label)
		}
		if id == "" {
			id = fmt.Sprintf("paso-%d", i+1)
		}
		out[i] = model.ChecklistStep{ID: id, Label: step.Label}
	}
	return out
}

// MergeChecklistState projects prior completion state onto the given steps:
// exactly one boolean per step id, false for ids never seen before.
func MergeChecklistState(steps []model.ChecklistStep, prior map[string]bool) map[string]bool {
	state := make(map[string]bool, len(steps))
	for _, step := range steps {
		state[step.ID] = prior[step.ID]
	}
	return state
}

// Slug lowercases a label into a dash-separated id, dropping accents from
// the letters the templates actually use.
func Slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case 'á':
			r = 'a'
		case 'é':
			r = 'e'
		case 'í':
			r = 'i'
		case 'ó':
			r = 'o'
		case 'ú', 'ü':
			r = 'u'
		case 'ñ':
			r = 'n'
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func clonedSteps(steps []model.ChecklistStep) []model.ChecklistStep {
	out := make([]model.ChecklistStep, len(steps))
	copy(out, steps)
	return out
}
