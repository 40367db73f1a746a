package mutate

import (
	"context"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/session"
)

// Checklist toggles are optimistic: the pane flips the step immediately,
// the write runs in the background, and a failed write flips it back.
// ChecklistToggle is the handle the pane keeps while the write is pending.
type ChecklistToggle struct {
	IncidentID string
	StepID     string
	Prev       bool
}

// BeginChecklistToggle flips stepID in the detail's state in place and
// returns the rollback handle plus a copy of the full state to persist.
func BeginChecklistToggle(det *session.Detail, stepID string) (ChecklistToggle, map[string]bool) {
	prev := det.ChecklistState[stepID]
	det.ChecklistState[stepID] = !prev
	det.Incident.ChecklistState = det.ChecklistState

	persist := make(map[string]bool, len(det.ChecklistState))
	for k, v := range det.ChecklistState {
		persist[k] = v
	}
	return ChecklistToggle{IncidentID: det.Incident.ID, StepID: stepID, Prev: prev}, persist
}

// Rollback restores the step to its pre-toggle value after a failed write.
// It is a no-op when the pane has moved on to a different incident.
func (t ChecklistToggle) Rollback(det *session.Detail) {
	if det == nil || det.Incident.ID != t.IncidentID {
		return
	}
	det.ChecklistState[t.StepID] = t.Prev
	det.Incident.ChecklistState = det.ChecklistState
}

// PersistChecklist writes the full completion state for an incident.
func PersistChecklist(ctx context.Context, be backend.Documents, incidentID string, state map[string]bool) error {
	return be.SetIncidentChecklist(ctx, incidentID, state)
}
