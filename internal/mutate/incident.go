package mutate

import (
	"context"
	"strings"
	"time"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/model"
)

// CreateIncident validates a new incident, fills the defaults the form
// leaves open and writes it. A claim without a policy inherits the
// building's default policy when the building declares one.
func CreateIncident(ctx context.Context, be backend.Documents, in model.Incident, buildings []model.Building, now time.Time) (model.Incident, error) {
	in.ID = ""
	if in.Status == "" {
		in.Status = model.StatusOpen
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if err := ValidateIncident(in, true, now); err != nil {
		return model.Incident{}, err
	}
	applyDefaultPolicy(&in, buildings)
	return be.SaveIncident(ctx, in)
}

// EditIncident validates and writes changes to an existing incident.
func EditIncident(ctx context.Context, be backend.Documents, in model.Incident, buildings []model.Building, now time.Time) (model.Incident, error) {
	if strings.TrimSpace(in.ID) == "" {
		return model.Incident{}, backend.NotFoundError{Kind: "incident", ID: in.ID}
	}
	if err := ValidateIncident(in, false, now); err != nil {
		return model.Incident{}, err
	}
	applyDefaultPolicy(&in, buildings)
	return be.SaveIncident(ctx, in)
}

func applyDefaultPolicy(in *model.Incident, buildings []model.Building) {
	if !in.IsClaim || strings.TrimSpace(in.PolicyID) != "" {
		return
	}
	for _, b := range buildings {
		if b.ID == in.BuildingID && strings.TrimSpace(b.DefaultPolicyID) != "" {
			in.PolicyID = b.DefaultPolicyID
			return
		}
	}
}

// SetStatus moves an incident between workflow states. The storage layer
// owns the closed-date bookkeeping.
func SetStatus(ctx context.Context, be backend.Documents, id string, st model.Status) error {
	if !st.Known() {
		return ErrInvalidStatus
	}
	return be.SetIncidentStatus(ctx, id, st)
}

// DeleteIncident removes the incident with its thread and blobs.
func DeleteIncident(ctx context.Context, be backend.Documents, id string) error {
	return be.DeleteIncident(ctx, id)
}
