package mutate

import (
	"context"
	"errors"
	"strings"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/model"
)

var ErrNameRequired = errors.New("el nombre es obligatorio")

// Catalog writes. Records only need a display name; everything else is
// optional contact detail.

func SaveBuilding(ctx context.Context, be backend.Documents, b model.Building) (model.Building, error) {
	if strings.TrimSpace(b.Name) == "" && strings.TrimSpace(b.LegacyName) == "" {
		return model.Building{}, ErrNameRequired
	}
	return be.SaveBuilding(ctx, b)
}

func SaveContractor(ctx context.Context, be backend.Documents, c model.Contractor) (model.Contractor, error) {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.LegacyName) == "" {
		return model.Contractor{}, ErrNameRequired
	}
	return be.SaveContractor(ctx, c)
}

func SavePolicy(ctx context.Context, be backend.Documents, p model.Policy) (model.Policy, error) {
	if strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Ref) == "" {
		return model.Policy{}, ErrNameRequired
	}
	return be.SavePolicy(ctx, p)
}
