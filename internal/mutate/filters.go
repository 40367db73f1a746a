package mutate

import (
	"context"
	"errors"
	"strings"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/filter"
	"incidencias-cli/internal/model"
)

var (
	ErrFilterNameRequired = errors.New("el filtro necesita un nombre")
	ErrFilterEmpty        = errors.New("el filtro no tiene ningún criterio")
)

// SaveFilter stores the active criteria under a name for the current user.
func SaveFilter(ctx context.Context, be backend.Documents, user model.User, name string, crit filter.Criteria) (model.SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.SavedFilter{}, ErrFilterNameRequired
	}
	if crit.IsZero() {
		return model.SavedFilter{}, ErrFilterEmpty
	}
	return be.SaveFilter(ctx, model.SavedFilter{
		UserID:   user.ID,
		Name:     name,
		Criteria: crit.Raw(),
	})
}

func DeleteFilter(ctx context.Context, be backend.Documents, user model.User, filterID string) error {
	return be.DeleteFilter(ctx, user.ID, filterID)
}
