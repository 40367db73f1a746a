package cli

import (
	"errors"

	"incidencias-cli/internal/backend"
)

var errConfirmRequired = errors.New("refusing to delete without --yes")

func notFound(kind, id string) error {
	return backend.NotFoundError{Kind: kind, ID: id}
}
