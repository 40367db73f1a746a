// Package backend is the managed-backend boundary of the app: credential
// auth, document storage, blob storage and the live incident subscription.
// The UI layers only see these interfaces; the bundled implementation keeps
// everything in a workspace SQLite database plus a blob directory.
package backend

import (
	"context"
	"errors"
	"fmt"

	"incidencias-cli/internal/model"
)

// Known auth failures. Surfaces translate these into friendly text;
// anything else is shown raw.
var (
	ErrUserNotFound  = errors.New("auth: user not found")
	ErrWrongPassword = errors.New("auth: wrong password")
	ErrInvalidEmail  = errors.New("auth: invalid email")
	ErrNoSession     = errors.New("auth: no active session")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Snapshot is one full push of the incident collection, ordered by creation
// time descending. Seq increases with every push; there is no finer
// ordering guarantee.
type Snapshot struct {
	Seq       int
	Incidents []model.Incident
}

// Auth owns sign-in state. A session survives process restarts until it
// expires or the user signs out.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (model.User, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.User, bool)
}

// Documents is the CRUD surface. Writes stamp the record's update
// timestamp; incident writes also maintain the closed-date invariant
// (non-nil exactly while status is closed) and trigger a snapshot push.
type Documents interface {
	Incidents(ctx context.Context) ([]model.Incident, error)
	SaveIncident(ctx context.Context, in model.Incident) (model.Incident, error)
	SetIncidentStatus(ctx context.Context, id string, st model.Status) error
	SetIncidentChecklist(ctx context.Context, id string, state map[string]bool) error
	SetIncidentFiles(ctx context.Context, id string, files []model.FileRef) error
	DeleteIncident(ctx context.Context, id string) error

	Buildings(ctx context.Context) ([]model.Building, error)
	SaveBuilding(ctx context.Context, b model.Building) (model.Building, error)
	DeleteBuilding(ctx context.Context, id string) error
	Contractors(ctx context.Context) ([]model.Contractor, error)
	SaveContractor(ctx context.Context, c model.Contractor) (model.Contractor, error)
	DeleteContractor(ctx context.Context, id string) error
	Policies(ctx context.Context) ([]model.Policy, error)
	SavePolicy(ctx context.Context, p model.Policy) (model.Policy, error)
	DeletePolicy(ctx context.Context, id string) error

	SavedFilters(ctx context.Context, userID string) ([]model.SavedFilter, error)
	SaveFilter(ctx context.Context, f model.SavedFilter) (model.SavedFilter, error)
	DeleteFilter(ctx context.Context, userID, filterID string) error

	Communications(ctx context.Context, incidentID string) ([]model.Communication, error)
	AddCommunication(ctx context.Context, c model.Communication) (model.Communication, error)
}

// Blobs stores attachment bytes under slash-separated paths. Deleting a
// missing object is a benign no-op.
type Blobs interface {
	Upload(ctx context.Context, path string, data []byte) (url string, err error)
	List(ctx context.Context, prefix string) ([]model.FileRef, error)
	Delete(ctx context.Context, path string) error
}

// Backend is the full collaborator contract. Subscribe registers a callback
// for incident snapshots; the returned cancel tears the subscription down.
// Callbacks run on a backend goroutine; consumers are expected to forward
// snapshots into their own event loop rather than mutate state in place.
type Backend interface {
	Auth
	Documents
	Blobs
	Subscribe(fn func(Snapshot)) (cancel func())
	Close() error
}
