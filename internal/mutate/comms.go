package mutate

import (
	"context"
	"errors"
	"strings"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/model"
)

var ErrEmptyMessage = errors.New("el mensaje no puede estar vacío")

// CommunicationTypes the thread form offers.
var CommunicationTypes = []string{"nota", "llamada", "email", "visita"}

// PostCommunication appends a note to an incident's thread.
func PostCommunication(ctx context.Context, be backend.Documents, incidentID, commType, message string, author model.User) (model.Communication, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.Communication{}, ErrEmptyMessage
	}
	if strings.TrimSpace(commType) == "" {
		commType = "nota"
	}
	return be.AddCommunication(ctx, model.Communication{
		IncidentID: incidentID,
		Type:       commType,
		Message:    message,
		Author:     author.Author(),
	})
}
