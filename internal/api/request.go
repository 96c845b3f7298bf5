package api

import (
	"strings"

	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
)

// messageSeparator joins the developer and user parts of a split message
const messageSeparator = "\n\n"

// RequestOptions carries the optional pass-through fields of a chat request
type RequestOptions struct {
	Model  string
	APIKey string
	Stream bool
}

// ComposeMessage returns the single message sent to the backend. A non-blank
// Message wins; otherwise the developer part (if any) and the user part are
// joined by a blank line.
func ComposeMessage(fields models.MessageFields) string {
	if strings.TrimSpace(fields.Message) != "" {
		return fields.Message
	}

	var parts []string
	if strings.TrimSpace(fields.DeveloperMessage) != "" {
		parts = append(parts, fields.DeveloperMessage)
	}
	if strings.TrimSpace(fields.UserMessage) != "" {
		parts = append(parts, fields.UserMessage)
	}
	return strings.Join(parts, messageSeparator)
}

// BuildRequest validates fields and assembles the outgoing payload.
// An empty composed message fails with a ValidationError.
func BuildRequest(fields models.MessageFields, opts RequestOptions) (*models.ChatRequest, error) {
	message := ComposeMessage(fields)
	if strings.TrimSpace(message) == "" {
		return nil, apierrors.NewValidationError("message", "must not be empty")
	}

	return &models.ChatRequest{
		Message: message,
		Model:   opts.Model,
		APIKey:  opts.APIKey,
		Stream:  opts.Stream,
	}, nil
}
