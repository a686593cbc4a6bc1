package clickup

import (
	"context"
	"net/url"

	"nodebridge/internal/domain/execution"
)

// API is the subset of the project-management REST API used by the node.
// Implementations live in infra/tasks/.
type API interface {
	// CreateTask creates a task in a list and returns the created task.
	CreateTask(ctx context.Context, listID string, task *TaskRequest) (any, error)

	// SetCustomField sets one custom field value on a task.
	SetCustomField(ctx context.Context, taskID, fieldID string, update *FieldUpdate) (any, error)

	// Get performs a GET request and decodes the JSON response into out.
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// ClientFactory builds an API client for the given credentials.
type ClientFactory func(creds execution.Credentials) (API, error)
