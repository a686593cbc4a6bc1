package clickup

import (
	"context"
	"log/slog"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/execution"
)

// NodeName is the name the clickup node is registered under.
const NodeName = "clickup"

const (
	ResourceTask = "task"

	OperationCreate         = "create"
	OperationSetCustomField = "setCustomField"
)

var _ execution.Node = (*Node)(nil)

// Node creates tasks and sets custom fields in a ClickUp workspace.
type Node struct {
	clients ClientFactory
}

// NewNode creates the clickup node.
func NewNode(clients ClientFactory) *Node {
	return &Node{clients: clients}
}

// Name returns the node identifier.
func (n *Node) Name() string {
	return NodeName
}

// Executor resolves task:create and task:setCustomField.
func (n *Node) Executor(_ context.Context, resource, operation string, creds execution.Credentials) (execution.ItemFunc, error) {
	if resource != ResourceTask {
		return nil, &common.UnknownResourceError{Node: NodeName, Resource: resource}
	}

	var run func(context.Context, API, execution.Params) (any, error)
	switch operation {
	case OperationCreate:
		run = createTask
	case OperationSetCustomField:
		run = setCustomField
	default:
		return nil, &common.UnknownOperationError{Resource: resource, Operation: operation}
	}

	api, err := n.clients(creds)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, params execution.Params) (any, error) {
		return run(ctx, api, params)
	}, nil
}

// LoadOptions runs one of the dropdown lookups registered in optionLoaders.
func (n *Node) LoadOptions(ctx context.Context, method string, creds execution.Credentials, params execution.Params) ([]execution.Option, error) {
	load, ok := optionLoaders[method]
	if !ok {
		return nil, &common.UnknownOperationError{Resource: "options", Operation: method}
	}

	var p OptionParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}

	api, err := n.clients(creds)
	if err != nil {
		return nil, err
	}

	return load(ctx, api, p)
}

func createTask(ctx context.Context, api API, params execution.Params) (any, error) {
	var p CreateTaskParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}

	task, err := BuildTaskRequest(&p)
	if err != nil {
		return nil, err
	}

	resp, err := api.CreateTask(ctx, p.List, task)
	if err != nil {
		return nil, err
	}

	slog.Info("task created", "list", p.List, "custom_fields", len(task.CustomFields))
	return resp, nil
}

// setCustomField writes each supplied field with its own request, in order.
// The first failing request fails the item.
func setCustomField(ctx context.Context, api API, params execution.Params) (any, error) {
	var p SetCustomFieldParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.Task == "" {
		return nil, common.NewValidationError("task is required")
	}

	fields, err := customFieldValues(p.Field.CustomFieldsText, p.Field.CustomFieldsOptions, p.AdditionalFields.IsDateTime)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, common.NewValidationError("at least one custom field must be set")
	}

	responses := make([]any, 0, len(fields))
	for _, f := range fields {
		update := f.FieldUpdate
		resp, err := api.SetCustomField(ctx, p.Task, f.ID, &update)
		if err != nil {
			return nil, err
		}
		switch r := resp.(type) {
		case nil:
		case []any:
			responses = append(responses, r...)
		default:
			responses = append(responses, r)
		}
	}

	slog.Info("custom fields set", "task", p.Task, "fields", len(fields))
	return execution.Item{"message": "OK", "response_data": responses}, nil
}
