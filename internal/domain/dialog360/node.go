package dialog360

import (
	"context"
	"fmt"
	"log/slog"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/execution"
)

// NodeName is the name the dialog360 node is registered under.
const NodeName = "dialog360"

const (
	ResourceTemplates = "templates"
	ResourceMessages  = "messages"

	OperationGet  = "get"
	OperationSend = "send"

	OptionsTemplates = "getTemplates"
)

var _ execution.Node = (*Node)(nil)

// Node lists templates and sends template messages through a 360Dialog gateway.
type Node struct {
	clients ClientFactory
	limiter RecipientRateLimiter
}

// NewNode creates the dialog360 node. limiter may be nil to disable
// per-recipient rate limiting.
func NewNode(clients ClientFactory, limiter RecipientRateLimiter) *Node {
	return &Node{clients: clients, limiter: limiter}
}

// Name returns the node identifier.
func (n *Node) Name() string {
	return NodeName
}

// Executor resolves templates:get and messages:send.
func (n *Node) Executor(ctx context.Context, resource, operation string, creds execution.Credentials) (execution.ItemFunc, error) {
	var run func(context.Context, Client, execution.Params) (any, error)

	switch resource {
	case ResourceTemplates:
		if operation != OperationGet {
			return nil, &common.UnknownOperationError{Resource: resource, Operation: operation}
		}
		run = n.getTemplates
	case ResourceMessages:
		if operation != OperationSend {
			return nil, &common.UnknownOperationError{Resource: resource, Operation: operation}
		}
		run = n.sendMessage
	default:
		return nil, &common.UnknownResourceError{Node: NodeName, Resource: resource}
	}

	client, err := n.clients(creds)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, params execution.Params) (any, error) {
		return run(ctx, client, params)
	}, nil
}

// LoadOptions supports getTemplates, which lists template names for the dropdown.
func (n *Node) LoadOptions(ctx context.Context, method string, creds execution.Credentials, _ execution.Params) ([]execution.Option, error) {
	if method != OptionsTemplates {
		return nil, &common.UnknownOperationError{Resource: "options", Operation: method}
	}

	client, err := n.clients(creds)
	if err != nil {
		return nil, err
	}

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]execution.Option, 0, len(templates))
	for _, t := range templates {
		options = append(options, execution.Option{
			Name:  fmt.Sprintf("%s (%s)", t.Name, t.Language),
			Value: t.Name,
		})
	}
	return options, nil
}

type getTemplatesParams struct {
	AdditionalFields struct {
		Name string `json:"name"`
	} `json:"additional_fields"`
}

// getTemplates returns every template, or only the one named in additional_fields.name.
func (n *Node) getTemplates(ctx context.Context, client Client, params execution.Params) (any, error) {
	var p getTemplatesParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	if p.AdditionalFields.Name != "" {
		tmpl, err := FindTemplate(templates, p.AdditionalFields.Name)
		if err != nil {
			return nil, err
		}
		return tmpl.Object()
	}

	out := make([]any, 0, len(templates))
	for _, t := range templates {
		obj, err := t.Object()
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

type sendParams struct {
	Template         string `json:"template"`
	Recipient        string `json:"recipient"`
	AdditionalFields struct {
		Image string `json:"image"`
		Body  string `json:"body"`
	} `json:"additional_fields"`
}

// sendMessage fetches the template, compiles it with the item's values and
// posts the result. Every validation happens before the message is sent.
func (n *Node) sendMessage(ctx context.Context, client Client, params execution.Params) (any, error) {
	var p sendParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.Template == "" {
		return nil, common.NewValidationError("template is required")
	}
	if p.Recipient == "" {
		return nil, common.NewValidationError("recipient is required")
	}

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	tmpl, err := FindTemplate(templates, p.Template)
	if err != nil {
		return nil, err
	}

	msg, err := Compile(tmpl, Input{
		Recipient:  p.Recipient,
		ImageURLs:  ParseList(p.AdditionalFields.Image),
		BodyValues: ParseList(p.AdditionalFields.Body),
	})
	if err != nil {
		return nil, err
	}

	if n.limiter != nil {
		allowed, err := n.limiter.Allow(ctx, p.Recipient)
		if err != nil {
			// Fail open: Redis being down must not block sends
			slog.Error("rate limit check failed, proceeding without limit", "recipient", p.Recipient, "error", err)
		} else if !allowed {
			return nil, common.NewValidationError(fmt.Sprintf("rate limit exceeded for recipient: %s", p.Recipient))
		}
	}

	resp, err := client.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	slog.Info("template message sent",
		"template", tmpl.Name,
		"language", tmpl.Language,
		"to", p.Recipient,
		"components", len(msg.Template.Components),
	)

	return resp, nil
}
