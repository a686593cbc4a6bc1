package dialog360

import (
	"context"

	"nodebridge/internal/domain/execution"
)

// TemplateStore lists the templates available to an account.
// Implementations live in infra/ (the gateway API, or a local catalog).
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]Template, error)
}

// Transport posts a compiled message to the gateway and returns its decoded response.
type Transport interface {
	SendMessage(ctx context.Context, msg *Message) (any, error)
}

// Client is everything the node needs from the gateway for one execution.
type Client interface {
	TemplateStore
	Transport
}

// ClientFactory builds a client for the given credentials.
type ClientFactory func(creds execution.Credentials) (Client, error)

// RecipientRateLimiter defines the contract for per-recipient rate limiting.
// Implementations live in infra/ratelimit/.
type RecipientRateLimiter interface {
	// Allow checks whether a message can be sent to the given recipient.
	// Returns true if the message is allowed, false if rate limited.
	Allow(ctx context.Context, recipient string) (bool, error)
}
