// Package nodes wires the concrete node implementations to their API clients.
package nodes

import (
	"nodebridge/internal/common"
	"nodebridge/internal/config"
	"nodebridge/internal/domain/clickup"
	"nodebridge/internal/domain/dialog360"
	"nodebridge/internal/domain/execution"
	"nodebridge/internal/infra/tasks"
	"nodebridge/internal/infra/template"
	"nodebridge/internal/infra/whatsapp"
)

// NewRegistry builds the registry of every node this service hosts.
// Credentials missing from a request fall back to the configured defaults.
// limiter may be nil to disable per-recipient WhatsApp limits.
func NewRegistry(cfg *config.Config, limiter dialog360.RecipientRateLimiter) (*execution.Registry, error) {
	var catalog *template.Catalog
	if cfg.Dialog360.CatalogDir != "" {
		c, err := template.NewCatalog(cfg.Dialog360.CatalogDir)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	return execution.NewRegistry(
		dialog360.NewNode(Dialog360Clients(cfg, catalog), limiter),
		clickup.NewNode(ClickUpClients(cfg)),
	), nil
}

// catalogClient lists templates from a local catalog and sends through the gateway.
type catalogClient struct {
	dialog360.TemplateStore
	dialog360.Transport
}

// Dialog360Clients returns a factory for 360Dialog clients. When catalog is
// non-nil, templates are listed from it instead of the gateway.
func Dialog360Clients(cfg *config.Config, catalog *template.Catalog) dialog360.ClientFactory {
	return func(creds execution.Credentials) (dialog360.Client, error) {
		apiKey := creds.APIKey
		if apiKey == "" {
			apiKey = cfg.Dialog360.APIKey
		}
		if apiKey == "" && catalog == nil {
			return nil, common.NewUnauthorizedError("dialog360 api key is not configured")
		}

		client := whatsapp.NewDialog360Client(cfg.Dialog360.BaseURL, apiKey, cfg.HTTPClient.Timeout())
		if catalog != nil {
			return catalogClient{TemplateStore: catalog, Transport: client}, nil
		}
		return client, nil
	}
}

// ClickUpClients returns a factory for ClickUp clients.
func ClickUpClients(cfg *config.Config) clickup.ClientFactory {
	return func(creds execution.Credentials) (clickup.API, error) {
		token, auth := creds.Token, creds.Authentication
		if token == "" {
			token = cfg.ClickUp.Token
			if auth == "" {
				auth = cfg.ClickUp.Authentication
			}
		}
		if token == "" {
			return nil, common.NewUnauthorizedError("clickup token is not configured")
		}
		if auth == "" {
			auth = execution.AuthAccessToken
		}
		if auth != execution.AuthAccessToken && auth != execution.AuthOAuth2 {
			return nil, common.NewValidationError("authentication must be accessToken or oAuth2")
		}

		return tasks.NewClickUpClient(cfg.ClickUp.BaseURL, token, auth, cfg.HTTPClient.Timeout()), nil
	}
}
