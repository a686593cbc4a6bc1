package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/dialog360"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the production 360Dialog WhatsApp API.
const DefaultBaseURL = "https://waba.360dialog.io"

// APIKeyHeader carries the account API key on every request.
const APIKeyHeader = "D360-API-KEY"

const (
	providerName  = "dialog360"
	templatesPath = "/v1/configs/templates"
	messagesPath  = "/v1/messages"
)

var _ dialog360.Client = (*Dialog360Client)(nil)

// Dialog360Client lists templates and sends messages using the 360Dialog API.
// It never retries: a resent template message reaches the recipient twice.
type Dialog360Client struct {
	http *resty.Client
}

// NewDialog360Client creates a new 360Dialog client.
func NewDialog360Client(baseURL, apiKey string, timeout time.Duration) *Dialog360Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader(APIKeyHeader, apiKey)

	return &Dialog360Client{http: client}
}

// ListTemplates fetches and decodes the account's template listing.
func (c *Dialog360Client) ListTemplates(ctx context.Context) ([]dialog360.Template, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(templatesPath)
	if err != nil {
		return nil, common.NewTransportError(providerName, 0, err)
	}
	if resp.IsError() {
		return nil, common.NewResponseError(providerName, resp.StatusCode(), resp.Body(), errorMessage(resp))
	}

	templates, err := dialog360.DecodeTemplates(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parsing template listing: %w", err)
	}
	return templates, nil
}

// SendMessage posts a compiled template message and returns the decoded response.
func (c *Dialog360Client) SendMessage(ctx context.Context, msg *dialog360.Message) (any, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(messagesPath)
	if err != nil {
		return nil, common.NewTransportError(providerName, 0, err)
	}
	if resp.IsError() {
		return nil, common.NewResponseError(providerName, resp.StatusCode(), resp.Body(), errorMessage(resp))
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, nil
	}

	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing send response: %w", err)
	}
	return out, nil
}

// errorMessage extracts the most specific message from an error response.
func errorMessage(resp *resty.Response) string {
	body := resp.Body()
	for _, path := range []string{"meta.developer_message", "errors.0.details", "errors.0.title", "error.message", "message"} {
		if msg := gjson.GetBytes(body, path).String(); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("360dialog API error: status %d", resp.StatusCode())
}
