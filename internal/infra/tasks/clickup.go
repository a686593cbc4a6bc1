package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/clickup"
	"nodebridge/internal/domain/execution"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the ClickUp v2 REST API.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

const providerName = "clickup"

var _ clickup.API = (*ClickUpClient)(nil)

// ClickUpClient talks to the ClickUp REST API.
type ClickUpClient struct {
	http *resty.Client
}

// NewClickUpClient creates a new ClickUp client. Personal access tokens are
// sent as-is in the Authorization header; OAuth2 tokens use the Bearer scheme.
func NewClickUpClient(baseURL, token, authentication string, timeout time.Duration) *ClickUpClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	auth := token
	if authentication == execution.AuthOAuth2 {
		auth = "Bearer " + token
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", auth)

	return &ClickUpClient{http: client}
}

// CreateTask creates a task in the given list.
func (c *ClickUpClient) CreateTask(ctx context.Context, listID string, task *clickup.TaskRequest) (any, error) {
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/list/%s/task", url.PathEscape(listID)), nil, task)
	if err != nil {
		return nil, err
	}
	return decodeAny(body)
}

// SetCustomField writes one custom field value on a task.
func (c *ClickUpClient) SetCustomField(ctx context.Context, taskID, fieldID string, update *clickup.FieldUpdate) (any, error) {
	path := fmt.Sprintf("/task/%s/field/%s", url.PathEscape(taskID), url.PathEscape(fieldID))
	body, err := c.do(ctx, http.MethodPost, path, nil, update)
	if err != nil {
		return nil, err
	}
	return decodeAny(body)
}

// Get performs a GET request and decodes the response into out.
func (c *ClickUpClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing clickup response from %s: %w", path, err)
	}
	return nil
}

func (c *ClickUpClient) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, common.NewTransportError(providerName, 0, err)
	}
	if resp.IsError() {
		return nil, common.NewResponseError(providerName, resp.StatusCode(), resp.Body(), errorMessage(resp))
	}
	return resp.Body(), nil
}

func decodeAny(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing clickup response: %w", err)
	}
	return out, nil
}

// errorMessage extracts the API error text, e.g. {"err":"Team not authorized","ECODE":"OAUTH_027"}.
func errorMessage(resp *resty.Response) string {
	body := resp.Body()
	msg := gjson.GetBytes(body, "err").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "message").String()
	}
	if msg == "" {
		return fmt.Sprintf("clickup API error: status %d", resp.StatusCode())
	}
	if code := gjson.GetBytes(body, "ECODE").String(); code != "" {
		return fmt.Sprintf("%s (%s)", msg, code)
	}
	return msg
}
