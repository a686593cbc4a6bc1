package execution

import (
	"fmt"

	"nodebridge/internal/common"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds the parameters of one input item as supplied by the caller.
type Params map[string]any

// Decode copies the parameters into a typed struct using its json tags.
// Scalars are converted weakly ("3" decodes into an int field).
func (p Params) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("building parameter decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return common.NewValidationError("invalid parameters: " + err.Error())
	}
	return nil
}

// Item is one output record of an execution.
type Item map[string]any

// Authentication modes accepted in Credentials.Authentication.
const (
	AuthAccessToken = "accessToken"
	AuthOAuth2      = "oAuth2"
)

// Credentials carries the secrets a node needs to reach its remote API.
// Empty fields fall back to the configured defaults.
type Credentials struct {
	APIKey         string `json:"api_key,omitempty"`
	Token          string `json:"token,omitempty"`
	Authentication string `json:"authentication,omitempty"`
}

// IsZero reports whether no credential was supplied.
func (c Credentials) IsZero() bool {
	return c.APIKey == "" && c.Token == "" && c.Authentication == ""
}

// Option is one entry of a selection dropdown.
type Option struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ExecuteRequest is the API request payload for running a node over a batch of items.
type ExecuteRequest struct {
	Node           string      `json:"node" binding:"required"`
	Resource       string      `json:"resource" binding:"required"`
	Operation      string      `json:"operation" binding:"required"`
	Credentials    Credentials `json:"credentials"`
	ContinueOnFail bool        `json:"continue_on_fail"`
	Parallelism    int         `json:"parallelism" binding:"min=0,max=32"`
	Items          []Params    `json:"items" binding:"required,min=1"`
	IdempotencyKey string      `json:"idempotency_key"`
}

// BatchOptions derives the batch policy from the request.
func (r *ExecuteRequest) BatchOptions() BatchOptions {
	mode := ModeAbort
	if r.ContinueOnFail {
		mode = ModeContinue
	}
	return BatchOptions{Mode: mode, Parallelism: r.Parallelism}
}

// ExecuteResponse is the API response payload of a synchronous execution.
type ExecuteResponse struct {
	Node      string `json:"node"`
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
	Items     []Item `json:"items"`
}

// EnqueueResponse is the API response payload after an execution is queued.
type EnqueueResponse struct {
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Node           string `json:"node"`
	Status         string `json:"status"`
}

// OptionsRequest is the API request payload for loading dropdown options.
type OptionsRequest struct {
	Credentials Credentials `json:"credentials"`
	Parameters  Params      `json:"parameters"`
}
