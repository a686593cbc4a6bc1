package execution

import "time"

// Status represents the lifecycle state of a queued execution.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// ExecutionLog represents a persisted queued execution.
// Credentials are never stored; the worker runs with the configured defaults.
type ExecutionLog struct {
	ID             string     `json:"id"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	Node           string     `json:"node"`
	Resource       string     `json:"resource"`
	Operation      string     `json:"operation"`
	Items          []Params   `json:"items"`
	ContinueOnFail bool       `json:"continue_on_fail"`
	Parallelism    int        `json:"parallelism"`
	Status         Status     `json:"status"`
	Output         []Item     `json:"output,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// Request rebuilds the execute request stored in the log.
func (l *ExecutionLog) Request() *ExecuteRequest {
	return &ExecuteRequest{
		Node:           l.Node,
		Resource:       l.Resource,
		Operation:      l.Operation,
		ContinueOnFail: l.ContinueOnFail,
		Parallelism:    l.Parallelism,
		Items:          l.Items,
		IdempotencyKey: l.IdempotencyKey,
	}
}

// ListFilter defines pagination and filtering options for listing executions.
type ListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
	Node     string `form:"node"`
}

// Normalize applies the default page and page size.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// ListResponse wraps a paginated list of executions.
type ListResponse struct {
	Executions []*ExecutionLog `json:"executions"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}
