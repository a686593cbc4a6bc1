package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nodebridge/internal/domain/execution"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const tableName = "executions"

var _ execution.ExecutionStore = (*SupabaseStore)(nil)

// SupabaseStore implements ExecutionStore using the Supabase Go SDK.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore creates a new Supabase-backed execution store.
func NewSupabaseStore(supabaseURL, serviceKey string) (*SupabaseStore, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// executionRow is the PostgREST representation of an execution.
type executionRow struct {
	ID             string             `json:"id,omitempty"`
	IdempotencyKey *string            `json:"idempotency_key,omitempty"`
	Node           string             `json:"node"`
	Resource       string             `json:"resource"`
	Operation      string             `json:"operation"`
	Items          []execution.Params `json:"items"`
	ContinueOnFail bool               `json:"continue_on_fail"`
	Parallelism    int                `json:"parallelism"`
	Status         string             `json:"status"`
	Output         []execution.Item   `json:"output,omitempty"`
	ErrorMessage   *string            `json:"error_message,omitempty"`
	CreatedAt      string             `json:"created_at,omitempty"`
	UpdatedAt      string             `json:"updated_at,omitempty"`
	StartedAt      *string            `json:"started_at,omitempty"`
	FinishedAt     *string            `json:"finished_at,omitempty"`
}

// Create inserts a new execution record.
func (s *SupabaseStore) Create(ctx context.Context, log *execution.ExecutionLog) error {
	row := executionRow{
		Node:           log.Node,
		Resource:       log.Resource,
		Operation:      log.Operation,
		Items:          log.Items,
		ContinueOnFail: log.ContinueOnFail,
		Parallelism:    log.Parallelism,
		Status:         string(log.Status),
	}
	if log.IdempotencyKey != "" {
		row.IdempotencyKey = &log.IdempotencyKey
	}

	data, _, err := s.client.From(tableName).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting execution: %w", err)
	}

	var results []executionRow
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parsing insert response: %w", err)
	}

	if len(results) > 0 {
		log.ID = results[0].ID
		log.CreatedAt = parseTime(results[0].CreatedAt)
		log.UpdatedAt = parseTime(results[0].UpdatedAt)
	}

	return nil
}

// GetByID retrieves an execution by its ID. Returns nil, nil if no record is found.
func (s *SupabaseStore) GetByID(ctx context.Context, id string) (*execution.ExecutionLog, error) {
	return s.getOne("id", id)
}

// GetByIdempotencyKey retrieves an execution by its idempotency key.
// Returns nil, nil if no record is found.
func (s *SupabaseStore) GetByIdempotencyKey(ctx context.Context, key string) (*execution.ExecutionLog, error) {
	return s.getOne("idempotency_key", key)
}

func (s *SupabaseStore) getOne(column, value string) (*execution.ExecutionLog, error) {
	data, _, err := s.client.From(tableName).Select("*", "", false).Eq(column, value).Range(0, 0, "").Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching execution by %s: %w", column, err)
	}

	var rows []executionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing execution: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rowToLog(&rows[0]), nil
}

// UpdateStatus moves an execution to a new status.
func (s *SupabaseStore) UpdateStatus(ctx context.Context, id string, status execution.Status, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"status":     string(status),
		"updated_at": now,
	}
	if errMsg != "" {
		update["error_message"] = errMsg
	}
	if status == execution.StatusProcessing {
		update["started_at"] = now
	}

	_, _, err := s.client.From(tableName).Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("updating execution status: %w", err)
	}

	return nil
}

// SaveResult stores the output of a finished execution.
func (s *SupabaseStore) SaveResult(ctx context.Context, id string, status execution.Status, output []execution.Item, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"status":      string(status),
		"updated_at":  now,
		"finished_at": now,
	}
	if output != nil {
		update["output"] = output
	}
	if errMsg != "" {
		update["error_message"] = errMsg
	}

	_, _, err := s.client.From(tableName).Update(update, "", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("saving execution result: %w", err)
	}

	return nil
}

// List retrieves executions with pagination and filtering.
func (s *SupabaseStore) List(ctx context.Context, filter execution.ListFilter) ([]*execution.ExecutionLog, int, error) {
	filter.Normalize()
	offset := (filter.Page - 1) * filter.PageSize

	query := s.client.From(tableName).Select("*", "exact", false)

	if filter.Status != "" {
		query = query.Eq("status", filter.Status)
	}
	if filter.Node != "" {
		query = query.Eq("node", filter.Node)
	}

	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	query = query.Range(offset, offset+filter.PageSize-1, "")

	data, count, err := query.Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("listing executions: %w", err)
	}

	logs, err := decodeRows(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing execution list: %w", err)
	}

	return logs, int(count), nil
}

// ListStale retrieves executions still queued and untouched since olderThan.
func (s *SupabaseStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*execution.ExecutionLog, error) {
	if limit <= 0 {
		limit = 50
	}

	threshold := olderThan.UTC().Format(time.RFC3339Nano)

	query := s.client.From(tableName).
		Select("*", "", false).
		Eq("status", string(execution.StatusQueued)).
		Lt("updated_at", threshold).
		Order("updated_at", &postgrest.OrderOpts{Ascending: true}).
		Range(0, limit-1, "")

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing stale executions: %w", err)
	}

	logs, err := decodeRows(data)
	if err != nil {
		return nil, fmt.Errorf("parsing stale executions: %w", err)
	}

	return logs, nil
}

func decodeRows(data []byte) ([]*execution.ExecutionLog, error) {
	var rows []executionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	logs := make([]*execution.ExecutionLog, len(rows))
	for i := range rows {
		logs[i] = rowToLog(&rows[i])
	}
	return logs, nil
}

// rowToLog converts an executionRow to an ExecutionLog.
func rowToLog(row *executionRow) *execution.ExecutionLog {
	log := &execution.ExecutionLog{
		ID:             row.ID,
		Node:           row.Node,
		Resource:       row.Resource,
		Operation:      row.Operation,
		Items:          row.Items,
		ContinueOnFail: row.ContinueOnFail,
		Parallelism:    row.Parallelism,
		Status:         execution.Status(row.Status),
		Output:         row.Output,
		CreatedAt:      parseTime(row.CreatedAt),
		UpdatedAt:      parseTime(row.UpdatedAt),
		StartedAt:      parseOptionalTime(row.StartedAt),
		FinishedAt:     parseOptionalTime(row.FinishedAt),
	}

	if row.IdempotencyKey != nil {
		log.IdempotencyKey = *row.IdempotencyKey
	}
	if row.ErrorMessage != nil {
		log.ErrorMessage = *row.ErrorMessage
	}

	return log
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseOptionalTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := parseTime(*s)
	if t.IsZero() {
		return nil
	}
	return &t
}
