package execution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"nodebridge/internal/common"
)

// memoryStore is an in-memory ExecutionStore.
type memoryStore struct {
	mu        sync.Mutex
	logs      map[string]*ExecutionLog
	seq       int
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{logs: map[string]*ExecutionLog{}}
}

func (s *memoryStore) Create(_ context.Context, log *ExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.seq++
	log.ID = fmt.Sprintf("exec-%d", s.seq)
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt
	cp := *log
	s.logs[log.ID] = &cp
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*ExecutionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[id]
	if !ok {
		return nil, nil
	}
	cp := *log
	return &cp, nil
}

func (s *memoryStore) GetByIdempotencyKey(_ context.Context, key string) (*ExecutionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, log := range s.logs {
		if log.IdempotencyKey == key {
			cp := *log
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, id string, status Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[id]
	if !ok {
		return errors.New("no such execution")
	}
	log.Status = status
	log.UpdatedAt = time.Now()
	if errMsg != "" {
		log.ErrorMessage = errMsg
	}
	return nil
}

func (s *memoryStore) SaveResult(_ context.Context, id string, status Status, output []Item, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.logs[id]
	if !ok {
		return errors.New("no such execution")
	}
	now := time.Now()
	log.Status = status
	log.Output = output
	log.ErrorMessage = errMsg
	log.UpdatedAt = now
	log.FinishedAt = &now
	return nil
}

func (s *memoryStore) List(_ context.Context, filter ListFilter) ([]*ExecutionLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ExecutionLog
	for _, log := range s.logs {
		if filter.Status != "" && string(log.Status) != filter.Status {
			continue
		}
		if filter.Node != "" && log.Node != filter.Node {
			continue
		}
		cp := *log
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *memoryStore) ListStale(_ context.Context, olderThan time.Time, limit int) ([]*ExecutionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ExecutionLog
	for _, log := range s.logs {
		if log.Status == StatusQueued && log.UpdatedAt.Before(olderThan) {
			cp := *log
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// backdate moves an execution's last update into the past.
func (s *memoryStore) backdate(id string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[id].UpdatedAt = time.Now().Add(-d)
}

type recordingEnqueuer struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (e *recordingEnqueuer) EnqueueRunExecution(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.ids = append(e.ids, id)
	return nil
}

func (e *recordingEnqueuer) enqueued() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}

// echoNode is a test node with resource "echo" and operations "run" and "fail".
// "run" returns the item's params; "fail" fails items that carry "fail": true.
type echoNode struct {
	mu      sync.Mutex
	seen    []Credentials
	calls   int
	options []Option
	execErr error
}

func (n *echoNode) Name() string { return "echo" }

func (n *echoNode) Executor(_ context.Context, resource, operation string, creds Credentials) (ItemFunc, error) {
	if resource != "echo" {
		return nil, &common.UnknownResourceError{Node: "echo", Resource: resource}
	}
	if n.execErr != nil {
		return nil, n.execErr
	}
	n.mu.Lock()
	n.seen = append(n.seen, creds)
	n.mu.Unlock()

	switch operation {
	case "run", "fail":
		return func(_ context.Context, params Params) (any, error) {
			n.mu.Lock()
			n.calls++
			n.mu.Unlock()
			if fail, _ := params["fail"].(bool); fail {
				return nil, common.NewValidationError(fmt.Sprintf("item %v rejected", params["n"]))
			}
			return map[string]any(params), nil
		}, nil
	default:
		return nil, &common.UnknownOperationError{Resource: resource, Operation: operation}
	}
}

func (n *echoNode) LoadOptions(_ context.Context, method string, _ Credentials, params Params) ([]Option, error) {
	if method != "getThings" {
		return nil, &common.UnknownOperationError{Resource: "options", Operation: method}
	}
	return n.options, nil
}
