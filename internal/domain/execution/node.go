package execution

import (
	"context"
	"sort"

	"nodebridge/internal/common"
)

// ItemFunc runs one operation for one input item and returns the remote response.
// A returned slice is flattened into several output items.
type ItemFunc func(ctx context.Context, params Params) (any, error)

// Node defines the contract for an integration node.
// Implementations live in domain/ (e.g., dialog360, clickup).
type Node interface {
	// Name returns the identifier callers use to address the node.
	Name() string

	// Executor resolves the resource/operation pair and returns the function
	// that runs it for a single item.
	Executor(ctx context.Context, resource, operation string, creds Credentials) (ItemFunc, error)

	// LoadOptions populates a selection dropdown by querying the remote API.
	LoadOptions(ctx context.Context, method string, creds Credentials, params Params) ([]Option, error)
}

// Registry resolves nodes by name and runs batches against them.
type Registry struct {
	nodes map[string]Node
}

// NewRegistry creates a registry holding the given nodes.
func NewRegistry(nodes ...Node) *Registry {
	m := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		m[n.Name()] = n
	}
	return &Registry{nodes: m}
}

// Get returns the node registered under name.
func (r *Registry) Get(name string) (Node, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, common.NewNotFoundError("node", name)
	}
	return n, nil
}

// Names lists the registered node names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes req against its node. Errors resolving the resource or operation
// are reported against every item, so the batch policy decides whether they abort.
func (r *Registry) Run(ctx context.Context, req *ExecuteRequest) ([]Item, error) {
	node, err := r.Get(req.Node)
	if err != nil {
		return nil, err
	}

	fn, err := node.Executor(ctx, req.Resource, req.Operation, req.Credentials)
	if err != nil {
		fn = func(context.Context, Params) (any, error) { return nil, err }
	}

	return RunBatch(ctx, req.Items, req.BatchOptions(), fn)
}

// LoadOptions forwards an options lookup to the named node.
func (r *Registry) LoadOptions(ctx context.Context, nodeName, method string, creds Credentials, params Params) ([]Option, error) {
	node, err := r.Get(nodeName)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = Params{}
	}
	return node.LoadOptions(ctx, method, creds, params)
}
