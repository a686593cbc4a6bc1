package execution

import (
	"context"
	"fmt"

	"nodebridge/internal/common"

	"golang.org/x/sync/errgroup"
)

// ErrorMode decides what a batch does when one item fails.
type ErrorMode string

const (
	// ModeAbort stops the batch at the first failing item and returns its error.
	ModeAbort ErrorMode = "abort"
	// ModeContinue records the failure as an error item and keeps going.
	ModeContinue ErrorMode = "continue"
)

// BatchOptions configures RunBatch.
type BatchOptions struct {
	Mode ErrorMode

	// Parallelism bounds how many items run at once. Values below 2 run sequentially.
	Parallelism int
}

// ItemError reports which item aborted a batch.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// RunBatch applies fn to every item and assembles the output in input order.
func RunBatch(ctx context.Context, items []Params, opts BatchOptions, fn ItemFunc) ([]Item, error) {
	results := make([]any, len(items))
	errs := make([]error, len(items))

	if opts.Parallelism < 2 {
		for i, params := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := fn(ctx, params)
			if err != nil {
				if opts.Mode != ModeContinue {
					return nil, &ItemError{Index: i, Err: err}
				}
				errs[i] = err
				continue
			}
			results[i] = out
		}
		return collect(results, errs), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i, params := range items {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out, err := fn(gctx, params)
			if err != nil {
				if opts.Mode != ModeContinue {
					return &ItemError{Index: i, Err: err}
				}
				errs[i] = err
				return nil
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return collect(results, errs), nil
}

func collect(results []any, errs []error) []Item {
	items := make([]Item, 0, len(results))
	for i, out := range results {
		if errs[i] != nil {
			items = append(items, Item{
				"error":      errs[i].Error(),
				"error_kind": common.Kind(errs[i]),
				"item_index": i,
			})
			continue
		}
		items = append(items, flatten(out)...)
	}
	return items
}

// flatten turns a remote response into output items: arrays contribute one
// item per element, objects one item, and scalars are wrapped under "value".
func flatten(v any) []Item {
	switch out := v.(type) {
	case nil:
		return nil
	case Item:
		return []Item{out}
	case map[string]any:
		return []Item{Item(out)}
	case []Item:
		return out
	case []map[string]any:
		items := make([]Item, len(out))
		for i, m := range out {
			items[i] = Item(m)
		}
		return items
	case []any:
		items := make([]Item, 0, len(out))
		for _, e := range out {
			items = append(items, flatten(e)...)
		}
		return items
	default:
		return []Item{{"value": out}}
	}
}
