// Package crawl collects the describes needed to draw a diagram.
//
// [Plan] walks the relationship graph breadth-first from a root entity up to
// a depth bound, fetching each entity once. Entities at the depth boundary
// are fetched so their edges are known, but their neighbors are not
// enqueued. Enqueue order follows the describe's field order, then its child
// relationship order, which makes the visiting order deterministic for a
// fixed schema.
//
// The traversal is sequential: at most one fetch is in flight per Plan call.
// The first failed fetch aborts the traversal with a [*FetchError].
package crawl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// FetchFunc resolves one entity to its describe.
type FetchFunc func(ctx context.Context, entity string) (*schema.EntityDescribe, error)

// ProgressFunc is called after each successful fetch.
type ProgressFunc func(entity string, level, fetched int)

// FetchError reports the entity whose fetch aborted the traversal.
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type options struct {
	fetchTimeout time.Duration
	logger       *log.Logger
	progress     ProgressFunc
}

// Option configures Plan.
type Option func(*options)

// WithFetchTimeout bounds each individual fetch. Expiry surfaces as a
// FetchError wrapping context.DeadlineExceeded.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) { o.fetchTimeout = d }
}

// WithLogger sets the logger for per-entity debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress registers a callback invoked after each fetch.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

type item struct {
	entity string
	level  int
}

// Plan fetches root and every entity reachable within depth relationship
// hops. It returns the visited describes keyed by entity name.
func Plan(ctx context.Context, root string, depth int, fetch FetchFunc, opts ...Option) (map[string]*schema.EntityDescribe, error) {
	if depth < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "depth must be >= 0, got %d", depth)
	}
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}

	visited := make(map[string]*schema.EntityDescribe)
	queue := []item{{entity: root}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		it := queue[0]
		queue = queue[1:]

		if _, seen := visited[it.entity]; seen || it.level > depth {
			continue
		}

		desc, err := fetchOne(ctx, fetch, it.entity, o.fetchTimeout)
		if err != nil {
			o.logger.Debug("fetch failed", "entity", it.entity, "level", it.level, "error", err)
			return nil, &FetchError{Entity: it.entity, Err: err}
		}
		visited[it.entity] = desc
		o.logger.Debug("fetched", "entity", it.entity, "level", it.level)
		if o.progress != nil {
			o.progress(it.entity, it.level, len(visited))
		}

		if it.level >= depth {
			continue
		}
		for _, next := range desc.Neighbors() {
			if _, seen := visited[next]; !seen {
				queue = append(queue, item{entity: next, level: it.level + 1})
			}
		}
	}
	return visited, nil
}

func fetchOne(ctx context.Context, fetch FetchFunc, entity string, timeout time.Duration) (*schema.EntityDescribe, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	desc, err := fetch(ctx, entity)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, fmt.Errorf("empty describe for %s", entity)
	}
	return desc, nil
}
