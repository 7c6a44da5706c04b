package pipeline

import (
	"context"
	"sync"

	"github.com/matzehuels/schemagraph/pkg/errors"
)

// View is one interactive surface showing a single diagram at a time.
// Only the most recent request of a view may deliver a result.
type View struct {
	runner *Runner

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewView creates a view backed by r.
func (r *Runner) NewView() *View {
	return &View{runner: r}
}

// Request starts req, cancelling the view's previous request. If another
// request is issued before this one completes, Request returns a
// SUPERSEDED error instead of its result.
func (v *View) Request(ctx context.Context, req Request) (*Diagram, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.seq++
	seq := v.seq
	v.cancel = cancel
	v.mu.Unlock()

	d, err := v.runner.GetDiagram(ctx, req)

	v.mu.Lock()
	current := v.seq == seq
	if current {
		v.cancel = nil
	}
	v.mu.Unlock()

	if !current {
		return nil, errors.New(errors.ErrCodeSuperseded, "request for %s was superseded", req.Root)
	}
	return d, err
}

// Cancel abandons the view's in-flight request, if any. The abandoned
// request returns SUPERSEDED.
func (v *View) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.seq++
}
