package erd

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemagraph/pkg/errors"
)

// Worker runs builds in isolated goroutines. Requests and results cross the
// boundary as msgpack payloads only. A Worker is safe for concurrent use.
type Worker struct {
	sem    chan struct{}
	logger *log.Logger
	build  func(Input) Result
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(l *log.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a worker running at most maxConcurrent builds at a time.
// A non-positive maxConcurrent defaults to GOMAXPROCS.
func NewWorker(maxConcurrent int, opts ...WorkerOption) *Worker {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	w := &Worker{
		sem:    make(chan struct{}, maxConcurrent),
		logger: log.New(io.Discard),
		build:  Build,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type reply struct {
	payload []byte
	err     error
}

// Build runs Build(in) in its own goroutine and waits for the reply.
//
// If ctx ends first, Build returns ctx.Err() and the late reply is dropped.
// Codec failures and panics inside the build are returned as BUILD_FAILURE.
func (w *Worker) Build(ctx context.Context, in Input) (Result, error) {
	payload, err := EncodeInput(in)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeBuildFailure, err, "encode build request")
	}

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	replies := make(chan reply, 1)
	go w.run(payload, replies)

	select {
	case r := <-replies:
		if r.err != nil {
			return Result{}, r.err
		}
		res, err := DecodeResult(r.payload)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeBuildFailure, err, "decode build result")
		}
		return res, nil
	case <-ctx.Done():
		w.logger.Debug("build abandoned", "root", in.RootObject, "reason", ctx.Err())
		return Result{}, ctx.Err()
	}
}

func (w *Worker) run(payload []byte, replies chan<- reply) {
	start := time.Now()
	defer func() { <-w.sem }()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("build worker crashed", "panic", r)
			replies <- reply{err: errors.New(errors.ErrCodeBuildFailure, "build worker crashed: %v", r)}
		}
	}()

	in, err := DecodeInput(payload)
	if err != nil {
		replies <- reply{err: errors.Wrap(errors.ErrCodeBuildFailure, err, "decode build request")}
		return
	}
	res := w.build(in)
	out, err := EncodeResult(res)
	if err != nil {
		replies <- reply{err: errors.Wrap(errors.ErrCodeBuildFailure, err, "encode build result")}
		return
	}
	w.logger.Debug("build finished", "root", in.RootObject, "nodes", len(res.Nodes), "edges", len(res.Edges), "duration", time.Since(start))
	replies <- reply{payload: out}
}
