package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/crawl"
	"github.com/matzehuels/schemagraph/pkg/describe"
	"github.com/matzehuels/schemagraph/pkg/erd"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/observability"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// Builder runs a graph build. *erd.Worker is the production implementation.
type Builder interface {
	Build(ctx context.Context, in erd.Input) (erd.Result, error)
}

// Request identifies one diagram.
type Request struct {
	Root    string  `json:"root"`
	Version string  `json:"version"`
	Options Options `json:"options"`

	// Refresh skips the diagram cache. Describes are still served from the
	// describe cache.
	Refresh bool `json:"refresh,omitempty"`

	// Progress is called after every fetched describe. Only the request that
	// starts a shared computation reports progress.
	Progress crawl.ProgressFunc `json:"-"`
}

// Diagram is a finished, positioned graph. Diagrams are shared between
// callers and must not be mutated.
type Diagram struct {
	RequestID  string            `json:"request_id"`
	Key        string            `json:"key"`
	Root       string            `json:"root"`
	Version    string            `json:"version"`
	Options    Options           `json:"options"`
	Graph      erd.Result        `json:"-"`
	Positioned layout.Positioned `json:"positioned"`
	Flow       layout.FlowGraph  `json:"flow"`
	Truncated  bool              `json:"truncated"`
	Stats      Stats             `json:"stats"`
	CacheHit   bool              `json:"cache_hit"`

	gen uint64
}

// Stats contains execution statistics of the run that produced a diagram.
type Stats struct {
	Fetched    int           `json:"fetched"`
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	PlanTime   time.Duration `json:"plan_time"`
	BuildTime  time.Duration `json:"build_time"`
	LayoutTime time.Duration `json:"layout_time"`
}

// Runner executes diagram requests with caching and coalescing. It is safe
// for concurrent use.
type Runner struct {
	Describes *describe.Cache
	Builder   Builder
	Keyer     cache.Keyer
	Logger    *log.Logger

	diagrams *lru.Cache[string, *Diagram]
	flight   singleflight.Group

	mu        sync.Mutex
	byVersion map[string]map[string]struct{}
	gens      map[string]uint64 // bumped by InvalidateVersion
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	builder   Builder
	cacheSize int
}

// WithBuilder replaces the default worker.
func WithBuilder(b Builder) RunnerOption {
	return func(c *runnerConfig) { c.builder = b }
}

// WithDiagramCacheSize sets how many diagrams are kept in memory.
func WithDiagramCacheSize(n int) RunnerOption {
	return func(c *runnerConfig) { c.cacheSize = n }
}

// NewRunner creates a runner over a describe cache.
// If keyer is nil, a DefaultKeyer is used. If logger is nil, logs are discarded.
func NewRunner(describes *describe.Cache, keyer cache.Keyer, logger *log.Logger, opts ...RunnerOption) (*Runner, error) {
	if describes == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "describe cache is required")
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg := runnerConfig{cacheSize: DefaultDiagramCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.builder == nil {
		cfg.builder = erd.NewWorker(0, erd.WithWorkerLogger(logger))
	}

	r := &Runner{
		Describes: describes,
		Builder:   cfg.builder,
		Keyer:     keyer,
		Logger:    logger,
		byVersion: make(map[string]map[string]struct{}),
		gens:      make(map[string]uint64),
	}
	diagrams, err := lru.NewWithEvict(max(cfg.cacheSize, 1), r.onEvict)
	if err != nil {
		return nil, err
	}
	r.diagrams = diagrams
	return r, nil
}

// GetDiagram returns the diagram for req, computing it on a cache miss.
//
// The computation is shared by identical concurrent requests and is not
// cancelled when ctx ends; ctx only bounds how long this caller waits.
func (r *Runner) GetDiagram(ctx context.Context, req Request) (*Diagram, error) {
	if err := errors.ValidateEntityName(req.Root); err != nil {
		return nil, err
	}
	version, err := normalizeVersion(req.Version)
	if err != nil {
		return nil, err
	}
	req.Version = version
	req.Options = req.Options.WithDefaults()
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	key := r.Keyer.DiagramKey(req.Root, req.Version, req.Options.KeyOpts())
	hooks := observability.Cache()

	if !req.Refresh {
		if d, ok := r.diagrams.Get(key); ok {
			hooks.OnCacheHit(ctx, "diagram")
			r.Logger.Debug("diagram cache hit", "root", req.Root, "version", req.Version)
			return d.served(true), nil
		}
	}
	hooks.OnCacheMiss(ctx, "diagram")

	gen := r.generation(req.Version)
	flightKey := fmt.Sprintf("%s#%d", key, gen)
	if req.Refresh {
		flightKey = "refresh:" + flightKey
	}
	ch := r.flight.DoChan(flightKey, func() (any, error) {
		return r.compute(context.WithoutCancel(ctx), key, gen, req)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Diagram).served(res.Shared), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) compute(ctx context.Context, key string, gen uint64, req Request) (*Diagram, error) {
	hooks := observability.Pipeline()
	opts := req.Options
	start := time.Now()

	hooks.OnPlanStart(ctx, req.Root, opts.Depth)
	planOpts := []crawl.Option{crawl.WithFetchTimeout(opts.FetchTimeout), crawl.WithLogger(r.Logger)}
	if req.Progress != nil {
		planOpts = append(planOpts, crawl.WithProgress(req.Progress))
	}
	fetch := func(ctx context.Context, entity string) (*schema.EntityDescribe, error) {
		return r.Describes.GetOrFetch(ctx, req.Version, entity)
	}
	describes, err := crawl.Plan(ctx, req.Root, opts.Depth, fetch, planOpts...)
	planTime := time.Since(start)
	hooks.OnPlanComplete(ctx, req.Root, len(describes), planTime, err)
	if err != nil {
		return nil, fetchFailure(err)
	}
	r.Logger.Info("fetched describes", "root", req.Root, "count", len(describes), "duration", planTime)

	buildStart := time.Now()
	hooks.OnBuildStart(ctx, req.Root, len(describes))
	res, err := r.Builder.Build(ctx, opts.BuildInput(req.Root, describes))
	buildTime := time.Since(buildStart)
	hooks.OnBuildComplete(ctx, req.Root, len(res.Nodes), len(res.Edges), res.Truncated, buildTime, err)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeBuildFailure, err, "build %s", req.Root)
		}
		return nil, err
	}
	r.Logger.Info("built graph", "root", req.Root, "nodes", len(res.Nodes), "edges", len(res.Edges),
		"truncated", res.Truncated, "duration", buildTime)

	d := &Diagram{
		Key:     key,
		Root:    req.Root,
		Version: req.Version,
		Options: opts,
		Graph:   res,
		gen:     gen,
		Stats: Stats{
			Fetched:   len(describes),
			Nodes:     len(res.Nodes),
			Edges:     len(res.Edges),
			PlanTime:  planTime,
			BuildTime: buildTime,
		},
	}
	r.layout(ctx, d, opts.Layout)
	r.store(d)
	return d, nil
}

// Relayout returns d positioned with another mode. The graph is reused, so
// nothing is fetched or rebuilt.
func (r *Runner) Relayout(ctx context.Context, d *Diagram, mode layout.Mode) *Diagram {
	if d.Options.Layout == mode {
		return d
	}
	opts := d.Options
	opts.Layout = mode
	key := r.Keyer.DiagramKey(d.Root, d.Version, opts.KeyOpts())
	if cached, ok := r.diagrams.Get(key); ok {
		return cached.served(true)
	}

	next := &Diagram{
		Key:     key,
		Root:    d.Root,
		Version: d.Version,
		Options: opts,
		Graph:   d.Graph,
		Stats:   d.Stats,
		gen:     d.gen,
	}
	r.layout(ctx, next, mode)
	r.store(next)
	return next.served(false)
}

func (r *Runner) layout(ctx context.Context, d *Diagram, mode layout.Mode) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnLayoutStart(ctx, mode.String(), len(d.Graph.Nodes))
	d.Positioned = layout.Compute(mode, d.Graph)
	d.Flow = layout.Flow(d.Positioned)
	d.Truncated = d.Graph.Truncated
	d.Stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, mode.String(), d.Stats.LayoutTime, nil)
}

// store caches d unless its version was invalidated after d was started.
func (r *Runner) store(d *Diagram) {
	if r.generation(d.Version) != d.gen {
		return
	}
	r.diagrams.Add(d.Key, d)
	r.mu.Lock()
	if r.gens[d.Version] != d.gen {
		r.mu.Unlock()
		if cur, ok := r.diagrams.Peek(d.Key); ok && cur == d {
			r.diagrams.Remove(d.Key)
		}
		return
	}
	keys := r.byVersion[d.Version]
	if keys == nil {
		keys = make(map[string]struct{})
		r.byVersion[d.Version] = keys
	}
	keys[d.Key] = struct{}{}
	r.mu.Unlock()
}

func (r *Runner) onEvict(key string, d *Diagram) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if keys := r.byVersion[d.Version]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.byVersion, d.Version)
		}
	}
}

// InvalidateVersion drops every describe and diagram of version.
func (r *Runner) InvalidateVersion(ctx context.Context, version string) error {
	version, err := normalizeVersion(version)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.gens[version]++
	keys := make([]string, 0, len(r.byVersion[version]))
	for k := range r.byVersion[version] {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	for _, k := range keys {
		r.diagrams.Remove(k)
	}
	r.Logger.Info("invalidated version", "version", version, "diagrams", len(keys))
	return r.Describes.Invalidate(ctx, version)
}

func (r *Runner) generation(version string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[version]
}

// CachedDiagrams returns the number of diagrams held in memory.
func (r *Runner) CachedDiagrams() int {
	return r.diagrams.Len()
}

// Close drops all cached diagrams.
func (r *Runner) Close() error {
	r.diagrams.Purge()
	return nil
}

// served returns a per-caller copy carrying a fresh request id.
func (d *Diagram) served(hit bool) *Diagram {
	cp := *d
	cp.RequestID = uuid.NewString()
	cp.CacheHit = hit
	return &cp
}

func normalizeVersion(v string) (string, error) {
	if err := errors.ValidateAPIVersion(v); err != nil {
		return "", err
	}
	return errors.NormalizeAPIVersion(v), nil
}

func fetchFailure(err error) error {
	var fe *crawl.FetchError
	if stderrors.As(err, &fe) {
		return errors.Wrap(errors.ErrCodeFetchFailure, fe, "fetch %s", fe.Entity)
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeFetchFailure, err, "plan describes")
}

// FailedEntity returns the entity whose fetch failed, if err is a fetch failure.
func FailedEntity(err error) (string, bool) {
	var fe *crawl.FetchError
	if stderrors.As(err, &fe) {
		return fe.Entity, true
	}
	return "", false
}
