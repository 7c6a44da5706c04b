// Package pipeline turns a (root, version, options) request into a finished
// diagram.
//
// # Architecture
//
// A request runs three stages:
//
//  1. Plan: fetch every describe within depth through the describe cache
//  2. Build: construct the bounded graph inside an isolated [erd.Worker]
//  3. Layout: assign positions and derive the render contract
//
// Finished diagrams are cached in memory per full request key, so repeating
// a request skips both the network and the build. Changing any option only
// misses that one key. Identical concurrent requests share one computation.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(describes, nil, logger)
//	if err != nil {
//	    return err
//	}
//	d, err := runner.GetDiagram(ctx, pipeline.Request{
//	    Root:    "Account",
//	    Version: "v60.0",
//	    Options: pipeline.DefaultOptions(),
//	})
//
// Interactive surfaces use a [View] so that an older in-flight request never
// overwrites the result of a newer one:
//
//	view := runner.NewView()
//	d, err := view.Request(ctx, req) // SUPERSEDED if a newer request started
package pipeline

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/schemagraph/pkg/cache"
	"github.com/matzehuels/schemagraph/pkg/erd"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	DefaultDepth        = 1
	MaxDepth            = 10
	DefaultMaxNodes     = 500
	DefaultMaxEdges     = 1000
	DefaultFetchTimeout = 30 * time.Second
	DefaultLayout       = layout.Hierarchical

	// DefaultDiagramCacheSize is the number of finished diagrams kept in memory.
	DefaultDiagramCacheSize = 128
)

// =============================================================================
// Options - Request Configuration
// =============================================================================

// Options controls graph construction and layout for one request.
type Options struct {
	Depth           int           `json:"depth" validate:"gte=0,lte=10"`
	IncludeStandard bool          `json:"include_standard"`
	IncludeCustom   bool          `json:"include_custom"`
	Layout          layout.Mode   `json:"layout" validate:"layoutmode"`
	MaxNodes        int           `json:"max_nodes" validate:"gte=1"`
	MaxEdges        int           `json:"max_edges" validate:"gte=1"`
	FetchTimeout    time.Duration `json:"-" validate:"gte=0"`
}

// DefaultOptions returns the options used when a caller sets nothing.
func DefaultOptions() Options {
	return Options{
		Depth:           DefaultDepth,
		IncludeStandard: true,
		IncludeCustom:   true,
		Layout:          DefaultLayout,
		MaxNodes:        DefaultMaxNodes,
		MaxEdges:        DefaultMaxEdges,
		FetchTimeout:    DefaultFetchTimeout,
	}
}

// WithDefaults fills unset caps and timeout. Depth, filters and layout are
// taken as given since their zero values are meaningful.
func (o Options) WithDefaults() Options {
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.MaxEdges == 0 {
		o.MaxEdges = DefaultMaxEdges
	}
	if o.FetchTimeout == 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Validate checks the options. Failures carry INVALID_INPUT.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options: %s", fieldMessage(verrs[0]))
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	return nil
}

// KeyOpts returns the cache key options for these options.
func (o Options) KeyOpts() cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{
		Depth:           o.Depth,
		IncludeStandard: o.IncludeStandard,
		IncludeCustom:   o.IncludeCustom,
		Layout:          o.Layout.String(),
		MaxNodes:        o.MaxNodes,
		MaxEdges:        o.MaxEdges,
	}
}

// BuildInput returns the worker build request for root.
func (o Options) BuildInput(root string, describes map[string]*schema.EntityDescribe) erd.Input {
	return erd.Input{
		RootObject:      root,
		Depth:           o.Depth,
		IncludeStandard: o.IncludeStandard,
		IncludeCustom:   o.IncludeCustom,
		Describes:       describes,
		MaxNodes:        o.MaxNodes,
		MaxEdges:        o.MaxEdges,
	}
}

// =============================================================================
// Validation
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("layoutmode", func(fl validator.FieldLevel) bool {
		m := layout.Mode(fl.Field().Int())
		return m >= layout.Hierarchical && m <= layout.Grid
	})
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		o := sl.Current().Interface().(Options)
		if !o.IncludeStandard && !o.IncludeCustom {
			sl.ReportError(o.IncludeCustom, "include_custom", "IncludeCustom", "onefilter", "")
		}
	}, Options{})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "layoutmode":
		return fmt.Sprintf("%s must be hierarchical, radial or grid", fe.Field())
	case "onefilter":
		return "at least one of include_standard and include_custom must be set"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
