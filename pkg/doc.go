// Package pkg provides the core libraries for schemagraph, a relationship
// diagram engine for Salesforce orgs.
//
// # Overview
//
// schemagraph crawls entity describes outward from a root object, builds a
// bounded relationship graph and lays it out for rendering. The pkg
// directory is organized into these areas:
//
//  1. Domain logic: [schema], [crawl], [erd] and [layout]
//  2. Orchestration: [describe] and [pipeline]
//  3. Output: [io], [render] and [render/nodelink]
//  4. Infrastructure: [cache], [config], [session], [observability] and [errors]
//  5. Transport: [integrations], [integrations/salesforce] and [server]
//
// # Architecture
//
// The data flow for one diagram request:
//
//	Salesforce REST API
//	         ↓
//	    [integrations/salesforce] (versions, sobjects, describes)
//	         ↓
//	    [describe] (in-flight dedup + persistent describe cache)
//	         ↓
//	    [crawl] (level-bounded describe planning)
//	         ↓
//	    [erd] (bounded graph build)
//	         ↓
//	    [layout] (hierarchical, radial or grid positions)
//	         ↓
//	    JSON render contract, DOT, SVG or PNG
//
// [pipeline] ties these steps together behind a diagram cache keyed by root,
// version and options.
//
// # Quick Start
//
//	client := salesforce.NewClient(salesforce.Options{
//	    InstanceURL: "https://acme.my.salesforce.com",
//	    AccessToken: token,
//	})
//	describes := describe.NewCache(client)
//	runner, _ := pipeline.NewRunner(describes, cache.NewDefaultKeyer(), logger)
//
//	d, _ := runner.GetDiagram(ctx, pipeline.Request{
//	    Root:    "Account",
//	    Version: "v60.0",
//	    Options: pipeline.DefaultOptions(),
//	})
//	svg, _ := io.Render(ctx, d.Positioned, render.FormatSVG, nodelink.Options{})
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/erd/...        # Specific package
//	go test -run Example ./...   # Examples only
//
// [schema]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/schema
// [crawl]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/crawl
// [erd]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/erd
// [layout]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/layout
// [describe]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/describe
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/config
// [session]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/errors
// [integrations]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/integrations
// [integrations/salesforce]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/integrations/salesforce
// [server]: https://pkg.go.dev/github.com/matzehuels/schemagraph/pkg/server
package pkg
