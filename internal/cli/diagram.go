package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/errors"
	schemaio "github.com/matzehuels/schemagraph/pkg/io"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
	"github.com/matzehuels/schemagraph/pkg/render"
	"github.com/matzehuels/schemagraph/pkg/render/nodelink"
)

// diagramFlags are the option overrides shared by diagram and browse.
// Unset flags keep the configured defaults.
type diagramFlags struct {
	depth          int
	layout         string
	standard       bool
	custom         bool
	maxNodes       int
	maxEdges       int
	refresh        bool
	detailed       bool
	hideEdgeLabels bool
}

func (f *diagramFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVarP(&f.depth, "depth", "d", pipeline.DefaultDepth, "relationship hops from the root (0-10)")
	fs.StringVarP(&f.layout, "layout", "l", pipeline.DefaultLayout.String(), "layout: hierarchical, radial, grid")
	fs.BoolVar(&f.standard, "standard", true, "include standard objects")
	fs.BoolVar(&f.custom, "custom", true, "include custom objects")
	fs.IntVar(&f.maxNodes, "max-nodes", pipeline.DefaultMaxNodes, "node cap")
	fs.IntVar(&f.maxEdges, "max-edges", pipeline.DefaultMaxEdges, "edge cap")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute even if the diagram is cached")
}

// options applies the flags the user set on top of defaults.
func (f *diagramFlags) options(cmd *cobra.Command, defaults pipeline.Options) (pipeline.Options, error) {
	opts := defaults
	fs := cmd.Flags()
	if fs.Changed("depth") {
		opts.Depth = f.depth
	}
	if fs.Changed("layout") {
		mode, err := layout.ParseMode(f.layout)
		if err != nil {
			return opts, err
		}
		opts.Layout = mode
	}
	if fs.Changed("standard") {
		opts.IncludeStandard = f.standard
	}
	if fs.Changed("custom") {
		opts.IncludeCustom = f.custom
	}
	if fs.Changed("max-nodes") {
		opts.MaxNodes = f.maxNodes
	}
	if fs.Changed("max-edges") {
		opts.MaxEdges = f.maxEdges
	}
	return opts, opts.WithDefaults().Validate()
}

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	var (
		flags   diagramFlags
		format  string
		output  string
		nodeOut nodelink.Options
	)

	cmd := &cobra.Command{
		Use:   "diagram <object>",
		Short: "Build and export the relationship diagram of an object",
		Long: `Crawl the org outward from <object>, build the relationship graph and write it
as JSON (the render contract), Graphviz DOT, SVG or PNG.

Without --output the file is named <object>.<ext>; use "-" for stdout.`,
		Example: `  schemagraph diagram Account
  schemagraph diagram Opportunity --depth 2 --layout radial --format svg
  schemagraph diagram Invoice__c --standard=false -o - | jq '.nodes | length'`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeObjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			nodeOut.HideEdgeLabels = flags.hideEdgeLabels
			nodeOut.Detailed = flags.detailed
			return c.runDiagram(cmd, args[0], &flags, f, output, nodeOut)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatJSON), "output format: json, dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "show node kinds in images")
	cmd.Flags().BoolVar(&flags.hideEdgeLabels, "hide-edge-labels", false, "omit field names on edges in images")
	return cmd
}

func (c *CLI) runDiagram(cmd *cobra.Command, root string, flags *diagramFlags, format render.Format, output string, nodeOut nodelink.Options) error {
	ctx := cmd.Context()
	if err := errors.ValidateEntityName(root); err != nil {
		return err
	}

	e, err := c.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	opts, err := flags.options(cmd, e.defaults)
	if err != nil {
		return err
	}

	d, err := c.fetchDiagram(ctx, e, pipeline.Request{
		Root:    root,
		Version: e.version,
		Options: opts,
		Refresh: flags.refresh,
	})
	if err != nil {
		return err
	}

	path := output
	if path == "" {
		path = root + format.Ext()
	}
	if path == "-" {
		return schemaio.Write(ctx, d.Positioned, format, os.Stdout, nodeOut)
	}
	if err := schemaio.ExportFile(ctx, d.Positioned, format, path, nodeOut); err != nil {
		return err
	}

	printSuccess("Diagram of %s", StyleHighlight.Render(root))
	printStats(d)
	printFile(path)
	if d.Truncated {
		printWarning("Caps reached (%d nodes, %d edges); raise --max-nodes or --max-edges for the full graph", opts.MaxNodes, opts.MaxEdges)
	}
	if format == render.FormatJSON {
		printNextStep("Render it as an image", fmt.Sprintf("%s render %s --format svg", appName, path))
	}
	return nil
}

// fetchDiagram runs one request behind a spinner that follows crawl progress.
func (c *CLI) fetchDiagram(ctx context.Context, e *env, req pipeline.Request) (*pipeline.Diagram, error) {
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Crawling %s...", req.Root))
	spinner.Start()

	req.Progress = func(entity string, level, fetched int) {
		spinner.SetMessage(fmt.Sprintf("Crawling %s (level %d, %d fetched)...", entity, level, fetched))
	}
	d, err := e.runner.GetDiagram(ctx, req)
	spinner.Stop()
	if err != nil {
		return nil, orgError(err)
	}
	prog.done(fmt.Sprintf("Built %s: %d nodes, %d edges", req.Root, d.Stats.Nodes, d.Stats.Edges))
	return d, nil
}
