package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	schemaio "github.com/matzehuels/schemagraph/pkg/io"
	"github.com/matzehuels/schemagraph/pkg/render"
	"github.com/matzehuels/schemagraph/pkg/render/nodelink"
)

// renderCommand creates the render command for re-exporting JSON dumps.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		opts       nodelink.Options
	)

	cmd := &cobra.Command{
		Use:   "render <diagram.json>",
		Short: "Render a saved diagram to DOT, SVG or PNG",
		Long: `Read a diagram written by 'schemagraph diagram --format json' and export it
without contacting the org. Positions are taken from the file as is.`,
		Example: `  schemagraph render Account.json --format svg,png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			return runRender(cmd, args[0], formats, output, opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", string(render.FormatSVG), "output format(s): dot, svg, png, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show node kinds")
	cmd.Flags().BoolVar(&opts.HideEdgeLabels, "hide-edge-labels", false, "omit field names on edges")
	return cmd
}

func runRender(cmd *cobra.Command, input string, formats []render.Format, output string, opts nodelink.Options) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	g, err := schemaio.ImportJSON(input)
	if err != nil {
		return err
	}
	p := schemaio.FromFlow(g)
	logger.Debug("loaded diagram", "file", input, "nodes", len(p.Nodes), "edges", len(p.Edges))

	paths := outputPaths(input, output, formats)
	for i, f := range formats {
		path := paths[i]
		prog := newProgress(logger)
		if err := schemaio.ExportFile(ctx, p, f, path, opts); err != nil {
			return err
		}
		prog.done("Rendered " + string(f))
	}

	printSuccess("Rendered %d nodes, %d edges", len(p.Nodes), len(p.Edges))
	for _, path := range paths {
		printFile(path)
	}
	return nil
}

// outputPaths names one file per format. A single format with an explicit
// output uses it verbatim; otherwise output (or input) is the base name.
func outputPaths(input, output string, formats []render.Format) []string {
	if output != "" && len(formats) == 1 {
		return []string{output}
	}
	base := firstNonEmpty(output, input)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	paths := make([]string, len(formats))
	for i, f := range formats {
		path := base + f.Ext()
		if path == input {
			path = base + ".out" + f.Ext()
		}
		paths[i] = path
	}
	return paths
}

// parseFormats parses a comma-separated format list, dropping duplicates.
func parseFormats(s string) ([]render.Format, error) {
	if strings.TrimSpace(s) == "" {
		return []render.Format{render.FormatSVG}, nil
	}
	seen := make(map[render.Format]bool)
	var out []render.Format
	for _, part := range strings.Split(s, ",") {
		f, err := render.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}
