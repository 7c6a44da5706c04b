package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/schema"
)

// objectsCommand creates the objects command.
func (c *CLI) objectsCommand() *cobra.Command {
	var (
		filter  schema.SummaryFilter
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "objects",
		Short: "List the objects of the org",
		Example: `  schemagraph objects --custom
  schemagraph objects --search invoice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := listObjects(ctx, e, refresh)
			if err != nil {
				return err
			}
			list = filter.Filter(list)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				printInfo("No objects match")
				return nil
			}
			rows := make([][]string, len(list))
			for i, s := range list {
				kind := schema.Standard
				if s.Custom {
					kind = schema.Custom
				}
				rows[i] = []string{s.Name, s.Label, string(kind), s.KeyPrefix}
			}
			fmt.Println(renderTable([]string{"Name", "Label", "Type", "Prefix"}, rows))
			printDetail("%d objects (API %s)", len(list), e.version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.CustomOnly, "custom", false, "only custom objects")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "filter by name or label substring")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cached listing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func listObjects(ctx context.Context, e *env, refresh bool) ([]schema.EntitySummary, error) {
	ctx, cancel := context.WithTimeout(ctx, orgTimeout)
	defer cancel()

	spinner := newSpinnerWithContext(ctx, "Listing objects...")
	spinner.Start()
	list, err := e.client.ListSObjects(ctx, e.version, refresh)
	spinner.Stop()
	if err != nil {
		return nil, orgError(fmt.Errorf("list objects: %w", err))
	}
	return list, nil
}

// matchObjects returns "name\tlabel" completions whose name starts with
// prefix, ignoring case.
func matchObjects(list []schema.EntitySummary, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, s := range list {
		if strings.HasPrefix(strings.ToLower(s.Name), prefix) {
			out = append(out, s.Name+"\t"+s.Label)
		}
	}
	return out
}
