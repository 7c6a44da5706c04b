package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// describeCommand creates the describe command.
func (c *CLI) describeCommand() *cobra.Command {
	var (
		asJSON     bool
		showFields bool
		fields     schema.FieldFilter
	)

	cmd := &cobra.Command{
		Use:               "describe <object>",
		Short:             "Show the relationships of one object",
		Long: `Print the lookup and master-detail fields of <object> and the child relationships that point back to it.

With --fields, print every field of <object> instead, filtered by --type and
--search and ordered by --sort.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeObjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]
			if err := errors.ValidateEntityName(name); err != nil {
				return err
			}
			if err := fields.ValidateSort(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "--sort")
			}

			e, err := c.openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Describing %s...", name))
			spinner.Start()
			d, err := e.runner.Describes.GetOrFetch(ctx, e.version, name)
			spinner.Stop()
			if err != nil {
				return orgError(fmt.Errorf("describe %s: %w", name, err))
			}

			w := cmd.OutOrStdout()
			if showFields {
				list := fields.Filter(d.Fields)
				if asJSON {
					return writeJSON(w, struct {
						Object string            `json:"object"`
						Fields []schema.FieldRef `json:"fields"`
					}{d.Name, list})
				}
				printFields(w, d, list)
				return nil
			}
			if asJSON {
				return writeJSON(w, struct {
					Describe *schema.EntityDescribe `json:"describe"`
					Parents  []schema.ParentRow     `json:"parents"`
					Children []schema.ChildRow      `json:"children"`
				}{d, schema.ParentRelationships(d), schema.ChildRelationships(d)})
			}
			printDescribe(d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the describe and relationship rows as JSON")
	cmd.Flags().BoolVar(&showFields, "fields", false, "list every field instead of the relationships")
	cmd.Flags().StringVar(&fields.Type, "type", "", "with --fields, only fields of this type (e.g. reference, picklist)")
	cmd.Flags().StringVarP(&fields.Search, "search", "s", "", "with --fields, match a substring of the name or label")
	cmd.Flags().StringVar(&fields.Sort, "sort", schema.SortLabel, "with --fields, sort by "+strings.Join(schema.FieldSortKeys, ", "))
	cmd.Flags().BoolVar(&fields.Desc, "desc", false, "with --fields, reverse the sort order")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printFields(w io.Writer, d *schema.EntityDescribe, list []schema.FieldRef) {
	fmt.Fprintln(w, StyleTitle.Render(d.DisplayLabel())+" "+StyleDim.Render(fmt.Sprintf("%d of %d fields", len(list), len(d.Fields))))
	if len(list) == 0 {
		return
	}
	rows := make([][]string, len(list))
	for i, f := range list {
		required, length, refs, formula := "No", "-", "-", "-"
		if f.Required() {
			required = "Yes"
		}
		if f.Length > 0 {
			length = strconv.Itoa(f.Length)
		}
		if len(f.ReferenceTo) > 0 {
			refs = strings.Join(f.ReferenceTo, ", ")
		}
		if f.CalculatedFormula != "" {
			formula = "Yes"
		}
		rows[i] = []string{f.Label, f.Name, f.Type, required, length, refs, formula}
	}
	fmt.Fprintln(w, renderTable([]string{"Label", "API Name", "Type", "Required", "Length", "Reference To", "Formula"}, rows))
}

func printDescribe(d *schema.EntityDescribe) {
	fmt.Println(StyleTitle.Render(d.DisplayLabel()) + " " + StyleDim.Render(d.Name))
	kind := schema.Standard
	if d.Custom {
		kind = schema.Custom
	}
	printKeyValue("Type", string(kind))
	if d.KeyPrefix != "" {
		printKeyValue("Key prefix", d.KeyPrefix)
	}
	printKeyValue("Fields", strconv.Itoa(len(d.Fields)))
	printNewline()

	parents := schema.ParentRelationships(d)
	fmt.Println(StyleHighlight.Render(fmt.Sprintf("Parents (%d)", len(parents))))
	if len(parents) > 0 {
		rows := make([][]string, len(parents))
		for i, p := range parents {
			rows[i] = []string{p.Field, p.Referenced, p.RelationshipName, string(p.Kind)}
		}
		fmt.Println(renderTable([]string{"Field", "References", "Relationship", "Kind"}, rows))
	}
	printNewline()

	children := schema.ChildRelationships(d)
	fmt.Println(StyleHighlight.Render(fmt.Sprintf("Children (%d)", len(children))))
	if len(children) > 0 {
		rows := make([][]string, len(children))
		for i, ch := range children {
			cascade := ""
			if ch.CascadeDelete {
				cascade = iconSuccess
			}
			rows[i] = []string{ch.Child, ch.Field, ch.RelationshipName, string(ch.Kind), cascade}
		}
		fmt.Println(renderTable([]string{"Child", "Field", "Relationship", "Kind", "Cascade"}, rows))
	}
}
