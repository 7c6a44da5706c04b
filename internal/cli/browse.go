package cli

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags diagramFlags

	cmd := &cobra.Command{
		Use:   "browse [object]",
		Short: "Pick an object and browse its diagram interactively",
		Long: `Open a terminal UI over the diagram of [object]. Without an argument an object
picker is shown first. Selecting a node shows its label, type, field and
relationship counts. Enter re-roots the diagram on the selected node.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeObjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			opts, err := flags.options(cmd, e.defaults)
			if err != nil {
				return err
			}

			var root string
			if len(args) == 1 {
				root = args[0]
			} else {
				list, err := listObjects(ctx, e, false)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					return errors.New(errors.ErrCodeNotFound, "the org lists no objects")
				}
				final, err := tea.NewProgram(NewObjectListModel(list), tea.WithContext(ctx)).Run()
				if err != nil {
					return err
				}
				fm, ok := final.(ObjectListModel)
				if !ok || fm.Selected == nil {
					printDetail("No selection made")
					return nil
				}
				root = fm.Selected.Name
			}
			if err := errors.ValidateEntityName(root); err != nil {
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
			if len(d.Positioned.Nodes) == 0 {
				printWarning("%s is excluded by the object filters; nothing to browse", root)
				return nil
			}

			lookup := func(id string) (*schema.EntityDescribe, bool) {
				return e.runner.Describes.Get(e.version, id)
			}

			session := newBrowseSession(ctx, e.runner, e.version, d)
			defer session.close()
			model := NewNodeBrowserModel(root, d.Positioned, lookup, session.relayout).WithReroot(session.reroot)
			if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// browseSession tracks the diagram on screen for the browser callbacks.
// Re-roots go through one pipeline view, so a newer re-root supersedes an
// older one that is still loading.
type browseSession struct {
	ctx     context.Context
	runner  *pipeline.Runner
	version string
	view    *pipeline.View

	mu      sync.Mutex
	current *pipeline.Diagram
}

func newBrowseSession(ctx context.Context, runner *pipeline.Runner, version string, d *pipeline.Diagram) *browseSession {
	return &browseSession{
		ctx:     ctx,
		runner:  runner,
		version: version,
		view:    runner.NewView(),
		current: d,
	}
}

func (s *browseSession) relayout(mode layout.Mode) layout.Positioned {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.runner.Relayout(s.ctx, s.current, mode)
	return s.current.Positioned
}

// reroot loads the diagram rooted at id with the options on screen.
func (s *browseSession) reroot(id string) (layout.Positioned, error) {
	s.mu.Lock()
	opts := s.current.Options
	s.mu.Unlock()

	next, err := s.view.Request(s.ctx, pipeline.Request{Root: id, Version: s.version, Options: opts})
	if err != nil {
		return layout.Positioned{}, orgError(err)
	}
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next.Positioned, nil
}

func (s *browseSession) close() {
	s.view.Cancel()
}
