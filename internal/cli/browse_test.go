package cli

import (
	"context"
	"testing"

	"github.com/matzehuels/schemagraph/pkg/describe"
	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations"
	"github.com/matzehuels/schemagraph/pkg/layout"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

func newBrowseRunner(t *testing.T) *pipeline.Runner {
	t.Helper()
	fetch := describe.FetcherFunc(func(ctx context.Context, version, entity string) (*schema.EntityDescribe, error) {
		d, ok := orgDescribes[entity]
		if !ok {
			return nil, integrations.ErrNotFound
		}
		return d, nil
	})
	r, err := pipeline.NewRunner(describe.NewCache(fetch), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestBrowseSessionReroot(t *testing.T) {
	ctx := context.Background()
	r := newBrowseRunner(t)
	opts := pipeline.DefaultOptions()
	opts.Depth = 0
	d, err := r.GetDiagram(ctx, pipeline.Request{Root: "Account", Version: "v60.0", Options: opts})
	if err != nil {
		t.Fatal(err)
	}

	s := newBrowseSession(ctx, r, "v60.0", d)
	defer s.close()

	grid := s.relayout(layout.Grid)
	if grid.Mode != layout.Grid {
		t.Fatalf("relayout mode = %s", grid.Mode)
	}

	g, err := s.reroot("Contact")
	if err != nil {
		t.Fatalf("reroot: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "Contact" {
		t.Errorf("nodes = %+v, want only Contact", g.Nodes)
	}
	if g.Mode != layout.Grid {
		t.Errorf("re-rooted mode = %s, want the mode on screen", g.Mode)
	}

	if back := s.relayout(layout.Radial); len(back.Nodes) != 1 || back.Nodes[0].ID != "Contact" {
		t.Errorf("relayout after reroot lost the new root: %+v", back.Nodes)
	}

	if _, err := s.reroot("Missing__c"); errors.GetCode(err) == "" {
		t.Errorf("reroot to a missing object: err = %v, want a coded error", err)
	}
}
