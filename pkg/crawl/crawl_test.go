package crawl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	sgerrors "github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

func lookup(parent string, targets ...string) schema.FieldRef {
	return schema.FieldRef{Name: parent + "Id", ReferenceTo: targets}
}

// fixture: Contact -> Account -> User, Account <- Opportunity (child), Case -> Contact.
func fixture() map[string]*schema.EntityDescribe {
	return map[string]*schema.EntityDescribe{
		"Contact": {
			Name:   "Contact",
			Fields: []schema.FieldRef{{Name: "Email"}, lookup("Account", "Account")},
			ChildRelationships: []schema.ChildRef{
				{ChildSObject: "Case", Field: "ContactId"},
			},
		},
		"Account": {
			Name:   "Account",
			Fields: []schema.FieldRef{lookup("Owner", "User")},
			ChildRelationships: []schema.ChildRef{
				{ChildSObject: "Contact", Field: "AccountId"},
				{ChildSObject: "Opportunity", Field: "AccountId"},
			},
		},
		"Case":        {Name: "Case", Fields: []schema.FieldRef{lookup("Contact", "Contact")}},
		"User":        {Name: "User"},
		"Opportunity": {Name: "Opportunity", Fields: []schema.FieldRef{lookup("Account", "Account")}},
	}
}

type recorder struct {
	describes map[string]*schema.EntityDescribe
	order     []string
}

func (r *recorder) fetch(_ context.Context, entity string) (*schema.EntityDescribe, error) {
	r.order = append(r.order, entity)
	d, ok := r.describes[entity]
	if !ok {
		return nil, fmt.Errorf("%w: describe %s", integrations.ErrNotFound, entity)
	}
	return d, nil
}

func keys(m map[string]*schema.EntityDescribe) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPlanDepth(t *testing.T) {
	tests := []struct {
		depth int
		want  []string
		order string
	}{
		{0, []string{"Contact"}, "Contact"},
		{1, []string{"Account", "Case", "Contact"}, "Contact,Account,Case"},
		{2, []string{"Account", "Case", "Contact", "Opportunity", "User"}, "Contact,Account,Case,User,Opportunity"},
		{5, []string{"Account", "Case", "Contact", "Opportunity", "User"}, "Contact,Account,Case,User,Opportunity"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("depth=%d", tt.depth), func(t *testing.T) {
			r := &recorder{describes: fixture()}
			got, err := Plan(context.Background(), "Contact", tt.depth, r.fetch)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if fmt.Sprint(keys(got)) != fmt.Sprint(tt.want) {
				t.Errorf("entities = %v, want %v", keys(got), tt.want)
			}
			if strings.Join(r.order, ",") != tt.order {
				t.Errorf("fetch order = %v, want %s", r.order, tt.order)
			}
		})
	}
}

func TestPlanFetchesEachEntityOnce(t *testing.T) {
	r := &recorder{describes: fixture()}
	if _, err := Plan(context.Background(), "Account", 4, r.fetch); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	seen := map[string]int{}
	for _, e := range r.order {
		seen[e]++
		if seen[e] > 1 {
			t.Errorf("%s fetched %d times", e, seen[e])
		}
	}
}

func TestPlanFetchFailureAborts(t *testing.T) {
	describes := fixture()
	delete(describes, "Case")
	r := &recorder{describes: describes}

	_, err := Plan(context.Background(), "Contact", 2, r.fetch)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Plan error = %v, want *FetchError", err)
	}
	if fe.Entity != "Case" {
		t.Errorf("FetchError.Entity = %q, want Case", fe.Entity)
	}
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Error("FetchError should unwrap to the fetch sentinel")
	}
	if r.order[len(r.order)-1] != "Case" {
		t.Errorf("traversal continued after failure: %v", r.order)
	}
}

func TestPlanFetchTimeout(t *testing.T) {
	slow := func(ctx context.Context, entity string) (*schema.EntityDescribe, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return &schema.EntityDescribe{Name: entity}, nil
		}
	}
	_, err := Plan(context.Background(), "Account", 1, slow, WithFetchTimeout(5*time.Millisecond))
	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Plan error = %v, want FetchError wrapping deadline exceeded", err)
	}
}

func TestPlanNegativeDepth(t *testing.T) {
	r := &recorder{describes: fixture()}
	_, err := Plan(context.Background(), "Contact", -1, r.fetch)
	if !sgerrors.Is(err, sgerrors.ErrCodeInvalidInput) {
		t.Errorf("Plan error = %v, want INVALID_INPUT", err)
	}
	if len(r.order) != 0 {
		t.Error("no fetch should happen for invalid depth")
	}
}

func TestPlanProgress(t *testing.T) {
	r := &recorder{describes: fixture()}
	var calls []string
	_, err := Plan(context.Background(), "Contact", 1, r.fetch, WithProgress(func(entity string, level, fetched int) {
		calls = append(calls, fmt.Sprintf("%s@%d#%d", entity, level, fetched))
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := "Contact@0#1,Account@1#2,Case@1#3"
	if strings.Join(calls, ",") != want {
		t.Errorf("progress = %v, want %s", calls, want)
	}
}

func TestPlanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{describes: fixture()}
	if _, err := Plan(ctx, "Contact", 1, r.fetch); !errors.Is(err, context.Canceled) {
		t.Errorf("Plan error = %v, want context.Canceled", err)
	}
}
