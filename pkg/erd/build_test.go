package erd

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/matzehuels/schemagraph/pkg/schema"
)

func entity(name string, fields []schema.FieldRef, children ...schema.ChildRef) *schema.EntityDescribe {
	return &schema.EntityDescribe{
		Name:               name,
		Custom:             !schema.IsStandard(name),
		Fields:             fields,
		ChildRelationships: children,
	}
}

func ref(name string, cascade bool, targets ...string) schema.FieldRef {
	return schema.FieldRef{Name: name, ReferenceTo: targets, CascadeDelete: cascade}
}

func describes(ds ...*schema.EntityDescribe) map[string]*schema.EntityDescribe {
	m := make(map[string]*schema.EntityDescribe, len(ds))
	for _, d := range ds {
		m[d.Name] = d
	}
	return m
}

func input(root string, depth int, ds map[string]*schema.EntityDescribe) Input {
	return Input{
		RootObject:      root,
		Depth:           depth,
		IncludeStandard: true,
		IncludeCustom:   true,
		Describes:       ds,
		MaxNodes:        500,
		MaxEdges:        1000,
	}
}

func nodeIDs(r Result) []string {
	ids := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestBuildDepthZeroIsRootOnly(t *testing.T) {
	ds := describes(entity("Account", []schema.FieldRef{ref("OwnerId", false, "User")}))
	r := Build(input("Account", 0, ds))

	if len(r.Nodes) != 1 || r.Nodes[0].ID != "Account" {
		t.Errorf("nodes = %v, want [Account]", nodeIDs(r))
	}
	if len(r.Edges) != 0 {
		t.Errorf("edges = %v, want none", r.Edges)
	}
	if r.Truncated {
		t.Error("truncated = true, want false")
	}
}

func TestBuildLookupToParent(t *testing.T) {
	ds := describes(
		entity("Contact", []schema.FieldRef{{Name: "Email"}, ref("AccountId", false, "Account")}),
		entity("Account", nil),
	)
	r := Build(input("Contact", 1, ds))

	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"Contact", "Account"}) {
		t.Errorf("nodes = %v, want [Contact Account]", got)
	}
	want := []Edge{{Source: "Contact", Target: "Account", Label: "AccountId", Kind: schema.Lookup}}
	if !reflect.DeepEqual(r.Edges, want) {
		t.Errorf("edges = %+v, want %+v", r.Edges, want)
	}
	if r.Truncated {
		t.Error("truncated = true, want false")
	}
}

func TestBuildPolymorphicFansOut(t *testing.T) {
	ds := describes(
		entity("Task", []schema.FieldRef{ref("OwnerId", false, "User", "Group")}),
		entity("User", nil),
		entity("Group", nil),
	)
	r := Build(input("Task", 1, ds))

	if len(r.Edges) != 2 {
		t.Fatalf("edges = %+v, want 2", r.Edges)
	}
	for i, target := range []string{"User", "Group"} {
		e := r.Edges[i]
		if e.Source != "Task" || e.Target != target || e.Label != "OwnerId" || e.Kind != schema.Polymorphic {
			t.Errorf("edge %d = %+v", i, e)
		}
	}
}

func TestBuildNodeCapTruncatesBeforeExpanding(t *testing.T) {
	ds := describes(
		entity("Contact", []schema.FieldRef{ref("AccountId", false, "Account")}),
		entity("Account", nil),
	)
	in := input("Contact", 1, ds)
	in.MaxNodes = 1
	r := Build(in)

	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"Contact"}) {
		t.Errorf("nodes = %v, want [Contact]", got)
	}
	if len(r.Edges) != 0 {
		t.Errorf("edges = %+v, want none", r.Edges)
	}
	if !r.Truncated {
		t.Error("truncated = false, want true")
	}
}

func TestBuildNodeCapKeepsEdgesBetweenAdmittedNodes(t *testing.T) {
	ds := describes(
		entity("A", []schema.FieldRef{ref("BId", false, "B")}),
		entity("B", []schema.FieldRef{ref("AId", false, "A")}),
	)

	for _, maxNodes := range []int{2, 3} {
		in := input("A", 2, ds)
		in.MaxNodes = maxNodes
		r := Build(in)

		if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"A", "B"}) {
			t.Errorf("MaxNodes=%d: nodes = %v, want [A B]", maxNodes, got)
		}
		want := []Edge{
			{Source: "A", Target: "B", Label: "BId", Kind: schema.Lookup},
			{Source: "B", Target: "A", Label: "AId", Kind: schema.Lookup},
		}
		if !reflect.DeepEqual(r.Edges, want) {
			t.Errorf("MaxNodes=%d: edges = %+v, want %+v", maxNodes, r.Edges, want)
		}
		if r.Truncated {
			t.Errorf("MaxNodes=%d: truncated = true with nothing left out", maxNodes)
		}
	}
}

func TestBuildNodeCapLastNodeSkipsUnadmittedNeighbours(t *testing.T) {
	ds := describes(
		entity("A", []schema.FieldRef{ref("BId", false, "B")}),
		entity("B", []schema.FieldRef{ref("AId", false, "A"), ref("CId", false, "C"), ref("GoneId", false, "Gone")}),
		entity("C", nil),
	)
	in := input("A", 2, ds)
	in.MaxNodes = 2
	r := Build(in)

	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("nodes = %v, want [A B]", got)
	}
	if len(r.Edges) != 2 {
		t.Errorf("edges = %+v, want A->B and B->A only", r.Edges)
	}
	if !r.Truncated {
		t.Error("leaving out C must set truncated")
	}

	// Gone has no describe, so dropping it alone is not truncation.
	delete(ds, "C")
	r = Build(in)
	if r.Truncated {
		t.Error("an undescribed neighbour should not set truncated")
	}
}

func TestBuildRootMissing(t *testing.T) {
	ds := describes(entity("Account", nil))
	r := Build(input("Contact", 2, ds))

	if !r.Empty() || len(r.Edges) != 0 || r.Truncated {
		t.Errorf("result = %+v, want empty and not truncated", r)
	}
	if r.Nodes == nil || r.Edges == nil {
		t.Error("empty result should carry non-nil slices")
	}
}

func TestBuildRelationshipKinds(t *testing.T) {
	ds := describes(
		entity("Line__c", []schema.FieldRef{
			ref("Order__c", true, "Order__c"),
			ref("Product__c", false, "Product2"),
		}, schema.ChildRef{ChildSObject: "Note__c", Field: "Line__c", CascadeDelete: true}),
		entity("Order__c", nil),
		entity("Product2", nil),
		entity("Note__c", nil),
	)
	r := Build(input("Line__c", 1, ds))

	want := []Edge{
		{Source: "Line__c", Target: "Order__c", Label: "Order__c", Kind: schema.MasterDetail},
		{Source: "Line__c", Target: "Product2", Label: "Product__c", Kind: schema.Lookup},
		{Source: "Note__c", Target: "Line__c", Label: "Line__c", Kind: schema.MasterDetail},
	}
	if !reflect.DeepEqual(r.Edges, want) {
		t.Errorf("edges = %+v\nwant %+v", r.Edges, want)
	}
	if r.Nodes[0].Kind != schema.Custom || r.Nodes[2].Kind != schema.Standard {
		t.Errorf("node kinds = %+v", r.Nodes)
	}
}

func TestBuildDedupAcrossSides(t *testing.T) {
	ds := describes(
		entity("Account", nil, schema.ChildRef{ChildSObject: "Contact", Field: "AccountId"}),
		entity("Contact", []schema.FieldRef{ref("AccountId", false, "Account")}),
	)
	r := Build(input("Account", 3, ds))

	if len(r.Edges) != 1 {
		t.Fatalf("edges = %+v, want exactly one", r.Edges)
	}
	want := Edge{Source: "Contact", Target: "Account", Label: "AccountId", Kind: schema.Lookup}
	if r.Edges[0] != want {
		t.Errorf("edge = %+v, want %+v", r.Edges[0], want)
	}
}

func TestBuildDuplicateTargetsInField(t *testing.T) {
	ds := describes(
		entity("Event", []schema.FieldRef{ref("WhatId", false, "Account", "Account", "Case")}),
		entity("Account", nil),
		entity("Case", nil),
	)
	r := Build(input("Event", 1, ds))
	if len(r.Edges) != 2 {
		t.Errorf("edges = %+v, want 2 (duplicate target collapsed)", r.Edges)
	}
}

func TestBuildFilters(t *testing.T) {
	ds := describes(
		entity("Invoice__c", []schema.FieldRef{ref("Account__c", false, "Account")},
			schema.ChildRef{ChildSObject: "Line__c", Field: "Invoice__c", CascadeDelete: true}),
		entity("Account", nil),
		entity("Line__c", nil),
	)

	in := input("Invoice__c", 1, ds)
	in.IncludeStandard = false
	r := Build(in)
	for _, n := range r.Nodes {
		if schema.IsStandard(n.ID) {
			t.Errorf("standard node %s admitted with IncludeStandard=false", n.ID)
		}
	}
	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"Invoice__c", "Line__c"}) {
		t.Errorf("nodes = %v", got)
	}
	if r.Truncated {
		t.Error("filtered entities should not count as truncation")
	}

	in = input("Invoice__c", 1, ds)
	in.IncludeCustom = false
	r = Build(in)
	if !r.Empty() {
		t.Errorf("custom root with IncludeCustom=false should yield no nodes, got %v", nodeIDs(r))
	}
}

func TestBuildDepthBoundary(t *testing.T) {
	ds := describes(
		entity("A", []schema.FieldRef{ref("BId", false, "B")}),
		entity("B", []schema.FieldRef{ref("CId", false, "C")}),
		entity("C", nil),
	)
	r := Build(input("A", 1, ds))
	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("nodes = %v, want [A B]", got)
	}
	if len(r.Edges) != 1 {
		t.Errorf("boundary entity B should contribute no edges, got %+v", r.Edges)
	}
	if r.Truncated {
		t.Error("depth cutoff alone is not truncation")
	}
}

func TestBuildEdgeCap(t *testing.T) {
	ds := describes(
		entity("Task", []schema.FieldRef{ref("WhoId", false, "Contact", "Lead", "User")},
			schema.ChildRef{ChildSObject: "TaskRelation", Field: "TaskId"}),
		entity("Contact", nil),
		entity("Lead", nil),
		entity("User", nil),
		entity("TaskRelation", nil),
	)

	in := input("Task", 1, ds)
	in.MaxEdges = 2
	r := Build(in)
	if len(r.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(r.Edges))
	}
	if !r.Truncated {
		t.Error("cutting a polymorphic fan-out must set truncated")
	}
	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"Task", "Contact", "Lead"}) {
		t.Errorf("nodes = %v, want discovered targets only", got)
	}

	in.MaxEdges = 4
	r = Build(in)
	if len(r.Edges) != 4 || r.Truncated {
		t.Errorf("exactly reaching the cap: edges=%d truncated=%v, want 4 false", len(r.Edges), r.Truncated)
	}
}

func TestBuildEdgeCapIsPerEntity(t *testing.T) {
	// Root saturates the edge budget; later entities are still admitted.
	ds := describes(
		entity("Root", []schema.FieldRef{ref("AId", false, "A"), ref("BId", false, "B")}),
		entity("A", []schema.FieldRef{ref("CId", false, "C")}),
		entity("B", nil),
		entity("C", nil),
	)
	in := input("Root", 2, ds)
	in.MaxEdges = 2
	r := Build(in)

	if got := nodeIDs(r); !reflect.DeepEqual(got, []string{"Root", "A", "B"}) {
		t.Errorf("nodes = %v, want [Root A B]", got)
	}
	if len(r.Edges) != 2 || !r.Truncated {
		t.Errorf("edges=%d truncated=%v, want 2 true", len(r.Edges), r.Truncated)
	}
}

func TestBuildNodeCap(t *testing.T) {
	var fields []schema.FieldRef
	ds := map[string]*schema.EntityDescribe{}
	for i := range 20 {
		name := fmt.Sprintf("E%02d", i)
		fields = append(fields, ref(name+"Id", false, name))
		ds[name] = entity(name, nil)
	}
	ds["Hub"] = entity("Hub", fields)

	in := input("Hub", 1, ds)
	in.MaxNodes = 5
	r := Build(in)
	if len(r.Nodes) != 5 {
		t.Errorf("nodes = %d, want 5", len(r.Nodes))
	}
	if !r.Truncated {
		t.Error("node cap with pending queue must set truncated")
	}
}

func TestBuildMonotonicInDepth(t *testing.T) {
	ds := randomSchema(rand.New(rand.NewSource(7)), 40)
	prev := map[string]bool{}
	for depth := 0; depth <= 5; depth++ {
		r := Build(input("E00", depth, ds))
		if r.Truncated {
			t.Fatalf("depth %d hit caps; fixture too large", depth)
		}
		cur := map[string]bool{}
		for _, n := range r.Nodes {
			cur[n.ID] = true
		}
		for id := range prev {
			if !cur[id] {
				t.Errorf("node %s present at depth %d but missing at depth %d", id, depth-1, depth)
			}
		}
		prev = cur
	}
}

func TestBuildInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := range 50 {
		ds := randomSchema(rng, 10+rng.Intn(60))
		in := input("E00", rng.Intn(5), ds)
		in.MaxNodes = 1 + rng.Intn(30)
		in.MaxEdges = 1 + rng.Intn(40)
		in.IncludeStandard = rng.Intn(4) != 0
		in.IncludeCustom = rng.Intn(4) != 0

		r := Build(in)
		if len(r.Nodes) > in.MaxNodes {
			t.Errorf("trial %d: %d nodes > MaxNodes %d", trial, len(r.Nodes), in.MaxNodes)
		}
		if len(r.Edges) > in.MaxEdges {
			t.Errorf("trial %d: %d edges > MaxEdges %d", trial, len(r.Edges), in.MaxEdges)
		}
		keys := map[EdgeKey]bool{}
		for _, e := range r.Edges {
			if keys[e.Key()] {
				t.Errorf("trial %d: duplicate edge %+v", trial, e)
			}
			keys[e.Key()] = true
		}
		ids := map[string]bool{}
		for _, n := range r.Nodes {
			if ids[n.ID] {
				t.Errorf("trial %d: duplicate node %s", trial, n.ID)
			}
			ids[n.ID] = true
			if _, ok := ds[n.ID]; !ok {
				t.Errorf("trial %d: node %s has no describe", trial, n.ID)
			}
			if !schema.Admits(n.ID, in.IncludeStandard, in.IncludeCustom) {
				t.Errorf("trial %d: filtered node %s admitted", trial, n.ID)
			}
		}
		if again := Build(in); !reflect.DeepEqual(r, again) {
			t.Errorf("trial %d: Build is not idempotent", trial)
		}
	}
}

// randomSchema builds n entities E00..En with random lookups, master-detail
// and polymorphic fields and matching child relationships. Odd entities are custom.
func randomSchema(rng *rand.Rand, n int) map[string]*schema.EntityDescribe {
	name := func(i int) string {
		if i%2 == 1 {
			return fmt.Sprintf("E%02d__c", i)
		}
		return fmt.Sprintf("E%02d", i)
	}
	ds := make(map[string]*schema.EntityDescribe, n)
	for i := range n {
		ds[name(i)] = entity(name(i), nil)
	}
	for i := range n {
		src := ds[name(i)]
		for f := range rng.Intn(4) {
			targets := []string{name(rng.Intn(n))}
			if rng.Intn(5) == 0 {
				targets = append(targets, name(rng.Intn(n)))
			}
			cascade := rng.Intn(3) == 0
			field := fmt.Sprintf("F%d", f)
			src.Fields = append(src.Fields, ref(field, cascade, targets...))
			for _, tgt := range targets {
				ds[tgt].ChildRelationships = append(ds[tgt].ChildRelationships,
					schema.ChildRef{ChildSObject: src.Name, Field: field, CascadeDelete: cascade})
			}
		}
	}
	return ds
}

func TestRelationships(t *testing.T) {
	d := entity("Case", []schema.FieldRef{
		{Name: "Subject"},
		ref("OwnerId", false, "User", "Group"),
		ref("AccountId", false, "Account"),
	})
	rels := Relationships(d)
	if len(rels) != 2 {
		t.Fatalf("Relationships() = %+v", rels)
	}
	if rels[0].Kind != schema.Polymorphic || len(rels[0].Targets) != 2 {
		t.Errorf("OwnerId relationship = %+v", rels[0])
	}
}
