package erd

import "github.com/matzehuels/schemagraph/pkg/schema"

type item struct {
	entity string
	level  int
}

type builder struct {
	in      Input
	res     Result
	visited map[string]bool
	nodes   map[string]bool
	edges   map[EdgeKey]bool
	queue   []item
}

// Build constructs the graph described by in. A root missing from
// in.Describes yields an empty, non-truncated result.
func Build(in Input) Result {
	b := &builder{
		in:      in,
		res:     Result{Nodes: []Node{}, Edges: []Edge{}},
		visited: make(map[string]bool),
		nodes:   make(map[string]bool),
		edges:   make(map[EdgeKey]bool),
	}
	if _, ok := in.Describes[in.RootObject]; !ok {
		return b.res
	}
	b.run()
	return b.res
}

func (b *builder) run() {
	b.queue = append(b.queue, item{entity: b.in.RootObject})

	for len(b.queue) > 0 {
		if len(b.res.Nodes) >= b.in.MaxNodes {
			break
		}
		it := b.queue[0]
		b.queue = b.queue[1:]

		if b.visited[it.entity] || it.level > b.in.Depth {
			continue
		}
		b.visited[it.entity] = true

		desc, ok := b.in.Describes[it.entity]
		if !ok || !b.admits(it.entity) {
			continue
		}
		b.res.Nodes = append(b.res.Nodes, newNode(it.entity, desc))
		b.nodes[it.entity] = true

		if it.level >= b.in.Depth {
			continue
		}
		if len(b.res.Nodes) >= b.in.MaxNodes {
			b.close(it.entity, desc)
			continue
		}
		b.expand(it.entity, desc, it.level)
	}

	if !b.res.Truncated && b.pending() {
		b.res.Truncated = true
	}
}

// expand emits the entity's parent edges, then its child edges, stopping at
// the edge cap. Newly discovered entities are enqueued at level+1.
func (b *builder) expand(entity string, desc *schema.EntityDescribe, level int) {
	walk(entity, desc, func(e Edge, other string) bool {
		added, ok := b.add(e)
		if added && !b.visited[other] {
			b.queue = append(b.queue, item{entity: other, level: level + 1})
		}
		return ok
	})
}

// close handles an entity admitted with the last node of budget. Edges to
// existing nodes are kept and nothing is enqueued; an admissible neighbour
// left out marks the result truncated.
func (b *builder) close(entity string, desc *schema.EntityDescribe) {
	walk(entity, desc, func(e Edge, other string) bool {
		if !b.nodes[other] {
			if !b.visited[other] && b.describable(other) {
				b.res.Truncated = true
			}
			return true
		}
		_, ok := b.add(e)
		return ok
	})
}

// walk calls fn for every relationship edge of entity with the entity on
// the other end, parents first. It stops when fn returns false.
func walk(entity string, desc *schema.EntityDescribe, fn func(e Edge, other string) bool) {
	for _, rel := range Relationships(desc) {
		for _, target := range rel.Targets {
			if !fn(Edge{Source: entity, Target: target, Label: rel.Field, Kind: rel.Kind}, target) {
				return
			}
		}
	}
	for _, cr := range desc.ChildRelationships {
		e := Edge{Source: cr.ChildSObject, Target: entity, Label: cr.Field, Kind: schema.ClassifyChild(cr)}
		if !fn(e, cr.ChildSObject) {
			return
		}
	}
}

// add appends e unless it is a duplicate. ok is false when the edge cap
// stops emission for the current entity.
func (b *builder) add(e Edge) (added, ok bool) {
	key := e.Key()
	if b.edges[key] {
		return false, true
	}
	if len(b.res.Edges) >= b.in.MaxEdges {
		b.res.Truncated = true
		return false, false
	}
	b.edges[key] = true
	b.res.Edges = append(b.res.Edges, e)
	return true, true
}

// pending reports whether the queue still holds an entry that would have
// become a node.
func (b *builder) pending() bool {
	for _, it := range b.queue {
		if !b.visited[it.entity] && it.level <= b.in.Depth && b.describable(it.entity) {
			return true
		}
	}
	return false
}

// describable reports whether entity has a describe and passes the filters.
func (b *builder) describable(entity string) bool {
	_, ok := b.in.Describes[entity]
	return ok && b.admits(entity)
}

func (b *builder) admits(entity string) bool {
	return schema.Admits(entity, b.in.IncludeStandard, b.in.IncludeCustom)
}

func newNode(entity string, desc *schema.EntityDescribe) Node {
	kind := schema.Standard
	if desc.Custom {
		kind = schema.Custom
	}
	return Node{ID: entity, Label: entity, Kind: kind}
}

// Relationships returns the relationship fields of desc with all their
// targets. Polymorphic fields keep their targets together; Build fans them
// out to one edge per target.
func Relationships(desc *schema.EntityDescribe) []schema.Relationship {
	return schema.Relationships(desc)
}
