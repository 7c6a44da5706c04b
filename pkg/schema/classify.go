package schema

import "strings"

// Suffixes and separators marking non-standard entities.
const (
	customSuffix    = "__c"
	externalSuffix  = "__x"
	namespaceMarker = "__"
)

// Kind is the standard/custom classification of an entity.
type Kind string

const (
	Standard Kind = "standard"
	Custom   Kind = "custom"
)

// RelationshipKind classifies a relationship's strength and shape.
type RelationshipKind string

const (
	MasterDetail RelationshipKind = "master-detail"
	Lookup       RelationshipKind = "lookup"
	Polymorphic  RelationshipKind = "polymorphic"
)

// Valid reports whether k is a known relationship kind.
func (k RelationshipKind) Valid() bool {
	switch k {
	case MasterDetail, Lookup, Polymorphic:
		return true
	}
	return false
}

// IsStandard reports whether name denotes a standard entity: no custom or
// external suffix and no namespace separator.
func IsStandard(name string) bool {
	return !strings.HasSuffix(name, customSuffix) &&
		!strings.HasSuffix(name, externalSuffix) &&
		!strings.Contains(name, namespaceMarker)
}

// Classify returns the name-based kind of an entity.
func Classify(name string) Kind {
	if IsStandard(name) {
		return Standard
	}
	return Custom
}

// Admits reports whether an entity passes the include filters.
func Admits(name string, includeStandard, includeCustom bool) bool {
	if IsStandard(name) {
		return includeStandard
	}
	return includeCustom
}

// ClassifyField returns the relationship kind of a relationship field.
func ClassifyField(f FieldRef) RelationshipKind {
	switch {
	case len(f.ReferenceTo) > 1:
		return Polymorphic
	case f.CascadeDelete:
		return MasterDetail
	default:
		return Lookup
	}
}

// ClassifyChild returns the relationship kind of a child relationship.
func ClassifyChild(cr ChildRef) RelationshipKind {
	if cr.CascadeDelete {
		return MasterDetail
	}
	return Lookup
}

// Relationship is one relationship field with all of its targets. Polymorphic
// fields keep their targets together; callers fan out to edges when needed.
type Relationship struct {
	Field   string
	Targets []string
	Kind    RelationshipKind
}

// Relationships returns the relationship fields of d in field order.
func Relationships(d *EntityDescribe) []Relationship {
	var out []Relationship
	for _, f := range d.Fields {
		if !f.IsRelationship() {
			continue
		}
		out = append(out, Relationship{
			Field:   f.Name,
			Targets: f.ReferenceTo,
			Kind:    ClassifyField(f),
		})
	}
	return out
}
