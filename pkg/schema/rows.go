package schema

// ParentRow is a field on the described entity that references another entity.
type ParentRow struct {
	Field            string           `json:"field"`
	Referenced       string           `json:"referenced"`
	RelationshipName string           `json:"relationship_name,omitempty"`
	Kind             RelationshipKind `json:"kind"`
}

// ChildRow is a child entity and the field on it that points back.
type ChildRow struct {
	Child            string           `json:"child"`
	Field            string           `json:"field"`
	RelationshipName string           `json:"relationship_name,omitempty"`
	CascadeDelete    bool             `json:"cascade_delete"`
	Kind             RelationshipKind `json:"kind"`
}

// ParentRelationships flattens relationship fields into one row per target.
func ParentRelationships(d *EntityDescribe) []ParentRow {
	var out []ParentRow
	for _, f := range d.Fields {
		if !f.IsRelationship() {
			continue
		}
		kind := ClassifyField(f)
		for _, ref := range f.ReferenceTo {
			out = append(out, ParentRow{
				Field:            f.Name,
				Referenced:       ref,
				RelationshipName: f.RelationshipName,
				Kind:             kind,
			})
		}
	}
	return out
}

// ChildRelationships returns one row per child relationship.
func ChildRelationships(d *EntityDescribe) []ChildRow {
	out := make([]ChildRow, 0, len(d.ChildRelationships))
	for _, cr := range d.ChildRelationships {
		out = append(out, ChildRow{
			Child:            cr.ChildSObject,
			Field:            cr.Field,
			RelationshipName: cr.RelationshipName,
			CascadeDelete:    cr.CascadeDelete,
			Kind:             ClassifyChild(cr),
		})
	}
	return out
}
