package schema

// EntityDescribe is the metadata document for one entity.
//
// Only the attributes used for graph construction and display are decoded;
// unknown attributes in the API payload are ignored.
type EntityDescribe struct {
	Name               string     `json:"name"`
	Label              string     `json:"label,omitempty"`
	LabelPlural        string     `json:"labelPlural,omitempty"`
	KeyPrefix          string     `json:"keyPrefix,omitempty"`
	Custom             bool       `json:"custom"`
	Queryable          bool       `json:"queryable,omitempty"`
	Fields             []FieldRef `json:"fields"`
	ChildRelationships []ChildRef `json:"childRelationships"`
}

// FieldRef describes a single field. A field is a relationship field iff
// ReferenceTo is non-empty.
type FieldRef struct {
	Name              string   `json:"name"`
	Label             string   `json:"label,omitempty"`
	Type              string   `json:"type,omitempty"`
	ReferenceTo       []string `json:"referenceTo,omitempty"`
	RelationshipName  string   `json:"relationshipName,omitempty"`
	CascadeDelete     bool     `json:"cascadeDelete,omitempty"`
	Custom            bool     `json:"custom,omitempty"`
	Nillable          bool     `json:"nillable"`
	Length            int      `json:"length,omitempty"`
	CalculatedFormula string   `json:"calculatedFormula,omitempty"`
	InlineHelpText    string   `json:"inlineHelpText,omitempty"`
}

// Required reports whether the field must hold a value.
func (f FieldRef) Required() bool { return !f.Nillable }

// IsRelationship reports whether the field references other entities.
func (f FieldRef) IsRelationship() bool { return len(f.ReferenceTo) > 0 }

// ChildRef describes a relationship from a child entity back to the described entity.
type ChildRef struct {
	ChildSObject     string `json:"childSObject"`
	Field            string `json:"field"`
	RelationshipName string `json:"relationshipName,omitempty"`
	CascadeDelete    bool   `json:"cascadeDelete"`
}

// DisplayLabel returns the label if set, otherwise the API name.
func (d *EntityDescribe) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// RelationshipFieldCount returns the number of fields referencing other entities.
func (d *EntityDescribe) RelationshipFieldCount() int {
	n := 0
	for _, f := range d.Fields {
		if f.IsRelationship() {
			n++
		}
	}
	return n
}

// HasRelationships reports whether the entity has any parent or child relationship.
func (d *EntityDescribe) HasRelationships() bool {
	return len(d.ChildRelationships) > 0 || d.RelationshipFieldCount() > 0
}

// Neighbors returns the entities this describe links to, in enqueue order:
// every referenced entity of every relationship field, then every child entity.
// Duplicates are preserved so callers see source order.
func (d *EntityDescribe) Neighbors() []string {
	var out []string
	for _, f := range d.Fields {
		out = append(out, f.ReferenceTo...)
	}
	for _, cr := range d.ChildRelationships {
		out = append(out, cr.ChildSObject)
	}
	return out
}

// EntitySummary is one entry of the entity listing endpoint.
type EntitySummary struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	LabelPlural string `json:"labelPlural,omitempty"`
	KeyPrefix   string `json:"keyPrefix,omitempty"`
	Custom      bool   `json:"custom"`
	Queryable   bool   `json:"queryable,omitempty"`
}

// APIVersion is one available schema version of the metadata API.
type APIVersion struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Version string `json:"version"`
}
