package schema

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SummaryFilter narrows an entity list.
type SummaryFilter struct {
	CustomOnly bool
	// Search matches a case-insensitive substring of the name or label.
	Search string
}

// Filter returns the summaries matching f, in input order.
func (f SummaryFilter) Filter(list []EntitySummary) []EntitySummary {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]EntitySummary, 0, len(list))
	for _, s := range list {
		if f.CustomOnly && !s.Custom {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.Label), q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Field sort keys accepted by FieldFilter.
const (
	SortLabel    = "label"
	SortName     = "name"
	SortType     = "type"
	SortRequired = "required"
	SortLength   = "length"
)

// FieldSortKeys lists the valid FieldFilter.Sort values.
var FieldSortKeys = []string{SortLabel, SortName, SortType, SortRequired, SortLength}

// FieldFilter narrows and orders the fields of one describe.
type FieldFilter struct {
	// Search matches a case-insensitive substring of the name or label.
	Search string
	// Type keeps only fields of this exact describe type, e.g. "reference".
	Type string
	// Sort is one of FieldSortKeys. Empty sorts by label.
	Sort string
	Desc bool
}

// ValidateSort reports an unknown sort key.
func (f FieldFilter) ValidateSort() error {
	if f.Sort == "" || slices.Contains(FieldSortKeys, f.Sort) {
		return nil
	}
	return fmt.Errorf("unknown sort key %q (want one of %s)", f.Sort, strings.Join(FieldSortKeys, ", "))
}

// Filter returns the matching fields in sort order. Fields that compare
// equal keep their input order. Required fields sort after optional ones
// in ascending order.
func (f FieldFilter) Filter(fields []FieldRef) []FieldRef {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]FieldRef, 0, len(fields))
	for _, fd := range fields {
		if f.Type != "" && fd.Type != f.Type {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(fd.Name), q) && !strings.Contains(strings.ToLower(fd.Label), q) {
			continue
		}
		out = append(out, fd)
	}

	compare := fieldComparator(f.Sort)
	slices.SortStableFunc(out, func(a, b FieldRef) int {
		if f.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func fieldComparator(key string) func(a, b FieldRef) int {
	switch key {
	case SortName:
		return func(a, b FieldRef) int { return strings.Compare(a.Name, b.Name) }
	case SortType:
		return func(a, b FieldRef) int { return strings.Compare(a.Type, b.Type) }
	case SortRequired:
		return func(a, b FieldRef) int { return cmp.Compare(boolRank(a.Required()), boolRank(b.Required())) }
	case SortLength:
		return func(a, b FieldRef) int { return cmp.Compare(a.Length, b.Length) }
	default:
		return func(a, b FieldRef) int { return strings.Compare(a.Label, b.Label) }
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
