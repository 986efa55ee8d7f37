// Package filter decodes and encodes the user-facing feed filter parameters.
package filter

import (
	"maps"
	"slices"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
)

// Parameter prefixes and reserved names.
const (
	PrefixFilter = "filter-"
	PrefixMeta   = "meta-"
	KeySearch    = "s"

	facetSearch = "search"
	facetSort   = "sort"
	facetSortBy = "sortby"
)

// MetaFilter constrains a custom field to one or more values.
type MetaFilter struct {
	Key    string
	Values []string
	// Multi is true when the value was submitted as an array.
	Multi bool
}

// Sort is a requested sort order. Either part may be empty.
type Sort struct {
	Field     string
	Direction query.Direction
}

// Spec is the canonical decoded form of a filter request.
//
// Empty values are never stored. A facet submitted with an empty value is
// recorded in ClearedTaxonomies or ClearedMeta so the translator can drop a
// constraint of that name from the base query.
type Spec struct {
	Taxonomies   map[string][]string
	Meta         map[string]MetaFilter
	Search       string
	Sort         *Sort
	AppendOffset *int

	ClearedTaxonomies []string
	ClearedMeta       []string
}

// IsFiltered reports whether any user constraint or ordering is active.
func (s Spec) IsFiltered() bool {
	return len(s.Taxonomies) > 0 || len(s.Meta) > 0 || s.Search != "" || s.Sort != nil
}

// TaxonomyNames returns the active taxonomy facet names in sorted order.
func (s Spec) TaxonomyNames() []string {
	return slices.Sorted(maps.Keys(s.Taxonomies))
}

// MetaKeys returns the active meta keys in sorted order.
func (s Spec) MetaKeys() []string {
	return slices.Sorted(maps.Keys(s.Meta))
}

// Selected returns the values currently selected for a form control name
// such as "filter-category" or "meta-color".
func (s Spec) Selected(name string) []string {
	switch {
	case name == KeySearch || name == PrefixFilter+facetSearch:
		if s.Search == "" {
			return nil
		}
		return []string{s.Search}
	case name == PrefixFilter+facetSort:
		if s.Sort == nil || s.Sort.Field == "" {
			return nil
		}
		if s.Sort.Direction == "" {
			return []string{s.Sort.Field}
		}
		return []string{s.Sort.Field + "-" + string(s.Sort.Direction)}
	case len(name) > len(PrefixMeta) && name[:len(PrefixMeta)] == PrefixMeta:
		return s.Meta[name[len(PrefixMeta):]].Values
	case len(name) > len(PrefixFilter) && name[:len(PrefixFilter)] == PrefixFilter:
		return s.Taxonomies[name[len(PrefixFilter):]]
	}
	return nil
}
