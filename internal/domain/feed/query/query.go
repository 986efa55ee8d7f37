// Package query describes a content query independently of the engine that runs it.
package query

import "slices"

// Direction is a sort direction.
type Direction string

const (
	// Asc sorts ascending.
	Asc Direction = "ASC"
	// Desc sorts descending.
	Desc Direction = "DESC"
)

// ParseDirection normalises s to ASC or DESC. ok is false for anything else.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "ASC", "asc", "Asc":
		return Asc, true
	case "DESC", "desc", "Desc":
		return Desc, true
	}
	return "", false
}

// Sort fields understood by every engine.
const (
	OrderDate      = "date"
	OrderTitle     = "title"
	OrderMenuOrder = "menu_order"
	OrderModified  = "modified"
)

var orderFields = []string{OrderDate, OrderTitle, OrderMenuOrder, OrderModified}

// IsOrderField reports whether s is a supported sort field.
func IsOrderField(s string) bool {
	return slices.Contains(orderFields, s)
}

// TermField selects how TaxonomyPredicate.Terms are matched.
type TermField string

const (
	// FieldSlug matches term slugs.
	FieldSlug TermField = "slug"
	// FieldTermID matches term ids.
	FieldTermID TermField = "term_id"
)

// OpIn is the only membership operator feeds use.
const OpIn = "IN"

// OpEqual is used for single-valued meta predicates.
const OpEqual = "="

// TaxonomyPredicate restricts items to those carrying any of Terms in Taxonomy.
type TaxonomyPredicate struct {
	Taxonomy string    `json:"taxonomy"`
	Field    TermField `json:"field"`
	Terms    []string  `json:"terms"`
	Operator string    `json:"operator"`
}

// MetaPredicate restricts items by a custom field value.
type MetaPredicate struct {
	Key      string   `json:"key"`
	Values   []string `json:"values"`
	Operator string   `json:"operator"`
}

// Descriptor is a complete, engine-neutral content query.
//
// Category, CategoryName, Tag and Taxonomy/TermID are shorthand carried by feed
// definitions; translation folds them into Taxonomies.
type Descriptor struct {
	FeedName     string              `json:"feed_name"`
	SubFeedCount int                 `json:"sub_feed_count"`
	PostTypes    []string            `json:"post_types,omitempty"`
	PerPage      int                 `json:"per_page"`
	Page         int                 `json:"page"`
	Offset       *int                `json:"offset,omitempty"`
	Search       string              `json:"search,omitempty"`
	OrderBy      string              `json:"order_by,omitempty"`
	Order        Direction           `json:"order,omitempty"`
	Taxonomies   []TaxonomyPredicate `json:"taxonomies,omitempty"`
	Meta         []MetaPredicate     `json:"meta,omitempty"`
	ExcludeIDs   []string            `json:"exclude_ids,omitempty"`

	Category     []string `json:"category,omitempty"`
	CategoryName []string `json:"category_name,omitempty"`
	Tag          []string `json:"tag,omitempty"`
	Taxonomy     string   `json:"taxonomy,omitempty"`
	TermID       string   `json:"term_id,omitempty"`
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	out := d
	if d.Offset != nil {
		v := *d.Offset
		out.Offset = &v
	}
	out.PostTypes = slices.Clone(d.PostTypes)
	out.ExcludeIDs = slices.Clone(d.ExcludeIDs)
	out.Category = slices.Clone(d.Category)
	out.CategoryName = slices.Clone(d.CategoryName)
	out.Tag = slices.Clone(d.Tag)
	if d.Taxonomies != nil {
		out.Taxonomies = make([]TaxonomyPredicate, len(d.Taxonomies))
		for i, p := range d.Taxonomies {
			p.Terms = slices.Clone(p.Terms)
			out.Taxonomies[i] = p
		}
	}
	if d.Meta != nil {
		out.Meta = make([]MetaPredicate, len(d.Meta))
		for i, p := range d.Meta {
			p.Values = slices.Clone(p.Values)
			out.Meta[i] = p
		}
	}
	return out
}

// StartOffset is the number of matching items skipped before the first result.
func (d Descriptor) StartOffset() int {
	if d.Offset != nil {
		return max(0, *d.Offset)
	}
	if d.Page > 1 && d.PerPage > 0 {
		return (d.Page - 1) * d.PerPage
	}
	return 0
}

// OffsetValue returns the explicit offset or zero.
func (d Descriptor) OffsetValue() int {
	if d.Offset == nil {
		return 0
	}
	return *d.Offset
}

// HasTaxonomy reports whether a predicate on taxonomy is present.
func (d Descriptor) HasTaxonomy(taxonomy string) bool {
	return slices.ContainsFunc(d.Taxonomies, func(p TaxonomyPredicate) bool {
		return p.Taxonomy == taxonomy
	})
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }
