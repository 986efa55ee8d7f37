package feed

import (
	"slices"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/filter"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
)

// Taxonomy names used by the base query shorthands.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

// RequestContext carries the per-request facts translation and rendering
// depend on. It is built once per request and passed explicitly.
type RequestContext struct {
	// Async is true for the fetch-and-replace endpoint.
	Async bool
	// Append is true for a "load more" request.
	Append bool
	// AppendOffset is the offset the client supplied, if numeric.
	AppendOffset *int
	// LoadedCount is the number of items the session recorded as displayed.
	LoadedCount *int
	// Page is the 1-based page of a synchronous render.
	Page int
	// FeaturedIDs are the session's pinned items.
	FeaturedIDs []string
	// Filtered is true when the request carries any active filter.
	Filtered bool
}

// IsDefaultView reports whether the request shows the unfiltered first page.
func (rc RequestContext) IsDefaultView() bool {
	return !rc.Async && !rc.Filtered && rc.Page <= 1
}

// Translate applies spec to base and returns the query to execute.
// base is not modified.
func Translate(base query.Descriptor, spec filter.Spec, rc RequestContext) query.Descriptor {
	q := base.Clone()

	if spec.Sort != nil {
		if spec.Sort.Field != "" {
			q.OrderBy = spec.Sort.Field
		}
		if spec.Sort.Direction != "" {
			q.Order = spec.Sort.Direction
		}
	}

	q.Search = spec.Search

	q.Offset = nil
	if rc.Append {
		switch {
		case rc.AppendOffset != nil:
			q.Offset = query.Int(*rc.AppendOffset)
		case spec.AppendOffset != nil:
			q.Offset = query.Int(*spec.AppendOffset)
		case rc.LoadedCount != nil:
			q.Offset = query.Int(*rc.LoadedCount)
		default:
			q.Offset = query.Int(0)
		}
	}

	switch {
	case rc.Async:
		q.Page = 1
	case rc.Page > 1:
		q.Page = rc.Page
	default:
		q.Page = 1
	}

	q.ExcludeIDs = nil
	if len(rc.FeaturedIDs) > 0 && rc.IsDefaultView() && !spec.IsFiltered() {
		q.ExcludeIDs = slices.Clone(rc.FeaturedIDs)
	}

	normalizeShorthands(&q)
	applyTaxonomies(&q, spec)
	applyMeta(&q, spec)

	return q
}

// normalizeShorthands folds category, category_name, tag and taxonomy+term_id
// into taxonomy predicates and clears the originals.
func normalizeShorthands(q *query.Descriptor) {
	if len(q.CategoryName) > 0 {
		setTaxonomy(q, TaxonomyCategory, query.FieldSlug, q.CategoryName)
	} else if len(q.Category) > 0 {
		setTaxonomy(q, TaxonomyCategory, query.FieldTermID, q.Category)
	}
	if len(q.Tag) > 0 {
		setTaxonomy(q, TaxonomyTag, query.FieldSlug, q.Tag)
	}
	if q.Taxonomy != "" && q.TermID != "" {
		q.Taxonomies = append(q.Taxonomies, query.TaxonomyPredicate{
			Taxonomy: q.Taxonomy,
			Field:    query.FieldTermID,
			Terms:    []string{q.TermID},
			Operator: query.OpIn,
		})
	}
	q.Category = nil
	q.CategoryName = nil
	q.Tag = nil
	q.Taxonomy = ""
	q.TermID = ""
}

func applyTaxonomies(q *query.Descriptor, spec filter.Spec) {
	for _, name := range spec.ClearedTaxonomies {
		removeTaxonomy(q, name)
	}
	for _, name := range spec.TaxonomyNames() {
		setTaxonomy(q, name, query.FieldSlug, spec.Taxonomies[name])
	}
}

func applyMeta(q *query.Descriptor, spec filter.Spec) {
	for _, key := range spec.ClearedMeta {
		removeMeta(q, key)
	}
	for _, key := range spec.MetaKeys() {
		m := spec.Meta[key]
		removeMeta(q, key)
		op := query.OpEqual
		if m.Multi || len(m.Values) > 1 {
			op = query.OpIn
		}
		q.Meta = append(q.Meta, query.MetaPredicate{
			Key:      key,
			Values:   slices.Clone(m.Values),
			Operator: op,
		})
	}
}

// setTaxonomy replaces any predicate on taxonomy with a single IN predicate.
// An empty term set only removes.
func setTaxonomy(q *query.Descriptor, taxonomy string, field query.TermField, terms []string) {
	removeTaxonomy(q, taxonomy)
	if len(terms) == 0 {
		return
	}
	q.Taxonomies = append(q.Taxonomies, query.TaxonomyPredicate{
		Taxonomy: taxonomy,
		Field:    field,
		Terms:    slices.Clone(terms),
		Operator: query.OpIn,
	})
}

func removeTaxonomy(q *query.Descriptor, taxonomy string) {
	q.Taxonomies = slices.DeleteFunc(q.Taxonomies, func(p query.TaxonomyPredicate) bool {
		return p.Taxonomy == taxonomy || len(p.Terms) == 0
	})
	if len(q.Taxonomies) == 0 {
		q.Taxonomies = nil
	}
}

func removeMeta(q *query.Descriptor, key string) {
	q.Meta = slices.DeleteFunc(q.Meta, func(p query.MetaPredicate) bool {
		return p.Key == key || len(p.Values) == 0
	})
	if len(q.Meta) == 0 {
		q.Meta = nil
	}
}
