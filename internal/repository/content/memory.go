package content

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

// Memory executes descriptors against an in-memory item list.
type Memory struct {
	items []result.Item
	byID  map[string]int
	terms map[string][]result.Term
}

// NewMemory creates an engine over a copy of the fixtures.
func NewMemory(f *Fixtures) *Memory {
	m := &Memory{
		items: slices.Clone(f.Items),
		byID:  make(map[string]int, len(f.Items)),
		terms: make(map[string][]result.Term, len(f.Terms)),
	}
	for i, it := range m.items {
		m.byID[it.ID] = i
	}
	for tax, terms := range f.Terms {
		sorted := slices.Clone(terms)
		slices.SortFunc(sorted, func(a, b result.Term) int { return cmp.Compare(a.Name, b.Name) })
		m.terms[tax] = sorted
	}
	return m
}

// Execute filters, sorts and pages the items for q.
func (m *Memory) Execute(ctx context.Context, q query.Descriptor) (result.ExecutedQuery, error) {
	if err := ctx.Err(); err != nil {
		return result.ExecutedQuery{}, err
	}

	matched := make([]result.Item, 0, len(m.items))
	for _, it := range m.items {
		if m.matches(it, q) {
			matched = append(matched, it)
		}
	}
	sortItems(matched, q.OrderBy, q.Order)

	found := len(matched)
	start := min(q.StartOffset(), found)
	end := found
	if q.PerPage > 0 {
		end = min(start+q.PerPage, found)
	}

	return result.ExecutedQuery{
		Query:       q,
		Items:       slices.Clone(matched[start:end]),
		Found:       found,
		ActiveTerms: m.activeTerms(q),
	}, nil
}

// Terms returns the terms of taxonomy sorted by name.
func (m *Memory) Terms(_ context.Context, taxonomy string) ([]result.Term, error) {
	return slices.Clone(m.terms[taxonomy]), nil
}

// Lookup returns the items with the given ids in the order requested.
// Unknown ids are skipped.
func (m *Memory) Lookup(_ context.Context, ids []string) ([]result.Item, error) {
	out := make([]result.Item, 0, len(ids))
	for _, id := range ids {
		if i, ok := m.byID[id]; ok {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *Memory) matches(it result.Item, q query.Descriptor) bool {
	if len(q.PostTypes) > 0 && !slices.Contains(q.PostTypes, it.Type) {
		return false
	}
	if slices.Contains(q.ExcludeIDs, it.ID) {
		return false
	}
	for _, p := range q.Taxonomies {
		if !m.matchesTaxonomy(it, p) {
			return false
		}
	}
	for _, p := range q.Meta {
		if !slices.Contains(p.Values, it.Meta[p.Key]) {
			return false
		}
	}
	if q.Search != "" && !matchesText(it, q.Search) {
		return false
	}
	return true
}

func (m *Memory) matchesTaxonomy(it result.Item, p query.TaxonomyPredicate) bool {
	slugs := it.Terms[p.Taxonomy]
	for _, want := range p.Terms {
		slug := want
		if p.Field == query.FieldTermID {
			slug = m.slugForID(p.Taxonomy, want)
		}
		if slices.Contains(slugs, slug) {
			return true
		}
	}
	return false
}

func (m *Memory) slugForID(taxonomy, id string) string {
	for _, t := range m.terms[taxonomy] {
		if t.ID == id {
			return t.Slug
		}
	}
	return ""
}

func (m *Memory) activeTerms(q query.Descriptor) []string {
	var names []string
	for _, p := range q.Taxonomies {
		for _, v := range p.Terms {
			names = append(names, termName(m.terms[p.Taxonomy], p.Field, v))
		}
	}
	return names
}

// termName resolves a slug or id to its display name, falling back to v.
func termName(terms []result.Term, field query.TermField, v string) string {
	for _, t := range terms {
		if (field == query.FieldTermID && t.ID == v) || (field != query.FieldTermID && t.Slug == v) {
			return t.Name
		}
	}
	return v
}

func matchesText(it result.Item, search string) bool {
	needle := strings.ToLower(search)
	for _, word := range strings.Fields(needle) {
		if !strings.Contains(strings.ToLower(it.Title), word) &&
			!strings.Contains(strings.ToLower(it.Excerpt), word) {
			return false
		}
	}
	return true
}

// sortItems orders items by field; an empty field sorts by date and an empty
// direction sorts descending. Ties keep id order.
func sortItems(items []result.Item, field string, dir query.Direction) {
	if field == "" {
		field = query.OrderDate
	}
	desc := dir != query.Asc
	slices.SortStableFunc(items, func(a, b result.Item) int {
		var c int
		switch field {
		case query.OrderTitle:
			c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case query.OrderMenuOrder:
			c = cmp.Compare(a.MenuOrder, b.MenuOrder)
		case query.OrderModified:
			c = a.Modified.Compare(b.Modified)
		default:
			c = a.Date.Compare(b.Date)
		}
		if desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})
}
