package feed

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/filter"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
)

func baseQuery() query.Descriptor {
	return query.Descriptor{
		FeedName:     "news",
		SubFeedCount: 1,
		PostTypes:    []string{"post"},
		PerPage:      15,
		Page:         1,
		OrderBy:      query.OrderDate,
		Order:        query.Desc,
	}
}

func decode(q string) filter.Spec {
	v, _ := url.ParseQuery(q)
	return filter.NewCodec().Decode(v)
}

func TestTranslate_SortOverridesBase(t *testing.T) {
	got := Translate(baseQuery(), decode("filter-sort=title-ASC"), RequestContext{})
	if got.OrderBy != query.OrderTitle || got.Order != query.Asc {
		t.Fatalf("unexpected sort %s %s", got.OrderBy, got.Order)
	}

	got = Translate(baseQuery(), decode("sort=title"), RequestContext{})
	if got.OrderBy != query.OrderTitle || got.Order != query.Desc {
		t.Fatalf("field-only sort must keep base direction, got %s %s", got.OrderBy, got.Order)
	}
}

func TestTranslate_SearchSetAndCleared(t *testing.T) {
	base := baseQuery()
	base.Search = "stale"

	if got := Translate(base, decode("s=fresh"), RequestContext{}); got.Search != "fresh" {
		t.Errorf("Search = %q, want fresh", got.Search)
	}
	if got := Translate(base, decode(""), RequestContext{}); got.Search != "" {
		t.Errorf("Search = %q, want cleared", got.Search)
	}
}

func TestTranslate_OffsetOnlyWhenAppending(t *testing.T) {
	base := baseQuery()
	base.Offset = query.Int(30)

	tests := []struct {
		name string
		rc   RequestContext
		want *int
	}{
		{"fresh filter clears offset", RequestContext{Async: true, LoadedCount: query.Int(12)}, nil},
		{"explicit append offset", RequestContext{Async: true, Append: true, AppendOffset: query.Int(6), LoadedCount: query.Int(12)}, query.Int(6)},
		{"falls back to session count", RequestContext{Async: true, Append: true, LoadedCount: query.Int(12)}, query.Int(12)},
		{"append without any count", RequestContext{Async: true, Append: true}, query.Int(0)},
		{"sync render", RequestContext{Page: 1}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(base, decode("filter-category=news"), tc.rc)
			if diff := cmp.Diff(tc.want, got.Offset); diff != "" {
				t.Errorf("Offset (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTranslate_FeaturedExclusion(t *testing.T) {
	featured := []string{"5", "9"}
	tests := []struct {
		name   string
		params string
		rc     RequestContext
		want   []string
	}{
		{"first unfiltered page", "", RequestContext{Page: 1, FeaturedIDs: featured}, []string{"5", "9"}},
		{"filtered", "filter-category=news", RequestContext{Page: 1, FeaturedIDs: featured, Filtered: true}, nil},
		{"filtered spec only", "filter-category=news", RequestContext{Page: 1, FeaturedIDs: featured}, nil},
		{"paged", "", RequestContext{Page: 2, FeaturedIDs: featured}, nil},
		{"async", "", RequestContext{Async: true, FeaturedIDs: featured}, nil},
		{"no featured", "", RequestContext{Page: 1}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Translate(baseQuery(), decode(tc.params), tc.rc)
			if diff := cmp.Diff(tc.want, got.ExcludeIDs); diff != "" {
				t.Errorf("ExcludeIDs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTranslate_NormalizesShorthands(t *testing.T) {
	base := baseQuery()
	base.Category = []string{"3"}
	base.CategoryName = []string{"news"}
	base.Tag = []string{"go"}
	base.Taxonomy = "genre"
	base.TermID = "42"

	got := Translate(base, filter.Spec{}, RequestContext{})

	want := baseQuery()
	want.Taxonomies = []query.TaxonomyPredicate{
		{Taxonomy: TaxonomyCategory, Field: query.FieldSlug, Terms: []string{"news"}, Operator: query.OpIn},
		{Taxonomy: TaxonomyTag, Field: query.FieldSlug, Terms: []string{"go"}, Operator: query.OpIn},
		{Taxonomy: "genre", Field: query.FieldTermID, Terms: []string{"42"}, Operator: query.OpIn},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Translate mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslate_CategoryIDs(t *testing.T) {
	base := baseQuery()
	base.Category = []string{"3", "4"}

	got := Translate(base, filter.Spec{}, RequestContext{})
	want := []query.TaxonomyPredicate{
		{Taxonomy: TaxonomyCategory, Field: query.FieldTermID, Terms: []string{"3", "4"}, Operator: query.OpIn},
	}
	if diff := cmp.Diff(want, got.Taxonomies); diff != "" {
		t.Errorf("Taxonomies (-want +got):\n%s", diff)
	}
	if got.Category != nil {
		t.Errorf("Category shorthand must be cleared, got %v", got.Category)
	}
}

func TestTranslate_FacetsBecomeInPredicates(t *testing.T) {
	got := Translate(baseQuery(), decode("filter-category[]=news&filter-category[]=events&meta-color=red&meta-size[]=s&meta-size[]=m"), RequestContext{Async: true})

	wantTax := []query.TaxonomyPredicate{
		{Taxonomy: "category", Field: query.FieldSlug, Terms: []string{"news", "events"}, Operator: query.OpIn},
	}
	if diff := cmp.Diff(wantTax, got.Taxonomies); diff != "" {
		t.Errorf("Taxonomies (-want +got):\n%s", diff)
	}
	wantMeta := []query.MetaPredicate{
		{Key: "color", Values: []string{"red"}, Operator: query.OpEqual},
		{Key: "size", Values: []string{"s", "m"}, Operator: query.OpIn},
	}
	if diff := cmp.Diff(wantMeta, got.Meta); diff != "" {
		t.Errorf("Meta (-want +got):\n%s", diff)
	}
}

func TestTranslate_EmptyFacetRemovesConstraint(t *testing.T) {
	base := baseQuery()
	base.CategoryName = []string{"news"}
	base.Meta = []query.MetaPredicate{{Key: "color", Values: []string{"red"}, Operator: query.OpEqual}}

	got := Translate(base, decode("filter-category=&meta-color="), RequestContext{Async: true})
	if got.Taxonomies != nil {
		t.Errorf("expected no taxonomy predicates, got %+v", got.Taxonomies)
	}
	if got.Meta != nil {
		t.Errorf("expected no meta predicates, got %+v", got.Meta)
	}
}

func TestTranslate_FacetReplacesSameTaxonomy(t *testing.T) {
	base := baseQuery()
	base.CategoryName = []string{"news"}

	got := Translate(base, decode("filter-category=events"), RequestContext{Async: true})
	want := []query.TaxonomyPredicate{
		{Taxonomy: "category", Field: query.FieldSlug, Terms: []string{"events"}, Operator: query.OpIn},
	}
	if diff := cmp.Diff(want, got.Taxonomies); diff != "" {
		t.Errorf("Taxonomies (-want +got):\n%s", diff)
	}
}

func TestTranslate_Pure(t *testing.T) {
	base := baseQuery()
	base.CategoryName = []string{"news"}
	snapshot := base.Clone()
	spec := decode("filter-tag=go&s=x&filter-sort=title-ASC")
	rc := RequestContext{Async: true, Append: true, AppendOffset: query.Int(3)}

	first := Translate(base, spec, rc)
	second := Translate(base, spec, rc)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Translate is not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, base); diff != "" {
		t.Errorf("Translate mutated base (-before +after):\n%s", diff)
	}
}

func TestTranslate_PageHandling(t *testing.T) {
	if got := Translate(baseQuery(), filter.Spec{}, RequestContext{Page: 3}); got.Page != 3 {
		t.Errorf("sync Page = %d, want 3", got.Page)
	}
	base := baseQuery()
	base.Page = 4
	if got := Translate(base, filter.Spec{}, RequestContext{Async: true}); got.Page != 1 {
		t.Errorf("async Page = %d, want 1", got.Page)
	}
}
