package content

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

const testFixtures = `
terms:
  category:
    - {id: "1", slug: news, name: News}
    - {id: "2", slug: events, name: Events}
  post_tag:
    - {slug: go}
items:
  - id: "1"
    title: Alpha launch
    excerpt: First item
    date: 2026-01-01T00:00:00Z
    terms: {category: [news], post_tag: [go]}
    meta: {color: red}
  - id: "2"
    title: Bravo meetup
    excerpt: A community event
    date: 2026-01-02T00:00:00Z
    terms: {category: [events]}
    meta: {color: blue}
  - id: "3"
    title: Charlie release notes
    excerpt: Go release
    date: 2026-01-03T00:00:00Z
    terms: {category: [news]}
    meta: {color: red}
  - id: "4"
    type: page
    title: About
    date: 2026-01-04T00:00:00Z
  - id: "5"
    title: Delta news roundup
    date: 2026-01-05T00:00:00Z
    menu_order: 2
    terms: {category: [news, events]}
`

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	f, err := ParseFixtures([]byte(testFixtures))
	if err != nil {
		t.Fatalf("parse fixtures: %v", err)
	}
	return NewMemory(f)
}

func ids(items []result.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestParseFixtures_Defaults(t *testing.T) {
	f, err := ParseFixtures([]byte(testFixtures))
	if err != nil {
		t.Fatal(err)
	}
	if f.Items[0].Type != "post" {
		t.Errorf("type default = %q", f.Items[0].Type)
	}
	if !f.Items[0].Modified.Equal(f.Items[0].Date) {
		t.Error("modified should default to date")
	}
	tag := f.Terms["post_tag"][0]
	if tag.ID != "go" || tag.Name != "go" || tag.Taxonomy != "post_tag" {
		t.Errorf("term defaults not applied: %+v", tag)
	}
}

func TestParseFixtures_Errors(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"missing id", "items:\n  - title: x\n", "id is required"},
		{"duplicate id", "items:\n  - id: a\n  - id: a\n", "duplicate id"},
		{"term slug", "terms:\n  category:\n    - name: X\n", "slug is required"},
		{"bad yaml", "items: [", "parse fixtures"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestMemory_Execute(t *testing.T) {
	m := newTestMemory(t)

	tests := []struct {
		name      string
		q         query.Descriptor
		wantIDs   []string
		wantFound int
	}{
		{
			name:      "post type, default date desc",
			q:         query.Descriptor{PostTypes: []string{"post"}},
			wantIDs:   []string{"5", "3", "2", "1"},
			wantFound: 4,
		},
		{
			name: "taxonomy IN by slug",
			q: query.Descriptor{
				PostTypes:  []string{"post"},
				Taxonomies: []query.TaxonomyPredicate{{Taxonomy: "category", Field: query.FieldSlug, Terms: []string{"events"}}},
			},
			wantIDs:   []string{"5", "2"},
			wantFound: 2,
		},
		{
			name: "taxonomy by term id",
			q: query.Descriptor{
				Taxonomies: []query.TaxonomyPredicate{{Taxonomy: "category", Field: query.FieldTermID, Terms: []string{"1"}}},
			},
			wantIDs:   []string{"5", "3", "1"},
			wantFound: 3,
		},
		{
			name: "predicates are ANDed",
			q: query.Descriptor{
				Taxonomies: []query.TaxonomyPredicate{
					{Taxonomy: "category", Field: query.FieldSlug, Terms: []string{"news"}},
					{Taxonomy: "post_tag", Field: query.FieldSlug, Terms: []string{"go"}},
				},
			},
			wantIDs:   []string{"1"},
			wantFound: 1,
		},
		{
			name:      "meta",
			q:         query.Descriptor{Meta: []query.MetaPredicate{{Key: "color", Values: []string{"red"}}}},
			wantIDs:   []string{"3", "1"},
			wantFound: 2,
		},
		{
			name:      "search is case insensitive over title and excerpt",
			q:         query.Descriptor{Search: "GO"},
			wantIDs:   []string{"3"},
			wantFound: 1,
		},
		{
			name:      "exclude ids",
			q:         query.Descriptor{PostTypes: []string{"post"}, ExcludeIDs: []string{"5", "3"}},
			wantIDs:   []string{"2", "1"},
			wantFound: 2,
		},
		{
			name:      "page two",
			q:         query.Descriptor{PostTypes: []string{"post"}, PerPage: 2, Page: 2},
			wantIDs:   []string{"2", "1"},
			wantFound: 4,
		},
		{
			name:      "offset wins over page",
			q:         query.Descriptor{PostTypes: []string{"post"}, PerPage: 2, Page: 2, Offset: query.Int(1)},
			wantIDs:   []string{"3", "2"},
			wantFound: 4,
		},
		{
			name:      "offset past the end",
			q:         query.Descriptor{PerPage: 2, Offset: query.Int(50)},
			wantIDs:   []string{},
			wantFound: 5,
		},
		{
			name:      "title ascending",
			q:         query.Descriptor{PostTypes: []string{"post"}, OrderBy: query.OrderTitle, Order: query.Asc},
			wantIDs:   []string{"1", "2", "3", "5"},
			wantFound: 4,
		},
		{
			name:      "menu order descending",
			q:         query.Descriptor{PerPage: 1, OrderBy: query.OrderMenuOrder, Order: query.Desc},
			wantIDs:   []string{"5"},
			wantFound: 5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.Execute(context.Background(), tc.q)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.wantIDs, ids(got.Items)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if got.Found != tc.wantFound {
				t.Errorf("found = %d, want %d", got.Found, tc.wantFound)
			}
		})
	}
}

func TestMemory_ActiveTerms(t *testing.T) {
	m := newTestMemory(t)
	got, err := m.Execute(context.Background(), query.Descriptor{
		Taxonomies: []query.TaxonomyPredicate{
			{Taxonomy: "category", Field: query.FieldSlug, Terms: []string{"news", "events"}},
			{Taxonomy: "category", Field: query.FieldTermID, Terms: []string{"1", "99"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"News", "Events", "News", "99"}
	if diff := cmp.Diff(want, got.ActiveTerms); diff != "" {
		t.Errorf("active terms (-want +got):\n%s", diff)
	}
}

func TestMemory_Terms(t *testing.T) {
	m := newTestMemory(t)
	terms, err := m.Terms(context.Background(), "category")
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 2 || terms[0].Name != "Events" || terms[1].Name != "News" {
		t.Errorf("terms not sorted by name: %+v", terms)
	}
	none, _ := m.Terms(context.Background(), "unknown")
	if len(none) != 0 {
		t.Errorf("expected no terms, got %v", none)
	}
}

func TestMemory_Lookup(t *testing.T) {
	m := newTestMemory(t)
	items, err := m.Lookup(context.Background(), []string{"9", "3", "missing", "1"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"3", "1"}, ids(items)); diff != "" {
		t.Errorf("lookup (-want +got):\n%s", diff)
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	m := newTestMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Execute(ctx, query.Descriptor{}); err == nil {
		t.Fatal("expected context error")
	}
}
