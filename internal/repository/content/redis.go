package content

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/archivefeed/internal/db"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

// Key layout of the RediSearch engine.
const (
	DefaultIndex = "archivefeed:content"
	itemPrefix   = "archivefeed:item:"
	termsPrefix  = "archivefeed:terms:"
	taxPrefix    = "tax_"
	metaPrefix   = "meta_"
	maxLimit     = 10000
)

// searchStore is the consumer interface for the RediSearch engine (ISP).
//
//nolint:interfacebloat // engine needs hash writes, index lifecycle and search
type searchStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Redis executes descriptors with FT.SEARCH over item hashes. Taxonomies and
// meta keys must be declared up front since they become index fields.
type Redis struct {
	store      searchStore
	index      string
	taxonomies []string
	metaKeys   []string
}

// NewRedis creates a RediSearch engine.
func NewRedis(s searchStore, index string, taxonomies, metaKeys []string) *Redis {
	if index == "" {
		index = DefaultIndex
	}
	return &Redis{
		store:      s,
		index:      index,
		taxonomies: slices.Clone(taxonomies),
		metaKeys:   slices.Clone(metaKeys),
	}
}

// IndexDefinition is the FT.CREATE schema of the engine.
func (r *Redis) IndexDefinition() (*db.IndexDefinition, error) {
	b := db.NewIndex(r.index).
		OnHash().
		Prefix(itemPrefix).
		Tag("id").
		Tag("type").
		Text("title").Sortable().
		Text("excerpt").
		Numeric("date").Sortable().
		Numeric("modified").Sortable().
		Numeric("menu_order").Sortable()
	for _, t := range r.taxonomies {
		b = b.Tag(taxPrefix + t)
	}
	for _, k := range r.metaKeys {
		b = b.TagWithOpts(metaPrefix+k, ",", true)
	}
	return b.Build()
}

// EnsureIndex creates the index unless it already exists.
func (r *Redis) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}
	def, err := r.IndexDefinition()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Seed writes fixtures as item hashes and term registries.
func (r *Redis) Seed(ctx context.Context, f *Fixtures) error {
	items := make([]db.HashSetItem, 0, len(f.Items))
	for _, it := range f.Items {
		items = append(items, db.HashSetItem{Key: itemPrefix + it.ID, Fields: itemToHash(it)})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("seed items: %w", err)
	}

	for tax, terms := range f.Terms {
		fields := make(map[string]string, len(terms))
		for _, t := range terms {
			data, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("encode term %s: %w", t.Slug, err)
			}
			fields[t.Slug] = string(data)
		}
		if len(fields) == 0 {
			continue
		}
		if err := r.store.HSet(ctx, termsPrefix+tax, fields); err != nil {
			return fmt.Errorf("seed terms %s: %w", tax, err)
		}
	}
	return nil
}

// Execute runs q via FT.SEARCH.
func (r *Redis) Execute(ctx context.Context, q query.Descriptor) (result.ExecutedQuery, error) {
	registries := make(map[string][]result.Term, len(q.Taxonomies))
	for _, p := range q.Taxonomies {
		if _, ok := registries[p.Taxonomy]; ok {
			continue
		}
		terms, err := r.Terms(ctx, p.Taxonomy)
		if err != nil {
			return result.ExecutedQuery{}, err
		}
		registries[p.Taxonomy] = terms
	}

	lq, ok := r.listQuery(q, registries)
	if !ok {
		return result.ExecutedQuery{Query: q}, nil
	}
	res, err := r.store.SearchList(ctx, lq)
	if err != nil {
		return result.ExecutedQuery{}, fmt.Errorf("search content: %w", err)
	}

	items := make([]result.Item, 0, len(res.Entries))
	for _, e := range res.Entries {
		items = append(items, hashToItem(e.Fields))
	}

	var active []string
	for _, p := range q.Taxonomies {
		for _, v := range p.Terms {
			active = append(active, termName(registries[p.Taxonomy], p.Field, v))
		}
	}

	return result.ExecutedQuery{Query: q, Items: items, Found: res.Total, ActiveTerms: active}, nil
}

// Terms returns the registered terms of taxonomy sorted by name.
func (r *Redis) Terms(ctx context.Context, taxonomy string) ([]result.Term, error) {
	fields, err := r.store.HGetAll(ctx, termsPrefix+taxonomy)
	if err != nil {
		return nil, fmt.Errorf("load terms %s: %w", taxonomy, err)
	}
	terms := make([]result.Term, 0, len(fields))
	for slug, raw := range fields {
		var t result.Term
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			t = result.Term{ID: slug, Slug: slug, Name: slug}
		}
		t.Taxonomy = taxonomy
		terms = append(terms, t)
	}
	slices.SortFunc(terms, func(a, b result.Term) int { return cmp.Compare(a.Name, b.Name) })
	return terms, nil
}

// Lookup fetches items by id in the order requested. Unknown ids are skipped.
func (r *Redis) Lookup(ctx context.Context, ids []string) ([]result.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemPrefix + id
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("lookup items: %w", err)
	}
	out := make([]result.Item, 0, len(hashes))
	for _, h := range hashes {
		if len(h) == 0 {
			continue
		}
		out = append(out, hashToItem(h))
	}
	return out, nil
}

// listQuery maps q onto FT.SEARCH arguments. ok is false when a term id
// predicate names no known term, so nothing can match.
func (r *Redis) listQuery(q query.Descriptor, registries map[string][]result.Term) (*db.ListQuery, bool) {
	lq := &db.ListQuery{
		Index:  r.index,
		Offset: q.StartOffset(),
		Limit:  q.PerPage,
	}
	if lq.Limit <= 0 {
		lq.Limit = maxLimit
	}

	if len(q.PostTypes) > 0 {
		lq.Tags = append(lq.Tags, db.TagFilter{Field: "type", Values: q.PostTypes})
	}
	for _, p := range q.Taxonomies {
		values := p.Terms
		if p.Field == query.FieldTermID {
			values = slugsForIDs(registries[p.Taxonomy], p.Terms)
			if len(values) == 0 {
				return nil, false
			}
		}
		lq.Tags = append(lq.Tags, db.TagFilter{Field: taxPrefix + p.Taxonomy, Values: values})
	}
	for _, p := range q.Meta {
		lq.Tags = append(lq.Tags, db.TagFilter{Field: metaPrefix + p.Key, Values: p.Values})
	}
	if len(q.ExcludeIDs) > 0 {
		lq.Tags = append(lq.Tags, db.TagFilter{Field: "id", Values: q.ExcludeIDs, Negate: true})
	}
	if q.Search != "" {
		lq.Text = q.Search
		lq.TextFields = []string{"title", "excerpt"}
	}

	lq.SortBy = q.OrderBy
	if lq.SortBy == "" {
		lq.SortBy = query.OrderDate
	}
	lq.SortDesc = q.Order != query.Asc
	return lq, true
}

func slugsForIDs(terms []result.Term, ids []string) []string {
	var out []string
	for _, t := range terms {
		if slices.Contains(ids, t.ID) {
			out = append(out, t.Slug)
		}
	}
	return out
}

func itemToHash(it result.Item) map[string]string {
	h := map[string]string{
		"id":         it.ID,
		"type":       it.Type,
		"title":      it.Title,
		"excerpt":    it.Excerpt,
		"url":        it.URL,
		"image":      it.Image,
		"date":       strconv.FormatInt(it.Date.Unix(), 10),
		"modified":   strconv.FormatInt(it.Modified.Unix(), 10),
		"menu_order": strconv.Itoa(it.MenuOrder),
	}
	for tax, slugs := range it.Terms {
		h[taxPrefix+tax] = strings.Join(slugs, ",")
	}
	for k, v := range it.Meta {
		h[metaPrefix+k] = v
	}
	return h
}

func hashToItem(h map[string]string) result.Item {
	it := result.Item{
		ID:      h["id"],
		Type:    h["type"],
		Title:   h["title"],
		Excerpt: h["excerpt"],
		URL:     h["url"],
		Image:   h["image"],
	}
	if v, err := strconv.ParseInt(h["date"], 10, 64); err == nil {
		it.Date = time.Unix(v, 0).UTC()
	}
	if v, err := strconv.ParseInt(h["modified"], 10, 64); err == nil {
		it.Modified = time.Unix(v, 0).UTC()
	}
	if v, err := strconv.Atoi(h["menu_order"]); err == nil {
		it.MenuOrder = v
	}
	for k, v := range h {
		switch {
		case strings.HasPrefix(k, taxPrefix):
			if it.Terms == nil {
				it.Terms = make(map[string][]string)
			}
			if v != "" {
				it.Terms[strings.TrimPrefix(k, taxPrefix)] = strings.Split(v, ",")
			}
		case strings.HasPrefix(k, metaPrefix):
			if it.Meta == nil {
				it.Meta = make(map[string]string)
			}
			it.Meta[strings.TrimPrefix(k, metaPrefix)] = v
		}
	}
	return it
}
