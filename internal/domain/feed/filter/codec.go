package filter

import (
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/sanitize"
)

// Bookkeeping prefixes that never surface in shareable URLs.
var internalPrefixes = []string{"posts-", "query-"}

// Codec decodes raw request parameters into a Spec.
type Codec struct {
	taxonomies map[string]bool
	sortFields []string
}

// Option configures a Codec.
type Option func(*Codec)

// WithTaxonomies restricts filter- facets to the named taxonomies.
// Without it every filter- facet is accepted.
func WithTaxonomies(names ...string) Option {
	return func(c *Codec) {
		if len(names) == 0 {
			return
		}
		c.taxonomies = make(map[string]bool, len(names))
		for _, n := range names {
			c.taxonomies[n] = true
		}
	}
}

// WithSortFields replaces the default sort field allow-list.
func WithSortFields(fields ...string) Option {
	return func(c *Codec) {
		if len(fields) > 0 {
			c.sortFields = slices.Clone(fields)
		}
	}
}

// NewCodec creates a parameter codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{sortFields: []string{
		query.OrderDate, query.OrderTitle, query.OrderMenuOrder, query.OrderModified,
	}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DecodeString parses a URL-encoded parameter string and decodes it.
// Malformed pairs are skipped.
func (c *Codec) DecodeString(raw string) Spec {
	raw, _, _ = strings.Cut(raw, "#")
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return c.Decode(values)
}

// Decode builds a Spec from request parameters. Unknown keys are ignored.
func (c *Codec) Decode(values url.Values) Spec {
	var spec Spec

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rawKey := range keys {
		raw := values[rawKey]
		name := sanitize.Key(rawKey)
		multi := strings.HasSuffix(strings.TrimSpace(rawKey), "[]") || len(raw) > 1

		switch {
		case name == KeySearch || name == PrefixFilter+facetSearch:
			if v := lastText(raw); v != "" {
				spec.Search = v
			}

		case name == facetSort || name == PrefixFilter+facetSort:
			if s, ok := c.parseSort(lastText(raw)); ok {
				spec.Sort = mergeSort(spec.Sort, s)
			}

		case name == facetSortBy || name == PrefixFilter+facetSortBy:
			if field := sanitize.Slug(lastText(raw)); c.isSortField(field) {
				spec.Sort = mergeSort(spec.Sort, Sort{Field: field})
			}

		case strings.HasPrefix(name, PrefixMeta):
			key := sanitize.Slug(strings.TrimPrefix(name, PrefixMeta))
			if key == "" {
				continue
			}
			vals := slugs(raw)
			if len(vals) == 0 {
				spec.ClearedMeta = appendUnique(spec.ClearedMeta, key)
				continue
			}
			if spec.Meta == nil {
				spec.Meta = make(map[string]MetaFilter)
			}
			prev := spec.Meta[key]
			spec.Meta[key] = MetaFilter{
				Key:    key,
				Values: mergeValues(prev.Values, vals),
				Multi:  multi || prev.Multi,
			}

		case strings.HasPrefix(name, PrefixFilter):
			facet := sanitize.Slug(strings.TrimPrefix(name, PrefixFilter))
			if facet == "" || facet == facetSearch || facet == facetSort || facet == facetSortBy {
				continue
			}
			if c.taxonomies != nil && !c.taxonomies[facet] {
				continue
			}
			vals := slugs(raw)
			if len(vals) == 0 {
				spec.ClearedTaxonomies = appendUnique(spec.ClearedTaxonomies, facet)
				continue
			}
			if spec.Taxonomies == nil {
				spec.Taxonomies = make(map[string][]string)
			}
			spec.Taxonomies[facet] = mergeValues(spec.Taxonomies[facet], vals)
		}
	}

	// A facet that is both cleared and set (e.g. "x" and "x[]") stays set.
	spec.ClearedTaxonomies = slices.DeleteFunc(spec.ClearedTaxonomies, func(n string) bool {
		_, ok := spec.Taxonomies[n]
		return ok
	})
	spec.ClearedMeta = slices.DeleteFunc(spec.ClearedMeta, func(n string) bool {
		_, ok := spec.Meta[n]
		return ok
	})
	if len(spec.ClearedTaxonomies) == 0 {
		spec.ClearedTaxonomies = nil
	}
	if len(spec.ClearedMeta) == 0 {
		spec.ClearedMeta = nil
	}

	return spec
}

// parseSort splits "field-DIRECTION". Without a separator only the field is set.
func (c *Codec) parseSort(v string) (Sort, bool) {
	if v == "" {
		return Sort{}, false
	}
	field, dir := v, ""
	if i := strings.LastIndex(v, "-"); i > 0 {
		field, dir = v[:i], v[i+1:]
	}
	field = sanitize.Slug(field)
	if !c.isSortField(field) {
		return Sort{}, false
	}
	s := Sort{Field: field}
	if d, ok := query.ParseDirection(dir); ok {
		s.Direction = d
	}
	return s, true
}

func (c *Codec) isSortField(f string) bool {
	return f != "" && slices.Contains(c.sortFields, f)
}

func mergeSort(prev *Sort, next Sort) *Sort {
	if prev == nil {
		return &next
	}
	out := *prev
	if next.Field != "" {
		out.Field = next.Field
	}
	if next.Direction != "" {
		out.Direction = next.Direction
	}
	return &out
}

// Encode serialises the non-empty parts of s as a URL query string. Cleared
// facets are written with an empty value so decoding clears them again.
// AppendOffset is bookkeeping and is not encoded.
func (s Spec) Encode() string {
	v := url.Values{}
	if s.Search != "" {
		v.Set(KeySearch, s.Search)
	}
	if s.Sort != nil && s.Sort.Field != "" {
		if s.Sort.Direction != "" {
			v.Set(PrefixFilter+facetSort, s.Sort.Field+"-"+string(s.Sort.Direction))
		} else {
			v.Set(PrefixFilter+facetSortBy, s.Sort.Field)
		}
	}
	for _, name := range s.TaxonomyNames() {
		vals := s.Taxonomies[name]
		if len(vals) == 1 {
			v.Set(PrefixFilter+name, vals[0])
			continue
		}
		v[PrefixFilter+name+"[]"] = slices.Clone(vals)
	}
	for _, key := range s.MetaKeys() {
		m := s.Meta[key]
		if len(m.Values) == 1 && !m.Multi {
			v.Set(PrefixMeta+key, m.Values[0])
			continue
		}
		v[PrefixMeta+key+"[]"] = slices.Clone(m.Values)
	}
	for _, name := range s.ClearedTaxonomies {
		if _, ok := s.Taxonomies[name]; !ok {
			v.Set(PrefixFilter+name, "")
		}
	}
	for _, key := range s.ClearedMeta {
		if _, ok := s.Meta[key]; !ok {
			v.Set(PrefixMeta+key, "")
		}
	}
	return v.Encode()
}

// ShareableQuery filters a serialised form down to the pairs worth showing in
// the address bar: empty values and bookkeeping keys are dropped, pair order
// and any "#fragment" are kept.
func ShareableQuery(raw string) string {
	raw = strings.TrimPrefix(raw, "?")
	raw, frag, hasFrag := strings.Cut(raw, "#")

	var kept []string
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		if v == "" || isInternalKey(k) {
			continue
		}
		kept = append(kept, part)
	}

	out := strings.Join(kept, "&")
	if hasFrag {
		out += "#" + frag
	}
	return out
}

// LocalParams returns the filter parameters that pagination links must carry.
func LocalParams(values url.Values) url.Values {
	out := url.Values{}
	for k, vals := range values {
		if isInternalKey(k) {
			continue
		}
		for _, v := range vals {
			if v != "" {
				out.Add(k, v)
			}
		}
	}
	return out
}

func isInternalKey(k string) bool {
	if dec, err := url.QueryUnescape(k); err == nil {
		k = dec
	}
	k = sanitize.Key(k)
	for _, p := range internalPrefixes {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// ParseAppend interprets the feedAppend request field: "false" or empty means
// replace; a non-negative integer means append at that offset; anything else
// means append at the session's recorded count.
func ParseAppend(raw string) (bool, *int) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "false") {
		return false, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return true, nil
		}
		return true, &n
	}
	return true, nil
}

func lastText(raw []string) string {
	for i := len(raw) - 1; i >= 0; i-- {
		if v := sanitize.Text(raw[i]); v != "" {
			return v
		}
	}
	return ""
}

func slugs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if v := sanitize.Slug(r); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func mergeValues(prev, next []string) []string {
	for _, v := range next {
		if !slices.Contains(prev, v) {
			prev = append(prev, v)
		}
	}
	return prev
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
