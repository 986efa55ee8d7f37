// Package cards holds the templates that render individual feed items, the
// empty state and pagination links. Templates are looked up by reference.
package cards

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/a-h/templ"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

// Template references registered by NewRegistry.
const (
	RefPostItem    = "partials/card-post-item"
	RefPostCompact = "partials/card-post-compact"
	RefNoResults   = "partials/archive-no-results"
	RefPagination  = "partials/archive-pagination"
)

// ItemView is the input of an item template.
type ItemView struct {
	Item     result.Item
	Featured bool
}

// PageLink is one entry of a pagination list.
type PageLink struct {
	Label   string
	URL     string
	Number  int
	Current bool
	Dots    bool
	Rel     string // prev, next, first, last or empty
}

// PaginationView is the input of a pagination template.
type PaginationView struct {
	Current   int
	Total     int
	FirstPage string
	LastPage  string
	Links     []PageLink
}

// ItemTemplate renders one item.
type ItemTemplate func(ItemView) templ.Component

// PaginationTemplate renders pagination links.
type PaginationTemplate func(PaginationView) templ.Component

// Registry maps template references to templates. Unknown references fall
// back to the defaults.
type Registry struct {
	mu          sync.RWMutex
	items       map[string]ItemTemplate
	nones       map[string]templ.Component
	paginations map[string]PaginationTemplate
}

// NewRegistry creates a registry with the default templates.
func NewRegistry() *Registry {
	return &Registry{
		items: map[string]ItemTemplate{
			RefPostItem:    PostItem,
			RefPostCompact: PostCompact,
		},
		nones: map[string]templ.Component{
			RefNoResults: NoResults(),
		},
		paginations: map[string]PaginationTemplate{
			RefPagination: Pagination,
		},
	}
}

// RegisterItem adds or replaces an item template.
func (r *Registry) RegisterItem(ref string, t ItemTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[ref] = t
}

// RegisterNone adds or replaces an empty-state template.
func (r *Registry) RegisterNone(ref string, c templ.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nones[ref] = c
}

// RegisterPagination adds or replaces a pagination template.
func (r *Registry) RegisterPagination(ref string, t PaginationTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paginations[ref] = t
}

// Item returns the item template for ref rendered with v.
func (r *Registry) Item(ref string, v ItemView) templ.Component {
	r.mu.RLock()
	t, ok := r.items[ref]
	r.mu.RUnlock()
	if !ok {
		t = PostItem
	}
	return t(v)
}

// None returns the empty-state template for ref.
func (r *Registry) None(ref string) templ.Component {
	r.mu.RLock()
	c, ok := r.nones[ref]
	r.mu.RUnlock()
	if !ok {
		return NoResults()
	}
	return c
}

// Pagination returns the pagination template for ref rendered with v.
func (r *Registry) Pagination(ref string, v PaginationView) templ.Component {
	r.mu.RLock()
	t, ok := r.paginations[ref]
	r.mu.RUnlock()
	if !ok {
		t = Pagination
	}
	return t(v)
}

// PostItem is the default card.
func PostItem(v ItemView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		class := "cty-card cty-card--" + v.Item.Type
		if v.Featured {
			class += " cty-card--featured"
		}
		ww := &errWriter{w: w}
		ww.printf(`<article class="%s" data-id="%s">`, templ.EscapeString(class), templ.EscapeString(v.Item.ID))
		if v.Item.Image != "" {
			ww.printf(`<img class="cty-card__image" src="%s" alt="" loading="lazy">`, templ.EscapeString(v.Item.Image))
		}
		ww.printf(`<h3 class="cty-card__title"><a href="%s">%s</a></h3>`,
			templ.EscapeString(v.Item.URL), templ.EscapeString(v.Item.Title))
		if !v.Item.Date.IsZero() {
			ww.printf(`<time class="cty-card__date" datetime="%s">%s</time>`,
				v.Item.Date.Format("2006-01-02"), v.Item.Date.Format("January 2, 2006"))
		}
		if v.Item.Excerpt != "" {
			ww.printf(`<p class="cty-card__excerpt">%s</p>`, templ.EscapeString(v.Item.Excerpt))
		}
		ww.printf(`</article>`)
		return ww.err
	})
}

// PostCompact is a title-only card.
func PostCompact(v ItemView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ww := &errWriter{w: w}
		ww.printf(`<article class="cty-card cty-card--compact" data-id="%s"><a href="%s">%s</a></article>`,
			templ.EscapeString(v.Item.ID), templ.EscapeString(v.Item.URL), templ.EscapeString(v.Item.Title))
		return ww.err
	})
}

// NoResults is the default empty state.
func NoResults() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p class="cty-archive-no-results">Sorry, no results were found.</p>`)
		return err
	})
}

// Pagination is the default numbered page list.
func Pagination(v PaginationView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ww := &errWriter{w: w}
		ww.printf(`<nav class="cty-pagination" aria-label="Pagination" data-current="%d" data-total="%d"><ul class="cty-pagination__list">`,
			v.Current, v.Total)
		for _, l := range v.Links {
			switch {
			case l.Dots:
				ww.printf(`<li class="cty-pagination__item"><span class="cty-pagination__dots">&hellip;</span></li>`)
			case l.Current:
				ww.printf(`<li class="cty-pagination__item"><span class="cty-pagination__link is-current" aria-current="page">%s</span></li>`,
					templ.EscapeString(l.Label))
			default:
				rel := ""
				if l.Rel == "prev" || l.Rel == "next" {
					rel = ` rel="` + l.Rel + `"`
				}
				ww.printf(`<li class="cty-pagination__item"><a class="cty-pagination__link%s" href="%s"%s>%s</a></li>`,
					relClass(l.Rel), templ.EscapeString(l.URL), rel, templ.EscapeString(l.Label))
			}
		}
		ww.printf(`</ul></nav>`)
		return ww.err
	})
}

func relClass(rel string) string {
	if rel == "" {
		return ""
	}
	return " cty-pagination__link--" + rel
}

// PageLabel formats a page number for display.
func PageLabel(n int) string {
	return strconv.Itoa(n)
}
