// Package render turns executed feed queries into HTML fragments.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
	"github.com/kailas-cloud/archivefeed/internal/render/cards"
)

// Templates resolves template references to components.
type Templates interface {
	Item(ref string, v cards.ItemView) templ.Component
	None(ref string) templ.Component
	Pagination(ref string, v cards.PaginationView) templ.Component
}

// Renderer renders feed fragments.
type Renderer struct {
	tmpl        Templates
	printer     *message.Printer
	pageSegment string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLocale sets the locale used for summary messages and numbers.
func WithLocale(tag language.Tag) Option {
	return func(r *Renderer) { r.printer = message.NewPrinter(tag) }
}

// WithPageSegment sets the path segment used in pagination links ("page").
func WithPageSegment(seg string) Option {
	return func(r *Renderer) {
		if seg = strings.Trim(seg, "/"); seg != "" {
			r.pageSegment = seg
		}
	}
}

// New creates a renderer.
func New(tmpl Templates, opts ...Option) *Renderer {
	r := &Renderer{
		tmpl:        tmpl,
		printer:     message.NewPrinter(language.English),
		pageSegment: "page",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Items renders the sub-feed at index. It returns the markup and the number
// of items rendered. With no results only index 0 renders the empty state.
func (r *Renderer) Items(
	ctx context.Context, exec result.ExecutedQuery, configs []session.SubFeedConfig, index int,
) (string, int, error) {
	if index < 0 || index >= max(1, len(configs)) {
		return "", 0, nil
	}
	cfg := subFeedAt(configs, index)

	if exec.PageCount() == 0 {
		if index != 0 {
			return "", 0, nil
		}
		html, err := renderString(ctx, r.tmpl.None(cfg.TemplateNone))
		return html, 0, err
	}

	chunk := Chunk(exec.Items, configs)[index]
	var b strings.Builder
	for _, item := range chunk {
		if err := r.tmpl.Item(cfg.TemplateSingle, cards.ItemView{Item: item}).Render(ctx, &b); err != nil {
			return "", 0, fmt.Errorf("render item %s: %w", item.ID, err)
		}
	}
	return b.String(), len(chunk), nil
}

// AllItems renders every sub-feed in index order and the total rendered.
func (r *Renderer) AllItems(
	ctx context.Context, exec result.ExecutedQuery, configs []session.SubFeedConfig,
) ([]string, int, error) {
	n := max(1, len(configs))
	out := make([]string, n)
	total := 0
	for i := range n {
		html, count, err := r.Items(ctx, exec, configs, i)
		if err != nil {
			return nil, 0, err
		}
		out[i] = html
		total += count
	}
	return out, total, nil
}

// Featured renders pinned items. Nothing is rendered outside the default view.
func (r *Renderer) Featured(
	ctx context.Context, items []result.Item, template string, defaultView bool,
) (string, bool, error) {
	if len(items) == 0 || !defaultView {
		return "", false, nil
	}
	var b strings.Builder
	for _, item := range items {
		v := cards.ItemView{Item: item, Featured: true}
		if err := r.tmpl.Item(template, v).Render(ctx, &b); err != nil {
			return "", false, fmt.Errorf("render featured %s: %w", item.ID, err)
		}
	}
	return b.String(), true, nil
}

// LoadMore renders the load-more button.
func LoadMore(label string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="wp-block-button cty-archive-pagination__button">`+
			`<button type="submit" class="wp-block-button__link cty-archive-pagination__submit">`+
			`<span aria-hidden="true">%s</span>`+
			`<span class="screen-reader-text">Click to load more posts</span>`+
			`</button></div>`, templ.EscapeString(label))
		return err
	})
}

func subFeedAt(configs []session.SubFeedConfig, index int) session.SubFeedConfig {
	if index < len(configs) {
		c := configs[index]
		if c.TemplateSingle == "" {
			c.TemplateSingle = session.DefaultTemplateSingle
		}
		if c.TemplateNone == "" {
			c.TemplateNone = session.DefaultTemplateNone
		}
		return c
	}
	return session.SubFeedConfig{
		Index:          index,
		TemplateSingle: session.DefaultTemplateSingle,
		TemplateNone:   session.DefaultTemplateNone,
		Columns:        session.DefaultColumns,
	}
}

func renderString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
