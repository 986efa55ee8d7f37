package render

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// SubFeedView is one rendered sub-feed region.
type SubFeedView struct {
	Columns int
	HTML    string
}

// FormView is the full markup of an initially rendered feed.
type FormView struct {
	Name      string
	SessionID string
	Nonce     string
	Endpoint  string
	// None marks a feed with nothing left to load.
	None bool

	Filters     []templ.Component
	Featured    string
	HasFeatured bool
	SubFeeds    []SubFeedView
	// Pagination holds page links or the load-more button.
	Pagination    string
	HasPagination bool
	Summary       string
	HasSummary    bool
}

// Form renders the feed root element and every region of the feed.
func (r *Renderer) Form(v FormView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ww := &htmlWriter{w: w}
		ww.raw(`<article class="cty-archive wp-clarity-block alignfull cty-archive--`)
		ww.text(v.Name)
		ww.raw(`"><div class="cty-archive__inner"><div class="cty-archive__content">`)

		class := "cty-archive__form"
		if v.None {
			class += " cty-archive__form--none"
		}
		ww.raw(`<form name="`)
		ww.text(v.Name)
		ww.raw(`" method="get" class="`)
		ww.text(class)
		ww.raw(`" data-unique_id="`)
		ww.text(v.SessionID)
		ww.raw(`" data-nonce="`)
		ww.text(v.Nonce)
		ww.raw(`" data-endpoint="`)
		ww.text(v.Endpoint)
		ww.raw(`">`)
		ww.raw(`<div class="cty-archive__loader">`)
		ww.text(r.printer.Sprintf("Loading"))
		ww.raw(`</div>`)

		for _, f := range v.Filters {
			if ww.err != nil {
				break
			}
			ww.err = f.Render(ctx, w)
		}

		if v.HasFeatured {
			ww.raw(`<div class="cty-archive-featured">`)
			ww.raw(v.Featured)
			ww.raw(`</div>`)
		}

		for _, sf := range v.SubFeeds {
			ww.raw(`<div style="--cty-archive-posts-cols: `)
			ww.raw(strconv.Itoa(sf.Columns))
			ww.raw(`;" class="cty-archive-posts">`)
			ww.raw(sf.HTML)
			ww.raw(`</div>`)
		}

		if v.HasPagination {
			ww.raw(`<div class="cty-archive-pagination">`)
			ww.raw(v.Pagination)
			ww.raw(`</div>`)
		}

		if v.HasSummary {
			ww.raw(`<div class="cty-archive-summary">`)
			ww.raw(v.Summary)
			ww.raw(`</div>`)
		}

		ww.raw(`</form></div></div></article>`)
		return ww.err
	})
}

// Document wraps body in a minimal HTML page.
func Document(title, lang string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if lang == "" {
			lang = "en"
		}
		ww := &htmlWriter{w: w}
		ww.raw(`<!DOCTYPE html><html lang="`)
		ww.text(lang)
		ww.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		ww.text(title)
		ww.raw(`</title></head><body>`)
		if ww.err != nil {
			return ww.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		ww.raw(`</body></html>`)
		return ww.err
	})
}
