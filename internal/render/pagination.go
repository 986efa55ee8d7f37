package render

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
	"github.com/kailas-cloud/archivefeed/internal/render/cards"
)

const (
	endSize = 1
	midSize = 2
)

// PaginationInput is everything needed to build pagination links.
type PaginationInput struct {
	Exec     result.ExecutedQuery
	Current  int
	BaseURL  string
	Params   url.Values
	Template string
}

// TotalPages is the page count of the full result set. On the first page
// featured exclusions are added back so the count reflects every item.
func TotalPages(exec result.ExecutedQuery, current int) int {
	found := exec.Found
	if current <= 1 {
		found += len(exec.Query.ExcludeIDs)
	}
	return result.PagesFor(found, exec.Query.PerPage)
}

// Pagination renders numbered page links. ok is false when there are fewer
// than two pages.
func (r *Renderer) Pagination(ctx context.Context, in PaginationInput) (string, bool, error) {
	total := TotalPages(in.Exec, in.Current)
	if total < 2 {
		return "", false, nil
	}
	view := r.PaginationView(in, total)
	html, err := renderString(ctx, r.tmpl.Pagination(in.Template, view))
	if err != nil {
		return "", false, err
	}
	return html, true, nil
}

// PaginationView builds the link list for total pages.
func (r *Renderer) PaginationView(in PaginationInput, total int) cards.PaginationView {
	current := min(max(1, in.Current), total)
	link := r.linker(in.BaseURL, in.Params)

	v := cards.PaginationView{
		Current:   current,
		Total:     total,
		FirstPage: link(1),
		LastPage:  link(total),
	}

	if current > 1 {
		v.Links = append(v.Links, cards.PageLink{
			Label: r.printer.Sprintf("Previous"), URL: link(current - 1), Number: current - 1, Rel: "prev",
		})
	}
	dots := false
	for n := 1; n <= total; n++ {
		switch {
		case n == current:
			v.Links = append(v.Links, cards.PageLink{Label: cards.PageLabel(n), Number: n, Current: true})
			dots = true
		case n <= endSize || (n >= current-midSize && n <= current+midSize) || n > total-endSize:
			rel := ""
			switch n {
			case 1:
				rel = "first"
			case total:
				rel = "last"
			}
			v.Links = append(v.Links, cards.PageLink{Label: cards.PageLabel(n), URL: link(n), Number: n, Rel: rel})
			dots = true
		case dots:
			v.Links = append(v.Links, cards.PageLink{Dots: true})
			dots = false
		}
	}
	if current < total {
		v.Links = append(v.Links, cards.PageLink{
			Label: r.printer.Sprintf("Next"), URL: link(current + 1), Number: current + 1, Rel: "next",
		})
	}
	return v
}

// linker returns a function building the URL of page n. Page 1 is the base
// itself; other pages use "<base><segment>/<n>/". Local params follow verbatim.
func (r *Renderer) linker(baseURL string, params url.Values) func(int) string {
	base, _, _ := strings.Cut(baseURL, "?")
	base, _, _ = strings.Cut(base, "#")
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	qs := ""
	if enc := params.Encode(); enc != "" {
		qs = "?" + enc
	}
	return func(n int) string {
		if n <= 1 {
			return base + qs
		}
		return base + r.pageSegment + "/" + strconv.Itoa(n) + "/" + qs
	}
}
