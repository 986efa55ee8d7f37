package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

// Range is the 1-based inclusive span of results shown.
type Range struct {
	From, To, Found int
}

// SummaryRange computes the span displayed for page. On the first page an
// accumulated load-more offset extends the end of the range.
func SummaryRange(exec result.ExecutedQuery, page int) Range {
	found := exec.Found
	if found <= 0 {
		return Range{}
	}
	page = max(1, page)

	perPage := exec.Query.PerPage
	pageTotal := found
	if perPage > 0 && perPage < found {
		pageTotal = perPage
	}

	from := (page-1)*pageTotal + 1
	to := min(pageTotal*page, found)
	if page == 1 && exec.Query.Offset != nil {
		to = min(to+*exec.Query.Offset, found)
	}
	return Range{From: from, To: to, Found: found}
}

// Summary renders the result count line.
func (r *Renderer) Summary(ctx context.Context, exec result.ExecutedQuery, page int) (string, error) {
	return renderString(ctx, r.SummaryComponent(exec, page))
}

// SummaryComponent is the templ form of Summary.
func (r *Renderer) SummaryComponent(exec result.ExecutedQuery, page int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var text string
		if exec.Found <= 0 {
			text = r.printer.Sprintf("No results found for %s", r.summaryTerms(exec))
		} else {
			rg := SummaryRange(exec, page)
			text = r.printer.Sprintf("Showing %d - %d of %d", rg.From, rg.To, rg.Found)
		}
		_, err := fmt.Fprintf(w, `<div class="cty-archive-summary__inner">%s</div>`, templ.EscapeString(text))
		return err
	})
}

func (r *Renderer) summaryTerms(exec result.ExecutedQuery) string {
	if exec.Query.Search != "" {
		return `"` + exec.Query.Search + `"`
	}
	if len(exec.ActiveTerms) > 0 {
		return `"` + strings.Join(exec.ActiveTerms, ", ") + `"`
	}
	return r.printer.Sprintf("your query")
}
