package cards

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() = %v", err)
	}
	return b.String()
}

func TestPostItem_EscapesFields(t *testing.T) {
	got := render(t, PostItem(ItemView{
		Item: result.Item{
			ID:    "7",
			Type:  "post",
			Title: `<script>x</script>`,
			URL:   `/p/7?a=1&b="2"`,
			Date:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		Featured: true,
	}))

	if strings.Contains(got, "<script>") {
		t.Fatalf("title not escaped: %q", got)
	}
	if !strings.Contains(got, `cty-card--featured`) {
		t.Errorf("missing featured class: %q", got)
	}
	if !strings.Contains(got, `datetime="2024-03-05"`) {
		t.Errorf("missing date: %q", got)
	}
	if !strings.Contains(got, `href="/p/7?a=1&amp;b=&#34;2&#34;"`) {
		t.Errorf("url not escaped: %q", got)
	}
}

func TestRegistry_FallsBackToDefaults(t *testing.T) {
	r := NewRegistry()
	got := render(t, r.Item("partials/unknown", ItemView{Item: result.Item{ID: "1", Title: "One"}}))
	if !strings.Contains(got, `class="cty-card`) {
		t.Errorf("expected default card, got %q", got)
	}
	if got := render(t, r.None("missing")); !strings.Contains(got, "no results") {
		t.Errorf("expected default empty state, got %q", got)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.RegisterItem("custom", func(v ItemView) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "custom:"+v.Item.ID)
			return err
		})
	})
	if got := render(t, r.Item("custom", ItemView{Item: result.Item{ID: "9"}})); got != "custom:9" {
		t.Errorf("Item(custom) = %q", got)
	}
}

func TestPagination_Links(t *testing.T) {
	got := render(t, Pagination(PaginationView{
		Current: 2,
		Total:   3,
		Links: []PageLink{
			{Label: "Previous", URL: "/news/", Rel: "prev"},
			{Label: "1", URL: "/news/", Number: 1},
			{Label: "2", Number: 2, Current: true},
			{Label: "3", URL: "/news/page/3/", Number: 3},
			{Dots: true},
		},
	}))
	for _, want := range []string{
		`rel="prev"`,
		`aria-current="page">2</span>`,
		`href="/news/page/3/"`,
		`&hellip;`,
		`data-total="3"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("pagination missing %q in %q", want, got)
		}
	}
}
