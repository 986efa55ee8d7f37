// Package result holds the output of an executed content query.
package result

import (
	"time"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
)

// Term is a taxonomy term known to the content engine.
type Term struct {
	ID       string `json:"id" yaml:"id"`
	Slug     string `json:"slug" yaml:"slug"`
	Name     string `json:"name" yaml:"name"`
	Taxonomy string `json:"taxonomy" yaml:"-"`
}

// Item is a single piece of content.
type Item struct {
	ID        string              `json:"id" yaml:"id"`
	Type      string              `json:"type" yaml:"type"`
	Title     string              `json:"title" yaml:"title"`
	Excerpt   string              `json:"excerpt" yaml:"excerpt"`
	URL       string              `json:"url" yaml:"url"`
	Image     string              `json:"image,omitempty" yaml:"image"`
	Date      time.Time           `json:"date" yaml:"date"`
	Modified  time.Time           `json:"modified" yaml:"modified"`
	MenuOrder int                 `json:"menu_order" yaml:"menu_order"`
	Terms     map[string][]string `json:"terms,omitempty" yaml:"terms"`
	Meta      map[string]string   `json:"meta,omitempty" yaml:"meta"`
}

// ExecutedQuery is one page of results for a Descriptor.
type ExecutedQuery struct {
	Query query.Descriptor
	Items []Item
	// Found is the total number of matches ignoring pagination.
	Found int
	// ActiveTerms holds display names of the terms the query is constrained by.
	ActiveTerms []string
}

// Empty is the zero-result execution of q.
func Empty(q query.Descriptor) ExecutedQuery {
	return ExecutedQuery{Query: q}
}

// PageCount is the number of items returned for this page.
func (e ExecutedQuery) PageCount() int {
	return len(e.Items)
}

// MaxPages is the page count for the query's page size.
func (e ExecutedQuery) MaxPages() int {
	return PagesFor(e.Found, e.Query.PerPage)
}

// PagesFor returns ceil(found/perPage); zero when perPage is not positive.
func PagesFor(found, perPage int) int {
	if perPage <= 0 || found <= 0 {
		return 0
	}
	return (found + perPage - 1) / perPage
}
