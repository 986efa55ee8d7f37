// Package definition describes configured feed blocks: the base query, the
// sub-feed layout and the filter controls rendered with a feed.
package definition

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
)

// Defaults applied by Feed.ApplyDefaults.
const (
	DefaultName           = "cty-feed"
	DefaultPostType       = session.DefaultPostType
	DefaultPerPage        = session.DefaultPerPage
	DefaultPaginationTmpl = "partials/archive-pagination"
	DefaultButtonText     = "Load More"
	DefaultShowAll        = "Show All"
)

// ControlKind is the kind of value a filter control constrains.
type ControlKind string

// Control kinds.
const (
	ControlTaxonomy ControlKind = "taxonomy"
	ControlMeta     ControlKind = "meta"
	ControlCustom   ControlKind = "custom"
	ControlSearch   ControlKind = "search"
	ControlSort     ControlKind = "sort"
)

// InputStyle is how a control presents its values.
type InputStyle string

// Input styles.
const (
	StyleSelect   InputStyle = "select"
	StyleRadio    InputStyle = "radio"
	StyleButton   InputStyle = "button"
	StyleCheckbox InputStyle = "checkbox"
	StyleButtons  InputStyle = "buttons"
)

// Option is a single selectable control value.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// SortOptions are the orderings offered by a sort control.
var SortOptions = []Option{
	{Label: "Newest first", Value: "date-DESC"},
	{Label: "Oldest first", Value: "date-ASC"},
	{Label: "A - Z", Value: "title-ASC"},
	{Label: "Z - A", Value: "title-DESC"},
}

// Control is one filter input rendered above a feed.
type Control struct {
	Kind        ControlKind `yaml:"kind"`
	Name        string      `yaml:"name"`
	Label       string      `yaml:"label"`
	Style       InputStyle  `yaml:"style"`
	Placeholder string      `yaml:"placeholder"`
	ShowAll     string      `yaml:"show_all"`
	Options     []Option    `yaml:"options"`
	Debounce    int         `yaml:"debounce_ms"`
}

// SubFeed is the layout of one sub-feed region.
type SubFeed struct {
	Columns        int    `yaml:"columns"`
	TemplateSingle string `yaml:"template_single"`
	TemplateNone   string `yaml:"template_none"`
}

// Featured pins items above the feed on its default view.
type Featured struct {
	IDs      []string `yaml:"ids"`
	Template string   `yaml:"template"`
}

// Pagination configures how further pages are reached.
type Pagination struct {
	Type       session.PaginationType `yaml:"type"`
	Template   string                 `yaml:"template"`
	ButtonText string                 `yaml:"button_text"`
}

// Base is the feed's own query constraints before any user filter.
type Base struct {
	Category     []string          `yaml:"category"`
	CategoryName []string          `yaml:"category_name"`
	Tag          []string          `yaml:"tag"`
	Taxonomy     string            `yaml:"taxonomy"`
	TermID       string            `yaml:"term_id"`
	Meta         map[string]string `yaml:"meta"`
	OrderBy      string            `yaml:"order_by"`
	Order        string            `yaml:"order"`
}

// Feed is a configured feed block.
type Feed struct {
	Name       string      `yaml:"name"`
	Title      string      `yaml:"title"`
	PostTypes  []string    `yaml:"post_types"`
	PerPage    int         `yaml:"per_page"`
	SubFeeds   []SubFeed   `yaml:"sub_feeds"`
	Featured   *Featured   `yaml:"featured"`
	Pagination *Pagination `yaml:"pagination"`
	Summary    bool        `yaml:"summary"`
	Filters    []Control   `yaml:"filters"`
	Base       Base        `yaml:"base"`
}

// ApplyDefaults fills empty fields with default values.
func (f *Feed) ApplyDefaults() {
	if f.Name == "" {
		f.Name = DefaultName
	}
	if len(f.PostTypes) == 0 {
		f.PostTypes = []string{DefaultPostType}
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if len(f.SubFeeds) == 0 {
		f.SubFeeds = []SubFeed{{}}
	}
	for i := range f.SubFeeds {
		sf := &f.SubFeeds[i]
		if sf.Columns <= 0 {
			sf.Columns = session.DefaultColumns
		}
		if sf.TemplateSingle == "" {
			sf.TemplateSingle = session.DefaultTemplateSingle
		}
		if sf.TemplateNone == "" {
			sf.TemplateNone = session.DefaultTemplateNone
		}
	}
	if f.Pagination != nil {
		if f.Pagination.Type == "" {
			f.Pagination.Type = session.Paginated
		}
		if f.Pagination.Template == "" {
			f.Pagination.Template = DefaultPaginationTmpl
		}
		if f.Pagination.ButtonText == "" {
			f.Pagination.ButtonText = DefaultButtonText
		}
	}
	if f.Featured != nil && f.Featured.Template == "" {
		f.Featured.Template = session.DefaultTemplateSingle
	}
	for i := range f.Filters {
		c := &f.Filters[i]
		if c.Style == "" {
			c.Style = StyleSelect
		}
		if c.Kind == ControlSort {
			c.Style = StyleSelect
			if c.Name == "" {
				c.Name = "sort"
			}
		}
		if c.Kind == ControlSearch {
			if c.Name == "" {
				c.Name = "search"
			}
			if c.Debounce <= 0 {
				c.Debounce = 200
			}
		}
		if c.ShowAll == "" {
			c.ShowAll = DefaultShowAll
		}
	}
}

// Validate checks the feed definition for correctness.
func (f *Feed) Validate() error {
	if f.Name == "" {
		return errors.New("name is required")
	}
	if f.Pagination != nil {
		switch f.Pagination.Type {
		case session.Paginated, session.LoadMore:
		default:
			return fmt.Errorf("pagination.type must be %q or %q, got %q",
				session.Paginated, session.LoadMore, f.Pagination.Type)
		}
	}
	if f.Base.Order != "" {
		if _, ok := query.ParseDirection(f.Base.Order); !ok {
			return fmt.Errorf("base.order must be ASC or DESC, got %q", f.Base.Order)
		}
	}
	if f.Base.OrderBy != "" && !query.IsOrderField(f.Base.OrderBy) {
		return fmt.Errorf("base.order_by %q is not a supported sort field", f.Base.OrderBy)
	}
	if (f.Base.Taxonomy == "") != (f.Base.TermID == "") {
		return errors.New("base.taxonomy and base.term_id must be set together")
	}
	for i, c := range f.Filters {
		switch c.Kind {
		case ControlTaxonomy, ControlMeta, ControlCustom:
			if c.Name == "" {
				return fmt.Errorf("filters[%d].name is required for %s controls", i, c.Kind)
			}
		case ControlSearch, ControlSort:
		default:
			return fmt.Errorf("filters[%d].kind %q is not supported", i, c.Kind)
		}
		switch c.Style {
		case StyleSelect, StyleRadio, StyleButton, StyleCheckbox, StyleButtons:
		default:
			return fmt.Errorf("filters[%d].style %q is not supported", i, c.Style)
		}
	}
	return nil
}

// BaseQuery builds the untranslated query descriptor for the feed.
func (f *Feed) BaseQuery() query.Descriptor {
	d := query.Descriptor{
		FeedName:     f.Name,
		SubFeedCount: len(f.SubFeeds),
		PostTypes:    slices.Clone(f.PostTypes),
		PerPage:      f.PerPage,
		Page:         1,
		OrderBy:      f.Base.OrderBy,
		Category:     slices.Clone(f.Base.Category),
		CategoryName: slices.Clone(f.Base.CategoryName),
		Tag:          slices.Clone(f.Base.Tag),
		Taxonomy:     f.Base.Taxonomy,
		TermID:       f.Base.TermID,
	}
	if d.OrderBy == "" {
		d.OrderBy = query.OrderDate
	}
	d.Order = query.Desc
	if dir, ok := query.ParseDirection(f.Base.Order); ok {
		d.Order = dir
	}
	for _, k := range slices.Sorted(maps.Keys(f.Base.Meta)) {
		d.Meta = append(d.Meta, query.MetaPredicate{
			Key:      k,
			Values:   []string{f.Base.Meta[k]},
			Operator: query.OpEqual,
		})
	}
	return d
}

// SubFeedConfigs returns the session form of the sub-feed layout.
func (f *Feed) SubFeedConfigs() []session.SubFeedConfig {
	out := make([]session.SubFeedConfig, len(f.SubFeeds))
	for i, sf := range f.SubFeeds {
		out[i] = session.SubFeedConfig{
			Index:          i,
			TemplateSingle: sf.TemplateSingle,
			TemplateNone:   sf.TemplateNone,
			Columns:        sf.Columns,
		}
	}
	return out
}

// FeaturedIDs returns the pinned item ids, if any.
func (f *Feed) FeaturedIDs() []string {
	if f.Featured == nil {
		return nil
	}
	return slices.Clone(f.Featured.IDs)
}

// Registry is an immutable set of feed definitions keyed by name.
type Registry struct {
	feeds map[string]Feed
	names []string
}

// NewRegistry applies defaults, validates and indexes feeds.
func NewRegistry(feeds ...Feed) (*Registry, error) {
	r := &Registry{feeds: make(map[string]Feed, len(feeds))}
	for i := range feeds {
		f := feeds[i]
		f.ApplyDefaults()
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("feeds[%d] (%s): %w", i, f.Name, err)
		}
		if _, dup := r.feeds[f.Name]; dup {
			return nil, fmt.Errorf("feeds[%d]: duplicate feed name %q", i, f.Name)
		}
		r.feeds[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	return r, nil
}

// Get returns the feed named name.
func (r *Registry) Get(name string) (Feed, bool) {
	f, ok := r.feeds[name]
	return f, ok
}

// Names returns feed names in configuration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}
