// Package session holds the feed state carried from the initial render to
// the asynchronous follow-up requests.
package session

import (
	"slices"
	"time"

	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
)

// Default template references used when a sub-feed has no configuration.
const (
	DefaultTemplateSingle = "partials/card-post-item"
	DefaultTemplateNone   = "partials/archive-no-results"
	DefaultColumns        = 3
)

// Query defaults for a degraded session with no feed configuration.
const (
	DefaultPerPage  = 10
	DefaultPostType = "post"
)

// PaginationType selects how further pages are reached.
type PaginationType string

const (
	// Paginated renders numbered page links.
	Paginated PaginationType = "pagination"
	// LoadMore renders a single "load more" button.
	LoadMore PaginationType = "load_more"
)

// SubFeedConfig is the render configuration of one sub-feed region.
type SubFeedConfig struct {
	Index          int    `json:"index"`
	TemplateSingle string `json:"template_single"`
	TemplateNone   string `json:"template_none"`
	Columns        int    `json:"columns"`
}

// ChunkSize is the maximum number of items the sub-feed takes from a shared query.
func (c SubFeedConfig) ChunkSize() int {
	cols := c.Columns
	if cols <= 0 {
		cols = DefaultColumns
	}
	return cols * 2
}

// Session is the persisted state of one rendered feed instance.
type Session struct {
	ID                 string           `json:"id"`
	FeedName           string           `json:"feed_name"`
	Query              query.Descriptor `json:"query"`
	SubFeeds           []SubFeedConfig  `json:"sub_feeds,omitempty"`
	FeaturedIDs        []string         `json:"featured_ids,omitempty"`
	PaginationType     PaginationType   `json:"pagination_type,omitempty"`
	PaginationTemplate string           `json:"pagination_template,omitempty"`
	SummaryEnabled     bool             `json:"summary_enabled"`
	BaseURL            string           `json:"base_url,omitempty"`
	LoadedCount        *int             `json:"loaded_count,omitempty"`
	UpdatedAt          time.Time        `json:"updated_at"`
	// Degraded is set on a stand-in for a session that could not be loaded.
	Degraded bool `json:"-"`
}

// New creates a session for the given query.
func New(id string, q query.Descriptor) *Session {
	return &Session{ID: id, FeedName: q.FeedName, Query: q.Clone()}
}

// Empty returns the degraded stand-in used when a session is missing.
func Empty(id, feedName string) *Session {
	return &Session{
		ID:       id,
		FeedName: feedName,
		Query: query.Descriptor{
			FeedName:     feedName,
			PostTypes:    []string{DefaultPostType},
			PerPage:      DefaultPerPage,
			SubFeedCount: 1,
		},
		Degraded: true,
	}
}

// SubFeedCount is the number of sub-feed regions sharing the query.
func (s *Session) SubFeedCount() int {
	return max(1, s.Query.SubFeedCount, len(s.SubFeeds))
}

// SubFeed returns the configuration at index i, falling back to defaults.
func (s *Session) SubFeed(i int) SubFeedConfig {
	for _, c := range s.SubFeeds {
		if c.Index == i {
			if c.TemplateSingle == "" {
				c.TemplateSingle = DefaultTemplateSingle
			}
			if c.TemplateNone == "" {
				c.TemplateNone = DefaultTemplateNone
			}
			if c.Columns <= 0 {
				c.Columns = DefaultColumns
			}
			return c
		}
	}
	return SubFeedConfig{
		Index:          i,
		TemplateSingle: DefaultTemplateSingle,
		TemplateNone:   DefaultTemplateNone,
		Columns:        DefaultColumns,
	}
}

// SubFeedConfigs returns the configuration of every sub-feed in index order.
func (s *Session) SubFeedConfigs() []SubFeedConfig {
	n := s.SubFeedCount()
	out := make([]SubFeedConfig, n)
	for i := range n {
		out[i] = s.SubFeed(i)
	}
	return out
}

// HasPagination reports whether numbered pagination links are rendered.
func (s *Session) HasPagination() bool {
	return s.PaginationType == Paginated
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	out := *s
	out.Query = s.Query.Clone()
	out.SubFeeds = slices.Clone(s.SubFeeds)
	out.FeaturedIDs = slices.Clone(s.FeaturedIDs)
	if s.LoadedCount != nil {
		v := *s.LoadedCount
		out.LoadedCount = &v
	}
	return &out
}
