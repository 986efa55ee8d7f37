package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/kailas-cloud/archivefeed/internal/domain"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/definition"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/filter"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/query"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/result"
	"github.com/kailas-cloud/archivefeed/internal/domain/feed/session"
	"github.com/kailas-cloud/archivefeed/internal/logger"
	"github.com/kailas-cloud/archivefeed/internal/render"
)

// ActionFilter is the only action the async endpoint accepts.
const ActionFilter = "feed-filter"

// DefaultEndpoint is the path the rendered form posts async requests to.
const DefaultEndpoint = "/feed-action"

// Service renders feeds and answers their asynchronous follow-up requests.
type Service struct {
	defs     Definitions
	sessions SessionStore
	engine   Engine
	nonces   Nonces
	codec    *filter.Codec
	renderer *render.Renderer
	recorder Recorder
	endpoint string
	now      func() time.Time
}

// New creates a feed service.
func New(
	defs Definitions, sessions SessionStore, engine Engine, nonces Nonces,
	codec *filter.Codec, renderer *render.Renderer,
) *Service {
	return &Service{
		defs:     defs,
		sessions: sessions,
		engine:   engine,
		nonces:   nonces,
		codec:    codec,
		renderer: renderer,
		recorder: nopRecorder{},
		endpoint: DefaultEndpoint,
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithEndpoint sets the async endpoint advertised in rendered forms.
func (s *Service) WithEndpoint(path string) *Service {
	if path != "" {
		s.endpoint = path
	}
	return s
}

// StartRequest asks for the initial render of a configured feed.
type StartRequest struct {
	Feed    string
	Params  url.Values
	Page    int
	BaseURL string
}

// Page is an initially rendered feed.
type Page struct {
	Title   string
	Session *session.Session
	Found   int
	Body    templ.Component
}

// Start renders a feed for a full page load and persists its session.
func (s *Service) Start(ctx context.Context, req StartRequest) (Page, error) {
	def, ok := s.defs.Get(req.Feed)
	if !ok {
		return Page{}, fmt.Errorf("feed %q: %w", req.Feed, domain.ErrNotFound)
	}
	log := logger.FromContext(ctx).With(zap.String("feed", def.Name))

	spec := s.codec.Decode(req.Params)
	base := def.BaseQuery()

	sess := s.sessions.Create(base)
	configure(sess, def)
	sess.BaseURL = req.BaseURL

	rc := RequestContext{
		Page:        max(1, req.Page),
		FeaturedIDs: sess.FeaturedIDs,
		Filtered:    spec.IsFiltered(),
	}
	q := Translate(base, spec, rc)
	exec := s.execute(ctx, log, def.Name, q)
	configs := sess.SubFeedConfigs()

	view := render.FormView{
		Name:      def.Name,
		SessionID: sess.ID,
		Endpoint:  s.endpoint,
	}

	view.Filters = s.controls(ctx, log, def, spec)

	var err error
	if def.Featured != nil && rc.IsDefaultView() && len(sess.FeaturedIDs) > 0 {
		items, lerr := s.engine.Lookup(ctx, sess.FeaturedIDs)
		if lerr != nil {
			log.Error("featured lookup failed", zap.Error(lerr))
		} else {
			view.Featured, view.HasFeatured, err = s.renderer.Featured(ctx, items, def.Featured.Template, true)
			if err != nil {
				return Page{}, fmt.Errorf("render featured: %w", err)
			}
		}
	}

	htmls, rendered, err := s.renderer.AllItems(ctx, exec, configs)
	if err != nil {
		return Page{}, fmt.Errorf("render items: %w", err)
	}
	for i, html := range htmls {
		view.SubFeeds = append(view.SubFeeds, render.SubFeedView{Columns: configs[i].Columns, HTML: html})
	}

	if def.Pagination != nil {
		switch def.Pagination.Type {
		case session.LoadMore:
			view.Pagination, err = renderToString(ctx, render.LoadMore(def.Pagination.ButtonText))
			view.HasPagination = err == nil
		default:
			view.Pagination, view.HasPagination, err = s.renderer.Pagination(ctx, render.PaginationInput{
				Exec:     exec,
				Current:  rc.Page,
				BaseURL:  req.BaseURL,
				Params:   filter.LocalParams(req.Params),
				Template: def.Pagination.Template,
			})
		}
		if err != nil {
			return Page{}, fmt.Errorf("render pagination: %w", err)
		}
	}

	if def.Summary {
		view.Summary, err = s.renderer.Summary(ctx, exec, rc.Page)
		if err != nil {
			return Page{}, fmt.Errorf("render summary: %w", err)
		}
		view.HasSummary = true
	}

	loaded := q.OffsetValue() + rendered
	sess.LoadedCount = query.Int(loaded)
	view.None = loaded >= exec.Found

	view.Nonce, err = s.nonces.Issue(sess.ID)
	if err != nil {
		return Page{}, fmt.Errorf("issue nonce: %w", err)
	}

	s.persist(ctx, log, sess)

	return Page{
		Title:   def.Title,
		Session: sess,
		Found:   exec.Found,
		Body:    s.renderer.Form(view),
	}, nil
}

// FilterRequest is an asynchronous filter or load-more request.
type FilterRequest struct {
	Action     string
	Nonce      string
	FeedFilter bool
	// Append is the raw feedAppend field.
	Append    string
	FeedName  string
	Params    string
	SessionID string
}

// Validate checks the request carries every required field.
func (r FilterRequest) Validate() error {
	if r.Action != "" && r.Action != ActionFilter {
		return domain.NewFieldError("action")
	}
	if !r.FeedFilter {
		return domain.NewFieldError("feedFilter")
	}
	if r.Nonce == "" {
		return domain.NewFieldError("nonce")
	}
	if r.SessionID == "" {
		return domain.NewFieldError("unique_id")
	}
	if r.FeedName == "" {
		return domain.NewFieldError("feedName")
	}
	return nil
}

// Fragments is the response to an asynchronous request. Optional fields are
// nil when absent.
type Fragments struct {
	PostItems  []string
	Pagination *string
	Summary    *string
	Offset     *int
	Found      *int
	PostsCount *int
}

// Filter translates an async request against its session, renders the
// resulting fragments and records the new load position.
func (s *Service) Filter(ctx context.Context, req FilterRequest) (Fragments, error) {
	if err := req.Validate(); err != nil {
		return Fragments{}, err
	}
	if err := s.nonces.Verify(req.Nonce, req.SessionID); err != nil {
		return Fragments{}, fmt.Errorf("%w: %w", domain.ErrForbidden, err)
	}
	log := logger.FromContext(ctx).With(zap.String("session_id", req.SessionID))

	sess := s.loadSession(ctx, log, req)
	log = log.With(zap.String("feed", sess.FeedName))

	spec := s.codec.DecodeString(req.Params)
	appendOn, appendOffset := filter.ParseAppend(req.Append)
	rc := RequestContext{
		Async:        true,
		Append:       appendOn,
		AppendOffset: appendOffset,
		LoadedCount:  sess.LoadedCount,
		FeaturedIDs:  sess.FeaturedIDs,
		Filtered:     spec.IsFiltered(),
	}
	q := Translate(sess.Query, spec, rc)
	exec := s.execute(ctx, log, sess.FeedName, q)

	items, rendered, err := s.renderer.AllItems(ctx, exec, sess.SubFeedConfigs())
	if err != nil {
		return Fragments{}, fmt.Errorf("render items: %w", err)
	}
	out := Fragments{PostItems: items}

	if sess.HasPagination() {
		html, ok, err := s.renderer.Pagination(ctx, render.PaginationInput{
			Exec:     exec,
			Current:  1,
			BaseURL:  sess.BaseURL,
			Params:   filter.LocalParams(parseParams(req.Params)),
			Template: sess.PaginationTemplate,
		})
		if err != nil {
			return Fragments{}, fmt.Errorf("render pagination: %w", err)
		}
		if ok {
			out.Pagination = &html
		}
	}

	if sess.SummaryEnabled {
		html, err := s.renderer.Summary(ctx, exec, 1)
		if err != nil {
			return Fragments{}, fmt.Errorf("render summary: %w", err)
		}
		out.Summary = &html
	}

	next := q.OffsetValue() + rendered
	if exec.Found > 0 {
		out.Offset = query.Int(q.OffsetValue() + exec.PageCount())
		out.Found = query.Int(exec.Found)
		out.PostsCount = query.Int(exec.PageCount())
	}

	if !sess.Degraded {
		sess.LoadedCount = query.Int(next)
		s.persist(ctx, log, sess)
	}

	return out, nil
}

// loadSession returns the stored session or a degraded stand-in.
func (s *Service) loadSession(ctx context.Context, log *zap.Logger, req FilterRequest) *session.Session {
	sess, err := s.sessions.Load(ctx, req.SessionID)
	if err == nil {
		return sess
	}
	s.recorder.SessionMissed(req.FeedName)
	if errors.Is(err, domain.ErrSessionNotFound) {
		log.Warn("feed session not found, rendering with empty configuration")
	} else {
		log.Error("load feed session failed, rendering with empty configuration", zap.Error(err))
	}
	def, ok := s.defs.Get(req.FeedName)
	if !ok {
		return session.Empty(req.SessionID, req.FeedName)
	}
	sess = session.New(req.SessionID, def.BaseQuery())
	configure(sess, def)
	sess.Degraded = true
	return sess
}

// configure copies the render configuration of def onto sess.
func configure(sess *session.Session, def definition.Feed) {
	sess.SubFeeds = def.SubFeedConfigs()
	sess.FeaturedIDs = def.FeaturedIDs()
	sess.SummaryEnabled = def.Summary
	if def.Pagination != nil {
		sess.PaginationType = def.Pagination.Type
		sess.PaginationTemplate = def.Pagination.Template
	}
}

// execute runs q. A failed query is logged and treated as zero results.
func (s *Service) execute(ctx context.Context, log *zap.Logger, feed string, q query.Descriptor) result.ExecutedQuery {
	log.Debug("executing feed query", zap.Any("query", q))
	start := s.now()
	exec, err := s.engine.Execute(ctx, q)
	s.recorder.QueryExecuted(feed, s.now().Sub(start).Seconds(), err != nil)
	if err != nil {
		log.Error("feed query failed", zap.Error(err))
		return result.Empty(q)
	}
	exec.Query = q
	return exec
}

func (s *Service) persist(ctx context.Context, log *zap.Logger, sess *session.Session) {
	sess.UpdatedAt = s.now()
	if err := s.sessions.Persist(ctx, sess); err != nil {
		s.recorder.PersistFailed(sess.FeedName)
		log.Error("persist feed session failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// controls renders the filter inputs of def with the current selection.
func (s *Service) controls(
	ctx context.Context, log *zap.Logger, def definition.Feed, spec filter.Spec,
) []templ.Component {
	out := make([]templ.Component, 0, len(def.Filters))
	for _, c := range def.Filters {
		in := render.ControlInput{
			Control:  c,
			Options:  c.Options,
			Selected: spec.Selected(render.FieldName(c)),
		}
		if c.Kind == definition.ControlTaxonomy && len(c.Options) == 0 {
			terms, err := s.engine.Terms(ctx, c.Name)
			if err != nil {
				log.Error("list taxonomy terms failed", zap.String("taxonomy", c.Name), zap.Error(err))
			}
			in.Options = make([]definition.Option, 0, len(terms))
			for _, t := range terms {
				in.Options = append(in.Options, definition.Option{Label: t.Name, Value: t.Slug})
			}
		}
		out = append(out, s.renderer.Control(in))
	}
	return out
}

func parseParams(raw string) url.Values {
	raw, _, _ = strings.Cut(raw, "#")
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return values
}

func renderToString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
