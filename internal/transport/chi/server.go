package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/archivefeed/internal/domain"
	"github.com/kailas-cloud/archivefeed/internal/icons"
	"github.com/kailas-cloud/archivefeed/internal/logger"
	"github.com/kailas-cloud/archivefeed/internal/render"
	feeduc "github.com/kailas-cloud/archivefeed/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/archivefeed/internal/usecase/health"
)

// feedService renders feeds and answers async requests.
type feedService interface {
	Start(ctx context.Context, req feeduc.StartRequest) (feeduc.Page, error)
	Filter(ctx context.Context, req feeduc.FilterRequest) (feeduc.Fragments, error)
}

type iconLister interface {
	List() []icons.Icon
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorMapping maps a domain sentinel to an HTTP status.
type errorMapping struct {
	sentinel error
	status   int
}

var errorStatuses = []errorMapping{
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrRateLimited, http.StatusTooManyRequests},
}

// Server serves feed pages, the async feed endpoint and operational routes.
type Server struct {
	feeds    feedService
	icons    iconLister
	health   healthChecker
	logger   *zap.Logger
	endpoint string
	pageSlug string
	locale   string
	origins  []string
	rps      float64
	burst    int
}

// NewServer creates an HTTP server.
func NewServer(feeds feedService, icons iconLister, health healthChecker, logger *zap.Logger) *Server {
	return &Server{
		feeds:    feeds,
		icons:    icons,
		health:   health,
		logger:   logger,
		endpoint: feeduc.DefaultEndpoint,
		pageSlug: "page",
		locale:   "en",
	}
}

// WithPageSlug sets the path segment of paged feed views.
func (s *Server) WithPageSlug(slug string) *Server {
	if slug = strings.Trim(slug, "/"); slug != "" {
		s.pageSlug = slug
	}
	return s
}

// WithLocale sets the lang attribute of rendered documents.
func (s *Server) WithLocale(locale string) *Server {
	if locale != "" {
		s.locale = locale
	}
	return s
}

// WithCORS allows cross-origin calls to the async endpoint.
func (s *Server) WithCORS(origins []string) *Server {
	s.origins = origins
	return s
}

// WithRateLimit limits the async endpoint.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	s.rps = rps
	s.burst = burst
	return s
}

// Mount registers every route on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/icons", s.ListIcons)

	r.Get("/feeds/{feed}", s.RenderFeed)
	r.Get("/feeds/{feed}/", s.RenderFeed)
	r.Get("/feeds/{feed}/"+s.pageSlug+"/{page}", s.RenderFeed)
	r.Get("/feeds/{feed}/"+s.pageSlug+"/{page}/", s.RenderFeed)

	r.Group(func(r chi.Router) {
		r.Use(CORSMiddleware(s.origins))
		r.Use(RateLimitMiddleware(s.rps, s.burst))
		r.Get(s.endpoint, s.FeedAction)
		r.Post(s.endpoint, s.FeedAction)
		r.Options(s.endpoint, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// filterResponse is the JSON body of the async endpoint. The "paginaton"
// name is part of the wire format.
type filterResponse struct {
	PostItems  []string `json:"post_items"`
	Pagination *string  `json:"paginaton,omitempty"`
	Summary    *string  `json:"summary,omitempty"`
	Offset     *int     `json:"offset,omitempty"`
	Found      *int     `json:"found,omitempty"`
	PostsCount *int     `json:"posts_count,omitempty"`
}

// FeedAction handles GET and POST /feed-action.
func (s *Server) FeedAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req := feeduc.FilterRequest{
		Action:     r.Form.Get("action"),
		Nonce:      r.Form.Get("nonce"),
		FeedFilter: isTrue(r.Form.Get("feedFilter")),
		Append:     r.Form.Get("feedAppend"),
		FeedName:   r.Form.Get("feedName"),
		Params:     r.Form.Get("params"),
		SessionID:  r.Form.Get("unique_id"),
	}

	out, err := s.feeds.Filter(r.Context(), req)
	if err != nil {
		// Rejected async requests terminate without a body.
		w.WriteHeader(s.statusFor(r.Context(), err))
		return
	}

	resp := filterResponse{
		PostItems:  out.PostItems,
		Pagination: out.Pagination,
		Summary:    out.Summary,
		Offset:     out.Offset,
		Found:      out.Found,
		PostsCount: out.PostsCount,
	}
	if resp.PostItems == nil {
		resp.PostItems = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RenderFeed handles GET /feeds/{feed} and its paged variant.
func (s *Server) RenderFeed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "feed")

	page := 1
	if raw := chi.URLParam(r, "page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.NotFound(w, r)
			return
		}
		page = n
	}

	result, err := s.feeds.Start(r.Context(), feeduc.StartRequest{
		Feed:    name,
		Params:  r.URL.Query(),
		Page:    page,
		BaseURL: "/feeds/" + name + "/",
	})
	if err != nil {
		status := s.statusFor(r.Context(), err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	var buf bytes.Buffer
	if err := render.Document(result.Title, s.locale, result.Body).Render(r.Context(), &buf); err != nil {
		logger.FromContext(r.Context()).Error("render feed document failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ListIcons handles GET /icons.
func (s *Server) ListIcons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.icons.List())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// statusFor maps err to a status, logging unexpected errors.
func (s *Server) statusFor(ctx context.Context, err error) int {
	for _, m := range errorStatuses {
		if errors.Is(err, m.sentinel) {
			logger.FromContext(ctx).Warn("domain error", zap.Error(err))
			return m.status
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	return http.StatusInternalServerError
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
