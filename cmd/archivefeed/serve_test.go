package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	logpkg "github.com/kailas-cloud/archivefeed/internal/logger"
)

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/feed-action", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic not logged")
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var ctxLogger *zap.Logger
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(zap.New(core)))
	r.Get("/icons", func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logpkg.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/icons", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	if ctxLogger == nil {
		t.Fatal("request logger not stored in context")
	}

	lines := logs.FilterMessage("http_request").All()
	if len(lines) != 1 {
		t.Fatalf("expected one http_request line, got %d", len(lines))
	}
	fields := lines[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["request_id"] == "" || fields["path"] != "/icons" {
		t.Errorf("fields = %v", fields)
	}
}
