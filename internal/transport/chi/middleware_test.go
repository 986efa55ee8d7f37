package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(0.001, 2)(okHandler())

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/feed-action", http.NoBody))
		if rr.Code != code {
			t.Errorf("request %d: status = %d, want %d", i, rr.Code, code)
		}
		if code == http.StatusTooManyRequests && rr.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", rr.Body.String())
		}
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	h := RateLimitMiddleware(0, 0)(okHandler())
	for i := range 50 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rr.Code)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://example.com"})(okHandler())

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{"allowed origin", "https://example.com", "https://example.com"},
		{"other origin", "https://evil.test", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed-action", http.NoBody)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantHeader)
			}
		})
	}
}

func TestCORSMiddleware_Disabled(t *testing.T) {
	h := CORSMiddleware(nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected CORS header %q", got)
	}
}
