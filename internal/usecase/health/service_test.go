package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name         string
		sessions     error
		content      Pinger
		wantStatus   Status
		wantSessions CheckResult
		wantContent  CheckResult // empty when absent
	}{
		{"all healthy", nil, &mockPinger{}, Healthy, CheckOK, CheckOK},
		{"sessions down", down, &mockPinger{}, Degraded, CheckError, CheckOK},
		{"content down", nil, &mockPinger{err: down}, Degraded, CheckOK, CheckError},
		{"both down", down, &mockPinger{err: down}, Degraded, CheckError, CheckError},
		{"no content store", nil, nil, Healthy, CheckOK, ""},
		{"no content store, sessions down", down, nil, Degraded, CheckError, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tc.sessions}, tc.content)
			r := svc.Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tc.wantStatus)
			}
			if r.Checks["sessions"] != tc.wantSessions {
				t.Errorf("sessions = %q, want %q", r.Checks["sessions"], tc.wantSessions)
			}
			got, ok := r.Checks["content"]
			if tc.wantContent == "" {
				if ok {
					t.Error("content check should be absent when content is nil")
				}
				return
			}
			if got != tc.wantContent {
				t.Errorf("content = %q, want %q", got, tc.wantContent)
			}
		})
	}
}
