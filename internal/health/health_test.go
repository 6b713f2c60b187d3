package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/walletd/internal/logger"
)

func newTestServer() *Server {
	return NewServer(0, "v-test", logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		rpcHealthy bool
		wantCode   int
		wantStatus string
	}{
		{"all healthy", true, http.StatusOK, "ok"},
		{"one failing", false, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.RegisterCheck("wallet_session", func(context.Context) (bool, string) { return true, "Authenticated" })
			s.RegisterCheck("rpc", func(context.Context) (bool, string) { return tt.rpcHealthy, "breaker" })

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json content type, got %q", ct)
			}

			var status Status
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if status.Status != tt.wantStatus {
				t.Errorf("expected %q, got %q", tt.wantStatus, status.Status)
			}
			if status.Checks["wallet_session"].Message != "Authenticated" {
				t.Errorf("unexpected checks: %+v", status.Checks)
			}
			if status.Version != "v-test" {
				t.Errorf("expected version, got %q", status.Version)
			}
		})
	}
}

func TestReadyAndLive(t *testing.T) {
	s := newTestServer()
	healthy := false
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return healthy, "" })

	get := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code, rec.Body.String()
	}

	if code, body := get("/ready"); code != http.StatusServiceUnavailable || body != "not ready" {
		t.Errorf("/ready while failing: %d %q", code, body)
	}
	healthy = true
	if code, body := get("/ready"); code != http.StatusOK || body != "ready" {
		t.Errorf("/ready while healthy: %d %q", code, body)
	}
	if code, body := get("/live"); code != http.StatusOK || body != "alive" {
		t.Errorf("/live: %d %q", code, body)
	}
}
