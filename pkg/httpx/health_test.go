package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/auctiondesk/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

type stubDegraded struct{ degraded bool }

func (s *stubDegraded) Degraded() bool { return s.degraded }

func runHealth(t *testing.T, checks httpx.HealthChecks) (int, map[string]string) {
	t.Helper()
	h := httpx.HealthHandler(checks)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, resp
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	code, resp := runHealth(t, httpx.HealthChecks{
		Database: &stubChecker{},
		Redis:    &stubChecker{},
		EventBus: &stubChecker{},
		Sync:     &stubDegraded{},
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["status"] != "ok" || resp["sync"] != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	code, resp := runHealth(t, httpx.HealthChecks{
		Database: &stubChecker{err: errors.New("conn refused")},
		Redis:    &stubChecker{},
		EventBus: &stubChecker{},
	})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp["status"] != "degraded" || resp["database"] != "unreachable" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthHandler_SyncOnSnapshotFallback(t *testing.T) {
	code, resp := runHealth(t, httpx.HealthChecks{
		Database: &stubChecker{},
		Redis:    &stubChecker{},
		EventBus: &stubChecker{},
		Sync:     &stubDegraded{degraded: true},
	})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp["status"] != "degraded" || resp["sync"] != "snapshot-fallback" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthHandler_NilChecksSkipped(t *testing.T) {
	code, resp := runHealth(t, httpx.HealthChecks{
		Database: &stubChecker{},
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if _, ok := resp["redis"]; ok {
		t.Errorf("nil checks must be omitted: %+v", resp)
	}
}

func TestHealthHandler_AllDown(t *testing.T) {
	code, resp := runHealth(t, httpx.HealthChecks{
		Database: &stubChecker{err: errors.New("down")},
		Redis:    &stubChecker{err: errors.New("down")},
		EventBus: &stubChecker{err: errors.New("down")},
	})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp["database"] != "unreachable" || resp["redis"] != "unreachable" || resp["event_bus"] != "unreachable" {
		t.Errorf("expected all dependencies unreachable: %+v", resp)
	}
}
