package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (Database, RedisClient, EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// DegradedReporter reports whether a component is running on fallback data.
type DegradedReporter interface {
	Degraded() bool
}

// HealthChecks holds the set of dependencies to probe in the health endpoint.
// Nil fields are skipped.
type HealthChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
	Sync     DegradedReporter
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
	EventBus string `json:"event_bus,omitempty"`
	Sync     string `json:"sync,omitempty"`
}

// HealthHandler returns an http.HandlerFunc that probes all registered
// HealthCheckers and reports degraded status if any of them fail. A sync
// layer serving from its continuity snapshot also degrades the report, even
// when every ping succeeds.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}

		probe := func(hc HealthChecker, field *string) {
			if hc == nil {
				return
			}
			*field = "ok"
			if err := hc.Ping(ctx); err != nil {
				resp.Status = "degraded"
				*field = "unreachable"
			}
		}
		probe(checks.Database, &resp.Database)
		probe(checks.Redis, &resp.Redis)
		probe(checks.EventBus, &resp.EventBus)

		if checks.Sync != nil {
			resp.Sync = "ok"
			if checks.Sync.Degraded() {
				resp.Status = "degraded"
				resp.Sync = "snapshot-fallback"
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
