package handlers

import (
	"context"
	"net/http"
	"time"
)

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cached    int              `json:"cached"`
	Timestamp string           `json:"timestamp"`
}

// Health handles the health check endpoint. The ledger is required; the
// mint store and Redis are reported only when configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	allHealthy := true

	if h.ledger != nil {
		start := time.Now()
		if _, err := h.ledger.Status(ctx); err != nil {
			checks["ledger"] = Check{Status: "fail", Message: "rpc unavailable"}
			allHealthy = false
		} else {
			checks["ledger"] = Check{Status: "pass", Latency: time.Since(start).String()}
		}
	} else {
		checks["ledger"] = Check{Status: "fail", Message: "not configured"}
		allHealthy = false
	}

	if h.mints != nil {
		allHealthy = ping(ctx, checks, "store", h.mints) && allHealthy
	}
	if h.redis != nil {
		allHealthy = ping(ctx, checks, "redis", h.redis) && allHealthy
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   h.version,
		Checks:    checks,
		Cached:    h.results.Len(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func ping(ctx context.Context, checks map[string]Check, name string, p Pinger) bool {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		checks[name] = Check{Status: "fail", Message: "connection failed"}
		return false
	}
	checks[name] = Check{Status: "pass", Latency: time.Since(start).String()}
	return true
}

// Root returns the plain version string.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.Text(w, http.StatusOK, "haikunft v"+h.version)
}
