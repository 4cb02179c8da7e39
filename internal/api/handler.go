// Package api provides shared HTTP helpers and the health endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// AgentName is reported by the health endpoint.
const AgentName = "Riddler"

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version string
	store   Pinger
	timeout time.Duration
}

// NewHealthHandler creates a health handler. store may be nil, in which case
// readiness only reports the API itself.
func NewHealthHandler(version string, store Pinger) *HealthHandler {
	return &HealthHandler{version: version, store: store, timeout: 5 * time.Second}
}

// Health is the liveness probe. It never touches dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"agent":   AgentName,
		"version": h.version,
	})
}

// Ready reports whether the session store is reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "ok",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			slog.Error("Readiness check failed", "error", err)
			status["status"] = "degraded"
			checks["store"] = "unreachable"
			statusCode = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check routes.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)
}
