package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"genesis-api/pkg/apierror"
	"genesis-api/pkg/envelope"
)

// Check probes one dependency for the readiness endpoint.
type Check func(ctx context.Context) error

type HealthHandler struct {
	name     string
	version  string
	authMode string
	started  time.Time
	checks   map[string]Check
	timeout  time.Duration
}

func NewHealthHandler(name string, version string, authMode string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		name:     name,
		version:  version,
		authMode: authMode,
		started:  time.Now(),
		checks:   checks,
		timeout:  3 * time.Second,
	}
}

type serviceInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	AuthMode string `json:"authMode"`
	Health   string `json:"health"`
	Metrics  string `json:"metrics"`
}

type healthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, serviceInfo{
		Name:     h.name,
		Version:  h.version,
		AuthMode: h.authMode,
		Health:   "/health",
		Metrics:  "/metrics",
	})
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, healthStatus{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: envelope.Now().UTC().Format(envelope.TimestampLayout),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	result := readiness{Status: "ready", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			result.Checks[name] = err.Error()
			result.Status = "not_ready"
			continue
		}
		result.Checks[name] = "ok"
	}

	if result.Status != "ready" {
		writeError(w, r, apierror.New(apierror.CodeUnavailable, "Service not ready", map[string]any{"checks": result.Checks}))
		return
	}
	writeSuccess(w, r, http.StatusOK, result)
}
