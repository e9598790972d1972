package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/0xmhha/ledger-query/pkg/storage"
)

// Health reports the state of the query service and its storage backend
type Health struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Storage   *ComponentHealth `json:"storage,omitempty"`
}

// ComponentHealth represents the health of a component
type ComponentHealth struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthChecker answers health and readiness probes
type HealthChecker struct {
	version   string
	startTime time.Time
	exec      storage.Executor
}

// NewHealthChecker creates a health checker over exec. A nil exec reports no storage section.
func NewHealthChecker(version string, exec storage.Executor) *HealthChecker {
	return &HealthChecker{
		version:   version,
		startTime: time.Now(),
		exec:      exec,
	}
}

// Check returns the current health
func (hc *HealthChecker) Check(ctx context.Context) Health {
	health := Health{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(hc.startTime).Round(time.Second).String(),
		Version:   hc.version,
	}

	if hc.exec != nil {
		health.Storage = hc.checkStorage(ctx)
		if health.Storage.Status != "healthy" {
			health.Status = "unhealthy"
		}
	}

	return health
}

func (hc *HealthChecker) checkStorage(ctx context.Context) *ComponentHealth {
	start := time.Now()
	err := storage.Ping(ctx, hc.exec)

	component := &ComponentHealth{
		Status:  "healthy",
		Backend: string(hc.exec.Type()),
		Latency: time.Since(start).String(),
	}
	if err != nil {
		component.Status = "unhealthy"
		component.Message = err.Error()
	}
	return component
}

// HealthHandler serves the health report; an unhealthy backend answers 503
func (hc *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hc.Check(r.Context())

		status := http.StatusOK
		if health.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(health)
	}
}

// LivenessHandler returns 200 while the process is alive
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
		})
	}
}

// VersionHandler reports the service name and version
func (hc *HealthChecker) VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":    "ledger-query",
			"version": hc.version,
		})
	}
}
