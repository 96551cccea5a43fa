package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/workers"
	"stockpulse/pkg/logger"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// WorkerReporter exposes background worker health
type WorkerReporter interface {
	Health() map[string]workers.WorkerHealth
}

// Handler provides health check endpoints
type Handler struct {
	mu          sync.RWMutex
	checks      map[string]CheckFunc
	workers     WorkerReporter
	log         *logger.Logger
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a health handler with no registered checks
func New(serviceName, version string) *Handler {
	return &Handler{
		checks:      make(map[string]CheckFunc),
		log:         logger.Get().With("component", "health"),
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Register adds a named dependency check, e.g. "postgres" or "redis"
func (h *Handler) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// SetWorkers attaches a worker health source reported by /health
func (h *Handler) SetWorkers(r WorkerReporter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.workers = r
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status      string                          `json:"status"` // "healthy", "degraded", "unhealthy"
	Service     string                          `json:"service"`
	Version     string                          `json:"version"`
	Uptime      string                          `json:"uptime"`
	Timestamp   string                          `json:"timestamp"`
	Checks      map[string]ComponentHealth      `json:"checks"`
	Workers     map[string]workers.WorkerHealth `json:"workers,omitempty"`
	ErrorDetail string                          `json:"error_detail,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if the process is serving
func (h *Handler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// HandleReadiness returns 503 unless every registered dependency answers
func (h *Handler) HandleReadiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks, healthy := h.runChecks(ctx)
	status := h.status(checks)

	code := http.StatusOK
	if healthy < len(checks) {
		status.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", checks)
	}
	c.JSON(code, status)
}

// HandleHealth returns detailed status. Partial failure is reported as
// degraded with 200; only total failure returns 503.
func (h *Handler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	checks, healthy := h.runChecks(ctx)
	status := h.status(checks)

	h.mu.RLock()
	if h.workers != nil {
		status.Workers = h.workers.Health()
	}
	h.mu.RUnlock()

	code := http.StatusOK
	switch {
	case len(checks) > 0 && healthy == 0:
		status.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	case healthy < len(checks):
		status.Status = statusDegraded
	}
	c.JSON(code, status)
}

func (h *Handler) status(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    statusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
}

func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	funcs := make([]CheckFunc, len(names))
	for i, name := range names {
		funcs[i] = h.checks[name]
	}
	h.mu.RUnlock()

	results := make(map[string]ComponentHealth, len(names))
	healthy := 0
	for i, name := range names {
		res := h.check(ctx, name, funcs[i])
		if res.Status == statusHealthy {
			healthy++
		}
		results[name] = res
	}
	return results, healthy
}

func (h *Handler) check(ctx context.Context, name string, fn CheckFunc) ComponentHealth {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Warnw("Health check failed", "component", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       statusUnhealthy,
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       statusHealthy,
		ResponseTime: elapsed.String(),
	}
}
