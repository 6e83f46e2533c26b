package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type registeredCheck struct {
	checker  HealthChecker
	optional bool
}

// HealthHandler serves liveness and readiness. A failing optional component,
// such as the owner cache, degrades the report without failing readiness.
type HealthHandler struct {
	checks map[string]registeredCheck
	logger *zap.Logger
}

func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks: make(map[string]registeredCheck),
		logger: logger,
	}
}

func (h *HealthHandler) Register(name string, checker HealthChecker) {
	h.checks[name] = registeredCheck{checker: checker}
}

func (h *HealthHandler) RegisterOptional(name string, checker HealthChecker) {
	h.checks[name] = registeredCheck{checker: checker, optional: true}
}

type componentHealth struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := make(map[string]componentHealth, len(h.checks))
	var mu sync.Mutex
	var g errgroup.Group

	for name, rc := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := rc.checker.HealthCheck(ctx)
			ch := componentHealth{
				Status:   "healthy",
				Optional: rc.optional,
				Latency:  time.Since(start).String(),
			}
			if err != nil {
				ch.Status = "unhealthy"
				ch.Error = err.Error()
				h.logger.Warn("readiness check failed", zap.String("component", name), zap.Error(err))
			}
			mu.Lock()
			results[name] = ch
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	overallStatus := http.StatusOK
	overall := "healthy"
	for _, ch := range results {
		if ch.Status != "unhealthy" {
			continue
		}
		overall = "degraded"
		if !ch.Optional {
			overallStatus = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(overallStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     overall,
		"components": results,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
