package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

const checkTimeout = 3 * time.Second

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthChecker runs named dependency checks for readiness
type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]Check)}
}

// Register adds a named check, replacing any previous check with that name
func (h *HealthChecker) Register(name string, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// GetHealthStatus runs every check and reports whether all passed
func (h *HealthChecker) GetHealthStatus(ctx context.Context) (map[string]interface{}, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = h.checks[name]
	}
	h.mu.RUnlock()

	results := make(map[string]interface{}, len(names))
	ready := true
	for i, name := range names {
		err := runCheck(ctx, checks[i])
		if err != nil {
			ready = false
			results[name] = map[string]interface{}{"status": "error", "error": err.Error()}
			continue
		}
		results[name] = map[string]interface{}{"status": "ok"}
	}

	// Overall status
	overallStatus := "ok"
	if !ready {
		overallStatus = "degraded"
	}
	return map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	}, ready
}

func runCheck(ctx context.Context, check Check) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if check == nil {
		return errors.New("check not configured")
	}
	return check(ctx)
}
