package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is the state of one dependency or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Severity decides what a failing check does to the overall status.
type Severity int

const (
	// Critical failures make the process unhealthy: the database.
	Critical Severity = iota
	// Optional failures only degrade it: the snapshot cache and the broker,
	// which the calculator and the outbox can run without.
	Optional
)

const defaultCheckTimeout = 2 * time.Second

// HealthCheckResult is the outcome of one check.
type HealthCheckResult struct {
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// OverallHealth aggregates every registered check.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

type healthCheck struct {
	severity Severity
	ping     func(ctx context.Context) error
}

// HealthRegistry runs named dependency pings concurrently.
type HealthRegistry struct {
	mu      sync.RWMutex
	checks  map[string]healthCheck
	timeout time.Duration
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checks: make(map[string]healthCheck), timeout: defaultCheckTimeout}
}

// Register adds or replaces the check called name.
func (r *HealthRegistry) Register(name string, severity Severity, ping func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = healthCheck{severity: severity, ping: ping}
}

// Names returns the registered check names in sorted order.
func (r *HealthRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetOverallHealth pings every dependency, each bounded by the check timeout.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	r.mu.RLock()
	checks := make(map[string]healthCheck, len(r.checks))
	for name, c := range r.checks {
		checks[name] = c
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(checks))
		status  = HealthStatusHealthy
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, c := range checks {
		g.Go(func() error {
			result := r.run(gctx, name, c)

			mu.Lock()
			defer mu.Unlock()
			results[name] = result
			status = worse(status, result.Status)
			return nil
		})
	}
	_ = g.Wait()

	return OverallHealth{Status: status, Timestamp: time.Now().UTC(), Checks: results}
}

func (r *HealthRegistry) run(ctx context.Context, name string, c healthCheck) HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := c.ping(ctx)
	result := HealthCheckResult{
		Status:    HealthStatusHealthy,
		Message:   name + " reachable",
		Duration:  time.Since(start),
		Timestamp: start.UTC(),
	}
	if err != nil {
		result.Status = HealthStatusUnhealthy
		if c.severity == Optional {
			result.Status = HealthStatusDegraded
		}
		result.Message = name + " unreachable: " + err.Error()
	}
	return result
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Handler serves the overall health as JSON. Unhealthy answers 503.
func (r *HealthRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		health := r.GetOverallHealth(req.Context())
		body, err := json.Marshal(health)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(body)
	})
}
