// Package handlers contains the health checks behind /health.
package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/skillera/skillera-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECK INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports the state of the service dependencies.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthCheckFunc returns an error when the dependency is unusable.
type HealthCheckFunc func(ctx context.Context) error

// State summarizes all checks.
type State string

const (
	StateOK       State = "ok"
	StateDegraded State = "degraded" // only optional checks failed
	StateDown     State = "down"
)

// HealthStatus is the /health payload.
type HealthStatus struct {
	State     State                  `json:"state"`
	Healthy   bool                   `json:"healthy"`
	Failing   []string               `json:"failing,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSITE HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

type registeredCheck struct {
	fn       HealthCheckFunc
	optional bool
}

// CompositeHealthChecker runs named checks concurrently, each under its own
// timeout. A failing critical check marks the service down; a failing
// optional one only degrades it.
type CompositeHealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]registeredCheck
	started time.Time
	version string
	timeout time.Duration
}

// NewCompositeHealthChecker creates a checker with no checks.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:  make(map[string]registeredCheck),
		started: time.Now(),
		version: version,
		timeout: 3 * time.Second,
	}
}

// SetTimeout bounds every individual check.
func (c *CompositeHealthChecker) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// AddCheck registers a critical check.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.add(name, check, false)
}

// AddOptionalCheck registers a check whose failure only degrades the service.
func (c *CompositeHealthChecker) AddOptionalCheck(name string, check HealthCheckFunc) {
	c.add(name, check, true)
}

func (c *CompositeHealthChecker) add(name string, fn HealthCheckFunc, optional bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registeredCheck{fn: fn, optional: optional}
}

// Check runs every registered check and aggregates the results.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]registeredCheck, len(c.checks))
	for name, rc := range c.checks {
		checks[name] = rc
	}
	c.mu.RUnlock()

	status := HealthStatus{
		State:     StateOK,
		Healthy:   true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, rc := range checks {
		wg.Add(1)
		go func(name string, rc registeredCheck) {
			defer wg.Done()
			res := c.run(ctx, rc)
			mu.Lock()
			status.Checks[name] = res
			mu.Unlock()
		}(name, rc)
	}
	wg.Wait()

	for name, res := range status.Checks {
		if res.Healthy {
			continue
		}
		status.Failing = append(status.Failing, name)
		if !res.Optional {
			status.State = StateDown
			status.Healthy = false
		} else if status.State == StateOK {
			status.State = StateDegraded
		}
	}
	sort.Strings(status.Failing)
	return status
}

func (c *CompositeHealthChecker) run(ctx context.Context, rc registeredCheck) (res CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{Message: fmt.Sprintf("check panicked: %v", r)}
		}
		res.Optional = rc.optional
		res.Duration = time.Since(start).Round(time.Millisecond).String()
	}()

	if err := rc.fn(ctx); err != nil {
		return CheckResult{Message: err.Error()}
	}
	return CheckResult{Healthy: true}
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDEFINED HEALTH CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// Pinger is implemented by the document store backends and Redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger to a health check.
func PingCheck(p Pinger) HealthCheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// Breaker is implemented by dependencies guarded by a circuit breaker.
type Breaker interface {
	State() circuitbreaker.State
	Counts() circuitbreaker.Counts
}

// BreakerCheck fails while the circuit is not closed and reports how many
// requests have failed so far.
func BreakerCheck(b Breaker) HealthCheckFunc {
	return func(context.Context) error {
		if st := b.State(); st != circuitbreaker.StateClosed {
			c := b.Counts()
			return fmt.Errorf("circuit is %s (%d of %d requests failed)", st, c.TotalFailures, c.Requests)
		}
		return nil
	}
}
