// Package resilience wraps fallible calls with a circuit breaker, jittered
// retry, and a hard timeout. The corpus fetch path composes all three.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen reports that the breaker is refusing calls.
var ErrCircuitOpen = errors.New("circuit open")

// State is the breaker phase: closed (normal), open (refusing), or
// half-open (probing).
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// CircuitBreakerConfig tunes when the breaker trips and how it recovers.
// Zero values take defaults: 5 consecutive failures, 30s cool-down, one
// probe at a time.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxRequests int
}

// CircuitBreaker trips open after FailureThreshold consecutive failures.
// While open, calls fail fast with ErrCircuitOpen until ResetTimeout has
// passed, after which probe calls decide whether to close again.
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	failures  int
	probes    int
	openedAt  time.Time
	successes uint64
	rejected  uint64
}

// NewCircuitBreaker creates a breaker, applying defaults for zero config
// fields.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "breaker", "name", name),
	}
}

// Execute runs fn unless the breaker refuses, and feeds the outcome back
// into the breaker state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

// GetState returns the breaker's current phase.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns total successes and fast-failed rejections since creation.
func (cb *CircuitBreaker) Stats() (successes, rejected uint64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.successes, cb.rejected
}

// Reset forces the breaker closed, clearing the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toClosed()
	cb.logger.Info("breaker reset")
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		remaining := cb.cfg.ResetTimeout - time.Since(cb.openedAt)
		if remaining > 0 {
			cb.rejected++
			return fmt.Errorf("%w: %s (cooling down %v)", ErrCircuitOpen, cb.name, remaining.Round(time.Millisecond))
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.logger.Info("breaker half-open, probing")
		fallthrough
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxRequests {
			cb.rejected++
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, cb.name)
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.successes++
		if cb.state == StateHalfOpen {
			cb.logger.Info("breaker closed, upstream recovered")
		}
		cb.toClosed()
		return
	}

	cb.failures++
	switch cb.state {
	case StateHalfOpen:
		cb.trip("probe failed")
	case StateClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.trip(fmt.Sprintf("%d consecutive failures", cb.failures))
		}
	}
}

func (cb *CircuitBreaker) trip(reason string) {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.logger.Warn("breaker opened", "reason", reason, "reset_after", cb.cfg.ResetTimeout)
}

func (cb *CircuitBreaker) toClosed() {
	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
}
