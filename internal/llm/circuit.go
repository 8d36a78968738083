package llm

import (
	"errors"
	"sync"
	"time"
)

// breakerState tracks where the circuit breaker is in its lifecycle.
type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned by Allow while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig configures the generation circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of probe successes required to close
	// the circuit from half-open.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before allowing a probe.
	Cooldown time.Duration
}

// CircuitBreaker protects the upstream model provider from sustained
// hammering once it starts failing. While open, calls fail fast with
// ErrCircuitOpen instead of reaching the provider.
type CircuitBreaker struct {
	mu sync.Mutex

	state     breakerState
	failures  int
	successes int
	openedAt  time.Time

	failureThreshold int
	successThreshold int
	cooldown         time.Duration

	now func() time.Time
}

// NewCircuitBreaker builds a closed breaker. Zero config fields fall back
// to 5 failures, 2 probe successes and a 30 second cooldown.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		state:            stateClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		cooldown:         cfg.Cooldown,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. An open circuit whose cooldown
// has elapsed transitions to half-open and lets the probe through.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == stateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = stateHalfOpen
		cb.successes = 0
	}
	return nil
}

// Success records a completed call and closes the circuit once enough
// half-open probes have succeeded.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = stateClosed
			cb.failures = 0
			cb.successes = 0
		}
	case stateClosed:
		cb.failures = 0
	}
}

// Failure records a failed call. A half-open probe failure reopens the
// circuit immediately.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch cb.state {
	case stateClosed:
		if cb.failures >= cb.failureThreshold {
			cb.state = stateOpen
			cb.openedAt = cb.now()
		}
	case stateHalfOpen:
		cb.state = stateOpen
		cb.openedAt = cb.now()
		cb.successes = 0
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() breakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
