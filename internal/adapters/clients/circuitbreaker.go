package clients

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

// Breaker states. Closed passes requests, open rejects them, half-open lets
// a limited number through to test whether the host has recovered.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open a closed circuit.
	MaxFailures int

	// Timeout is how long an open circuit rejects before going half-open.
	Timeout time.Duration

	// HalfOpenLimit caps in-flight trial requests and is the number of
	// successes that close a half-open circuit.
	HalfOpenLimit int
}

// CircuitBreaker guards one downstream host. Any failure while half-open
// reopens it. A nil *CircuitBreaker is disabled: it allows everything and
// stays closed.
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    State
	failures int
	passed   int // half-open successes
	inFlight int // half-open trial requests
	openedAt time.Time
	notify   func(from, to State)
	now      func() time.Time
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run, on its own goroutine, after each
// transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	cb.notify = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. Every allowed request must
// be followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil {
		return true
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return false
		}

		cb.moveTo(StateHalfOpen)
		cb.inFlight = 1

		return true
	default:
		if cb.inFlight >= cb.cfg.HalfOpenLimit {
			return false
		}

		cb.inFlight++

		return true
	}
}

// RecordSuccess resets the failure count, or counts towards closing a
// half-open circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.inFlight--
		cb.passed++

		if cb.passed >= cb.cfg.HalfOpenLimit {
			cb.moveTo(StateClosed)
		}
	}
}

// RecordFailure counts towards opening a closed circuit and reopens a
// half-open one.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.openedAt = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.inFlight--
		cb.moveTo(StateOpen)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	if cb == nil {
		return StateClosed
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// moveTo transitions with cb.mu held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state, cb.failures, cb.passed = to, 0, 0

	if cb.notify != nil {
		go cb.notify(from, to)
	}
}
