package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while a breaker is rejecting requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState values appear verbatim in status responses.
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards one upstream provider. Consecutive failures trip it
// open; once OpenTimeout elapses it grants up to HalfOpenMaxReq trial
// requests, and that many successes close it again.
type CircuitBreaker struct {
	name  string
	cfg   CircuitBreakerConfig
	clock func() time.Time

	mu        sync.Mutex
	state     CircuitState
	failures  int
	openedAt  time.Time
	probes    int
	probeWins int
}

// CircuitSnapshot is a point-in-time view for operator introspection.
type CircuitSnapshot struct {
	Name                string       `json:"name"`
	State               CircuitState `json:"state"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:  name,
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		clock: time.Now,
		state: CircuitStateClosed,
	}
}

func (b *CircuitBreaker) Name() string { return b.name }

// Allow reports whether the next request may proceed. Each half-open episode
// grants at most HalfOpenMaxReq probes in total.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	switch b.state {
	case CircuitStateOpen:
		return ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.probes >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probes++
	}

	return nil
}

// RecordSuccess clears the failure streak, or counts a probe win while
// half-open. Enough wins close the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.probeWins++
		if b.probeWins >= b.cfg.HalfOpenMaxReq {
			b.reset()
		}
	}
}

// RecordFailure extends the failure streak and trips the breaker at the
// threshold. A failure while half-open, or one landing after the breaker
// already tripped, re-arms the full open window.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	case CircuitStateHalfOpen, CircuitStateOpen:
		b.trip()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	return b.state
}

func (b *CircuitBreaker) Snapshot() CircuitSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	return CircuitSnapshot{
		Name:                b.name,
		State:               b.state,
		ConsecutiveFailures: b.failures,
	}
}

// refresh promotes an elapsed open window to half-open. Callers hold b.mu.
func (b *CircuitBreaker) refresh() {
	if b.state == CircuitStateOpen && b.clock().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = CircuitStateHalfOpen
		b.probes = 0
		b.probeWins = 0
	}
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitStateOpen
	b.openedAt = b.clock()
	b.probes = 0
	b.probeWins = 0
}

func (b *CircuitBreaker) reset() {
	b.state = CircuitStateClosed
	b.failures = 0
	b.probes = 0
	b.probeWins = 0
	b.openedAt = time.Time{}
}
