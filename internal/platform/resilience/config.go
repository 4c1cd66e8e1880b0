package resilience

import "time"

// CircuitBreakerConfig tunes one provider breaker.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// NormalizeCircuitBreakerConfig replaces out-of-range fields with the
// defaults shared across providers: 5 failures, a 15s open window, 2 probes.
func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 15 * time.Second
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = 2
	}

	return cfg
}

// NewBreakerFromConfig builds a provider breaker, or nil when the breaker is
// disabled. Callers treat a nil breaker as always-allow.
func NewBreakerFromConfig(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	return NewCircuitBreaker(name, cfg)
}
