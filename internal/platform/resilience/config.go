package resilience

import (
	"fmt"
	"time"
)

// CircuitBreakerConfig is loaded per outbound dependency (API-Football,
// OpenAI, WhatsApp, QStash).
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// Validate rejects values an operator set explicitly but that would leave the
// breaker unusable. name prefixes the messages, e.g. "APISPORTS".
func (c CircuitBreakerConfig) Validate(name string) error {
	if !c.Enabled {
		return nil
	}
	if c.FailureThreshold < 1 {
		return fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", name)
	}
	if c.OpenTimeout <= 0 {
		return fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", name)
	}
	if c.HalfOpenMaxReq < 1 {
		return fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", name)
	}
	return nil
}

// withDefaults fills zero or negative values so literal configs in tests and
// clients need only name what they care about. Enabled is left untouched.
func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaults.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return c
}
