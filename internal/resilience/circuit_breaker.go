package resilience

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
)

// CircuitBreaker trips after a run of consecutive upstream failures and
// recovers through half-open probes. One instance guards one upstream;
// the feed client is the only caller so a consecutive-failure policy is
// enough here (no rolling window needed for a single slow poller).
type CircuitBreaker struct {
	mu sync.Mutex

	maxFailures   int           // consecutive failures before opening
	halfOpenAfter time.Duration // cool-down before probing
	maxProbes     int           // allowed test requests in half-open

	state    breakerState
	failures int
	probes   int
	openedAt time.Time
}

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func NewCircuitBreaker(maxFailures int, halfOpenAfter time.Duration, maxProbes int) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	if maxProbes <= 0 {
		maxProbes = 1
	}
	return &CircuitBreaker{
		maxFailures:   maxFailures,
		halfOpenAfter: halfOpenAfter,
		maxProbes:     maxProbes,
		state:         stateClosed,
	}
}

// Allow returns whether a request is permitted.
func (c *CircuitBreaker) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateOpen:
		if time.Since(c.openedAt) < c.halfOpenAfter {
			return false
		}
		c.state = stateHalfOpen
		c.probes = 0
		fallthrough
	case stateHalfOpen:
		if c.probes >= c.maxProbes {
			return false
		}
		c.probes++
	}
	return true
}

// RecordResult records a success or failure outcome.
func (c *CircuitBreaker) RecordResult(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateClosed:
		if success {
			c.failures = 0
			return
		}
		c.failures++
		if c.failures >= c.maxFailures {
			c.transitionToOpen()
		}
	case stateHalfOpen:
		if !success {
			c.transitionToOpen()
			return
		}
		if c.probes >= c.maxProbes {
			// all probes succeeded
			c.state = stateClosed
			c.failures = 0
			counter, _ := otel.Meter("aegis-go").Int64Counter("aegis_resilience_circuit_closed_total")
			counter.Add(context.Background(), 1)
		}
	case stateOpen:
		// nothing, Allow handles timing
	}
}

func (c *CircuitBreaker) transitionToOpen() {
	c.state = stateOpen
	c.openedAt = time.Now()
	c.failures = 0
	counter, _ := otel.Meter("aegis-go").Int64Counter("aegis_resilience_circuit_open_total")
	counter.Add(context.Background(), 1)
}
