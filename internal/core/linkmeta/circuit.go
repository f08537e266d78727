package linkmeta

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// circuitState represents the state of a provider's circuit.
type circuitState int

const (
	circuitClosed   circuitState = iota // normal operation
	circuitOpen                         // provider failing, skip calls
	circuitHalfOpen                     // probing for recovery
)

// providerCircuit tracks consecutive failures for one provider.
type providerCircuit struct {
	state       circuitState
	failures    int
	lastFailure time.Time
}

// circuitBreaker stops calling a provider after repeated failures so a
// dead provider doesn't add its timeout to every enrichment pass. One
// instance covers both providers of the fallback chain.
type circuitBreaker struct {
	mu        sync.Mutex
	providers map[string]*providerCircuit
	threshold int
	openFor   time.Duration
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		providers: make(map[string]*providerCircuit),
		threshold: 3,
		openFor:   5 * time.Minute,
	}
}

// allow reports whether the provider may be called. An open circuit past
// its cool-off transitions to half-open and admits one probe call.
func (cb *circuitBreaker) allow(provider string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	pc, ok := cb.providers[provider]
	if !ok || pc.state == circuitClosed || pc.state == circuitHalfOpen {
		return nil
	}

	if time.Since(pc.lastFailure) > cb.openFor {
		pc.state = circuitHalfOpen
		log.Printf("[ENRICH-CIRCUIT] provider %q half-open, probing", provider)
		return nil
	}

	return fmt.Errorf("%w: provider %q (%d consecutive failures)", ErrCircuitOpen, provider, pc.failures)
}

// success resets the provider's circuit.
func (cb *circuitBreaker) success(provider string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	pc, ok := cb.providers[provider]
	if !ok {
		return
	}
	if pc.state != circuitClosed {
		log.Printf("[ENRICH-CIRCUIT] provider %q recovered", provider)
	}
	delete(cb.providers, provider)
}

// failure records a failed provider call and opens the circuit once the
// threshold is reached.
func (cb *circuitBreaker) failure(provider string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	pc, ok := cb.providers[provider]
	if !ok {
		pc = &providerCircuit{}
		cb.providers[provider] = pc
	}

	pc.failures++
	pc.lastFailure = time.Now()

	if pc.failures >= cb.threshold && pc.state != circuitOpen {
		pc.state = circuitOpen
		log.Printf("[ENRICH-CIRCUIT] opening circuit for provider %q after %d failures, last error: %v",
			provider, pc.failures, err)
	} else if pc.state == circuitHalfOpen {
		// Probe failed, back to open.
		pc.state = circuitOpen
	}
}
