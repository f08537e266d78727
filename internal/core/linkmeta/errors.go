package linkmeta

import "errors"

var (
	// ErrInvalidURL is returned when the caller passes a non-http(s) URL.
	// This is the only synchronous failure Enrich surfaces; provider
	// failures are recovered internally.
	ErrInvalidURL = errors.New("invalid URL: must be http or https")

	// ErrProviderUnavailable marks a provider-level network/HTTP failure.
	// It never escapes Enrich; it feeds the circuit breaker and logs.
	ErrProviderUnavailable = errors.New("metadata provider unavailable")

	// ErrCircuitOpen is returned by the circuit breaker when a provider
	// has failed repeatedly and is being skipped.
	ErrCircuitOpen = errors.New("provider circuit open")
)
