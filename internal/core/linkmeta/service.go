package linkmeta

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service is the enrichment coordinator: cache lookup, in-flight
// deduplication, provider fallback chain, merge, cache write-back.
type Service interface {
	// Enrich produces the normalized metadata record for url. Provider
	// failures are recovered internally; the only error it returns is
	// ErrInvalidURL for non-http(s) input.
	Enrich(ctx context.Context, url string, force bool) (*Metadata, error)

	// Cached returns the current cache entry for url (possibly a loading
	// placeholder), or nil.
	Cached(url string) *Metadata

	// Invalidate drops the cache entry for url (URL change, deletion).
	Invalidate(url string)

	// Reset drops all cached entries (sign-out teardown).
	Reset()
}

type service struct {
	cache     *Cache
	breaker   *circuitBreaker
	flight    singleflight.Group
	providers *providerClient

	apiEndpoint   string
	proxyEndpoint string
	userAgent     string
	timeout       time.Duration
	cacheTTL      time.Duration
}

// NewService creates an enrichment coordinator.
func NewService(opts ...ServiceOption) Service {
	s := &service{
		apiEndpoint:   "https://api.microlink.io",
		proxyEndpoint: "https://api.allorigins.win/raw",
		userAgent:     "WishlyBot/1.0 (+https://wishly.app)",
		timeout:       10 * time.Second,
		cacheTTL:      6 * time.Hour,
		breaker:       newCircuitBreaker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewCache(s.cacheTTL)
	s.providers = newProviderClient(s.apiEndpoint, s.proxyEndpoint, s.userAgent, s.timeout)
	return s
}

// ServiceOption configures the service.
type ServiceOption func(*service)

// WithAPIEndpoint sets the structured metadata API endpoint.
func WithAPIEndpoint(endpoint string) ServiceOption {
	return func(s *service) { s.apiEndpoint = endpoint }
}

// WithProxyEndpoint sets the HTML fetch proxy endpoint.
func WithProxyEndpoint(endpoint string) ServiceOption {
	return func(s *service) { s.proxyEndpoint = endpoint }
}

// WithUserAgent sets the User-Agent header for provider requests.
func WithUserAgent(userAgent string) ServiceOption {
	return func(s *service) { s.userAgent = userAgent }
}

// WithTimeout sets the per-provider HTTP timeout.
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *service) { s.timeout = timeout }
}

// WithCacheTTL sets the metadata freshness window.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *service) { s.cacheTTL = ttl }
}

func (s *service) Cached(url string) *Metadata {
	return s.cache.Get(url)
}

func (s *service) Invalidate(url string) {
	s.cache.Invalidate(url)
}

func (s *service) Reset() {
	s.cache.Purge()
}

// Enrich implements the coordinator algorithm. Concurrent calls for the
// same URL share one underlying pass via singleflight: at most one
// in-flight request per key.
func (s *service) Enrich(ctx context.Context, urlStr string, force bool) (*Metadata, error) {
	if !isEnrichable(urlStr) {
		return nil, ErrInvalidURL
	}

	if !force {
		if entry := s.cache.Get(urlStr); entry != nil && !entry.Loading {
			return entry, nil
		}
	}

	result, err, shared := s.flight.Do(urlStr, func() (any, error) {
		// Re-check after winning the flight: a concurrent pass may have
		// just landed a fresh entry.
		if !force {
			if entry := s.cache.Get(urlStr); entry != nil && !entry.Loading {
				return entry, nil
			}
		}
		return s.fetch(ctx, urlStr, force), nil
	})
	if err != nil {
		// The fetch func never returns an error; this is unreachable but
		// keeps the contract explicit.
		return nil, err
	}
	if shared {
		log.Printf("[ENRICH] joined in-flight request for %s", urlStr)
	}

	return result.(*Metadata), nil
}

// fetch runs one full enrichment pass: placeholder, provider A, optional
// HTML fallback, merge, cache store. It always produces a record.
func (s *service) fetch(ctx context.Context, urlStr string, force bool) *Metadata {
	// Placeholder first so observers can render a pending state while the
	// providers are in flight.
	s.cache.Put(urlStr, &Metadata{URL: urlStr, FetchedAt: time.Now().UTC(), Loading: true})

	apiRaw := s.callProvider(ctx, providerAPI, urlStr, force)

	// Fallback fires when the API pass produced nothing, or produced a
	// priceless result. A blocked verdict is authoritative: no retry.
	var htmlRaw *rawMetadata
	if apiRaw == nil || (!apiRaw.Blocked && apiRaw.Price == nil) {
		htmlRaw = s.callProvider(ctx, providerHTML, urlStr, force)
	}

	final := merge(urlStr, apiRaw, htmlRaw, time.Now().UTC())
	s.cache.Put(urlStr, final)

	if final.Blocked {
		log.Printf("[ENRICH] %s classified as blocked (reason: %s)", urlStr, final.BlockedReason)
	} else if final.IsEmpty() {
		log.Printf("[ENRICH] no metadata extracted for %s", urlStr)
	} else {
		log.Printf("[ENRICH] enriched %s (title: %q, price: %v)", urlStr, final.Title, final.Price != nil)
	}

	return final
}

// callProvider runs one provider pass, absorbing every provider-level
// failure into a nil result. Failures feed the circuit breaker.
func (s *service) callProvider(ctx context.Context, provider, urlStr string, force bool) *rawMetadata {
	if err := s.breaker.allow(provider); err != nil {
		log.Printf("[ENRICH] skipping provider %q for %s: %v", provider, urlStr, err)
		return nil
	}

	var raw *rawMetadata
	var err error
	switch provider {
	case providerAPI:
		raw, err = s.providers.fetchAPIMetadata(ctx, urlStr, force)
	case providerHTML:
		raw, err = s.providers.fetchHTMLMetadata(ctx, urlStr, force)
	}
	if err != nil {
		s.breaker.failure(provider, err)
		log.Printf("[ENRICH] provider %q failed for %s: %v", provider, urlStr, err)
		return nil
	}

	s.breaker.success(provider)
	return raw
}

// merge combines the two passes into the final record. Per-field the API
// result wins; HTML fills gaps. Blocked is the OR of both passes and
// clears all content fields.
func merge(urlStr string, apiRaw, htmlRaw *rawMetadata, now time.Time) *Metadata {
	m := &Metadata{URL: urlStr, FetchedAt: now}

	if apiRaw != nil && apiRaw.Blocked {
		m.Blocked = true
		m.BlockedReason = apiRaw.Reason
	}
	if htmlRaw != nil && htmlRaw.Blocked {
		m.Blocked = true
		if m.BlockedReason == ReasonNone {
			m.BlockedReason = htmlRaw.Reason
		}
	}
	if m.Blocked {
		m.clearContent()
		return m
	}

	for _, raw := range []*rawMetadata{apiRaw, htmlRaw} {
		if raw == nil {
			continue
		}
		if m.Title == "" {
			m.Title = raw.Title
		}
		if m.Description == "" {
			m.Description = raw.Description
		}
		if m.ImageURL == "" {
			m.ImageURL = raw.ImageURL
		}
		if m.Price == nil {
			m.Price = raw.Price
		}
	}

	// Both passes empty: a "tried but got nothing" tombstone. It occupies
	// the cache slot for a full TTL so failures don't hot-loop.
	return m
}
