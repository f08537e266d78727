package linkmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider names, used by the circuit breaker and logs.
const (
	providerAPI  = "api"
	providerHTML = "html"
)

// maxBodySize caps provider response bodies to prevent abuse.
const maxBodySize = 10 * 1024 * 1024

// apiEnvelope is the structured provider's response wrapper: a status
// string plus a provider-shaped data payload.
type apiEnvelope struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// providerClient issues the outbound calls of the fallback chain:
// provider A is a structured page-metadata API, provider B fetches raw
// HTML through a CORS-bypassing proxy.
type providerClient struct {
	apiEndpoint   string
	proxyEndpoint string
	userAgent     string
	client        *http.Client
}

func newProviderClient(apiEndpoint, proxyEndpoint, userAgent string, timeout time.Duration) *providerClient {
	return &providerClient{
		apiEndpoint:   apiEndpoint,
		proxyEndpoint: proxyEndpoint,
		userAgent:     userAgent,
		client:        &http.Client{Timeout: timeout},
	}
}

// fetchAPIMetadata queries the structured metadata API for targetURL.
// bypassCache asks the provider to skip its own cache on forced refresh.
func (p *providerClient) fetchAPIMetadata(ctx context.Context, targetURL string, bypassCache bool) (*rawMetadata, error) {
	reqURL := fmt.Sprintf("%s?url=%s", p.apiEndpoint, url.QueryEscape(targetURL))
	if bypassCache {
		reqURL += "&force=true"
	}

	body, err := p.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse metadata API response: %w", err)
	}
	if !strings.EqualFold(envelope.Status, "success") || envelope.Data == nil {
		return nil, fmt.Errorf("metadata API returned status %q", envelope.Status)
	}

	return extractFromAPIResponse(envelope.Data, targetURL), nil
}

// fetchHTMLMetadata fetches the page itself through the proxy and runs
// the HTML extractor over it.
func (p *providerClient) fetchHTMLMetadata(ctx context.Context, targetURL string, bypassCache bool) (*rawMetadata, error) {
	reqURL := fmt.Sprintf("%s?url=%s", p.proxyEndpoint, url.QueryEscape(targetURL))
	if bypassCache {
		reqURL += "&nocache=true"
	}

	body, err := p.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	raw := extractFromHTML(string(body), targetURL)
	if raw == nil {
		return nil, fmt.Errorf("failed to parse HTML from %s", targetURL)
	}
	return raw, nil
}

func (p *providerClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrProviderUnavailable, err)
	}
	return body, nil
}

// isEnrichable checks that the target is a plain http(s) URL with a host.
func isEnrichable(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}
