package linkmeta

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return data
}

func TestExtractFromAPIResponse_FullPayload(t *testing.T) {
	data := decodePayload(t, `{
		"title": "Mechanical Keyboard",
		"description": "Tenkeyless, hot-swappable",
		"image": {"url": "https://cdn.example.com/kb.jpg"},
		"price": 89.99
	}`)

	raw := extractFromAPIResponse(data, "https://shop.example/p/kb")
	require.NotNil(t, raw)

	assert.Equal(t, "Mechanical Keyboard", raw.Title)
	assert.Equal(t, "Tenkeyless, hot-swappable", raw.Description)
	assert.Equal(t, "https://cdn.example.com/kb.jpg", raw.ImageURL)
	require.NotNil(t, raw.Price)
	assert.Equal(t, 89.99, raw.Price.Value)
}

func TestExtractFromAPIResponse_ExcerptAndLogoFallbacks(t *testing.T) {
	data := decodePayload(t, `{
		"title": "Blog Post",
		"excerpt": "An excerpt used when description is absent",
		"logo": {"url": "https://example.com/logo.png"}
	}`)

	raw := extractFromAPIResponse(data, "https://example.com/post")
	require.NotNil(t, raw)

	assert.Equal(t, "An excerpt used when description is absent", raw.Description)
	assert.Equal(t, "https://example.com/logo.png", raw.ImageURL)
	assert.Nil(t, raw.Price)
}

func TestExtractFromAPIResponse_ImageBeatsLogo(t *testing.T) {
	data := decodePayload(t, `{
		"image": {"url": "https://example.com/photo.jpg"},
		"logo": {"url": "https://example.com/logo.png"}
	}`)

	raw := extractFromAPIResponse(data, "https://example.com/p")
	require.NotNil(t, raw)
	assert.Equal(t, "https://example.com/photo.jpg", raw.ImageURL)
}

func TestExtractFromAPIResponse_PlainStringImage(t *testing.T) {
	data := map[string]any{"image": "/relative.jpg"}
	raw := extractFromAPIResponse(data, "https://example.com/p")
	require.NotNil(t, raw)
	assert.Equal(t, "https://example.com/relative.jpg", raw.ImageURL)
}

func TestExtractFromAPIResponse_NestedProductPrice(t *testing.T) {
	data := decodePayload(t, `{
		"title": "Gadget",
		"product": {"price": {"value": 45.5, "currency": "EUR"}}
	}`)

	raw := extractFromAPIResponse(data, "https://shop.example/p/g")
	require.NotNil(t, raw)
	require.NotNil(t, raw.Price)
	assert.Equal(t, 45.5, raw.Price.Value)
	assert.Equal(t, "EUR", raw.Price.Currency)
}

func TestExtractFromAPIResponse_OffersArrayPrice(t *testing.T) {
	data := decodePayload(t, `{
		"title": "Gadget",
		"offers": [{"price": "12.00", "priceCurrency": "USD"}]
	}`)

	raw := extractFromAPIResponse(data, "https://shop.example/p/g")
	require.NotNil(t, raw)
	require.NotNil(t, raw.Price)
	assert.Equal(t, 12.0, raw.Price.Value)
	assert.Equal(t, "USD", raw.Price.Currency)
}

func TestExtractFromAPIResponse_BlockedText(t *testing.T) {
	data := decodePayload(t, `{
		"title": "Access Denied",
		"description": "You don't have permission to access this resource",
		"image": {"url": "https://cdn.example.com/img.jpg"},
		"price": 10
	}`)

	raw := extractFromAPIResponse(data, "https://shop.example/p/1")
	require.NotNil(t, raw)

	assert.True(t, raw.Blocked)
	assert.Empty(t, raw.Title)
	assert.Empty(t, raw.ImageURL)
	assert.Nil(t, raw.Price)
}
