package linkmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice_Strings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *Price
	}{
		{
			name:     "russian format with ruble symbol",
			input:    "1234,56 ₽",
			expected: &Price{Value: 1234.56, Currency: "RUB"},
		},
		{
			name:     "spaced thousands with ruble symbol",
			input:    "1 234,56 ₽",
			expected: &Price{Value: 1234.56, Currency: "RUB"},
		},
		{
			name:     "dollar prefix",
			input:    "$19.99",
			expected: &Price{Value: 19.99, Currency: "USD"},
		},
		{
			name:     "euro thousands with comma decimal",
			input:    "1.299,00 €",
			expected: &Price{Value: 1299, Currency: "EUR"},
		},
		{
			name:     "us thousands with dot decimal",
			input:    "1,299.50",
			expected: &Price{Value: 1299.5, Currency: ""},
		},
		{
			name:     "alphabetic currency code",
			input:    "19.99 USD",
			expected: &Price{Value: 19.99, Currency: "USD"},
		},
		{
			name:     "lowercase alphabetic code",
			input:    "42 eur",
			expected: &Price{Value: 42, Currency: "EUR"},
		},
		{
			name:     "bare number string",
			input:    "9.99",
			expected: &Price{Value: 9.99, Currency: ""},
		},
		{
			name:     "no digits",
			input:    "call for price",
			expected: nil,
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePrice(tt.input))
		})
	}
}

func TestNormalizePrice_Numbers(t *testing.T) {
	assert.Equal(t, &Price{Value: 19.99}, normalizePrice(19.99))
	assert.Equal(t, &Price{Value: 0}, normalizePrice(0.0))
	assert.Equal(t, &Price{Value: 42}, normalizePrice(42))

	assert.Nil(t, normalizePrice(-5.0), "negative prices are rejected")
	assert.Nil(t, normalizePrice(nil))
	assert.Nil(t, normalizePrice(true))
}

func TestNormalizePrice_Objects(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]any
		expected *Price
	}{
		{
			name:     "value and currency fields",
			input:    map[string]any{"value": 12.5, "currency": "USD"},
			expected: &Price{Value: 12.5, Currency: "USD"},
		},
		{
			name:     "amount with currencyCode",
			input:    map[string]any{"amount": "99", "currencyCode": "gbp"},
			expected: &Price{Value: 99, Currency: "GBP"},
		},
		{
			name:     "json-ld offers nesting",
			input:    map[string]any{"offers": map[string]any{"price": "19.99", "priceCurrency": "USD"}},
			expected: &Price{Value: 19.99, Currency: "USD"},
		},
		{
			name: "priceSpecification nesting",
			input: map[string]any{
				"priceSpecification": map[string]any{"price": 250.0, "priceCurrency": "EUR"},
			},
			expected: &Price{Value: 250, Currency: "EUR"},
		},
		{
			name: "offers array picks first usable",
			input: map[string]any{
				"offers": []any{
					map[string]any{"availability": "InStock"},
					map[string]any{"price": "5.00", "priceCurrency": "USD"},
				},
			},
			expected: &Price{Value: 5, Currency: "USD"},
		},
		{
			name:     "currency symbol in symbol field",
			input:    map[string]any{"value": 100.0, "symbol": "₽"},
			expected: &Price{Value: 100, Currency: "RUB"},
		},
		{
			name:     "no numeric value anywhere",
			input:    map[string]any{"currency": "USD", "label": "sold out"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizePrice(tt.input))
		})
	}
}

func TestNormalizePrice_UnitlessObjectTolerated(t *testing.T) {
	p := normalizePrice(map[string]any{"value": 7.0})
	require.NotNil(t, p)
	assert.Equal(t, 7.0, p.Value)
	assert.Empty(t, p.Currency, "callers must tolerate unitless prices")
}

func TestNormalizePrice_DepthBound(t *testing.T) {
	// Nesting far beyond the probe depth must terminate with no result.
	deep := map[string]any{"price": "10.00"}
	for i := 0; i < 50; i++ {
		deep = map[string]any{"offers": deep}
	}
	assert.Nil(t, normalizePrice(deep))
}

func TestNormalizePrice_CyclicObject(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["offers"] = cyclic

	// Must terminate, not recurse forever.
	assert.Nil(t, normalizePrice(cyclic))
}
