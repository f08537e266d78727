package linkmeta

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// maxPriceDepth bounds the recursive object probe so that adversarial or
// malformed payloads (deep nesting, cycles) terminate.
const maxPriceDepth = 12

// currencySymbols maps embedded currency symbols to ISO-style codes.
// Ordered: "$" last so that "R$"-style compound symbols are not needed
// before the plain dollar match.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"₽", "RUB"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₴", "UAH"},
	{"₸", "KZT"},
	{"$", "USD"},
}

// priceValueKeys is the ordered field probe for a numeric value inside a
// price-shaped object. "text" last: some providers only expose the raw
// display string.
var priceValueKeys = []string{"value", "amount", "price", "current", "text"}

// priceCurrencyKeys is the ordered field probe for a currency code.
var priceCurrencyKeys = []string{"currency", "currencyCode", "priceCurrency", "currency_code", "symbol"}

// priceNestKeys are sub-objects that commonly wrap another price-shaped
// object (JSON-LD offers / priceSpecification, provider product wrappers).
var priceNestKeys = []string{"offers", "priceSpecification", "product"}

// normalizePrice converts an arbitrary provider price representation
// (number, numeric string, or nested object) into a canonical Price.
// Returns nil when no finite non-negative value can be extracted.
func normalizePrice(candidate any) *Price {
	return normalizePriceAt(candidate, 0, make(map[uintptr]bool))
}

func normalizePriceAt(candidate any, depth int, seen map[uintptr]bool) *Price {
	if candidate == nil || depth > maxPriceDepth {
		return nil
	}

	switch v := candidate.(type) {
	case float64:
		return priceFromFloat(v)
	case float32:
		return priceFromFloat(float64(v))
	case int:
		return priceFromFloat(float64(v))
	case int64:
		return priceFromFloat(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return priceFromFloat(f)
	case string:
		return parsePriceString(v)
	case map[string]any:
		if !markSeen(v, seen) {
			return nil
		}
		return normalizePriceObject(v, depth, seen)
	case []any:
		if !markSeen(v, seen) {
			return nil
		}
		for _, el := range v {
			if p := normalizePriceAt(el, depth+1, seen); p != nil {
				return p
			}
		}
	}
	return nil
}

// normalizePriceObject probes an object for a value field, then for a
// currency field, then recurses into known price-bearing sub-objects.
func normalizePriceObject(obj map[string]any, depth int, seen map[uintptr]bool) *Price {
	for _, key := range priceValueKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		p := normalizePriceAt(raw, depth+1, seen)
		if p == nil {
			continue
		}
		if p.Currency == "" {
			p.Currency = currencyFromObject(obj)
		}
		return p
	}

	for _, key := range priceNestKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if p := normalizePriceAt(raw, depth+1, seen); p != nil {
			if p.Currency == "" {
				p.Currency = currencyFromObject(obj)
			}
			return p
		}
	}

	return nil
}

// currencyFromObject probes the ordered currency fields of an object.
func currencyFromObject(obj map[string]any) string {
	for _, key := range priceCurrencyKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			continue
		}
		if code := currencyFromSymbol(s); code != "" {
			return code
		}
		if code := alphaCurrency(s); code != "" {
			return code
		}
	}
	return ""
}

// parsePriceString extracts a decimal value and an optional currency from
// a display string like "1 234,56 ₽" or "19.99 USD".
func parsePriceString(s string) *Price {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	currency := currencyFromSymbol(s)

	var cleaned strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			cleaned.WriteRune(r)
		}
	}
	numeric := cleaned.String()
	if numeric == "" {
		return nil
	}

	// Comma is the decimal separator unless a dot follows it
	// ("1.234,56" vs "1,234.56"); the non-separator is a thousands mark.
	lastComma := strings.LastIndex(numeric, ",")
	lastDot := strings.LastIndex(numeric, ".")
	if lastComma >= 0 && lastComma > lastDot {
		numeric = strings.ReplaceAll(numeric, ".", "")
		numeric = strings.Replace(numeric, ",", ".", 1)
		numeric = strings.ReplaceAll(numeric, ",", "")
	} else {
		numeric = strings.ReplaceAll(numeric, ",", "")
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) || value < 0 {
		return nil
	}

	if currency == "" {
		currency = alphaCurrency(s)
	}

	return &Price{Value: value, Currency: currency}
}

// currencyFromSymbol returns the code for the first recognized currency
// symbol embedded in s, or "".
func currencyFromSymbol(s string) string {
	for _, cs := range currencySymbols {
		if strings.Contains(s, cs.symbol) {
			return cs.code
		}
	}
	return ""
}

// alphaCurrency uppercases leftover ASCII letters when they look like a
// currency code (2-4 characters, e.g. "usd", "RUB", "Kč" is skipped).
func alphaCurrency(s string) string {
	var letters strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters.WriteRune(r)
		}
	}
	code := letters.String()
	if len(code) < 2 || len(code) > 4 {
		return ""
	}
	return strings.ToUpper(code)
}

func priceFromFloat(v float64) *Price {
	if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return nil
	}
	return &Price{Value: v}
}

// markSeen records a map or slice identity in the visited set. Returns
// false if the node was already visited (cycle in the object graph).
func markSeen(v any, seen map[uintptr]bool) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice {
		return true
	}
	ptr := rv.Pointer()
	if ptr == 0 {
		return true
	}
	if seen[ptr] {
		return false
	}
	seen[ptr] = true
	return true
}
