package linkmeta

// apiImageKeys is the ordered probe for an image inside a structured
// provider payload. Each may be a plain URL string or an object with a
// "url" field.
var apiImageKeys = []string{"image", "screenshot", "thumbnail", "logo"}

// apiPriceKeys is the ordered probe for price-bearing fields of the
// payload. "product" and "offers" wrap nested price-shaped objects and
// are handled by the normalizer's recursion.
var apiPriceKeys = []string{"price", "product", "offers"}

// extractFromAPIResponse maps a structured provider's data payload into a
// raw metadata record, applying the same field-priority philosophy as the
// HTML extractor and the same blocked check before the result is accepted.
func extractFromAPIResponse(data map[string]any, sourceURL string) *rawMetadata {
	raw := &rawMetadata{
		Title:       stringField(data, "title"),
		Description: firstNonEmpty(stringField(data, "description"), stringField(data, "excerpt")),
	}

	for _, key := range apiImageKeys {
		if ref := imageRef(data[key]); ref != "" {
			raw.ImageURL = resolveImageURL(ref, sourceURL)
			break
		}
	}

	for _, key := range apiPriceKeys {
		candidate, ok := data[key]
		if !ok {
			continue
		}
		if p := normalizePrice(candidate); p != nil {
			raw.Price = p
			break
		}
	}

	texts := []string{raw.Title, raw.Description}
	if blocked, reason := classifyBlocked(texts, raw.ImageURL, sourceURL); blocked {
		return &rawMetadata{Blocked: true, Reason: reason}
	}

	return raw
}

// imageRef accepts either a plain URL string or a nested {url: ...} object.
func imageRef(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case map[string]any:
		return stringField(img, "url")
	}
	return ""
}

func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}
