package linkmeta

import (
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// warningPlaceholderMarkers identify provider-side placeholder images that
// stand in for a real product photo. A resolved image matching one is
// treated as absent.
var warningPlaceholderMarkers = []string{
	"warning.svg",
	"warning-placeholder",
	"image-unavailable",
}

// bodyTextCap limits how much body text is collected for the blocked
// classifier. Challenge markers show up in the first few paragraphs.
const bodyTextCap = 4096

// htmlFields is everything pulled out of a document in one traversal.
type htmlFields struct {
	ogTitle        string
	ogDescription  string
	ogImage        string
	twTitle        string
	twDescription  string
	twImage        string
	metaDesc       string
	pageTitle      string
	priceAmount   string
	priceCurrency string
	jsonLDBlocks  []string
	bodyText      strings.Builder
}

// extractFromHTML parses a fetched document into a raw metadata record:
// Open Graph tags, then Twitter-card tags, then generic meta tags, then
// the document title. Price comes from product meta tags first, then from
// a depth-first search of application/ld+json blocks. Returns nil on
// unparseable input.
func extractFromHTML(htmlContent, baseURL string) *rawMetadata {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	f := &htmlFields{}
	collectFields(doc, f)

	raw := &rawMetadata{}

	raw.Title = firstNonEmpty(f.ogTitle, f.twTitle, strings.TrimSpace(f.pageTitle))
	raw.Description = firstNonEmpty(f.ogDescription, f.twDescription, f.metaDesc)
	raw.ImageURL = resolveImageURL(firstNonEmpty(f.ogImage, f.twImage), baseURL)

	if f.priceAmount != "" {
		if p := normalizePrice(f.priceAmount); p != nil {
			if p.Currency == "" && f.priceCurrency != "" {
				p.Currency = strings.ToUpper(f.priceCurrency)
			}
			raw.Price = p
		}
	}
	if raw.Price == nil {
		raw.Price = priceFromJSONLD(f.jsonLDBlocks)
	}

	texts := []string{raw.Title, raw.Description, f.pageTitle, f.bodyText.String()}
	if blocked, reason := classifyBlocked(texts, raw.ImageURL, baseURL); blocked {
		return &rawMetadata{Blocked: true, Reason: reason}
	}

	return raw
}

// collectFields walks the parse tree once, recording meta tags, the page
// title, JSON-LD script bodies, and a bounded amount of body text.
func collectFields(n *html.Node, f *htmlFields) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "meta":
			property := getAttr(n, "property")
			name := getAttr(n, "name")
			content := getAttr(n, "content")

			switch property {
			case "og:title":
				setIfEmpty(&f.ogTitle, content)
			case "og:description":
				setIfEmpty(&f.ogDescription, content)
			case "og:image":
				setIfEmpty(&f.ogImage, content)
			case "og:price:amount", "product:price:amount":
				setIfEmpty(&f.priceAmount, content)
			case "og:price:currency", "product:price:currency":
				setIfEmpty(&f.priceCurrency, content)
			}

			// Twitter cards use name= but some sites emit property=.
			key := name
			if key == "" {
				key = property
			}
			switch key {
			case "twitter:title":
				setIfEmpty(&f.twTitle, content)
			case "twitter:description":
				setIfEmpty(&f.twDescription, content)
			case "twitter:image", "twitter:image:src":
				setIfEmpty(&f.twImage, content)
			case "description":
				setIfEmpty(&f.metaDesc, content)
			}

		case "title":
			if f.pageTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				f.pageTitle = n.FirstChild.Data
			}

		case "script":
			if strings.EqualFold(getAttr(n, "type"), "application/ld+json") {
				var sb strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						sb.WriteString(c.Data)
					}
				}
				f.jsonLDBlocks = append(f.jsonLDBlocks, sb.String())
			}
			return // never collect script text as body text

		case "style", "noscript":
			return
		}
	}

	if n.Type == html.TextNode && f.bodyText.Len() < bodyTextCap {
		trimmed := strings.TrimSpace(n.Data)
		if trimmed != "" {
			f.bodyText.WriteString(trimmed)
			f.bodyText.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectFields(c, f)
	}
}

// priceFromJSONLD parses each ld+json block and searches it depth-first
// for a price-shaped object. First match wins.
func priceFromJSONLD(blocks []string) *Price {
	for _, block := range blocks {
		var parsed any
		if err := json.Unmarshal([]byte(block), &parsed); err != nil {
			continue // malformed block, try the next one
		}
		if p := findPriceDeep(parsed, 0, make(map[uintptr]bool)); p != nil {
			return p
		}
	}
	return nil
}

// findPriceDeep visits every node of a decoded JSON-LD graph, trying the
// normalizer at each object before descending. Depth-bounded and
// cycle-guarded so malformed graphs terminate.
func findPriceDeep(v any, depth int, seen map[uintptr]bool) *Price {
	if depth > maxPriceDepth || !markSeen(v, seen) {
		return nil
	}

	switch node := v.(type) {
	case map[string]any:
		if p := normalizePriceObject(node, depth, make(map[uintptr]bool)); p != nil {
			return p
		}
		for _, child := range node {
			if p := findPriceDeep(child, depth+1, seen); p != nil {
				return p
			}
		}
	case []any:
		for _, child := range node {
			if p := findPriceDeep(child, depth+1, seen); p != nil {
				return p
			}
		}
	}
	return nil
}

// resolveImageURL resolves an image reference to absolute form against the
// page URL and drops known warning-placeholder assets.
func resolveImageURL(imageRef, baseURL string) string {
	if imageRef == "" {
		return ""
	}

	resolved := imageRef
	if base, err := url.Parse(baseURL); err == nil {
		if ref, err := url.Parse(strings.TrimSpace(imageRef)); err == nil {
			abs := base.ResolveReference(ref)
			if abs.Scheme == "http" || abs.Scheme == "https" {
				resolved = abs.String()
			}
		}
	}

	lower := strings.ToLower(resolved)
	for _, marker := range warningPlaceholderMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}
	return resolved
}

// getAttr gets an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setIfEmpty(dst *string, val string) {
	if *dst == "" && val != "" {
		*dst = val
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
