package linkmeta

import "time"

// BlockedReason classifies why a provider response was rejected as an
// anti-scraping interstitial rather than real page content.
type BlockedReason string

const (
	ReasonNone    BlockedReason = ""
	ReasonAntiBot BlockedReason = "anti-bot"
	ReasonUnknown BlockedReason = "unknown"
)

// Price is a normalized price: a non-negative decimal value and a
// best-effort uppercase currency code. Currency may be empty when the
// source carried no currency signal.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Metadata is the canonical record produced by the enrichment pipeline.
// Blocked records carry no content fields; Loading is set only on the
// placeholder written while a fetch is in flight and is never persisted.
type Metadata struct {
	URL           string        `json:"url"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	ImageURL      string        `json:"imageUrl"`
	Price         *Price        `json:"price,omitempty"`
	FetchedAt     time.Time     `json:"fetchedAt"`
	Blocked       bool          `json:"blocked"`
	BlockedReason BlockedReason `json:"blockedReason,omitempty"`
	Loading       bool          `json:"loading,omitempty"`
}

// IsEmpty reports whether the record carries no usable content.
func (m *Metadata) IsEmpty() bool {
	return m.Title == "" && m.Description == "" && m.ImageURL == "" && m.Price == nil
}

// clearContent enforces the blocked invariant: a blocked classification
// overrides any partially parsed content.
func (m *Metadata) clearContent() {
	m.Title = ""
	m.Description = ""
	m.ImageURL = ""
	m.Price = nil
}

// rawMetadata is a single provider's pre-merge output. It exists per
// provider call and is discarded after the merge.
type rawMetadata struct {
	Title       string
	Description string
	ImageURL    string
	Price       *Price
	Blocked     bool
	Reason      BlockedReason
}

func (r *rawMetadata) isEmpty() bool {
	return r == nil || (r.Title == "" && r.Description == "" && r.ImageURL == "" && r.Price == nil && !r.Blocked)
}
