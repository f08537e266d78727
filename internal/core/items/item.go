package items

import "time"

// Item is a wishlist entry. The Meta block is the persisted subset of the
// enrichment record: image URLs and loading/blocked flags are runtime-only
// and never stored (cheap to re-derive, prone to going stale).
type Item struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	Note      string    `json:"note,omitempty"`
	Purchased bool      `json:"purchased"`
	Position  int       `json:"position"`
	Meta      ItemMeta  `json:"meta"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemMeta is the link metadata subset that crosses into the item store.
type ItemMeta struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	FetchedAt   *time.Time `json:"fetchedAt,omitempty"`
}

// CreateItemRequest is the input for creating an item.
type CreateItemRequest struct {
	OwnerID string `json:"-"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Note    string `json:"note"`
}

// UpdateItemRequest carries the editable fields. Nil pointers leave the
// field untouched.
type UpdateItemRequest struct {
	Title     *string `json:"title"`
	URL       *string `json:"url"`
	Note      *string `json:"note"`
	Purchased *bool   `json:"purchased"`
}

// MetaPatch is a partial update of the persisted metadata subset. Nil
// fields are left untouched; ClearPrice nulls price and currency when the
// latest fetch carried no price.
type MetaPatch struct {
	Title       *string
	Description *string
	Price       *float64
	Currency    *string
	FetchedAt   *time.Time
	ClearPrice  bool
}
