package items

import (
	"context"
	"time"
)

// Repository defines the interface for item persistence.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error

	// UpdatePositions rewrites the manual ordering for an owner's items.
	// IDs not present in orderedIDs keep their position.
	UpdatePositions(ctx context.Context, ownerID string, orderedIDs []string) error

	// UpdateMetadata applies a partial update of the persisted metadata
	// subset. Nil patch fields are left untouched.
	UpdateMetadata(ctx context.Context, id string, patch MetaPatch) error

	// ListStaleMetadata returns items with a URL whose metadata is missing
	// or older than the cutoff, oldest first, up to limit.
	ListStaleMetadata(ctx context.Context, cutoff time.Time, limit int) ([]*Item, error)
}
