package items

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"Wishly/internal/core/linkmeta"
)

const (
	maxTitleLen = 200
	maxNoteLen  = 2000
	maxURLLen   = 2048

	// enrichTimeout bounds the detached enrichment pass started after a
	// create or URL change.
	enrichTimeout = 30 * time.Second
)

// Service handles wishlist item operations and owns the write-back of
// enrichment results into the item store.
type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, ownerID, itemID string) (*Item, error)
	ListItems(ctx context.Context, ownerID string) ([]*Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID string, req UpdateItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, ownerID, itemID string) error
	ReorderItems(ctx context.Context, ownerID string, orderedIDs []string) error

	// EnrichItem runs the enrichment pipeline for the item's URL and
	// persists the metadata subset, guarding against the URL having
	// changed while the fetch was in flight.
	EnrichItem(ctx context.Context, ownerID, itemID string, force bool) (*linkmeta.Metadata, error)

	// SweepStaleMetadata enriches up to limit items whose persisted
	// metadata is missing or older than staleAfter. Returns how many
	// items were processed.
	SweepStaleMetadata(ctx context.Context, staleAfter time.Duration, limit int) (int, error)
}

type itemService struct {
	repo     Repository
	enricher linkmeta.Service
}

// NewItemService creates a new item service. enricher can be nil in
// minimal setups; enrichment operations then become no-ops.
func NewItemService(repo Repository, enricher linkmeta.Service) Service {
	return &itemService{repo: repo, enricher: enricher}
}

func (s *itemService) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &Item{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Title:     strings.TrimSpace(req.Title),
		URL:       strings.TrimSpace(req.URL),
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	// Enrich right away so the list shows metadata without waiting for
	// the sweep. Detached: creation must not block on providers.
	if item.URL != "" {
		s.enrichDetached(item.OwnerID, item.ID, false)
	}

	return item, nil
}

func (s *itemService) GetItem(ctx context.Context, ownerID, itemID string) (*Item, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *itemService) ListItems(ctx context.Context, ownerID string) ([]*Item, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *itemService) UpdateItem(ctx context.Context, ownerID, itemID string, req UpdateItemRequest) (*Item, error) {
	item, err := s.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	urlChanged := false
	oldURL := item.URL

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, NewValidationError("title", "title is required")
		}
		if len(title) > maxTitleLen {
			return nil, NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
		}
		item.Title = title
	}
	if req.URL != nil {
		newURL := strings.TrimSpace(*req.URL)
		if err := validateURL(newURL); err != nil {
			return nil, err
		}
		urlChanged = newURL != item.URL
		item.URL = newURL
	}
	if req.Note != nil {
		if len(*req.Note) > maxNoteLen {
			return nil, NewValidationError("note", fmt.Sprintf("must be at most %d characters", maxNoteLen))
		}
		item.Note = strings.TrimSpace(*req.Note)
	}
	if req.Purchased != nil {
		item.Purchased = *req.Purchased
	}

	if urlChanged {
		// Stale metadata must not survive a link swap.
		item.Meta = ItemMeta{}
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if urlChanged {
		if s.enricher != nil && oldURL != "" {
			s.enricher.Invalidate(oldURL)
		}
		if item.URL != "" {
			s.enrichDetached(ownerID, itemID, false)
		}
	}

	return item, nil
}

func (s *itemService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	item, err := s.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if s.enricher != nil && item.URL != "" {
		s.enricher.Invalidate(item.URL)
	}
	return nil
}

func (s *itemService) ReorderItems(ctx context.Context, ownerID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return NewValidationError("order", "ordered ID list is empty")
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return NewValidationError("order", "duplicate item ID: "+id)
		}
		seen[id] = true
	}
	if err := s.repo.UpdatePositions(ctx, ownerID, orderedIDs); err != nil {
		return fmt.Errorf("failed to reorder items: %w", err)
	}
	return nil
}

func (s *itemService) EnrichItem(ctx context.Context, ownerID, itemID string, force bool) (*linkmeta.Metadata, error) {
	item, err := s.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if item.URL == "" {
		return nil, ErrNoURL
	}
	if s.enricher == nil {
		return nil, nil
	}

	meta, err := s.enricher.Enrich(ctx, item.URL, force)
	if err != nil {
		return nil, err
	}

	// The URL may have changed while the fetch was in flight; a result
	// for the old URL must be discarded, not applied.
	current, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return meta, nil // item deleted mid-flight; result still cached
	}
	if current.URL != item.URL {
		log.Printf("[ITEMS] discarding enrichment for item %s: URL changed during fetch", itemID)
		return meta, nil
	}

	if err := s.repo.UpdateMetadata(ctx, itemID, metaPatch(meta)); err != nil {
		log.Printf("[ITEMS] failed to persist metadata for item %s: %v", itemID, err)
	}
	return meta, nil
}

func (s *itemService) SweepStaleMetadata(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-staleAfter)
	stale, err := s.repo.ListStaleMetadata(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale items: %w", err)
	}

	processed := 0
	for _, item := range stale {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if _, err := s.EnrichItem(ctx, item.OwnerID, item.ID, false); err != nil {
			log.Printf("[SWEEP] enrichment failed for item %s: %v", item.ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

// enrichDetached runs EnrichItem in the background with its own timeout.
func (s *itemService) enrichDetached(ownerID, itemID string, force bool) {
	if s.enricher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()
		if _, err := s.EnrichItem(ctx, ownerID, itemID, force); err != nil {
			log.Printf("[ITEMS] background enrichment failed for item %s: %v", itemID, err)
		}
	}()
}

// metaPatch strips the runtime-only fields (image URL, loading/blocked
// flags) and keeps only the persisted subset. A fetch without a price
// clears any previously stored one.
func metaPatch(meta *linkmeta.Metadata) MetaPatch {
	fetchedAt := meta.FetchedAt
	patch := MetaPatch{
		Title:       &meta.Title,
		Description: &meta.Description,
		FetchedAt:   &fetchedAt,
	}
	if meta.Price != nil {
		patch.Price = &meta.Price.Value
		patch.Currency = &meta.Price.Currency
	} else {
		patch.ClearPrice = true
	}
	return patch
}

func validateCreate(req CreateItemRequest) error {
	if req.OwnerID == "" {
		return NewValidationError("owner", "owner is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return NewValidationError("title", "title is required")
	}
	if len(title) > maxTitleLen {
		return NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	if len(req.Note) > maxNoteLen {
		return NewValidationError("note", fmt.Sprintf("must be at most %d characters", maxNoteLen))
	}
	return validateURL(strings.TrimSpace(req.URL))
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}
	if len(rawURL) > maxURLLen {
		return NewValidationError("url", fmt.Sprintf("must be at most %d characters", maxURLLen))
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return NewValidationError("url", "must be an http or https URL")
	}
	return nil
}
