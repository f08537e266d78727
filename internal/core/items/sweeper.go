package items

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically enriches items whose persisted metadata is missing
// or stale. It is the background half of the enrichment triggers; user
// actions (create, refresh, URL change) cover the rest.
type Sweeper struct {
	items      Service
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
}

// NewSweeper creates a sweeper. staleAfter should match the enrichment
// cache TTL so the sweep and the cache agree on freshness.
func NewSweeper(items Service, interval, staleAfter time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		items:      items,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Intended to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("[SWEEP] starting metadata sweeper (interval: %s, stale after: %s)", s.interval, s.staleAfter)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[SWEEP] sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	processed, err := s.items.SweepStaleMetadata(ctx, s.staleAfter, s.batchSize)
	if err != nil {
		log.Printf("[SWEEP] sweep failed: %v", err)
		return
	}
	if processed > 0 {
		log.Printf("[SWEEP] refreshed metadata for %d item(s)", processed)
	}
}
