package execution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/trading-bot/src/eventmodels"
)

type PositionFetcher interface {
	GetPositions(ctx context.Context) ([]eventmodels.Position, error)
}

type PositionStore interface {
	SavePosition(ctx context.Context, position eventmodels.Position) error
	DeletePosition(ctx context.Context, symbol string) (bool, error)
}

type positionCache map[string]eventmodels.Position

// PositionTracker keeps the latest broker-reported positions. UpdatePositions is the only
// writer and replaces the whole cache at once, so readers see either the previous
// snapshot or the new one. Symbols with zero quantity are not cached.
type PositionTracker struct {
	fetcher PositionFetcher
	store   PositionStore

	updateMu sync.Mutex
	cache    atomic.Pointer[positionCache]
}

// UpdatePositions fetches positions from the broker and publishes them. On failure the
// previous snapshot is kept and the error is returned.
func (t *PositionTracker) UpdatePositions(ctx context.Context) ([]eventmodels.Position, error) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	positions, err := t.fetcher.GetPositions(ctx)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("PositionTracker: failed to sync positions")
		return nil, fmt.Errorf("UpdatePositions: %w", err)
	}

	prev := t.snapshot()
	next := make(positionCache, len(positions))
	for _, p := range positions {
		if p.Quantity > 0 {
			next[p.Symbol] = p
		}
	}

	t.cache.Store(&next)

	for _, p := range positions {
		if p.Quantity <= 0 {
			continue
		}

		if err := t.store.SavePosition(ctx, p); err != nil {
			return nil, fmt.Errorf("UpdatePositions: %w", err)
		}
	}

	for _, symbol := range closedSymbols(prev, positions) {
		if _, err := t.store.DeletePosition(ctx, symbol); err != nil {
			return nil, fmt.Errorf("UpdatePositions: %w", err)
		}
	}

	log.WithContext(ctx).Infof("PositionTracker: synced %d positions", len(next))

	return sortedPositions(next), nil
}

// closedSymbols lists symbols that were held before the sync and are no longer held.
func closedSymbols(prev positionCache, positions []eventmodels.Position) []string {
	held := make(map[string]bool, len(positions))
	for _, p := range positions {
		held[p.Symbol] = p.Quantity > 0
	}

	var closed []string
	for symbol := range prev {
		if !held[symbol] {
			closed = append(closed, symbol)
		}
	}

	for _, p := range positions {
		if p.Quantity <= 0 {
			if _, found := prev[p.Symbol]; !found {
				closed = append(closed, p.Symbol)
			}
		}
	}

	sort.Strings(closed)
	return closed
}

func (t *PositionTracker) snapshot() positionCache {
	if c := t.cache.Load(); c != nil {
		return *c
	}

	return positionCache{}
}

func (t *PositionTracker) GetCurrentPosition(symbol string) (eventmodels.Position, bool) {
	p, found := t.snapshot()[symbol]
	return p, found
}

// GetAllPositions returns the held positions ordered by symbol.
func (t *PositionTracker) GetAllPositions() []eventmodels.Position {
	return sortedPositions(t.snapshot())
}

func (t *PositionTracker) GetTotalExposure() int64 {
	var total int64
	for _, p := range t.snapshot() {
		total += p.MarketValue
	}

	return total
}

func sortedPositions(c positionCache) []eventmodels.Position {
	out := make([]eventmodels.Position, 0, len(c))
	for _, p := range c {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})

	return out
}

func NewPositionTracker(fetcher PositionFetcher, store PositionStore) *PositionTracker {
	t := &PositionTracker{
		fetcher: fetcher,
		store:   store,
	}

	empty := make(positionCache)
	t.cache.Store(&empty)

	return t
}
