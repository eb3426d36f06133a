package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/types"
)

func cacheKey(name string) string {
	return fmt.Sprintf("journey:%s", name)
}

// FetchJourney answers the named board query, serving from cache while
// the cached journey is alive.
func (dc *DataClient) FetchJourney(ctx context.Context, name string) (types.Journey, error) {
	source, err := sources.Find(dc.sources, name)
	if err != nil {
		return types.Journey{}, err
	}

	if journey, ok := dc.cached(ctx, name); ok {
		dc.logger.Debugw("journey cache hit", "source", name)
		return journey, nil
	}

	journey, err := dc.planner.Plan(ctx, source)
	if err != nil {
		dc.logger.Warnw("failed to plan journey", "source", name, "error", err)
		return types.Journey{}, fmt.Errorf("failed to plan %s journey: %w", name, err)
	}

	dc.keep(ctx, name, journey, dc.now())

	return journey, nil
}

// Refresh plans a source, bypassing the cache, and stores the result.
func (dc *DataClient) Refresh(ctx context.Context, name string) (types.JourneyUpdate, error) {
	source, err := sources.Find(dc.sources, name)
	if err != nil {
		return types.JourneyUpdate{}, err
	}

	journey, err := dc.planner.Plan(ctx, source)
	if err != nil {
		return types.JourneyUpdate{}, fmt.Errorf("failed to plan %s journey: %w", name, err)
	}

	now := dc.now()
	dc.keep(ctx, name, journey, now)

	return types.JourneyUpdate{
		Source:    name,
		Journey:   journey,
		FetchedAt: now.UTC().Format(time.RFC3339),
	}, nil
}

// Store accepts a journey delivered over the broker.
func (dc *DataClient) Store(ctx context.Context, update types.JourneyUpdate) error {
	if _, err := sources.Find(dc.sources, update.Source); err != nil {
		return err
	}

	fetchedAt, err := time.Parse(time.RFC3339, update.FetchedAt)
	if err != nil {
		fetchedAt = dc.now()
	}

	dc.keep(ctx, update.Source, update.Journey, fetchedAt)
	return nil
}

func (dc *DataClient) Invalidate(ctx context.Context, name string) error {
	if dc.cache == nil {
		return nil
	}
	return dc.cache.Delete(ctx, cacheKey(name))
}

func (dc *DataClient) cached(ctx context.Context, name string) (types.Journey, bool) {
	if dc.cache == nil {
		return types.Journey{}, false
	}

	raw, err := dc.cache.Get(ctx, cacheKey(name))
	if err != nil || raw == "" {
		return types.Journey{}, false
	}

	var journey types.Journey
	if err := json.Unmarshal([]byte(raw), &journey); err != nil {
		dc.logger.Warnw("dropping unreadable cached journey", "source", name, "error", err)
		return types.Journey{}, false
	}
	return journey, true
}

func (dc *DataClient) keep(ctx context.Context, name string, journey types.Journey, fetchedAt time.Time) {
	if dc.cache != nil {
		b, _ := json.Marshal(journey)
		if err := dc.cache.Set(ctx, cacheKey(name), string(b)); err != nil {
			dc.logger.Warnw("failed to cache journey", "source", name, "error", err)
		}
	}

	if dc.history != nil {
		if err := dc.history.Record(ctx, name, journey, fetchedAt); err != nil {
			dc.logger.Warnw("failed to record journey", "source", name, "error", err)
		}
	}
}
