package data

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// JourneyPlanner resolves a configured source into its next journey.
type JourneyPlanner interface {
	Plan(ctx context.Context, source types.Source) (types.Journey, error)
}

// Recorder keeps fetched journeys for later inspection.
type Recorder interface {
	Record(ctx context.Context, source string, journey types.Journey, fetchedAt time.Time) error
	Recent(ctx context.Context, source string, limit int) ([]types.Snapshot, error)
}

type DataClient struct {
	sources []types.Source
	planner JourneyPlanner
	cache   *cache.Cache[string]
	history Recorder
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewDataClient builds a read-through client. rdb and history may be nil,
// in which case caching or recording is skipped.
func NewDataClient(sources []types.Source, planner JourneyPlanner, rdb *redis.Client, ttl time.Duration, history Recorder, logger *zap.SugaredLogger) *DataClient {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	dc := &DataClient{
		sources: sources,
		planner: planner,
		history: history,
		logger:  logger,
		now:     time.Now,
	}

	if rdb != nil {
		redisStore := redisstore.NewRedis(rdb, store.WithExpiration(ttl))
		dc.cache = cache.New[string](redisStore)
	}

	return dc
}
