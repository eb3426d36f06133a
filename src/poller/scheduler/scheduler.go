package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/broker"
	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// Refresher plans a source from scratch. *data.DataClient implements it.
type Refresher interface {
	Refresh(ctx context.Context, name string) (types.JourneyUpdate, error)
}

type Scheduler struct {
	refresher Refresher
	publisher broker.Publisher
	names     []string
	interval  time.Duration
	logger    *zap.SugaredLogger
}

func New(refresher Refresher, publisher broker.Publisher, names []string, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		refresher: refresher,
		publisher: publisher,
		names:     names,
		interval:  interval,
		logger:    logger,
	}
}

// Tick refreshes and publishes every source once. One failing source does
// not stop the others.
func (s *Scheduler) Tick(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(s.names) + 1)

	for _, name := range s.names {
		p.Go(func(ctx context.Context) error {
			update, err := s.refresher.Refresh(ctx, name)
			if err != nil {
				s.logger.Warnw("failed to refresh source", "source", name, "error", err)
				return fmt.Errorf("refresh %s: %w", name, err)
			}

			if err := s.publisher.Publish(ctx, update); err != nil {
				s.logger.Warnw("error publishing journey update", "source", name, "error", err)
				return fmt.Errorf("publish %s: %w", name, err)
			}

			s.logger.Debugw("published journey update", "source", name)
			return nil
		})
	}

	return p.Wait()
}

// Run ticks immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			s.logger.Infow("poll finished with errors", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
