package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jack-barr3tt/commute-board/src/common/broker"
	"github.com/jack-barr3tt/commute-board/src/common/data"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/utils"
	"github.com/jack-barr3tt/commute-board/src/poller/scheduler"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.NamedLogger("poller")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srcs, err := sources.Load(utils.GetEnv("SOURCES_FILE", ""))
	if err != nil {
		logger.Fatalw("failed to load sources", "error", err)
	}

	publisher, err := broker.OpenPublisher(utils.GetEnv("BROKER", broker.KindAMQP))
	if err != nil {
		logger.Fatalw("failed to open broker", "error", err)
	}
	defer publisher.Close()

	planner := data.NewPlanner(map[string]string{
		"db":  utils.GetEnv("HAFAS_DB_URL", ""),
		"kvb": utils.GetEnv("HAFAS_KVB_URL", ""),
	}, logger.Named("planner"))

	// the consumer owns the cache and history, the poller only plans
	refresher := data.NewDataClient(srcs, planner, nil, 0, nil, logger.Named("data"))

	interval := utils.GetEnvDuration("POLL_INTERVAL", time.Minute)
	logger.Infow("polling sources", "sources", sources.Names(srcs), "interval", interval)

	scheduler.New(refresher, publisher, sources.Names(srcs), interval, logger).Run(ctx)
}
