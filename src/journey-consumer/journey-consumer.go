package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/broker"
	"github.com/jack-barr3tt/commute-board/src/common/data"
	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/utils"
)

// serve runs start in the background and blocks until ctx is done. Whenever
// start returns, stop is called so the process does not outlive its listener.
func serve(ctx context.Context, stop context.CancelFunc, start func() error, logger *zap.SugaredLogger) {
	go func() {
		defer stop()
		if err := start(); err != nil {
			logger.Errorw("stomp listener stopped", "error", err)
			return
		}
		if ctx.Err() == nil {
			logger.Warnw("stomp subscription closed")
		}
	}()

	<-ctx.Done()
}

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.NamedLogger("journey-consumer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srcs, err := sources.Load(utils.GetEnv("SOURCES_FILE", ""))
	if err != nil {
		logger.Fatalw("failed to load sources", "error", err)
	}

	kind, err := broker.ParseKind(utils.GetEnv("BROKER", broker.KindAMQP))
	if err != nil {
		logger.Fatalw("invalid broker", "error", err)
	}

	rdb := utils.NewRedisClient()
	defer rdb.Close()

	var recorder data.Recorder
	if utils.GetEnvBool("HISTORY_ENABLED", false) {
		formula, err := delay.ParseFormula(utils.GetEnv("DELAY_FORMULA", "total"))
		if err != nil {
			logger.Fatalw("invalid delay formula", "error", err)
		}
		formatter, err := delay.NewFormatter(utils.GetEnv("BOARD_TIMEZONE", "Europe/Berlin"), formula)
		if err != nil {
			logger.Fatalw("invalid board timezone", "error", err)
		}

		db, err := utils.NewPostgresConnection()
		if err != nil {
			logger.Fatalw("failed to connect to database", "error", err)
		}
		defer db.Close()

		history := data.NewHistory(db, formatter)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatalw("failed to prepare history table", "error", err)
		}
		recorder = history
	}

	// updates arrive already planned, so the data client never needs one
	journeys := data.NewDataClient(srcs, nil, rdb, utils.GetEnvDuration("CACHE_TTL", time.Minute), recorder, logger.Named("data"))

	logger.Infow("consuming journey updates", "broker", kind)

	switch kind {
	case broker.KindStomp:
		stompConn, err := utils.NewStompConnection()
		if err != nil {
			logger.Fatalw("failed to connect to stomp", "error", err)
		}

		var wg sync.WaitGroup
		listener := broker.NewListener(ctx, &wg, stompConn, utils.GetEnv("STOMP_DESTINATION", broker.Destination), journeys.Store, logger)

		wg.Add(1)
		serve(ctx, stop, listener.Start, logger)
		wg.Wait()
		stompConn.Disconnect()

	default:
		conn, channel, err := utils.NewRabbitConnection()
		if err != nil {
			logger.Fatalw("failed to connect to RabbitMQ", "error", err)
		}
		defer conn.Close()
		defer channel.Close()

		if err := broker.ConsumeAMQP(ctx, channel, utils.GetEnv("MQ_QUEUE", broker.Queue), journeys.Store, logger); err != nil {
			logger.Errorw("consumer stopped", "error", err)
		}
	}
}
