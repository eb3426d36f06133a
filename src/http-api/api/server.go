package api

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/data"
	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/query"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/types"
	"github.com/jack-barr3tt/commute-board/src/common/utils"
)

// JourneyService answers and forgets named queries. *data.DataClient is
// the production implementation.
type JourneyService interface {
	FetchJourney(ctx context.Context, name string) (types.Journey, error)
	Invalidate(ctx context.Context, name string) error
}

type APIServer struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.SugaredLogger
	Data      JourneyService
	History   data.Recorder
	Sources   []types.Source
	Formatter *delay.Formatter
	Queries   *query.Client
	BoardWait time.Duration
}

// New builds a server around already constructed collaborators. history
// may be nil.
func New(journeys JourneyService, history data.Recorder, srcs []types.Source, formatter *delay.Formatter, staleTime time.Duration, logger *zap.SugaredLogger) *APIServer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &APIServer{
		Logger:    logger,
		Data:      journeys,
		History:   history,
		Sources:   srcs,
		Formatter: formatter,
		BoardWait: DefaultBoardWait,
		Queries: query.New(journeys, sources.Names(srcs), query.Options{
			StaleTime: staleTime,
			Logger:    logger.Named("query"),
		}),
	}
}

// newJourneys builds the data client behind the API. Snapshots are recorded
// by the journey consumer, so the client never records and history is only
// handed back for reads.
func newJourneys(srcs []types.Source, planner data.JourneyPlanner, rdb *redis.Client, ttl time.Duration, history data.Recorder, logger *zap.SugaredLogger) (*data.DataClient, data.Recorder) {
	return data.NewDataClient(srcs, planner, rdb, ttl, nil, logger), history
}

func plannerURLs() map[string]string {
	return map[string]string{
		"db":  utils.GetEnv("HAFAS_DB_URL", ""),
		"kvb": utils.GetEnv("HAFAS_KVB_URL", ""),
	}
}

// NewServer wires the server from the environment.
func NewServer(ctx context.Context) (*APIServer, error) {
	logger := utils.NamedLogger("http-api")

	srcs, err := sources.Load(utils.GetEnv("SOURCES_FILE", ""))
	if err != nil {
		logger.Errorw("failed to load sources", "error", err)
		return nil, err
	}

	formula, err := delay.ParseFormula(utils.GetEnv("DELAY_FORMULA", "total"))
	if err != nil {
		return nil, err
	}
	formatter, err := delay.NewFormatter(utils.GetEnv("BOARD_TIMEZONE", "Europe/Berlin"), formula)
	if err != nil {
		return nil, err
	}

	rdb := utils.NewRedisClient()

	var db *pgxpool.Pool
	var recorder data.Recorder
	if utils.GetEnvBool("HISTORY_ENABLED", false) {
		db, err = utils.NewPostgresConnection()
		if err != nil {
			logger.Errorw("failed to connect to database", "error", err)
			rdb.Close()
			return nil, err
		}
		history := data.NewHistory(db, formatter)
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Errorw("failed to prepare history table", "error", err)
			db.Close()
			rdb.Close()
			return nil, err
		}
		recorder = history
	}

	planner := data.NewPlanner(plannerURLs(), logger.Named("planner"))
	journeys, reader := newJourneys(srcs, planner, rdb, utils.GetEnvDuration("CACHE_TTL", time.Minute), recorder, logger.Named("data"))

	server := New(journeys, reader, srcs, formatter, utils.GetEnvDuration("STALE_TIME", 30*time.Second), logger)
	server.DB = db
	server.Redis = rdb
	server.BoardWait = utils.GetEnvDuration("BOARD_WAIT", DefaultBoardWait)

	logger.Infow("serving sources", "sources", sources.Names(srcs), "formula", formula.String())

	return server, nil
}

func (s *APIServer) Close() error {
	err := s.Queries.Close()
	if s.Redis != nil {
		err = multierr.Append(err, s.Redis.Close())
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return err
}
