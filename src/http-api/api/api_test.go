package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/types"
	"github.com/jack-barr3tt/commute-board/src/common/view"
)

type fakeJourneys struct {
	mu          sync.Mutex
	journeys    map[string]types.Journey
	errs        map[string]error
	calls       map[string]int
	invalidated []string
	// gate, when set, holds every fetch until it is closed
	gate chan struct{}
}

func (f *fakeJourneys) FetchJourney(ctx context.Context, name string) (types.Journey, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return types.Journey{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if _, err := sources.Find(sources.Defaults(), name); err != nil {
		return types.Journey{}, err
	}
	if err := f.errs[name]; err != nil {
		return types.Journey{}, err
	}
	return f.journeys[name], nil
}

func (f *fakeJourneys) Invalidate(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, name)
	return nil
}

type fakeHistory struct {
	limit   int
	records int
}

func (h *fakeHistory) Record(context.Context, string, types.Journey, time.Time) error {
	h.records++
	return nil
}

func (h *fakeHistory) Recent(_ context.Context, source string, limit int) ([]types.Snapshot, error) {
	h.limit = limit
	d := 7
	return []types.Snapshot{{Source: source, FetchedAt: "2024-01-01T09:45:00Z", DepartureDelay: &d}}, nil
}

func newTestApp(t *testing.T, journeys *fakeJourneys, history *fakeHistory) (*fiber.App, *APIServer) {
	t.Helper()

	formatter, err := delay.NewFormatter("Europe/Berlin", delay.Total)
	require.NoError(t, err)

	// a nil *fakeHistory must not reach New as a non-nil Recorder
	var server *APIServer
	if history != nil {
		server = New(journeys, history, sources.Defaults(), formatter, time.Minute, nil)
	} else {
		server = New(journeys, nil, sources.Defaults(), formatter, time.Minute, nil)
	}
	t.Cleanup(func() { server.Close() })

	app := fiber.New()
	RegisterHandlers(app, server)
	return app, server
}

func defaultJourneys() *fakeJourneys {
	return &fakeJourneys{
		journeys: map[string]types.Journey{
			"db": {
				PlannedDeparture: "2024-01-01T10:00:00",
				Departure:        "2024-01-01T10:07:00",
				PlannedArrival:   "2024-01-01T10:20:00",
				Arrival:          "2024-01-01T10:20:00",
				From:             "Köln Messe/Deutz",
				To:               "Köln-Weiden West",
				Line:             "S 19",
			},
			"kvb": {
				PlannedDeparture: "2024-01-01T10:05:00",
				Departure:        "2024-01-01T10:05:00",
				PlannedArrival:   "2024-01-01T10:30:00",
				Arrival:          "2024-01-01T10:30:00",
				From:             "Bahnhof Deutz/Messe LANXESS arena, Köln",
				To:               "Weiden West, Köln",
				Line:             "1",
			},
		},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func do(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, defaultJourneys(), nil)

	resp, body := do(t, app, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, []string{"db", "kvb"}, health.Sources)
}

func TestGetQuery(t *testing.T) {
	journeys := defaultJourneys()
	journeys.errs["kvb"] = errors.New("H890: no connections")
	app, _ := newTestApp(t, journeys, nil)

	resp, body := do(t, app, http.MethodGet, "/rspc/db")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"planned_depature":"2024-01-01T10:00:00"`)

	resp, body = do(t, app, http.MethodGet, "/rspc/kvb")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var apiErr ErrorResponse
	require.NoError(t, json.Unmarshal(body, &apiErr))
	require.NotNil(t, apiErr.Stack)
	assert.Contains(t, *apiErr.Stack, "H890")

	resp, _ = do(t, app, http.MethodGet, "/rspc/bvg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoard(t *testing.T) {
	journeys := defaultJourneys()
	app, _ := newTestApp(t, journeys, nil)

	resp, body := do(t, app, http.MethodGet, "/board")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var board view.Board
	require.NoError(t, json.Unmarshal(body, &board))
	assert.False(t, board.Loading)
	require.Len(t, board.Segments, 2)
	assert.Equal(t, "db", board.Segments[0].Name)
	assert.Equal(t, "10:07", board.Segments[0].Departure.Actual)
	assert.Equal(t, "bg-red-700", board.Segments[1].LineClass)

	do(t, app, http.MethodGet, "/board")
	assert.Equal(t, 1, journeys.calls["db"], "board results stay fresh for the stale time")
}

func TestBoardPage(t *testing.T) {
	journeys := defaultJourneys()
	journeys.errs["kvb"] = errors.New("timeout")
	app, _ := newTestApp(t, journeys, nil)

	resp, body := do(t, app, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	assert.Contains(t, string(body), "S 19")
	assert.Contains(t, string(body), "kvb unavailable: timeout")
	assert.NotContains(t, string(body), "Loading...")
}

func TestBoardPageWhileLoading(t *testing.T) {
	journeys := defaultJourneys()
	journeys.gate = make(chan struct{})
	app, server := newTestApp(t, journeys, nil)
	server.BoardWait = 20 * time.Millisecond

	resp, body := do(t, app, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Loading...")
	assert.Contains(t, string(body), `<meta http-equiv="refresh" content="2">`)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	assert.NotContains(t, string(body), "S 19")

	close(journeys.gate)

	require.Eventually(t, func() bool {
		_, body := do(t, app, http.MethodGet, "/")
		return strings.Contains(string(body), "S 19")
	}, 2*time.Second, 10*time.Millisecond)

	_, body = do(t, app, http.MethodGet, "/")
	assert.NotContains(t, string(body), "http-equiv")
	journeys.mu.Lock()
	defer journeys.mu.Unlock()
	assert.Equal(t, 1, journeys.calls["db"], "a loading page does not start a second fetch")
}

func TestBoardWithoutWaiting(t *testing.T) {
	journeys := defaultJourneys()
	journeys.gate = make(chan struct{})
	app, _ := newTestApp(t, journeys, nil)

	start := time.Now()
	resp, body := do(t, app, http.MethodGet, "/board?wait=0")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, time.Since(start), time.Second)

	var board view.Board
	require.NoError(t, json.Unmarshal(body, &board))
	assert.True(t, board.Loading)
	assert.Empty(t, board.Segments)

	close(journeys.gate)

	require.Eventually(t, func() bool {
		_, body := do(t, app, http.MethodGet, "/board?wait=0")
		var board view.Board
		return json.Unmarshal(body, &board) == nil && !board.Loading && len(board.Segments) == 2
	}, 2*time.Second, 10*time.Millisecond)

	resp, _ = do(t, app, http.MethodGet, "/board?wait=-1s")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, "/board?wait=soon")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidateQuery(t *testing.T) {
	journeys := defaultJourneys()
	app, _ := newTestApp(t, journeys, nil)

	do(t, app, http.MethodGet, "/board")

	resp, _ := do(t, app, http.MethodPost, "/rspc/db/invalidate")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"db"}, journeys.invalidated)

	do(t, app, http.MethodGet, "/board")
	assert.Equal(t, 2, journeys.calls["db"])
	assert.Equal(t, 1, journeys.calls["kvb"])

	resp, _ = do(t, app, http.MethodPost, "/rspc/bvg/invalidate")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	app, _ := newTestApp(t, defaultJourneys(), nil)
	resp, _ := do(t, app, http.MethodGet, "/history/db")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	history := &fakeHistory{}
	app, _ = newTestApp(t, defaultJourneys(), history)

	resp, body := do(t, app, http.MethodGet, "/history/db?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, history.limit)

	var snaps []types.Snapshot
	require.NoError(t, json.Unmarshal(body, &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, 7, *snaps[0].DepartureDelay)

	resp, _ = do(t, app, http.MethodGet, "/history/db?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/history/bvg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type fixedPlanner struct {
	journey types.Journey
}

func (p fixedPlanner) Plan(context.Context, types.Source) (types.Journey, error) {
	return p.journey, nil
}

func TestJourneysLeaveRecordingToConsumer(t *testing.T) {
	history := &fakeHistory{}
	planner := fixedPlanner{journey: defaultJourneys().journeys["db"]}

	journeys, reader := newJourneys(sources.Defaults(), planner, nil, time.Minute, history, nil)
	assert.Same(t, history, reader)

	journey, err := journeys.FetchJourney(context.Background(), "db")
	require.NoError(t, err)
	assert.Equal(t, "S 19", journey.Line)
	assert.Zero(t, history.records, "the api must not record snapshots")
}
