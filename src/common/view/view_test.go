package view

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/query"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/types"
)

func formatter(t *testing.T) *delay.Formatter {
	t.Helper()
	f, err := delay.NewFormatter("Europe/Berlin", delay.Total)
	require.NoError(t, err)
	return f
}

var delayedDeparture = types.Journey{
	PlannedDeparture: "2024-01-01T10:00:00",
	Departure:        "2024-01-01T10:07:00",
	PlannedArrival:   "2024-01-01T10:20:00",
	Arrival:          "2024-01-01T10:20:00",
	From:             "Köln Messe/Deutz",
	To:               "Köln-Weiden West",
	Line:             "S 19",
}

var onTime = types.Journey{
	PlannedDeparture: "2024-01-01T11:00:00",
	Departure:        "2024-01-01T11:00:00",
	PlannedArrival:   "2024-01-01T11:25:00",
	Arrival:          "2024-01-01T11:28:00",
	From:             "Bahnhof Deutz/Messe LANXESS arena, Köln",
	To:               "Weiden West, Köln",
	Line:             "1",
}

func ready(name string, j types.Journey) query.Result {
	return query.Result{Name: name, State: query.Ready, Journey: j, FetchedAt: time.Now()}
}

func TestLoadingWhileAnyPending(t *testing.T) {
	board := Build([]query.Result{
		ready("db", delayedDeparture),
		{Name: "kvb", State: query.Loading},
	}, sources.Defaults(), formatter(t))

	assert.True(t, board.Loading)
	assert.Empty(t, board.Segments)

	var html bytes.Buffer
	require.NoError(t, RenderHTML(&html, board))
	assert.Contains(t, html.String(), "w-screen h-screen")
	assert.Contains(t, html.String(), "Loading...")
	assert.Contains(t, html.String(), `<meta http-equiv="refresh" content="2">`)
	assert.NotContains(t, html.String(), "data-query")
}

func TestSegmentsInOrderWithColors(t *testing.T) {
	board := Build([]query.Result{
		ready("db", delayedDeparture),
		ready("kvb", onTime),
	}, sources.Defaults(), formatter(t))

	require.False(t, board.Loading)
	require.Len(t, board.Segments, 2)

	db, kvb := board.Segments[0], board.Segments[1]
	assert.Equal(t, "bg-green-700", db.LineClass)
	assert.Equal(t, "bg-red-700", kvb.LineClass)

	assert.Equal(t, "10:00", db.Departure.Planned)
	assert.Equal(t, "10:07", db.Departure.Actual)
	assert.Equal(t, delay.StateWarning, db.Departure.State)
	assert.Equal(t, "text-red-400", db.Departure.Class)
	assert.False(t, db.Arrival.Delayed())
	assert.Equal(t, "20", db.Duration)
	assert.Equal(t, "S 19", db.Line)

	assert.False(t, kvb.Departure.Delayed())
	assert.Empty(t, kvb.Departure.Actual)
	assert.Equal(t, "11:28", kvb.Arrival.Actual)
	assert.Equal(t, "text-green-400", kvb.Arrival.Class)
	assert.Equal(t, "25", kvb.Duration)
}

func TestHTMLSegment(t *testing.T) {
	board := Build([]query.Result{ready("db", delayedDeparture)}, sources.Defaults(), formatter(t))

	var html bytes.Buffer
	require.NoError(t, RenderHTML(&html, board))
	out := html.String()

	assert.NotContains(t, out, "Loading...")
	assert.NotContains(t, out, "http-equiv")
	assert.Contains(t, out, `<p class="text-sm text-red-400">10:07</p>`)
	assert.Contains(t, out, "<p>20min </p>")
	assert.Contains(t, out, "Köln Messe/Deutz")
	assert.Equal(t, 1, bytes.Count(html.Bytes(), []byte("text-sm ")), "no secondary arrival time when on time")
}

func TestFailedSegment(t *testing.T) {
	board := Build([]query.Result{
		ready("db", delayedDeparture),
		{Name: "kvb", State: query.Failed, Err: errors.New("no journey found")},
	}, sources.Defaults(), formatter(t))

	require.Len(t, board.Segments, 2)
	assert.True(t, board.Segments[1].Failed)
	assert.Equal(t, "no journey found", board.Segments[1].Reason)

	var html bytes.Buffer
	require.NoError(t, RenderHTML(&html, board))
	assert.Contains(t, html.String(), "kvb unavailable: no journey found")
}

func TestInvalidTimestampsRenderBlank(t *testing.T) {
	broken := delayedDeparture
	broken.Departure = "soon"

	board := Build([]query.Result{ready("db", broken)}, sources.Defaults(), formatter(t))
	seg := board.Segments[0]
	assert.Equal(t, "10:00", seg.Departure.Planned)
	assert.False(t, seg.Departure.Delayed())

	broken.PlannedArrival = "later"
	board = Build([]query.Result{ready("db", broken)}, sources.Defaults(), formatter(t))
	assert.Empty(t, board.Segments[0].Duration)
	assert.Empty(t, board.Segments[0].Arrival.Planned)
}

func TestRenderText(t *testing.T) {
	board := Build([]query.Result{
		ready("db", delayedDeparture),
		{Name: "kvb", State: query.Failed, Err: errors.New("timeout")},
	}, sources.Defaults(), formatter(t))

	var out bytes.Buffer
	require.NoError(t, RenderText(&out, board))
	assert.Contains(t, out.String(), "10:00 (!10:07)")
	assert.Contains(t, out.String(), "20min")
	assert.Contains(t, out.String(), "unavailable")

	out.Reset()
	require.NoError(t, RenderText(&out, Board{Loading: true}))
	assert.Equal(t, "Loading...\n", out.String())
}
