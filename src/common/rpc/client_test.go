package rpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJourney(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/rspc/db":
			_, _ = io.WriteString(w, `{"planned_depature":"2024-01-01T10:00:00","departure":"2024-01-01T10:07:00","planned_arrival":"2024-01-01T10:20:00","arrival":"2024-01-01T10:20:00","from":"Köln Messe/Deutz","to":"Köln-Weiden West","line":"S 19"}`)
		case "/rspc/db/invalidate":
			w.WriteHeader(http.StatusNoContent)
		case "/rspc/kvb":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"error":"Bad Gateway","message":"no journey found"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Not Found","message":"unknown source: bvg"}`)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	journey, err := c.Journey(ctx, "db")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T10:00:00", journey.PlannedDeparture)
	assert.Equal(t, "S 19", journey.Line)

	_, err = c.FetchJourney(ctx, "kvb")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "no journey found", apiErr.Message)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = c.Journey(ctx, "bvg")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Invalidate(ctx, "db"))
	assert.Equal(t, []string{"GET /rspc/db", "GET /rspc/kvb", "GET /rspc/bvg", "POST /rspc/db/invalidate"}, paths)
}
