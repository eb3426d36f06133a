package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/hafas"
	"github.com/jack-barr3tt/commute-board/src/common/types"
)

var (
	ErrNoLocation = errors.New("no matching location")
	ErrNoJourney  = errors.New("no journey found")
	ErrNoSchedule = errors.New("journey has no planned time")
)

// naiveLayout is how journey timestamps travel: local wall clock, no zone.
const naiveLayout = "2006-01-02T15:04:05"

// Planner answers sources by searching the HAFAS deployment named by
// their profile.
type Planner struct {
	mu      sync.Mutex
	clients map[string]*hafas.Client
	urls    map[string]string
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewPlanner creates a planner. urls optionally overrides the endpoint of
// a profile by name.
func NewPlanner(urls map[string]string, logger *zap.SugaredLogger) *Planner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Planner{
		clients: make(map[string]*hafas.Client),
		urls:    urls,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Planner) client(profileName string) (*hafas.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[profileName]; ok {
		return c, nil
	}

	profile, err := hafas.ProfileByName(profileName)
	if err != nil {
		return nil, err
	}
	if url, ok := p.urls[profileName]; ok && url != "" {
		profile.URL = url
	}

	c := hafas.NewClient(profile, p.logger)
	p.clients[profileName] = c
	return c, nil
}

func (p *Planner) locate(ctx context.Context, c *hafas.Client, query string) (hafas.Location, error) {
	locations, err := c.Locations(ctx, query, 1, "de")
	if err != nil {
		return hafas.Location{}, fmt.Errorf("failed to look up %q: %w", query, err)
	}
	if len(locations) == 0 {
		return hafas.Location{}, fmt.Errorf("%w: %s", ErrNoLocation, query)
	}
	return locations[0], nil
}

func (p *Planner) Plan(ctx context.Context, source types.Source) (types.Journey, error) {
	c, err := p.client(source.Profile)
	if err != nil {
		return types.Journey{}, err
	}

	from, err := p.locate(ctx, c, source.From)
	if err != nil {
		return types.Journey{}, err
	}
	to, err := p.locate(ctx, c, source.To)
	if err != nil {
		return types.Journey{}, err
	}

	trips, err := c.Journeys(ctx, from, to, hafas.JourneysOptions{
		Departure: p.now().Add(source.Lead),
		Modes:     source.Modes,
	})
	if err != nil {
		return types.Journey{}, err
	}

	return journeyFromTrips(source, trips, c.Profile().Location())
}

func journeyFromTrips(source types.Source, trips []hafas.Trip, loc *time.Location) (types.Journey, error) {
	if len(trips) == 0 || len(trips[0].Legs) == 0 {
		return types.Journey{}, fmt.Errorf("%w: %s to %s", ErrNoJourney, source.From, source.To)
	}

	legs := trips[0].Legs
	first, last := legs[0], legs[len(legs)-1]
	if first.PlannedDeparture.IsZero() || last.PlannedArrival.IsZero() {
		return types.Journey{}, fmt.Errorf("%w: %s to %s", ErrNoSchedule, source.From, source.To)
	}

	line := ""
	for _, leg := range legs {
		if leg.Line != nil && leg.Line.Name != "" {
			line = leg.Line.Name
			break
		}
	}

	naive := func(t time.Time) string {
		return t.In(loc).Format(naiveLayout)
	}

	return types.Journey{
		From:             source.From,
		To:               source.To,
		PlannedDeparture: naive(first.PlannedDeparture),
		Departure:        naive(first.Departure),
		PlannedArrival:   naive(last.PlannedArrival),
		Arrival:          naive(last.Arrival),
		Line:             line,
	}, nil
}
