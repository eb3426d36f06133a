package hafas

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

type Line struct {
	Name    string     `json:"name"`
	Product string     `json:"product"`
	Mode    types.Mode `json:"mode"`
}

type Leg struct {
	Origin           Location  `json:"origin"`
	Destination      Location  `json:"destination"`
	PlannedDeparture time.Time `json:"planned_departure"`
	Departure        time.Time `json:"departure"`
	PlannedArrival   time.Time `json:"planned_arrival"`
	Arrival          time.Time `json:"arrival"`
	Line             *Line     `json:"line,omitempty"`
	Direction        string    `json:"direction,omitempty"`
	Walking          bool      `json:"walking"`
	Cancelled        bool      `json:"cancelled"`
}

type Trip struct {
	Legs []Leg `json:"legs"`
}

type JourneysOptions struct {
	Departure time.Time
	Modes     []types.Mode
	Results   int
	Language  string
}

type rawLine struct {
	Line    string `json:"line"`
	AddName string `json:"addName"`
	Name    string `json:"name"`
	Cls     int    `json:"cls"`
	ProdCtx *struct {
		CatOut string `json:"catOut"`
	} `json:"prodCtx"`
}

type rawStop struct {
	LocX      int    `json:"locX"`
	DTimeS    string `json:"dTimeS"`
	DTimeR    string `json:"dTimeR"`
	DTZOffset *int   `json:"dTZOffset"`
	DCncl     bool   `json:"dCncl"`
	ATimeS    string `json:"aTimeS"`
	ATimeR    string `json:"aTimeR"`
	ATZOffset *int   `json:"aTZOffset"`
	ACncl     bool   `json:"aCncl"`
}

type rawLeg struct {
	Type string  `json:"type"`
	Hide bool    `json:"hide"`
	Dep  rawStop `json:"dep"`
	Arr  rawStop `json:"arr"`
	Jny  *struct {
		ProdX  *int   `json:"prodX"`
		DirTxt string `json:"dirTxt"`
	} `json:"jny"`
}

type tripSearchResult struct {
	Common struct {
		LocL  []rawLocation `json:"locL"`
		ProdL []rawLine     `json:"prodL"`
	} `json:"common"`
	OutConL []struct {
		Date string   `json:"date"`
		SecL []rawLeg `json:"secL"`
	} `json:"outConL"`
}

// Journeys runs a TripSearch departing at opts.Departure.
func (c *Client) Journeys(ctx context.Context, from, to Location, opts JourneysOptions) ([]Trip, error) {
	loc := c.profile.Location()
	when := opts.Departure
	if when.IsZero() {
		when = time.Now()
	}
	when = when.In(loc)

	if opts.Results <= 0 {
		opts.Results = 3
	}
	if opts.Language == "" {
		opts.Language = c.profile.Language
	}

	svc := serviceRequest{
		Cfg:  map[string]any{"polyEnc": "GPA"},
		Meth: "TripSearch",
		Req: map[string]any{
			"ctxScr":      nil,
			"getPasslist": false,
			"maxChg":      -1,
			"minChgTime":  0,
			"numF":        opts.Results,
			"depLocL":     []map[string]any{from.ref()},
			"viaLocL":     []map[string]any{},
			"arrLocL":     []map[string]any{to.ref()},
			"jnyFltrL": []map[string]any{
				{"type": "PROD", "mode": "INC", "value": c.profile.ProductMask(opts.Modes)},
				{"type": "META", "mode": "INC", "meta": "notBarrierfree"},
			},
			"gisFltrL":    []any{},
			"getTariff":   false,
			"ushrp":       true,
			"getPT":       true,
			"getIV":       false,
			"getPolyline": false,
			"outFrwd":     true,
			"outDate":     when.Format("20060102"),
			"outTime":     when.Format("150405"),
			"trfReq": map[string]any{
				"jnyCl":    2,
				"tvlrProf": []map[string]any{{"type": "E"}},
				"cType":    "PK",
			},
		},
	}

	var res tripSearchResult
	if err := c.request(ctx, svc, opts.Language, &res); err != nil {
		return nil, err
	}

	return c.parseTrips(res)
}

func (c *Client) parseTrips(res tripSearchResult) ([]Trip, error) {
	locations := make([]Location, len(res.Common.LocL))
	for i, l := range res.Common.LocL {
		locations[i] = l.parse()
	}

	lines := make([]*Line, len(res.Common.ProdL))
	for i, l := range res.Common.ProdL {
		lines[i] = c.parseLine(l)
	}

	trips := make([]Trip, 0, len(res.OutConL))
	for _, con := range res.OutConL {
		date, err := time.ParseInLocation("20060102", con.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid connection date %q: %w", con.Date, err)
		}

		var trip Trip
		for _, raw := range con.SecL {
			if raw.Hide {
				continue
			}
			leg, err := c.parseLeg(raw, date, locations, lines)
			if err != nil {
				return nil, err
			}
			if leg.Walking && leg.PlannedDeparture.Equal(leg.PlannedArrival) {
				continue
			}
			trip.Legs = append(trip.Legs, leg)
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func (c *Client) parseLine(l rawLine) *Line {
	name := l.Line
	if name == "" {
		name = l.AddName
	}
	if name == "" {
		name = l.Name
	}

	line := &Line{Name: strings.TrimSpace(name)}
	if product, ok := c.profile.ProductForClass(l.Cls); ok {
		line.Mode = product.Mode
		line.Product = product.Short
	}
	if l.ProdCtx != nil && l.ProdCtx.CatOut != "" {
		line.Product = strings.TrimSpace(l.ProdCtx.CatOut)
	}
	return line
}

func (c *Client) parseLeg(raw rawLeg, date time.Time, locations []Location, lines []*Line) (Leg, error) {
	var leg Leg

	if raw.Dep.LocX < 0 || raw.Dep.LocX >= len(locations) {
		return leg, fmt.Errorf("invalid place index: %d", raw.Dep.LocX)
	}
	if raw.Arr.LocX < 0 || raw.Arr.LocX >= len(locations) {
		return leg, fmt.Errorf("invalid place index: %d", raw.Arr.LocX)
	}
	leg.Origin = locations[raw.Dep.LocX]
	leg.Destination = locations[raw.Arr.LocX]

	depOffset, arrOffset := raw.Dep.DTZOffset, raw.Arr.ATZOffset
	if raw.Type == "WALK" {
		if depOffset != nil && *depOffset == 0 && arrOffset != nil {
			depOffset = arrOffset
		}
		if arrOffset != nil && *arrOffset == 0 && depOffset != nil {
			arrOffset = depOffset
		}
	}

	var err error
	if leg.PlannedDeparture, leg.Departure, err = c.parseEvent(raw.Dep.DTimeS, raw.Dep.DTimeR, depOffset, date); err != nil {
		return leg, err
	}
	if leg.PlannedArrival, leg.Arrival, err = c.parseEvent(raw.Arr.ATimeS, raw.Arr.ATimeR, arrOffset, date); err != nil {
		return leg, err
	}
	leg.Cancelled = raw.Dep.DCncl || raw.Arr.ACncl

	switch raw.Type {
	case "JNY", "TETA":
		if raw.Jny == nil {
			return leg, errors.New("missing jny field")
		}
		leg.Direction = raw.Jny.DirTxt
		if raw.Jny.ProdX != nil {
			x := *raw.Jny.ProdX
			if x < 0 || x >= len(lines) {
				return leg, fmt.Errorf("invalid line index: %d", x)
			}
			leg.Line = lines[x]
		}
	case "WALK":
		leg.Walking = true
	}

	return leg, nil
}

// parseEvent returns the planned time and the realtime-or-planned time.
func (c *Client) parseEvent(planned, realtime string, offset *int, date time.Time) (time.Time, time.Time, error) {
	p, err := c.parseTime(planned, offset, date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if realtime == "" {
		return p, p, nil
	}
	r, err := c.parseTime(realtime, offset, date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return p, r, nil
}

// parseTime reads HHMMSS, or DDHHMMSS with a leading day offset, relative
// to the connection date.
func (c *Client) parseTime(value string, offset *int, date time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	days := 0
	switch len(value) {
	case 8:
		d, err := strconv.Atoi(value[:2])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day offset in %q", value)
		}
		days = d
		value = value[2:]
	case 6:
	default:
		return time.Time{}, fmt.Errorf("invalid time length. expected 6 or 8, got %d", len(value))
	}

	clock, err := time.Parse("150405", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", value, err)
	}

	loc := c.profile.Location()
	if offset != nil {
		loc = time.FixedZone("", *offset*60)
	}

	return time.Date(date.Year(), date.Month(), date.Day()+days,
		clock.Hour(), clock.Minute(), clock.Second(), 0, loc), nil
}
