package view

import (
	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/query"
	"github.com/jack-barr3tt/commute-board/src/common/types"
)

var lineClasses = map[types.Color]string{
	types.ColorGreen: "bg-green-700",
	types.ColorRed:   "bg-red-700",
}

var stateClasses = map[delay.State]string{
	delay.StateMinor:   "text-green-400",
	delay.StateWarning: "text-red-400",
}

// Board is everything a renderer needs. While Loading is set there are no
// segments.
type Board struct {
	Loading  bool      `json:"loading"`
	Segments []Segment `json:"segments"`
}

// Stop is one end of a segment.
type Stop struct {
	Planned string      `json:"planned"`
	Actual  string      `json:"actual,omitempty"`
	State   delay.State `json:"state,omitempty"`
	Class   string      `json:"class,omitempty"`
	Station string      `json:"station"`
}

// Delayed reports whether the secondary actual time is shown.
func (s Stop) Delayed() bool {
	return s.State != delay.StateNone
}

type Segment struct {
	Name      string      `json:"name"`
	Color     types.Color `json:"color"`
	LineClass string      `json:"line_class"`
	Failed    bool        `json:"failed"`
	Reason    string      `json:"reason,omitempty"`
	Departure Stop        `json:"departure"`
	Arrival   Stop        `json:"arrival"`
	Duration  string      `json:"duration"`
	Line      string      `json:"line"`
}

func stop(f *delay.Formatter, planned, actual, station string, m delay.Minutes) Stop {
	s := Stop{Planned: f.Clock(planned), Station: station}
	if state := delay.Classify(m); state != delay.StateNone {
		s.State = state
		s.Actual = f.Clock(actual)
		s.Class = stateClasses[state]
	}
	return s
}

func colorOf(sources []types.Source, name string) types.Color {
	for _, s := range sources {
		if s.Name == name && s.Color != "" {
			return s.Color
		}
	}
	return types.ColorGreen
}

func lineClass(c types.Color) string {
	if class, ok := lineClasses[c]; ok {
		return class
	}
	return lineClasses[types.ColorGreen]
}

// Build lays out one segment per result, in result order. Any loading
// result turns the whole board into the loading indicator.
func Build(results []query.Result, sources []types.Source, f *delay.Formatter) Board {
	for _, r := range results {
		if r.State == query.Loading {
			return Board{Loading: true}
		}
	}

	segments := make([]Segment, 0, len(results))
	for _, r := range results {
		color := colorOf(sources, r.Name)
		seg := Segment{
			Name:      r.Name,
			Color:     color,
			LineClass: lineClass(color),
		}

		if r.State == query.Failed {
			seg.Failed = true
			if r.Err != nil {
				seg.Reason = r.Err.Error()
			}
			segments = append(segments, seg)
			continue
		}

		j := r.Journey
		seg.Departure = stop(f, j.PlannedDeparture, j.Departure, j.From, f.DepartureDelay(j))
		seg.Arrival = stop(f, j.PlannedArrival, j.Arrival, j.To, f.ArrivalDelay(j))
		seg.Duration = f.Duration(j).String()
		seg.Line = j.Line

		segments = append(segments, seg)
	}

	return Board{Segments: segments}
}
