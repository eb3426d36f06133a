package delay

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// Formula selects how a millisecond difference is turned into minutes.
type Formula int

const (
	// Total counts whole minutes of the difference.
	Total Formula = iota
	// Wrapped keeps only the minutes field of the difference read as a
	// time of day, so 75 minutes shows as 15 and -2 minutes as 58.
	Wrapped
)

func ParseFormula(s string) (Formula, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "total":
		return Total, nil
	case "wrapped":
		return Wrapped, nil
	}
	return Total, fmt.Errorf("unknown delay formula %q", s)
}

func (f Formula) String() string {
	if f == Wrapped {
		return "wrapped"
	}
	return "total"
}

// Minutes is a derived minute count. Valid is false when any input
// timestamp could not be parsed.
type Minutes struct {
	Value int
	Valid bool
}

func (m Minutes) String() string {
	if !m.Valid {
		return ""
	}
	return strconv.Itoa(m.Value)
}

type State string

const (
	StateNone    State = ""
	StateMinor   State = "minor"
	StateWarning State = "warning"
)

// WarningThreshold is the largest delay still shown as minor.
const WarningThreshold = 5

func Classify(m Minutes) State {
	if !m.Valid || m.Value <= 0 {
		return StateNone
	}
	if m.Value > WarningThreshold {
		return StateWarning
	}
	return StateMinor
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Formatter derives display values for journeys in a fixed time zone.
type Formatter struct {
	Location *time.Location
	Formula  Formula
}

func NewFormatter(zone string, formula Formula) (*Formatter, error) {
	if zone == "" {
		zone = "Europe/Berlin"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load board timezone: %w", err)
	}
	return &Formatter{Location: loc, Formula: formula}, nil
}

func (f *Formatter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// Parse accepts naive local timestamps, read in the formatter's zone, and
// RFC 3339 timestamps carrying their own offset.
func (f *Formatter) Parse(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, ts, f.location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s' with any known layout", ts)
}

// Between returns the minutes from planned to actual.
func (f *Formatter) Between(planned, actual string) Minutes {
	from, err := f.Parse(planned)
	if err != nil {
		return Minutes{}
	}
	to, err := f.Parse(actual)
	if err != nil {
		return Minutes{}
	}
	return f.minutes(to.Sub(from))
}

func (f *Formatter) minutes(d time.Duration) Minutes {
	ms := d.Milliseconds()
	whole := ms / 60000
	if ms%60000 < 0 {
		whole--
	}
	if f.Formula == Wrapped {
		whole %= 60
		if whole < 0 {
			whole += 60
		}
	}
	return Minutes{Value: int(whole), Valid: true}
}

func (f *Formatter) Duration(j types.Journey) Minutes {
	return f.Between(j.PlannedDeparture, j.PlannedArrival)
}

func (f *Formatter) DepartureDelay(j types.Journey) Minutes {
	return f.Between(j.PlannedDeparture, j.Departure)
}

func (f *Formatter) ArrivalDelay(j types.Journey) Minutes {
	return f.Between(j.PlannedArrival, j.Arrival)
}

// Clock renders a timestamp as 2-digit hour and minute the way de-DE
// does. Unparseable timestamps render blank.
func (f *Formatter) Clock(ts string) string {
	t, err := f.Parse(ts)
	if err != nil {
		return ""
	}
	return t.In(f.location()).Format("15:04")
}
