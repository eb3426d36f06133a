package types

// Journey is the record served by every named board query. The
// planned_depature spelling is part of the wire contract.
type Journey struct {
	PlannedDeparture string `json:"planned_depature"`
	Departure        string `json:"departure"`
	PlannedArrival   string `json:"planned_arrival"`
	Arrival          string `json:"arrival"`
	From             string `json:"from"`
	To               string `json:"to"`
	Line             string `json:"line"`
}

type JourneyUpdate struct {
	Source    string  `json:"source"`
	Journey   Journey `json:"journey"`
	FetchedAt string  `json:"fetched_at"`
}

type Snapshot struct {
	Source         string  `json:"source"`
	FetchedAt      string  `json:"fetched_at"`
	Journey        Journey `json:"journey"`
	DepartureDelay *int    `json:"departure_delay,omitempty"`
	ArrivalDelay   *int    `json:"arrival_delay,omitempty"`
}
