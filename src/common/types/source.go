package types

import "time"

type Color string

const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
)

type Mode string

const (
	ModeHighSpeedTrain Mode = "high_speed"
	ModeRegionalTrain  Mode = "regional"
	ModeSuburbanTrain  Mode = "suburban"
	ModeSubway         Mode = "subway"
	ModeTram           Mode = "tram"
	ModeBus            Mode = "bus"
	ModeFerry          Mode = "ferry"
	ModeOnDemand       Mode = "on_demand"
)

// Source is one named board query and how to resolve it.
type Source struct {
	Name    string        `yaml:"name" json:"name"`
	Profile string        `yaml:"profile" json:"profile"`
	Color   Color         `yaml:"color" json:"color"`
	From    string        `yaml:"from" json:"from"`
	To      string        `yaml:"to" json:"to"`
	Modes   []Mode        `yaml:"modes" json:"modes"`
	Lead    time.Duration `yaml:"lead" json:"lead"`
}
