package sources

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// DefaultLead is how far ahead of now a journey search starts.
const DefaultLead = 15 * time.Minute

var ErrUnknownSource = errors.New("unknown source")

type file struct {
	Sources []types.Source `yaml:"sources"`
}

// Defaults is the Köln commute pair the board ships with.
func Defaults() []types.Source {
	return []types.Source{
		{
			Name:    "db",
			Profile: "db",
			Color:   types.ColorGreen,
			From:    "Köln Messe/Deutz",
			To:      "Köln-Weiden West",
			Modes:   []types.Mode{types.ModeSuburbanTrain},
			Lead:    DefaultLead,
		},
		{
			Name:    "kvb",
			Profile: "kvb",
			Color:   types.ColorRed,
			From:    "Bahnhof Deutz/Messe LANXESS arena, Köln",
			To:      "Weiden West, Köln",
			Modes:   []types.Mode{types.ModeRegionalTrain},
			Lead:    DefaultLead,
		},
	}
}

// Load reads a sources file. An empty path yields the defaults.
func Load(path string) ([]types.Source, error) {
	if path == "" {
		return Defaults(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	return Parse(raw)
}

func Parse(raw []byte) ([]types.Source, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, errors.New("sources file lists no sources")
	}

	seen := make(map[string]bool)
	for i := range f.Sources {
		s := &f.Sources[i]
		if s.Name == "" {
			return nil, fmt.Errorf("source %d has no name", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true

		if s.From == "" || s.To == "" {
			return nil, fmt.Errorf("source %q needs both from and to", s.Name)
		}
		if s.Profile == "" {
			s.Profile = s.Name
		}
		if s.Color == "" {
			s.Color = types.ColorGreen
		}
		if s.Lead == 0 {
			s.Lead = DefaultLead
		}
	}

	return f.Sources, nil
}

func Names(list []types.Source) []string {
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}

func Find(list []types.Source, name string) (types.Source, error) {
	for _, s := range list {
		if s.Name == name {
			return s, nil
		}
	}
	return types.Source{}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}
