package hafas

import (
	"context"
	"fmt"
)

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	LID  string `json:"lid"`
}

type rawLocation struct {
	LID   string `json:"lid"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	ExtID string `json:"extId"`
}

func (r rawLocation) parse() Location {
	return Location{ID: r.ExtID, Name: r.Name, Type: r.Type, LID: r.LID}
}

// ref is the form a location takes inside a TripSearch request.
func (l Location) ref() map[string]any {
	if l.Type == "S" || l.Type == "" {
		return map[string]any{
			"type": "S",
			"lid":  fmt.Sprintf("A=1@L=%s@", l.ID),
		}
	}
	return map[string]any{
		"type": l.Type,
		"lid":  l.LID,
	}
}

type locMatchResult struct {
	Match struct {
		LocL []rawLocation `json:"locL"`
	} `json:"match"`
}

// Locations runs a LocMatch station search.
func (c *Client) Locations(ctx context.Context, query string, results int, language string) ([]Location, error) {
	if language == "" {
		language = c.profile.Language
	}
	if results <= 0 {
		results = 10
	}

	svc := serviceRequest{
		Cfg:  map[string]any{"polyEnc": "GPA"},
		Meth: "LocMatch",
		Req: map[string]any{
			"input": map[string]any{
				"loc": map[string]any{
					"type": "ALL",
					"name": query + "?",
				},
				"maxLoc": results,
				"field":  "S",
			},
		},
	}

	var res locMatchResult
	if err := c.request(ctx, svc, language, &res); err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(res.Match.LocL))
	for _, l := range res.Match.LocL {
		locations = append(locations, l.parse())
	}
	return locations, nil
}
