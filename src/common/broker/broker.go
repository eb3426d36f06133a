package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

const (
	// Queue is the RabbitMQ queue journey updates travel on.
	Queue = "journeys"
	// Destination is the STOMP destination journey updates travel on.
	Destination = "/queue/journeys"
)

var ErrInvalidUpdate = errors.New("invalid journey update")

// Publisher sends journey updates to whoever consumes them.
type Publisher interface {
	Publish(ctx context.Context, update types.JourneyUpdate) error
	Close() error
}

// Handler is called for every decoded update a consumer receives.
type Handler func(ctx context.Context, update types.JourneyUpdate) error

func Encode(update types.JourneyUpdate) ([]byte, error) {
	if update.Source == "" {
		return nil, fmt.Errorf("%w: missing source", ErrInvalidUpdate)
	}
	return json.Marshal(update)
}

func Decode(body []byte) (types.JourneyUpdate, error) {
	var update types.JourneyUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return update, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	if update.Source == "" {
		return update, fmt.Errorf("%w: missing source", ErrInvalidUpdate)
	}
	return update, nil
}
