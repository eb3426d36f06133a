package broker

import (
	"fmt"
	"strings"

	"github.com/jack-barr3tt/commute-board/src/common/utils"
)

const (
	KindAMQP  = "amqp"
	KindStomp = "stomp"
)

func ParseKind(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", KindAMQP:
		return KindAMQP, nil
	case KindStomp:
		return KindStomp, nil
	}
	return "", fmt.Errorf("unknown broker %q", s)
}

// OpenPublisher connects to the broker named by kind using the shared
// connection settings.
func OpenPublisher(kind string) (Publisher, error) {
	kind, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	if kind == KindStomp {
		conn, err := utils.NewStompConnection()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to stomp: %w", err)
		}
		return NewStompPublisher(conn, utils.GetEnv("STOMP_DESTINATION", Destination)), nil
	}

	conn, channel, err := utils.NewRabbitConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	publisher, err := NewAMQPPublisher(conn, channel, utils.GetEnv("MQ_QUEUE", Queue))
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	return publisher, nil
}
