package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// Channel is the part of *amqp.Channel the broker uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

func DeclareQueue(channel Channel, name string) error {
	_, err := channel.QueueDeclare(
		name,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

type AMQPPublisher struct {
	conn    *amqp.Connection
	channel Channel
	queue   string
}

// NewAMQPPublisher declares queue on channel. conn may be nil when the
// caller owns the connection.
func NewAMQPPublisher(conn *amqp.Connection, channel Channel, queue string) (*AMQPPublisher, error) {
	if err := DeclareQueue(channel, queue); err != nil {
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: channel, queue: queue}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, update types.JourneyUpdate) error {
	body, err := Encode(update)
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.queue, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		err = multierr.Append(err, p.conn.Close())
	}
	return err
}

// ConsumeAMQP delivers every update on queue to handler until ctx is done
// or the delivery channel closes. Undecodable messages are logged and
// skipped.
func ConsumeAMQP(ctx context.Context, channel Channel, queue string, handler Handler, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := DeclareQueue(channel, queue); err != nil {
		return err
	}

	msgs, err := channel.Consume(queue, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			dispatch(ctx, msg.Body, handler, logger)
		}
	}
}

func dispatch(ctx context.Context, body []byte, handler Handler, logger *zap.SugaredLogger) {
	update, err := Decode(body)
	if err != nil {
		logger.Warnw("error unmarshalling journey update", "error", err)
		return
	}
	if err := handler(ctx, update); err != nil {
		logger.Warnw("error handling journey update", "source", update.Source, "error", err)
		return
	}
	logger.Debugw("handled journey update", "source", update.Source)
}
