package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-stomp/stomp/v3"
	"github.com/go-stomp/stomp/v3/frame"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

// Sender is the part of *stomp.Conn the publisher uses.
type Sender interface {
	Send(destination, contentType string, body []byte, opts ...func(*frame.Frame) error) error
	Disconnect() error
}

type StompPublisher struct {
	conn        Sender
	destination string
}

func NewStompPublisher(conn Sender, destination string) *StompPublisher {
	return &StompPublisher{conn: conn, destination: destination}
}

func (p *StompPublisher) Publish(_ context.Context, update types.JourneyUpdate) error {
	body, err := Encode(update)
	if err != nil {
		return err
	}
	if err := p.conn.Send(p.destination, "application/json", body); err != nil {
		return fmt.Errorf("failed to send to %s: %w", p.destination, err)
	}
	return nil
}

func (p *StompPublisher) Close() error {
	return p.conn.Disconnect()
}

// Listener subscribes to a STOMP destination and hands every update to its
// handler.
type Listener struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	stompConn   *stomp.Conn
	destination string
	handler     Handler
	logger      *zap.SugaredLogger
}

func NewListener(ctx context.Context, wg *sync.WaitGroup, stompConn *stomp.Conn, destination string, handler Handler, logger *zap.SugaredLogger) *Listener {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Listener{
		ctx:         ctx,
		wg:          wg,
		stompConn:   stompConn,
		destination: destination,
		handler:     handler,
		logger:      logger,
	}
}

// Start blocks until the context is done or the subscription ends. The
// caller must have added the listener to its wait group.
func (l *Listener) Start() error {
	defer l.wg.Done()

	sub, err := l.stompConn.Subscribe(l.destination, stomp.AckAuto)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", l.destination, err)
	}
	defer sub.Unsubscribe()

	return l.listen(sub.C)
}

func (l *Listener) listen(messages <-chan *stomp.Message) error {
	for {
		select {
		case <-l.ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if msg.Err != nil {
				l.logger.Warnw("stomp subscription error", "destination", l.destination, "error", msg.Err)
				continue
			}

			dispatch(l.ctx, msg.Body, l.handler, l.logger)
		}
	}
}
