// Package eventloop separates the network side of the bus from message handling.
package eventloop

import (
	"context"

	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/mqtt"
)

type Handler func(ctx context.Context, msg mqtt.Message) error

// Loop is a bounded FIFO with exactly one consumer.
type Loop struct {
	queue  chan mqtt.Message
	logger *zap.Logger
}

func New(size int) *Loop {
	if size < 1 {
		size = 1
	}
	return &Loop{
		queue:  make(chan mqtt.Message, size),
		logger: zap.L(),
	}
}

// Forward returns the callback for the network side. It blocks while the queue
// is full and only gives up a message once ctx is done.
func (l *Loop) Forward(ctx context.Context) func(mqtt.Message) {
	return func(msg mqtt.Message) {
		select {
		case l.queue <- msg:
		case <-ctx.Done():
			l.logger.Warn("dropping message on shutdown", zap.String("topic", msg.Topic))
		}
	}
}

// Len is the number of queued messages.
func (l *Loop) Len() int {
	return len(l.queue)
}

// Run handles queued messages in arrival order until ctx is done or handle
// returns a fatal error. Other errors are logged and the message is skipped.
func (l *Loop) Run(ctx context.Context, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-l.queue:
			if err := handle(ctx, msg); err != nil {
				if apperr.IsFatal(err) {
					return err
				}
				l.logger.Error("failed to handle message",
					zap.String("topic", msg.Topic),
					zap.String("kind", apperr.KindOf(err).String()),
					zap.Error(err),
				)
			}
		}
	}
}
