package topic

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
)

// Publisher is the bus side used to send encoded payloads.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Publish encodes v with the binding of t and sends it on t.
func Publish[T any](p Publisher, t Topic[T], v T) error {
	data, err := t.Encode(v)
	if err != nil {
		return err
	}
	if err := p.Publish(t.Name(), data); err != nil {
		return apperr.Bus("publish "+t.Name(), err)
	}
	return nil
}

type HandlerFunc func(ctx context.Context, payload []byte) error

// Dispatcher selects the decoder of an inbound message by its literal topic name.
type Dispatcher struct {
	routes map[string]HandlerFunc
	logger *zap.Logger
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		routes: make(map[string]HandlerFunc),
		logger: zap.L(),
	}
}

// Handle routes messages on t to fn after decoding them as T.
func Handle[T any](d *Dispatcher, t Topic[T], fn func(ctx context.Context, v T) error) error {
	if _, exists := d.routes[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t.Name())
	}
	d.routes[t.Name()] = func(ctx context.Context, payload []byte) error {
		v, err := t.Decode(payload)
		if err != nil {
			return apperr.Decode("dispatch", err)
		}
		return fn(ctx, v)
	}
	return nil
}

// Topics returns the routed topic names, sorted.
func (d *Dispatcher) Topics() []string {
	names := lo.Keys(d.routes)
	slices.Sort(names)
	return names
}

// Dispatch ignores topics without a route.
func (d *Dispatcher) Dispatch(ctx context.Context, topic string, payload []byte) error {
	route, ok := d.routes[topic]
	if !ok {
		d.logger.Debug("ignoring message on unknown topic", zap.String("topic", topic))
		return nil
	}
	return route(ctx, payload)
}
