package cmd

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/awtrix"
	"github.com/anicoll/energy-monitor/internal/pkg/config"
	"github.com/anicoll/energy-monitor/internal/pkg/eventloop"
	"github.com/anicoll/energy-monitor/internal/pkg/mqtt"
	"github.com/anicoll/energy-monitor/internal/pkg/topic"
	"github.com/anicoll/energy-monitor/internal/pkg/topics"
)

func runDisplay(ctx context.Context, cfg *config.DisplayConfig, bus Bus) error {
	logger := zap.L()

	set, err := topics.New()
	if err != nil {
		return apperr.Config("topics", err)
	}
	dispatcher := topic.NewDispatcher()
	if err := awtrix.New(bus, set).Register(dispatcher); err != nil {
		return apperr.Config("routes", err)
	}
	logger.Info("topic bindings checked", zap.Strings("topics", set.Registry.Names()))

	if err := bus.Connect(); err != nil {
		return apperr.Bus("connect", err)
	}
	defer bus.Disconnect()

	eg, ctx := errgroup.WithContext(ctx)

	// the network side only enqueues, all handling happens on the loop
	loop := eventloop.New(cfg.QueueSize)
	if err := bus.Subscribe(dispatcher.Topics(), loop.Forward(ctx)); err != nil {
		return apperr.Bus("subscribe", err)
	}

	eg.Go(func() error {
		return loop.Run(ctx, func(ctx context.Context, msg mqtt.Message) error {
			return dispatcher.Dispatch(ctx, msg.Topic, msg.Payload)
		})
	})

	eg.Go(func() error {
		return watchBus(ctx, bus)
	})

	return eg.Wait()
}
