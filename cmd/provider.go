package cmd

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/config"
	"github.com/anicoll/energy-monitor/internal/pkg/pulse"
	"github.com/anicoll/energy-monitor/internal/pkg/scheduler"
	"github.com/anicoll/energy-monitor/internal/pkg/tibber"
	"github.com/anicoll/energy-monitor/internal/pkg/topics"
)

func runProvider(ctx context.Context, cfg *config.ProviderConfig, bus Bus) error {
	logger := zap.L()

	set, err := topics.New()
	if err != nil {
		return apperr.Config("topics", err)
	}
	logger.Info("topic bindings checked", zap.Strings("topics", set.Registry.Names()))

	if err := bus.Connect(); err != nil {
		return apperr.Bus("connect", err)
	}
	defer bus.Disconnect()

	eg, ctx := errgroup.WithContext(ctx)

	meter := pulse.New(&cfg.PulseCfg, bus, set.PulseConsumption)
	price := tibber.NewJob(&cfg.TibberCfg, bus, set.TibberPrice)

	sched := scheduler.New()
	if err := sched.Add(ctx, cfg.PulseCfg.Schedule, meter); err != nil {
		return err
	}
	if err := sched.Add(ctx, cfg.TibberCfg.Schedule, price); err != nil {
		return err
	}
	// the price is only scheduled hourly, fetch one straight away
	sched.RunNow(ctx, price)
	sched.Start()
	defer sched.Stop()

	eg.Go(func() error {
		select {
		case err := <-sched.Fatal():
			logger.Error("fatal job error", zap.Error(err))
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	eg.Go(func() error {
		return watchBus(ctx, bus)
	})

	return eg.Wait()
}

// watchBus returns once the broker connection is lost or ctx is done.
func watchBus(ctx context.Context, bus Bus) error {
	select {
	case err := <-bus.Lost():
		return apperr.Bus("broker", err)
	case <-ctx.Done():
		zap.L().Info("context done")
		return ctx.Err()
	}
}
