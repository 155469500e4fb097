package cmd

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/config"
	"github.com/anicoll/energy-monitor/internal/pkg/mqtt"
)

// ProviderCommand polls the meter and the price API and publishes the readings.
func ProviderCommand(ctx *cli.Context) error {
	cfg, err := config.LoadProvider(nil)
	if err != nil {
		return err
	}
	cfg.LogLevel = ctx.String("log-level")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	logger.Info("starting data provider", zap.String("version", ctx.App.Version))

	return runProvider(ctx.Context, cfg, mqtt.New(mqtt.NewClientOptions(&cfg.MqttCfg)))
}

// DisplayCommand turns readings on the bus into matrix display apps.
func DisplayCommand(ctx *cli.Context) error {
	cfg, err := config.LoadDisplay(nil)
	if err != nil {
		return err
	}
	cfg.LogLevel = ctx.String("log-level")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	logger.Info("starting display driver", zap.String("version", ctx.App.Version))

	return runDisplay(ctx.Context, cfg, mqtt.New(mqtt.NewClientOptions(&cfg.MqttCfg)))
}

// newLogger builds the production logger and installs it as the global one.
func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, apperr.Config("log level", err)
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	zap.ReplaceGlobals(logger)
	return logger, nil
}
