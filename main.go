package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/energy-monitor/cmd"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "energy-monitor",
		Usage:   "home energy telemetry over mqtt",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "provider",
				Usage:  "publish meter consumption and the current electricity price",
				Action: cmd.ProviderCommand,
			},
			{
				Name:   "display",
				Usage:  "show published readings on an awtrix matrix display",
				Action: cmd.DisplayCommand,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a signal cancels ctx; that is a clean shutdown
	if err := app.RunContext(ctx, os.Args); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
