package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tweet-agent/internal/app"
	"tweet-agent/internal/cli"
	"tweet-agent/internal/config"
	"tweet-agent/internal/logging"
)

func main() {
	logger := logging.NewLoggerWithService("tweet-cli")

	load := func(ctx context.Context) (*cli.Deps, error) {
		config.LoadEnv(logger)
		settings, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger.Logger.SetLevel(logging.ParseLevel(settings.LogLevel))
		a, err := app.New(ctx, settings, logger)
		if err != nil {
			return nil, err
		}
		return &cli.Deps{Agent: a.Agent, Verifier: a.Publisher, Logger: logger}, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCmd(load).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
