package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"tweet-agent/handler"
	"tweet-agent/internal/app"
	"tweet-agent/internal/config"
	"tweet-agent/internal/logging"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLoggerWithService("tweet-agent-lambda")

	settings, err := config.Load()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	a, err := app.New(ctx, settings, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to wire application")
		os.Exit(1)
	}

	h, err := handler.NewHandler(a.Poster, a.Agent, handler.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Error("Failed to create handler")
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
