package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tweet-agent/handler"
	"tweet-agent/internal/app"
	"tweet-agent/internal/config"
	"tweet-agent/internal/logging"
)

func main() {
	logger := logging.NewLoggerWithService("tweet-agent-http")
	config.LoadEnv(logger)

	settings, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger.Logger.SetLevel(logging.ParseLevel(settings.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, settings, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to wire application")
	}

	h, err := handler.NewHandler(a.Poster, a.Agent,
		handler.WithLogger(logger),
		handler.WithMetrics(handler.NewMetrics("tweet_agent")),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create handler")
	}

	srv := &http.Server{
		Addr:         settings.Addr(),
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: settings.GenerationTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logging.Fields{"host": settings.Host, "port": settings.Port}).Info("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}
	logger.Info("Server stopped")
}
