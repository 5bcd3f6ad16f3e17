package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/app"
	"github.com/kgraph/engine/internal/config"
	kgerrors "github.com/kgraph/engine/internal/errors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	structuredLogger, err := kgerrors.NewStructuredLogger(string(cfg.Environment))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	logger := structuredLogger.Logger

	container, err := app.NewContainer(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize container", zap.Error(err))
	}

	if err := container.Queue.RecoverOnRestart(ctx); err != nil {
		logger.Error("failed to recover in-flight jobs", zap.Error(err))
	}

	logger.Info("starting worker service", zap.String("environment", string(cfg.Environment)))

	errCh := make(chan error, 2)
	go func() { errCh <- container.Queue.Run(ctx) }()
	go func() { errCh <- container.Scheduler.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Error("worker loop exited unexpectedly", zap.Error(err))
		}
	}

	logger.Info("shutting down worker service")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("container shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("failed to sync logger: %v", err)
	}

	log.Println("worker service stopped")
}
