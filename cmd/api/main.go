package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kgraph/engine/internal/app"
	"github.com/kgraph/engine/internal/config"
	kgerrors "github.com/kgraph/engine/internal/errors"
	"github.com/kgraph/engine/interfaces/http/rest"
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

	router := rest.NewRouter(container.Mediator, logger)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("container shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("failed to sync logger: %v", err)
	}

	log.Println("server stopped")
}
