package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/config"
	"github.com/dgnsrekt/gwsync/internal/gateway"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.LoadGatewayServerConfig()
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.Int("capacity", cfg.Capacity),
		zap.Int("replayLimit", cfg.ReplayLimit),
		zap.Int("seedEvents", cfg.SeedEvents),
		zap.Bool("generate", cfg.GenerateEnabled),
		zap.Duration("interval", cfg.GenerateInterval),
		zap.Int("dropAfter", cfg.DropAfter),
	)

	gw := gateway.New(*cfg, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go gw.Run(ctx)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     gateway.NewRouter(gw, logger),
		ReadTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting gateway", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gateway...")

	// Stop the hub first so websocket clients are released
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("gateway stopped", zap.Uint64("lastID", gw.LastID()))
	return 0
}
