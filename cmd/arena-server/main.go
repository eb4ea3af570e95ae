package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/arenabuilder"
	appcfg "github.com/park285/cheese-arena/internal/config"
	"github.com/park285/cheese-arena/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	deps, err := arenabuilder.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("arena_init_error", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("arena_listen", zap.String("addr", cfg.HTTPAddr))
		errCh <- deps.App.Listen(cfg.HTTPAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("arena_shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("arena_listen_error", zap.Error(err))
	}

	if err := deps.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("arena_shutdown_error", zap.Error(err))
	}
	if err := deps.Close(); err != nil {
		logger.Warn("arena_close_error", zap.Error(err))
	}
}
