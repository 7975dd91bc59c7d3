package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"honeypot-bot/internal/analytics"
	"honeypot-bot/internal/bot"
	"honeypot-bot/internal/config"
	"honeypot-bot/internal/health"
	"honeypot-bot/internal/modules/audit"
	"honeypot-bot/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	auditLogger := audit.NewLogger(store, logger.Named("audit"))

	botSvc, err := bot.New(cfg, logger, store, auditLogger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	var server *health.Server
	if cfg.Health.Enabled {
		server = health.New(cfg.Health.Addr, cfg.Health.MaxConns, botSvc.Traps(), analytics.New(store), logger.Named("health"))
		if err := server.Start(); err != nil {
			logger.Error("health server error", zap.Error(err))
			server = nil
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}
