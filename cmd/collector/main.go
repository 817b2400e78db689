package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/config"
	"github.com/hamed0406/probeagent/internal/httpapi"
	"github.com/hamed0406/probeagent/internal/logging"
	"github.com/hamed0406/probeagent/internal/repo"
	"github.com/hamed0406/probeagent/internal/repo/memory"
	"github.com/hamed0406/probeagent/internal/repo/postgres"
)

func main() {
	cfg := config.CollectorFromEnv()
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Filename: "collector.log", Stderr: true})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store repo.PayloadStore = memory.New()
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("db_connect_failed", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("db_migrate_failed", zap.Error(err))
		}
		store = pg
		logger.Info("store_postgres")
	} else {
		logger.Info("store_memory")
	}

	if len(cfg.AgentTokens) == 0 {
		logger.Warn("collector_open", zap.String("hint", "COLLECTOR_TOKENS is empty; any token is accepted"))
	}

	api := httpapi.NewServer(logger, store, cfg.AgentTokens)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.RouterOptions{
			ReadKeys:       cfg.ReadKeys,
			AllowedOrigins: cfg.AllowedOrigins,
			TokenRPM:       cfg.TokenRPM,
			TokenBurst:     cfg.TokenBurst,
			ReadRPM:        cfg.TokenRPM,
			ReadBurst:      cfg.TokenBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown_failed", zap.Error(err))
		}
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
	logger.Info("api_stopped")
}
