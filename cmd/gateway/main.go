package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian-fin/meridian/internal/app"
	"github.com/meridian-fin/meridian/internal/console"
	"github.com/meridian-fin/meridian/internal/observability"
	"github.com/meridian-fin/meridian/internal/platform/cache"
	"github.com/meridian-fin/meridian/internal/syncer"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	apiClient := syncer.NewClient(cfg.PlatformURL, nil)
	manager := console.NewManager(redisClient, apiClient, cfg.SessionWindow)
	consoleHandler := console.NewHandler(logger, manager, apiClient, cfg.IsProduction())

	metrics := observability.NewMetrics()

	router := app.NewGatewayRouter(app.GatewayParams{
		Logger:         logger,
		Config:         cfg,
		ConsoleHandler: consoleHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.GatewayAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting console gateway", slog.String("addr", cfg.GatewayAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
