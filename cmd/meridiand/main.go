package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-fin/meridian/internal/app"
	"github.com/meridian-fin/meridian/internal/auth"
	"github.com/meridian-fin/meridian/internal/observability"
	"github.com/meridian-fin/meridian/internal/permissions"
	"github.com/meridian-fin/meridian/internal/platform/db"
	"github.com/meridian-fin/meridian/internal/roles"
	"github.com/meridian-fin/meridian/internal/shared"
	"github.com/meridian-fin/meridian/internal/users"
	"github.com/meridian-fin/meridian/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jwtService, err := auth.NewJWTService([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTExpiry)
	if err != nil {
		logger.Error("init jwt", slog.Any("error", err))
		os.Exit(1)
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, auditLogger, logger)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, usersService, redisClient, jwtService, jobClient, logger, auth.Config{
		OTPExpiry:      cfg.OTPExpiry,
		OTPCooldown:    cfg.OTPCooldown,
		OTPMaxAttempts: cfg.OTPMaxAttempts,
		RefreshExpiry:  cfg.RefreshTTL,
	})
	authMiddleware := auth.NewMiddleware(jwtService, usersService)
	authHandler := auth.NewHandler(logger, authService, authMiddleware)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, auditLogger, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, authMiddleware)

	permsRepo := permissions.NewRepository(pool)
	permsService := permissions.NewService(permsRepo, logger)
	permsHandler := permissions.NewHandler(logger, permsService, authMiddleware)

	usersHandler := users.NewHandler(logger, usersService, authMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting platform api", slog.String("addr", cfg.APIAddr))
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
