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

	"github.com/trackline/trackline/internal/app"
	"github.com/trackline/trackline/internal/audit"
	audithttp "github.com/trackline/trackline/internal/audit/http"
	"github.com/trackline/trackline/internal/auth"
	"github.com/trackline/trackline/internal/notify"
	"github.com/trackline/trackline/internal/observability"
	"github.com/trackline/trackline/internal/platform/cache"
	"github.com/trackline/trackline/internal/platform/db"
	"github.com/trackline/trackline/internal/rbac"
	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/tasks"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var store session.Store
	if cfg.SessionStore == "redis" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		store = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		memStore := session.NewMemoryStore()
		go memStore.Sweep(ctx, cfg.SessionTTL/4, cfg.SessionTTL)
		store = memStore
	}
	sessionManager := session.NewManager("trackline_session", cfg.SessionTTL, cfg.IsProduction())

	metrics := observability.NewMetrics()
	auditLogger := audit.NewLogger(pool)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo)
	if err := rbacService.SyncCatalog(ctx); err != nil {
		logger.Error("sync permission catalog", slog.Any("error", err))
		os.Exit(1)
	}
	gate := rbac.NewGate(store, logger, metrics)
	authz := rbac.Middleware{Gate: gate}
	rbacHandler := rbac.NewHandler(logger, rbacService, auditLogger, authz)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, rbacService, store, auditLogger)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	notifyRepo := notify.NewRepository(pool)
	dispatcher := notify.NewDispatcher(notifyRepo, logger, asynqClient)
	notifyHandler := notify.NewHandler(logger, dispatcher, auditLogger, authz, cfg.NotifyRetention)

	taskRepo := tasks.NewRepository(pool, auditLogger)
	taskService := tasks.NewService(taskRepo, auditLogger, dispatcher)
	taskHandler := tasks.NewHandler(logger, taskService, authz)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService, authz)

	router := app.NewRouter(app.RouterParams{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Sessions: sessionManager,
		Store:    store,
		Auth:     authHandler,
		Tasks:    taskHandler,
		RBAC:     rbacHandler,
		Audit:    auditHandler,
		Notify:   notifyHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
