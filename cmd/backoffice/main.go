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

	"github.com/shoebox/backoffice/internal/app"
	"github.com/shoebox/backoffice/internal/audit"
	"github.com/shoebox/backoffice/internal/auth"
	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/guard"
	"github.com/shoebox/backoffice/internal/observability"
	"github.com/shoebox/backoffice/internal/platform/cache"
	"github.com/shoebox/backoffice/internal/platform/db"
	"github.com/shoebox/backoffice/internal/roles"
	"github.com/shoebox/backoffice/internal/shared"
	"github.com/shoebox/backoffice/internal/users"
	"github.com/shoebox/backoffice/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	guardMiddleware := guard.Middleware{Logger: logger, Metrics: metrics}

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo, logger)
	auditHandler := audit.NewHandler(logger, auditService, guardMiddleware)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	permissionsHandler := catalog.NewHandler(logger, catalogService, guardMiddleware)

	rolesRepo := roles.NewRepository(dbpool)

	usersRepo := users.NewRepository(dbpool)

	rolesService := roles.NewService(rolesRepo, catalogService, nil)
	usersService := users.NewService(usersRepo, rolesService)
	rolesService.BindAssignments(usersService)

	rolesHandler := roles.NewHandler(logger, rolesService, auditService, guardMiddleware)
	usersHandler := users.NewHandler(logger, usersService, auditService, guardMiddleware)

	loginLimiter := auth.NewLoginLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockout)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(auth.NewCredentialTable(auth.DemoCredentials()), usersService, loginLimiter, authRepo, logger)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, auditService, guardMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
