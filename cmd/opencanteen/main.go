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

	"github.com/opencanteen/opencanteen/internal/analytics"
	"github.com/opencanteen/opencanteen/internal/app"
	"github.com/opencanteen/opencanteen/internal/auth"
	"github.com/opencanteen/opencanteen/internal/dailysales"
	"github.com/opencanteen/opencanteen/internal/events"
	"github.com/opencanteen/opencanteen/internal/export"
	"github.com/opencanteen/opencanteen/internal/platform/cache"
	"github.com/opencanteen/opencanteen/internal/platform/db"
	"github.com/opencanteen/opencanteen/internal/rbac"
	"github.com/opencanteen/opencanteen/internal/report"
	"github.com/opencanteen/opencanteen/internal/roles"
	"github.com/opencanteen/opencanteen/internal/schools"
	"github.com/opencanteen/opencanteen/internal/shared"
	"github.com/opencanteen/opencanteen/internal/storage"
	"github.com/opencanteen/opencanteen/internal/users"
	"github.com/opencanteen/opencanteen/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching and events degraded", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	blobStore, err := storage.NewStore(cfg.BlobDir)
	if err != nil {
		logger.Error("open blob store", slog.Any("error", err))
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

	broker := events.NewBroker(redisClient, logger)
	eventsHandler := events.NewHandler(logger, broker)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, broker, logger)
	usersHandler := users.NewHandler(logger, usersService)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo)
	rolesHandler := roles.NewHandler(logger, rolesService)

	schoolsRepo := schools.NewRepository(pool)
	schoolsService := schools.NewService(schoolsRepo, logger)
	schoolsHandler := schools.NewHandler(logger, schoolsService)

	issuer := auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL, redisClient)
	authService := auth.NewService(usersService, issuer, logger)
	providers := auth.Providers(
		auth.ProviderConfig{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret, RedirectURI: cfg.GoogleRedirectURI},
		auth.ProviderConfig{ClientID: cfg.MicrosoftClientID, ClientSecret: cfg.MicrosoftClientSecret, RedirectURI: cfg.MicrosoftRedirectURI, Tenant: cfg.MicrosoftTenant},
		auth.ProviderConfig{ClientID: cfg.FacebookClientID, ClientSecret: cfg.FacebookClientSecret, RedirectURI: cfg.FacebookRedirectURI},
	)
	authHandler := auth.NewHandler(logger, authService, providers, cfg.LoginRateLimit, cfg.LoginRateWindow)
	authMiddleware := auth.NewMiddleware(issuer, rolesService, logger)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	approvalRecorder := shared.NewApprovalRecorder(pool, logger)
	notifier := jobs.NewStatusNotifier(jobClient, usersService, cfg.NotifyRecipient)

	reportRepo := report.NewRepository(pool)
	reportService := report.NewService(reportRepo, approvalRecorder, usersService, notifier, logger)
	reportHandler := report.NewHandler(logger, reportService, schoolsService, export.NewPDFGenerator(), export.NewExcelGenerator())

	salesRepo := dailysales.NewRepository(pool)
	salesService := dailysales.NewService(salesRepo)

	analyticsCache := analytics.NewCache(redisClient, 10*time.Minute)
	analyticsService := analytics.NewService(salesService, analyticsCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService)

	salesHandler := dailysales.NewHandler(logger, salesService, analyticsService)

	storageHandler := storage.NewHandler(logger, blobStore, usersService, schoolsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		RBACMiddleware:    rbacMiddleware,
		UsersHandler:      usersHandler,
		RolesHandler:      rolesHandler,
		SchoolsHandler:    schoolsHandler,
		ReportHandler:     reportHandler,
		DailySalesHandler: salesHandler,
		AnalyticsHandler:  analyticsHandler,
		StorageHandler:    storageHandler,
		EventsHandler:     eventsHandler,
		JobHandler:        jobHandler,
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
