// Package app provides application-level wiring and dependency injection
// for the catalog-summary server.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"catalog-summary/internal/api"
	"catalog-summary/internal/catalogclient"
	"catalog-summary/internal/config"
	"catalog-summary/internal/db/repository"
	"catalog-summary/internal/metrics"
	"catalog-summary/internal/middleware"
	"catalog-summary/internal/service/notification"
	"catalog-summary/internal/service/summary"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger

	// HTTPClient overrides the catalog client's transport (tests).
	HTTPClient *http.Client
}

// Services groups the services the router and CLI-facing handlers need.
type Services struct {
	Summary      *summary.Service
	Notification *notification.Service
}

// App holds the fully-wired application.
type App struct {
	Services    Services
	Catalog     *catalogclient.Client
	Metrics     *metrics.Metrics
	Purger      *notification.Purger
	RateLimiter *middleware.RateLimiter
	Router      http.Handler
}

// New wires the catalog client, services and router from the provided deps.
// Background workers are not started; call Start.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	m := metrics.New()

	catalog, err := catalogclient.New(catalogclient.Options{
		BaseURL:        cfg.Catalog.BaseURL,
		Token:          cfg.Catalog.Token,
		Timeout:        cfg.Catalog.Timeout,
		MaxConcurrency: cfg.Catalog.MaxConcurrency,
		HTTPClient:     deps.HTTPClient,
		Metrics:        m,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog client: %w", err)
	}

	// === Notifications ===
	notificationRepo := repository.NewNotificationRepo(deps.WriteDB, deps.ReadDB)
	notificationSvc := notification.NewService(notificationRepo, m, logger)
	purger, err := notification.NewPurger(notificationRepo,
		cfg.Notifications.PurgeSchedule, cfg.Notifications.Retention, logger)
	if err != nil {
		return nil, err
	}

	// === Summaries ===
	collab := summary.Collaborators{
		Charts:     catalog,
		Aggregator: summary.NewAggregator(catalog, notificationSvc, m, logger, cfg.Catalog.TestCasePageLimit),
		Notifier:   notificationSvc,
		Metrics:    m,
		Logger:     logger,
	}
	summarySvc := summary.NewService(catalog, collab)

	// === HTTP ===
	validator, err := middleware.NewValidator(ctx, middleware.AuthOptions{
		IssuerURL:      cfg.Auth.IssuerURL,
		JWKSURL:        cfg.Auth.JWKSURL,
		Audience:       cfg.Auth.Audience,
		AllowedIssuers: cfg.Auth.AllowedIssuers,
		SharedSecret:   cfg.Auth.JWTSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	router, err := api.NewRouter(api.RouterOptions{
		Handler:     api.NewHandler(summarySvc, notificationSvc, logger),
		Metrics:     m.Handler(),
		Validator:   validator,
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	})
	if err != nil {
		limiter.Stop()
		return nil, fmt.Errorf("router: %w", err)
	}

	return &App{
		Services: Services{
			Summary:      summarySvc,
			Notification: notificationSvc,
		},
		Catalog:     catalog,
		Metrics:     m,
		Purger:      purger,
		RateLimiter: limiter,
		Router:      router,
	}, nil
}

// Start launches background workers.
func (a *App) Start() {
	a.Purger.Start()
}

// Close stops background workers. Database handles belong to the caller.
func (a *App) Close() {
	a.Purger.Stop()
	a.RateLimiter.Stop()
}
