// Package app wires configuration, the search pipeline and its outer surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/alex-user-go/nearby/internal/config"
	"github.com/alex-user-go/nearby/internal/geo"
	"github.com/alex-user-go/nearby/internal/handler"
	"github.com/alex-user-go/nearby/internal/middleware"
	"github.com/alex-user-go/nearby/internal/obs"
	"github.com/alex-user-go/nearby/internal/present"
	"github.com/alex-user-go/nearby/internal/search"
	"github.com/alex-user-go/nearby/internal/search/ratelimit"
	"github.com/alex-user-go/nearby/internal/sources"
)

const (
	shutdownTimeout    = 10 * time.Second
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 30 * time.Second
	serverIdleTimeout  = 60 * time.Second
)

// App holds the wired application.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *obs.Metrics
	Service   *search.Service
	Formatter *present.CurrencyFormatter
}

// New builds the application from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	metrics := obs.NewMetrics(logger)

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		return nil, err
	}

	registry := sources.NewRegistry(cfg.Sources, cfg.DefaultSource)
	if _, err := registry.ActiveLocation(); err != nil {
		logger.Warn("default source is not registered", "default_source", cfg.DefaultSource)
	}

	var opts []search.Option
	if !cfg.Geo.AbsoluteCoordinates {
		opts = append(opts, search.WithDistance(geo.GreatCircle))
	}
	retriever := search.NewRetriever(fetcher, cfg.Fetch.Timeout, metrics, logger)
	service := search.NewService(registry, retriever, metrics, logger, opts...)

	formatter, err := present.NewCurrencyFormatter(cfg.Currency.Locale, cfg.Currency.Code, cfg.Currency.ShowSymbol)
	if err != nil {
		return nil, fmt.Errorf("currency formatter: %w", errors.Unwrap(err))
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Service:   service,
		Formatter: formatter,
	}, nil
}

// NewFetcher builds the scheme dispatcher for http(s), s3 and file sources.
// s3 locations are unsupported when no endpoint is configured.
func NewFetcher(cfg *config.Config) (*sources.SchemeFetcher, error) {
	web := sources.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes, cfg.Fetch.UserAgent)
	local := sources.NewFileFetcher(cfg.Fetch.MaxBytes)

	var store *sources.S3Fetcher
	if cfg.S3.Endpoint != "" {
		var err error
		store, err = sources.NewS3Fetcher(sources.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
			MaxBytes:  cfg.Fetch.MaxBytes,
		})
		if err != nil {
			return nil, err
		}
	}

	return sources.NewDefaultFetcher(web, store, local), nil
}

// Router returns the HTTP routes.
func (a *App) Router(limiter *ratelimit.Limiter) http.Handler {
	h := handler.New(a.Service, a.Formatter, limiter, a.Metrics, a.Logger, a.Config.Search.Limit)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(a.Logger))

	r.Get("/search", h.SearchHandler)
	r.Get("/sources", h.SourcesHandler)
	r.Get("/healthz", obs.HealthHandler(a.Logger))
	r.Method(http.MethodGet, "/metrics", a.Metrics.MetricsHandler())

	return r
}

// Serve runs the HTTP server on address until ctx is cancelled, then shuts it
// down gracefully.
func (a *App) Serve(ctx context.Context, address string) error {
	limiter := ratelimit.New(a.Config.Server.RateLimit, a.Config.Server.RateWindow)
	defer limiter.Close()

	srv := &http.Server{
		Addr:         address,
		Handler:      a.Router(limiter),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("starting server", "addr", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		a.Logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
