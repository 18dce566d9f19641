package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ecomdash/internal/config"
	"ecomdash/internal/dataset"
	"ecomdash/internal/infrastructure"
	customMiddleware "ecomdash/internal/middleware"
	"ecomdash/internal/services"
	transporthttp "ecomdash/internal/transport/http"
	ws "ecomdash/internal/websocket"
)

// Version is the application version, overridable at build time.
var Version = "1.0.0"

// Application bundles the configured components of the dashboard backend.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Store            *dataset.Store
	Hub              *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService

	router chi.Router
	server *http.Server
}

// NewApplication loads configuration and wires every component. The dataset
// itself is loaded lazily by the first request (or eagerly by Warmup).
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", infrastructure.ServiceName),
		slog.String("version", Version),
		slog.String("data_dir", cfg.Paths.DataDir))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the store, hub and services.
func (a *Application) initializeServices() {
	a.Store = dataset.NewStore(a.Config.Paths.DataDir, a.Logger)

	a.Hub = ws.NewHub(a.Logger)
	a.Hub.Start()

	a.DashboardService = services.NewDashboardService(a.Store, a.Config, a.Logger)
	a.DashboardService.SetReloadNotifier(a.Hub)

	a.HealthService = services.NewHealthService(a.Store, Version, a.Logger)
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)

	// WebSocket endpoint stays outside the response-wrapping middleware.
	r.Handle("/ws", a.Hub)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.Config.Security.AllowedOrigins))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			dashboardHandler := transporthttp.NewDashboardHandler(a.DashboardService, a.Logger)
			r.Mount("/dashboard", dashboardHandler.Routes())
		})

		healthHandler := transporthttp.NewHealthHandler(a.HealthService)
		r.Mount("/healthz", healthHandler.Routes())
	})

	// Prometheus scrape endpoint outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.router = r
}

// createServer builds the HTTP server from configuration.
func (a *Application) createServer() {
	a.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Router exposes the configured router, mainly for tests.
func (a *Application) Router() chi.Router { return a.router }

// Warmup loads the dataset before serving so the first request does not pay
// the pipeline cost. A load failure is surfaced, not swallowed: the process
// must not reach the interactive surface without data.
func (a *Application) Warmup(ctx context.Context) error {
	snap, err := a.Store.Get(ctx)
	if err != nil {
		return fmt.Errorf("dataset warmup failed: %w", err)
	}
	a.Logger.Info("dataset warmed up",
		slog.String("fingerprint", snap.Fingerprint),
		slog.Int("rows", snap.Table.Len()))
	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Warmup(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Hub.Stop()
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("otel shutdown", slog.String("error", err.Error()))
	}
	infrastructure.CloseLogFile()

	return nil
}
