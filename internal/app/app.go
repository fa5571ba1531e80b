// Package app wires configuration, services and the HTTP router into a
// runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"gamepulse/internal/config"
	apierrors "gamepulse/internal/errors"
	"gamepulse/internal/infrastructure"
	"gamepulse/internal/insight"
	custommw "gamepulse/internal/middleware"
	"gamepulse/internal/services"
	handlers "gamepulse/internal/transport/http"
)

// Version is the reported application version.
const Version = "1.0.0"

// Application is the dependency container. Services are wired once at
// startup and are stateless with respect to analysis results; every
// request's output is request-scoped.
type Application struct {
	cfg    *config.Config
	logger *slog.Logger
	router chi.Router
	server *http.Server
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	mapping, err := config.LoadMapping(cfg.Analysis.MappingFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping dictionary: %w", err)
	}

	errorHandler := apierrors.NewErrorHandler(logger)
	analysisService := services.NewAnalysisService(mapping, cfg.Analysis, logger)
	insightClient := insight.NewClient(cfg.Insight, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(traceMiddleware)
	router.Use(chimiddleware.Recoverer)
	router.Use(custommw.Metrics)
	router.Use(custommw.RateLimit(cfg.Security.RateLimit, errorHandler))

	router.Route("/api", func(r chi.Router) {
		r.Mount("/analysis", handlers.NewAnalysisHandler(
			analysisService, cfg.Analysis.UploadDir, cfg.Analysis.MaxUploadBytes, logger, errorHandler).Routes())
		r.Mount("/insights", handlers.NewInsightHandler(insightClient, logger, errorHandler).Routes())
		r.Mount("/health", handlers.NewHealthHandler(Version).Routes())
	})
	router.Handle("/metrics", custommw.MetricsHandler())

	app := &Application{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		router: router,
	}
	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// Router exposes the HTTP router, mainly for tests.
func (a *Application) Router() chi.Router {
	return a.router
}

// Run serves HTTP until the context is cancelled or a termination
// signal arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// traceMiddleware seeds every request context with a trace ID so all
// downstream logs correlate.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := chimiddleware.GetReqID(r.Context())
		if traceID == "" {
			traceID = infrastructure.NewTraceID()
		}
		ctx := infrastructure.WithTraceID(r.Context(), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
