package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/walkgoal/apiserver/config"
	"github.com/walkgoal/apiserver/internal/handlers"
	"github.com/walkgoal/apiserver/internal/metrics"
	"github.com/walkgoal/apiserver/internal/mq"
	"github.com/walkgoal/apiserver/internal/services"
	"github.com/walkgoal/apiserver/internal/storage"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server, router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	stores     *Stores
	mq         *mq.MQ
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New connects the configured store, object storage and message queue,
// seeds default settings and builds the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		stores:  stores,
		metrics: metrics.New(),
		logger:  logger,
	}
	if err := s.setup(ctx, cfg); err != nil {
		_ = s.close()
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) setup(ctx context.Context, cfg config.Config) error {
	settingsService := services.NewSettingsService(s.stores.Settings)
	if err := settingsService.EnsureDefaults(ctx, services.SettingsDefaults{
		GoalMinutes:   cfg.App.GoalMinutes,
		StartLocation: cfg.App.StartLocation,
		EndLocation:   cfg.App.EndLocation,
		AdminPassword: cfg.App.AdminPassword,
	}); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	s.mq, err = mq.New(ctx, cfg.MQ)
	if err != nil {
		return fmt.Errorf("message queue: %w", err)
	}

	// A nil *mq.MQ must not reach the Publisher interface.
	var events *services.Events
	if s.mq != nil {
		events = services.NewEvents(s.mq, cfg.MQ.Channel, s.logger)
	}

	userService := services.NewUserService(s.stores.Users, events)
	entryService := services.NewEntryService(s.stores.Entries, userService, settingsService, services.EntryOptions{
		MaxMinutes:      cfg.App.MaxEntryMinutes,
		AutoCreateUsers: cfg.App.EntryPolicy == config.EntryPolicyAutoCreate,
		Location:        cfg.Location(),
		Events:          events,
		Metrics:         s.metrics,
		Logger:          s.logger,
	})
	progressService := services.NewProgressService(s.stores.Entries, settingsService, cfg.Location(), s.metrics)

	var exportService *services.ExportService
	if objects != nil {
		exportService = services.NewExportService(objects, userService, s.stores.Entries, settingsService, progressService)
	}

	var pinger handlers.Pinger
	if conn := s.stores.DB(); conn != nil {
		pinger = conn
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		instrument(s.metrics),
		middleware.Timeout(requestTimeout),
	)
	router.Handle("/metrics", s.metrics.Handler())
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Healthz(pinger))
		r.Route("/progress", func(r chi.Router) {
			handlers.ProgressRouter(r, progressService, s.logger)
		})
		handlers.EntryRouter(r, entryService, userService, s.logger)
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, handlers.AdminDeps{
				Settings:  settingsService,
				Users:     userService,
				Entries:   entryService,
				Exports:   exportService,
				JWTSecret: cfg.JWTSecret,
				TokenTTL:  cfg.TokenTTL,
				Logger:    s.logger,
			})
		})
	})
	s.router = router

	s.logger.InfoContext(ctx, "server configured",
		"store", cfg.Store.Driver,
		"storage", backendName(cfg.Storage.Backend),
		"mq", backendName(cfg.MQ.Backend),
		"entry_policy", cfg.App.EntryPolicy,
		"timezone", cfg.Location().String(),
	)
	return nil
}

// Router exposes the chi router, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx is
// done and then releases the store and broker connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	if s.mq != nil {
		errs = append(errs, s.mq.Close())
	}
	if s.stores != nil {
		errs = append(errs, s.stores.Close())
	}
	return errors.Join(errs...)
}

func backendName(name string) string {
	if name == "" {
		return config.BackendNone
	}
	return name
}
