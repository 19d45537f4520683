// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, services,
// handlers and middleware, and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and a logger, then:
//
//	Server.New() creates: sqlite.DB → services → handlers → chi routes
//	                      notify.Notifier (worker pool) → DiagnosticsService
//
// This is the "composition root" pattern: every dependency is built here and
// nowhere else. There are no package-level globals.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/wapidou/app/internal/auth"
	"github.com/wapidou/app/internal/config"
	"github.com/wapidou/app/internal/handler"
	"github.com/wapidou/app/internal/middleware"
	"github.com/wapidou/app/internal/notify"
	sqliteRepo "github.com/wapidou/app/internal/repository/sqlite"
	"github.com/wapidou/app/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Option adjusts how New builds dependencies. Tests use these to replace
// Google and SendGrid with local fakes.
type Option func(*options)

type options struct {
	providerOpts []auth.ProviderOption
	sender       notify.Sender
	senderSet    bool
}

// WithProviderOptions passes opts to auth.NewGoogleProvider.
func WithProviderOptions(opts ...auth.ProviderOption) Option {
	return func(o *options) { o.providerOpts = append(o.providerOpts, opts...) }
}

// WithSender replaces the SendGrid sender. nil disables email.
func WithSender(s notify.Sender) Option {
	return func(o *options) {
		o.sender = s
		o.senderSet = true
	}
}

// Server represents the HTTP server and everything it owns.
//
// RESOURCE MANAGEMENT:
// The Server owns the database handle and the email worker pool. On
// shutdown the pool is drained first (queued emails still go out), then the
// database is closed to flush the WAL and release the file lock.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	notifier *notify.Notifier
}

// New opens the database, runs migrations and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// === EMAIL ===
	sender := o.sender
	if !o.senderSet && cfg.Email.IsConfigured() {
		sender = notify.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.From)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		notifier: notify.NewNotifier(sender, cfg.Email.Workers, logger),
	}

	if !s.notifier.Configured() {
		logger.Warn("SENDGRID_API_KEY not set, access notifications will be skipped")
	}

	if err := s.setupRoutes(o); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                      → front end page (HTML)
// GET    /assets/*              → scripts, styles, images
// GET    /auth/google           → redirect to Google consent
// GET    /auth/google/callback  → complete login, set session
// GET    /auth/logout           → clear session
// GET    /auth/me               → current user (404 if the row is gone)
// PATCH  /auth/me               → edit name/email/picture
// GET    /api/db/testing        → SQLite diagnostics (auth required)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added:
// 1. RequestID, RealIP
// 2. Logger (needs the request id)
// 3. Recoverer (catches panics and returns 500 instead of crashing)
// 4. Secure headers, language detection
// 5. CORS (only with configured origins), then cross-origin protection
//    for unsafe methods
func (s *Server) setupRoutes(o options) error {
	cfg := s.config

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecureHeaders(cfg.Production()))
	s.router.Use(middleware.Language)

	if len(cfg.CORSAllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           600,
		}).Handler)
	}

	csrf := http.NewCrossOriginProtection()
	for _, origin := range cfg.CORSAllowedOrigins {
		if err := csrf.AddTrustedOrigin(origin); err != nil {
			return fmt.Errorf("trusting origin %q: %w", origin, err)
		}
	}
	s.router.Use(csrf.Handler)

	// === Auth building blocks ===
	sealer, err := auth.NewSealer(cfg.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("creating token sealer: %w", err)
	}
	if !sealer.Enabled() {
		s.logger.Warn("TOKEN_ENCRYPTION_KEY not set, OAuth tokens are stored unencrypted")
	}
	state, err := auth.NewStateSigner(cfg.OAuthStateSecret)
	if err != nil {
		return fmt.Errorf("creating state signer: %w", err)
	}
	if !cfg.Google.IsConfigured() {
		s.logger.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, auth routes will return 500")
	}
	google := auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.GoogleCallbackURL(), o.providerOpts...)
	authn := auth.NewAuthenticator(s.db)

	// DEPENDENCY CHAIN:
	//   s.db (sqlite.DB) → implements the repository interfaces
	//   services receive the interfaces
	//   handlers receive the services
	authService := service.NewAuthService(s.db, sealer, s.logger)
	profileService := service.NewProfileService(s.db, s.logger)
	diagService := service.NewDiagnosticsService(s.db, s.notifier, s.logger)

	authHandler := handler.NewAuthHandler(google, state, authService, cfg.Production(), s.logger)
	userHandler := handler.NewUserHandler(profileService, s.logger)
	diagHandler := handler.NewDiagnosticsHandler(diagService, s.logger)
	staticHandler, err := handler.NewStaticHandler(cfg.StaticDir, s.logger)
	if err != nil {
		return err
	}

	requireJSON := auth.Require(authn, handler.DenyJSON(s.logger))
	requireMe := auth.Require(authn, handler.DenyMe(s.logger))

	// === Front end ===
	s.router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))
		r.Get("/", staticHandler.HandleIndex)
		r.Get("/assets/*", staticHandler.HandleAssets)
	})

	// === Auth Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Get("/logout", authHandler.HandleLogout)
		r.With(requireMe).Get("/me", userHandler.HandleMe)
		r.With(requireJSON).Patch("/me", userHandler.HandleUpdateMe)
	})

	// === API Routes ===
	// Everything under /api requires a session, including unknown paths.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireJSON)
		r.Get("/db/testing", diagHandler.HandleDBTesting)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Drain the email pool, then close the database
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("url", s.config.BaseURL),
			slog.String("env", s.config.AppEnv),
			slog.String("database", s.config.DatabasePath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close drains the worker pool and closes the database. Start calls it on
// exit; callers that never Start (tests) call it directly. It is safe to
// call more than once.
func (s *Server) Close() {
	s.notifier.Close()
	if err := s.db.Close(); err != nil {
		s.logger.Error("closing database", slog.String("error", err.Error()))
	}
}
