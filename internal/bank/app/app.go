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
	"time"

	httpapi "github.com/banca-aurora/aurora/internal/bank/http"
	"github.com/banca-aurora/aurora/internal/bank/identity"
	"github.com/banca-aurora/aurora/internal/bank/metrics"
	"github.com/banca-aurora/aurora/internal/bank/service"
	"github.com/banca-aurora/aurora/internal/bank/store"
	"github.com/banca-aurora/aurora/internal/bank/store/drivers/sqlite"
	"github.com/banca-aurora/aurora/pkg/jwtx"
	"github.com/banca-aurora/aurora/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the loan service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	gateway   *identity.Gateway
	remoteKey *jwtx.RemoteKeySet
	metrics   *metrics.Metrics

	customerService *service.CustomerService
	loanService     *service.LoanService

	server *http.Server
	router *httpapi.Router

	stopRefresh chan struct{}
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "bank-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		stopRefresh: make(chan struct{}),
	}

	if cfg.Authority == "" {
		return nil, errors.New("IDP_AUTHORITY is required")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.gateway = identity.NewGateway(identity.Config{
		Authority:    cfg.Authority,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	})

	// The provider may not be up yet; readiness reports the missing keys
	// and the verifier fetches them on first use.
	app.remoteKey = jwtx.NewRemoteKeySet(app.gateway.JWKSURL(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.remoteKey.Load(ctx); err != nil {
		app.logger.Warn("initial signing key fetch failed", "url", app.gateway.JWKSURL(), "error", err)
	}

	app.metrics = metrics.New()

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	go app.refreshKeysLoop()

	app.logger.Info("bank service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bank service...")

	close(app.stopRefresh)

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("bank service stopped")
	return nil
}

// refreshKeysLoop re-fetches the provider's signing keys so rotations
// propagate without waiting for an unknown-kid miss.
func (app *Application) refreshKeysLoop() {
	ticker := time.NewTicker(app.cfg.JWKSRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := app.remoteKey.Load(ctx); err != nil {
				app.logger.Warn("signing key refresh failed", "error", err)
			}
			cancel()
		case <-app.stopRefresh:
			return
		}
	}
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes the business logic services.
func (app *Application) initServices() {
	app.customerService = &service.CustomerService{Store: app.db}
	app.loanService = &service.LoanService{
		Store:    app.db,
		Decision: &service.DecisionService{},
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.remoteKey.KeySet(),
		app.remoteKey.Verifier(app.cfg.Issuer, app.cfg.Audience),
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	router.Gateway = app.gateway
	router.CustomerService = app.customerService
	router.LoanService = app.loanService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
