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

	httpapi "github.com/aussiebroadwan/forum/internal/forum/http"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/postgres"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/sqlite"
	"github.com/aussiebroadwan/forum/pkg/captcha"
	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
	"github.com/aussiebroadwan/forum/pkg/otelx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the forum service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db              store.Store
	signer          jwtx.Signer
	keys            *jwtx.KeySet
	shutdownTracing func(context.Context) error

	accountService *service.AccountService
	postService    *service.PostService

	server *http.Server
	router *httpapi.Router
}

// setupTracing is swapped in tests to observe the tracer lifecycle.
var setupTracing = otelx.Setup

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "forum",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	shutdownTracing, err := setupTracing(context.Background(), cfg.OTLPEndpoint, "forum", BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.shutdownTracing = shutdownTracing

	ok := false
	defer func() {
		if ok {
			return
		}
		if app.db != nil {
			_ = app.db.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.shutdownTracing(ctx); err != nil {
			app.logger.Warn("error flushing traces", "error", err)
		}
	}()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.signer, app.keys, err = InitSigningKey(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

	ok = true
	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("forum service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down forum service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Let in-flight hash upgrades land before the database goes away.
	app.accountService.Wait()

	if err := app.shutdownTracing(ctx); err != nil {
		app.logger.Warn("error flushing traces", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("forum service stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	params := cryptox.DefaultParams()
	params.Memory = app.cfg.Argon2MemoryKiB
	params.Iterations = app.cfg.Argon2Iterations
	params.Parallelism = app.cfg.Argon2Parallelism

	hasher, err := cryptox.NewHasher(params, pepper)
	if err != nil {
		return fmt.Errorf("invalid argon2 parameters: %w", err)
	}

	bot := captcha.NewClient(app.cfg.RecaptchaSecretKey)
	bot.VerifyURL = app.cfg.RecaptchaVerifyURL
	bot.Timeout = app.cfg.RecaptchaTimeout

	tokens := &service.TokenService{
		Signer:     app.signer,
		Verifier:   jwtx.NewVerifier(app.keys, app.cfg.Issuer, 5*time.Second),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.accountService = &service.AccountService{
		Store:   app.db,
		Hasher:  hasher,
		BotGate: bot,
		Tokens:  tokens,
	}
	app.postService = &service.PostService{Store: app.db}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.keys, BuildVersion, app.db, app.logger)
	router.AccountService = app.accountService
	router.PostService = app.postService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
