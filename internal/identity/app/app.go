package app

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
	httpapi "github.com/vitrine/identity/internal/identity/http"
	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/internal/identity/store"
	"github.com/vitrine/identity/internal/identity/store/drivers/sqlite"
	"github.com/vitrine/identity/pkg/cryptox"
	"github.com/vitrine/identity/pkg/jwtx"
	"github.com/vitrine/identity/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	otpService          *service.OTPService
	authService         *service.AuthService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "vitrine-identity",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signingKey, err := loadOrGenerateSigningKey(app.cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session signing key: %w", err)
	}

	app.initServices(signingKey)
	app.initHTTP(signingKey)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
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

// initServices initializes all business logic services.
func (app *Application) initServices(signingKey ed25519.PrivateKey) {
	app.otpService = &service.OTPService{
		Store:          app.db,
		Sender:         &logSender{logger: app.logger, env: app.cfg.Env},
		CodeDigits:     app.cfg.OTPDigits,
		CodeTTL:        app.cfg.OTPTTL,
		ResendCooldown: app.cfg.ResendCooldown,
		MaxAttempts:    app.cfg.OTPMaxAttempts,
		ProofTTL:       app.cfg.ProofTTL,
		MobileDigits:   app.cfg.MobileDigits,
	}

	app.sessionService = &service.SessionService{
		Store:      app.db,
		Signer:     jwtx.NewSigner(signingKey, app.cfg.Issuer),
		SessionTTL: app.cfg.SessionTTL,
	}

	app.authService = &service.AuthService{
		Store:        app.db,
		OTP:          app.otpService,
		Sessions:     app.sessionService,
		MobileDigits: app.cfg.MobileDigits,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP(signingKey ed25519.PrivateKey) {
	router := httpapi.NewRouter(
		jwtx.NewVerifier(signingKey.Public().(ed25519.PublicKey), app.cfg.Issuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.OTPService = app.otpService
	router.AuthService = app.authService
	router.SessionService = app.sessionService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// logSender is the development code dispatcher: it writes codes to the log
// instead of an email/SMS gateway. Production deployments swap in a real
// delivery integration behind service.CodeSender.
type logSender struct {
	logger *slog.Logger
	env    string
}

func (s *logSender) SendCode(_ context.Context, channel domain.Channel, target, code string, expiresAt time.Time) error {
	if s.env == "prod" {
		// Never log live codes in production.
		s.logger.Info("one-time code dispatched", "channel", channel, "target", target, "expires_at", expiresAt)
		return nil
	}
	s.logger.Info("one-time code dispatched",
		"channel", channel,
		"target", target,
		"code", code,
		"expires_at", expiresAt,
	)
	return nil
}
