// Package app initializes and runs the notes service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dsavelev/notesapi/internal/auth"
	"github.com/dsavelev/notesapi/internal/config"
	"github.com/dsavelev/notesapi/internal/db/jsondb"
	"github.com/dsavelev/notesapi/internal/db/memorystorage"
	"github.com/dsavelev/notesapi/internal/db/postgresdb"
	"github.com/dsavelev/notesapi/internal/db/storage"
	"github.com/dsavelev/notesapi/internal/ipchecker"
	"github.com/dsavelev/notesapi/internal/logger"
	"github.com/dsavelev/notesapi/internal/models"
	"github.com/dsavelev/notesapi/internal/router"
	"github.com/dsavelev/notesapi/internal/service"
)

const migrationsDir = `cmd/notesapi/migrations`

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, the storage backend and the HTTP
// handler of the notes service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New initializes a new App instance by:
// - loading configuration
// - initializing the logger
// - selecting and setting up storage
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	if err = logger.Init(app.cfg.LogLevel); err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	sessionAuth := auth.New([]byte(app.cfg.JWTSigningSecret), app.cfg.TokenTTL)

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.New(app.db, sessionAuth),
		sessionAuth,
		ipChecker,
		app.cfg.ClientOrigin,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("in internal/app/app.go/Run(): error while `server.Shutdown()` calling: %w", err)
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("in internal/app/app.go/Run(): error while `server.ListenAndServe()` calling: %w", err)
		}
	}

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("in internal/app/app.go/Run(): error while `a.db.Close()` calling: %w", err)
	}

	return logger.Sync()
}

func getStorageType(cfg *config.Config) int {
	switch {
	case cfg.ResolveDatabaseDSN() != "":
		return models.StorageTypePostgresql
	case cfg.DBFileName != "":
		return models.StorageTypeFile
	default:
		return models.StorageTypeMemory
	}
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getStorageType(cfg) {
	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.ResolveDatabaseDSN(),
			cfg.DBConnectionTimeout,
			migrationsDir,
		)
	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	default:
		return memorystorage.New()
	}
}
