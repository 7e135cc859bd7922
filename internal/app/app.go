// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookmarkr/internal/auth"
	"github.com/patric-chuzhbe/bookmarkr/internal/config"
	"github.com/patric-chuzhbe/bookmarkr/internal/db/jsondb"
	"github.com/patric-chuzhbe/bookmarkr/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookmarkr/internal/db/postgresdb"
	"github.com/patric-chuzhbe/bookmarkr/internal/db/storage"
	"github.com/patric-chuzhbe/bookmarkr/internal/ipchecker"
	"github.com/patric-chuzhbe/bookmarkr/internal/logger"
	"github.com/patric-chuzhbe/bookmarkr/internal/models"
	"github.com/patric-chuzhbe/bookmarkr/internal/purger"
	"github.com/patric-chuzhbe/bookmarkr/internal/router"
	"github.com/patric-chuzhbe/bookmarkr/internal/service"
)

// App encapsulates the configuration, HTTP handler, storage backend,
// and background services (such as the bookmarks purger) needed to run
// the bookmark service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	purger      *purger.Purger
	stopPurger  context.CancelFunc
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the background bookmarks purger
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	tokenSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthTokenSigningSecretKey)
	if err != nil {
		return nil, err
	}

	app.purger = purger.New(
		app.db,
		app.cfg.ChannelCapacity,
		app.cfg.DelayBetweenQueueFetches,
	)
	purgerRunCtx, stopPurger := context.WithCancel(context.Background())
	app.stopPurger = stopPurger

	app.purger.Run(purgerRunCtx)
	app.purger.ListenErrors(func(err error) {
		logger.Log.Debugln("Error passed from the `app.purger.ListenErrors()`:", zap.Error(err))
	})

	clientIPChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.New(
			app.db,
			auth.NewBcryptHasher(app.cfg.BcryptCost),
			app.purger,
		),
		auth.New(
			app.db,
			app.cfg.AuthCookieName,
			tokenSigningSecretKey,
			app.cfg.AuthTokenTTL,
		),
		clientIPChecker,
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
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		a.stopPurger()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
