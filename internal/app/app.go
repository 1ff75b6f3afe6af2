// Package app assembles the data layer for the configured mode and hands it
// to the interactive shell. Local mode runs everything against an embedded
// sqlite file; remote mode talks to PostgreSQL and S3-compatible object
// storage.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mpetrenko/taskflow/internal/blob"
	"github.com/mpetrenko/taskflow/internal/blob/localblob"
	"github.com/mpetrenko/taskflow/internal/blob/s3blob"
	"github.com/mpetrenko/taskflow/internal/cli"
	"github.com/mpetrenko/taskflow/internal/config"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/services"
	"github.com/mpetrenko/taskflow/internal/session"
	"github.com/mpetrenko/taskflow/internal/store"
	"github.com/mpetrenko/taskflow/internal/store/localstore"
	"github.com/mpetrenko/taskflow/internal/store/pgstore"
	"github.com/mpetrenko/taskflow/internal/triggers"
	"github.com/mpetrenko/taskflow/internal/users"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend store.Backend
	shell   *cli.App
}

// NewApp builds the full dependency graph for the configured mode.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	policy := blob.CollisionPolicy(c.CollisionPolicy)
	if !policy.Valid() {
		return nil, fmt.Errorf("unknown collision policy %q", c.CollisionPolicy)
	}

	var (
		backend  store.Backend
		blobs    blob.Store
		resolver session.Resolver
		deps     cli.Deps
	)

	switch c.Mode {
	case config.ModeLocal:
		db, err := localstore.Open(ctx, c.LocalDatabasePath)
		if err != nil {
			return nil, fmt.Errorf("local store init error: %w", err)
		}

		st := localstore.New(db, logger, localstore.WithLatency(c.LocalLatency))
		backend = st
		blobs = localblob.New(db, logger, policy)

		registry := users.NewRegistry(db, logger)
		manager := session.NewManager(db, []byte(c.SecretKey), c.SessionValidityDuration, logger)
		resolver = manager
		deps.Registry = registry
		deps.Sessions = manager

	case config.ModeRemote:
		db, err := pgstore.Open(ctx, c.DatabaseDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("remote store init error: %w", err)
		}

		backend = pgstore.New(db, logger)
		blobs = s3blob.New(s3blob.Config{
			Region:       c.S3Region,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKeyID:  c.S3AccessKeyID,
			SecretKey:    c.S3SecretKey,
		}, logger)
		resolver = &session.TokenResolver{Token: c.AccessToken, Secret: []byte(c.SecretKey)}

	default:
		return nil, fmt.Errorf("unknown mode %q", c.Mode)
	}

	// A backend that insists on an owner is unusable without a token: reads
	// come back empty and writes fail.
	if backend.RequiresOwner() && c.AccessToken == "" {
		logger.Warn(ctx, "no access token configured for remote mode")
	}

	// Seed the single-user dataset only where the backend serves one.
	if !backend.RequiresOwner() && deps.Registry != nil {
		if err := deps.Registry.Seed(ctx); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("account seed error: %w", err)
		}
	}

	engine := triggers.New(backend.Projects(), backend.Tasks(), blobs, logger)
	deps.Projects = services.NewProjectService(backend, resolver, engine, logger)
	deps.Tasks = services.NewTaskService(backend, resolver, engine, blobs, logger)
	deps.Log = logger

	return &App{
		config:  c,
		logger:  logger,
		backend: backend,
		shell:   cli.NewApp(c, deps),
	}, nil
}

// Run starts the shell and blocks until it exits or a termination signal
// arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	app.logger.Info(ctx, "starting taskflow", "mode", app.config.Mode)
	app.shell.Run(ctx)

	if err := app.backend.Close(); err != nil {
		app.logger.Error(ctx, "error closing backend", "error", err)
	}
}
