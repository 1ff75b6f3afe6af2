// Package pgstore implements the remote persistence adapter over PostgreSQL.
//
// Every query is scoped by the owning user's id, ids are assigned server-side
// at write time, and timestamps come from the database clock to avoid client
// clock skew. Cascading deletes run inside a single transaction, so either the
// whole cascade commits or none of it does.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/store"
	"github.com/mpetrenko/taskflow/internal/store/pgstore/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store is the remote backend. It owns the connection pool and vends the
// owner-scoped repositories.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

// Open connects to the database at dsn, waiting with exponential backoff until
// it is reachable, and applies migrations. A database that never becomes
// reachable is reported as a backend-unavailable error.
func Open(ctx context.Context, dsn string, log logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn(ctx, "database not reachable yet", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s", common.ErrBackendUnavailable, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// New returns a Store over an already-open database.
func New(db *sql.DB, log logging.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) Projects() store.ProjectRepository { return &ProjectRepository{s: s} }

func (s *Store) Tasks() store.TaskRepository { return &TaskRepository{s: s} }

// RequiresOwner is true: the remote backend rejects writes without a bound
// identity and scopes every query by it.
func (s *Store) RequiresOwner() bool { return true }

func (s *Store) Close() error { return s.db.Close() }
