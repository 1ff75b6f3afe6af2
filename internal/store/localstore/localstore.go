// Package localstore implements the local persistence adapter: a sqlite-backed
// flat key/value map holding the serialized Project and Task collections as
// named entries.
//
// Every mutation rewrites the affected collection wholesale inside one
// transaction, so no partial-write state is ever observable to a subsequent
// read. Operations carry an optional simulated latency to present the same
// latency-bearing contract as the remote backend.
package localstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/store"
	"github.com/mpetrenko/taskflow/internal/store/localstore/migrations"

	_ "modernc.org/sqlite"
)

// Store is the local backend. It owns the sqlite handle and vends the project
// and task repositories, which share one mutex so read-modify-rewrite cycles
// serialize.
type Store struct {
	db      *sql.DB
	log     logging.Logger
	latency time.Duration
	now     func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLatency makes every operation wait the given duration before touching
// the store, simulating the round-trip callers expect from a real backend.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the sqlite database at dsn and applies migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
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
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// New returns a Store over an already-open database.
func New(db *sql.DB, log logging.Logger, opts ...Option) *Store {
	s := &Store{db: db, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Projects() store.ProjectRepository { return &ProjectRepository{s: s} }

func (s *Store) Tasks() store.TaskRepository { return &TaskRepository{s: s} }

// RequiresOwner is false: the local backend serves a single implicit user and
// never rejects a write for lack of identity.
func (s *Store) RequiresOwner() bool { return false }

func (s *Store) Close() error { return s.db.Close() }

// KV returns a key/value view over the store's backing table, bound to the
// shared handle. Session, user and attachment entries live beside the
// collections.
func (s *Store) KV() *KV { return NewKV(s.db) }

// DB exposes the underlying handle for collaborators that join the store's
// transactions.
func (s *Store) DB() *sql.DB { return s.db }

// simulateLatency blocks for the configured artificial delay, honouring
// cancellation.
func (s *Store) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
