package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrenko/taskflow/internal/dbx"
)

// Named entries of the local durable store. Each holds one serialized
// collection or session value.
const (
	KeyProjects    = "taskflow_projects"
	KeyTasks       = "taskflow_tasks"
	KeySession     = "taskflow_session"
	KeyAttachments = "taskflow_attachments"
	KeyUsers       = "taskflow_users"
)

// KV is the flat key/value map backing the local store, bound to a DBTX so it
// can participate in transactions.
type KV struct {
	db dbx.DBTX
}

// NewKV returns a KV bound to the given DBTX.
func NewKV(db dbx.DBTX) *KV {
	return &KV{db: db}
}

// Get returns the value stored under key, or nil when the entry is absent.
func (r *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value wholesale.
func (r *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

// Delete removes the entry under key. Deleting an absent key is not an error.
func (r *KV) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}
