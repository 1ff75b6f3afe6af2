// Package session resolves the owner identity that data operations run under.
//
// Local mode keeps a signed token in the durable store across restarts, so a
// login survives until it expires or the user logs out. Remote mode is handed
// a token out of band and only verifies it. Either way callers go through the
// Resolver interface and can override the identity per call via the context.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mpetrenko/taskflow/internal/auth"
	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/store/localstore"
)

type ctxKey struct{}

// WithUserID binds a user id to the context, overriding any stored session.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the user id bound to the context, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Resolver yields the user id the current operation should run as.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

type sessionRecord struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Manager is the local-mode resolver. It mints tokens on login and persists
// the active one in the key/value store.
type Manager struct {
	db       *sql.DB
	secret   []byte
	validity time.Duration
	log      logging.Logger
}

// NewManager returns a Manager signing tokens with secret, each valid for the
// given duration.
func NewManager(db *sql.DB, secret []byte, validity time.Duration, log logging.Logger) *Manager {
	return &Manager{db: db, secret: secret, validity: validity, log: log}
}

// Start mints a token for userID and stores it as the active session.
func (m *Manager) Start(ctx context.Context, userID, email string) (string, error) {
	token, err := auth.GenerateToken(userID, m.secret, m.validity)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(sessionRecord{Token: token, Email: email})
	if err != nil {
		return "", err
	}
	if err := localstore.NewKV(m.db).Set(ctx, localstore.KeySession, data); err != nil {
		return "", err
	}
	return token, nil
}

// Current returns the user id of the stored session. No stored session maps
// to ErrNotAuthenticated; an expired one is cleared and reported as
// ErrSessionExpired.
func (m *Manager) Current(ctx context.Context) (string, error) {
	record, err := m.load(ctx)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", common.ErrNotAuthenticated
	}

	userID, err := auth.GetUserIDFromToken(record.Token, m.secret)
	if err != nil {
		m.log.Warn(ctx, "clearing stale session", "error", err)
		_ = m.End(ctx)
		return "", err
	}
	return userID, nil
}

// Email returns the email the stored session was started with, or "".
func (m *Manager) Email(ctx context.Context) string {
	record, err := m.load(ctx)
	if err != nil || record == nil {
		return ""
	}
	return record.Email
}

// End removes the stored session. Ending an absent session is not an error.
func (m *Manager) End(ctx context.Context) error {
	return localstore.NewKV(m.db).Delete(ctx, localstore.KeySession)
}

// Resolve implements Resolver. A context-bound id wins over the stored
// session.
func (m *Manager) Resolve(ctx context.Context) (string, error) {
	if id, ok := UserIDFromContext(ctx); ok {
		return id, nil
	}
	return m.Current(ctx)
}

func (m *Manager) load(ctx context.Context) (*sessionRecord, error) {
	data, err := localstore.NewKV(m.db).Get(ctx, localstore.KeySession)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode stored session: %w", err)
	}
	return &record, nil
}

// TokenResolver is the remote-mode resolver: the token arrives via
// configuration and is verified on every use.
type TokenResolver struct {
	Token  string
	Secret []byte
}

// Resolve implements Resolver. A context-bound id wins over the configured
// token; an empty token maps to ErrNotAuthenticated.
func (r *TokenResolver) Resolve(ctx context.Context) (string, error) {
	if id, ok := UserIDFromContext(ctx); ok {
		return id, nil
	}
	if r.Token == "" {
		return "", common.ErrNotAuthenticated
	}
	return auth.GetUserIDFromToken(r.Token, r.Secret)
}
