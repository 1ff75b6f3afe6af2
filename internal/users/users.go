// Package users keeps the local account registry. It backs the mock login
// flow of local mode: accounts live as one serialized entry in the durable
// store and a default account is seeded on first use.
package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/dbx"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/store/localstore"
)

// Default account available after a fresh install.
const (
	DefaultEmail    = "user@taskflow.com"
	DefaultPassword = "123456"
)

// User is one registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Registry stores accounts in the local key/value table.
type Registry struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time

	mu sync.Mutex
}

// NewRegistry returns a Registry over an already-open local database.
func NewRegistry(db *sql.DB, log logging.Logger) *Registry {
	return &Registry{db: db, log: log, now: time.Now}
}

func loadUsers(ctx context.Context, kv *localstore.KV) ([]User, error) {
	data, err := kv.Get(ctx, localstore.KeyUsers)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var list []User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode stored users: %w", err)
	}
	return list, nil
}

func saveUsers(ctx context.Context, kv *localstore.KV, list []User) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return kv.Set(ctx, localstore.KeyUsers, data)
}

// Seed makes sure the registry exists and contains the default account. The
// default account owns the pre-seeded sample data, so its id is fixed.
func (r *Registry) Seed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		kv := localstore.NewKV(tx)
		list, err := loadUsers(ctx, kv)
		if err != nil {
			return err
		}
		for _, u := range list {
			if u.Email == DefaultEmail {
				return nil
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		list = append(list, User{
			ID:           localstore.LocalOwnerID,
			Email:        DefaultEmail,
			PasswordHash: hash,
			CreatedAt:    r.now(),
		})
		r.log.Info(ctx, "seeded default account", "email", DefaultEmail)
		return saveUsers(ctx, kv, list)
	})
}

// Register creates a new account. The email must be unique.
func (r *Registry) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email %q", common.ErrValidation, email)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		kv := localstore.NewKV(tx)
		list, err := loadUsers(ctx, kv)
		if err != nil {
			return err
		}
		for _, u := range list {
			if u.Email == email {
				return fmt.Errorf("%w: email already registered", common.ErrValidation)
			}
		}
		return saveUsers(ctx, kv, append(list, user))
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies the credentials and returns the matching account.
// A missing account and a wrong password are indistinguishable to the caller.
func (r *Registry) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := loadUsers(ctx, localstore.NewKV(r.db))
	if err != nil {
		return nil, err
	}
	for _, u := range list {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
			break
		}
		user := u
		return &user, nil
	}
	return nil, common.ErrNotAuthenticated
}
