// Package services is the facade the rest of the application talks to. It
// resolves the caller's identity, validates input before any store access,
// and orchestrates the cascade and roll-up side effects of each mutation.
//
// Reads without an authenticated identity degrade to empty results; writes
// without one fail with ErrNotAuthenticated. Both backends get the same
// treatment.
package services

import (
	"context"
	"errors"

	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/models"
	"github.com/mpetrenko/taskflow/internal/session"
)

// Hooks reacts to task lifecycle events. The trigger engine is the production
// implementation.
type Hooks interface {
	// TaskCreating runs before a task is persisted and may veto the create.
	TaskCreating(ctx context.Context, t *models.Task) error
	// TaskWritten runs after any task mutation under the given project.
	TaskWritten(ctx context.Context, ownerID, projectID string) error
	// TaskDeleted runs after a task is removed, with its last known state.
	TaskDeleted(ctx context.Context, t *models.Task) error
}

func isAuthError(err error) bool {
	return errors.Is(err, common.ErrNotAuthenticated) ||
		errors.Is(err, common.ErrSessionExpired) ||
		errors.Is(err, common.ErrInvalidToken)
}

// resolveForRead returns the owner id, or ok=false when the caller has no
// usable identity and the read should degrade.
func resolveForRead(ctx context.Context, r session.Resolver) (string, bool, error) {
	owner, err := r.Resolve(ctx)
	if isAuthError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return owner, true, nil
}

// resolveForWrite returns the owner id or the auth error verbatim, so writes
// surface ErrNotAuthenticated before touching the store.
func resolveForWrite(ctx context.Context, r session.Resolver) (string, error) {
	return r.Resolve(ctx)
}
