// Package store defines the backend contract shared by the local and remote
// persistence adapters. The facade is written against these interfaces and the
// concrete backend is chosen exactly once at startup.
package store

import (
	"context"

	"github.com/mpetrenko/taskflow/internal/models"
)

// ProjectRepository persists project records.
//
// GetByID and Update return (nil, nil) when no matching record exists, so call
// sites stay uniform across backends: absence is a result, not an error.
type ProjectRepository interface {
	// List returns the owner's projects. Ordering is backend-defined:
	// insertion order locally, creation time remotely.
	List(ctx context.Context, ownerID string) ([]*models.Project, error)

	GetByID(ctx context.Context, ownerID, id string) (*models.Project, error)

	// Create assigns the id and both timestamps and stores the record.
	Create(ctx context.Context, p *models.Project) (*models.Project, error)

	// Update stores the already-merged record and refreshes UpdatedAt.
	Update(ctx context.Context, p *models.Project) (*models.Project, error)

	// SetProgress persists a derived progress value, refreshing UpdatedAt.
	// It is reserved for the progress aggregation path.
	SetProgress(ctx context.Context, ownerID, id string, progress int) error

	// DeleteCascade removes the project and every task referencing it as one
	// logical unit. No intermediate state is observable: either the project
	// and its tasks are all gone or none are. Returns false when the id does
	// not exist; the store is left unchanged in that case.
	DeleteCascade(ctx context.Context, ownerID, id string) (bool, error)
}

// TaskRepository persists task records. Absence semantics match
// ProjectRepository.
type TaskRepository interface {
	// ListByProject returns the owner's tasks under one project. Ordering is
	// backend-defined: insertion order locally, newest first remotely.
	ListByProject(ctx context.Context, ownerID, projectID string) ([]*models.Task, error)

	GetByID(ctx context.Context, ownerID, id string) (*models.Task, error)

	Create(ctx context.Context, t *models.Task) (*models.Task, error)

	Update(ctx context.Context, t *models.Task) (*models.Task, error)

	// Delete removes a single task. Deleting an unknown id returns false.
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}

// Backend bundles the repositories of one storage backend.
type Backend interface {
	Projects() ProjectRepository
	Tasks() TaskRepository

	// RequiresOwner reports whether write operations need a bound identity.
	// The remote backend scopes everything by owner and rejects anonymous
	// writes; the local backend serves a single implicit user.
	RequiresOwner() bool

	Close() error
}
