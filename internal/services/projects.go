package services

import (
	"context"
	"fmt"

	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/models"
	"github.com/mpetrenko/taskflow/internal/session"
	"github.com/mpetrenko/taskflow/internal/store"
)

// ProjectUpdate carries the fields of a sparse project update. Nil fields are
// left untouched.
type ProjectUpdate struct {
	Title       *string
	Description *string
}

// ProjectService exposes project operations against the active backend.
type ProjectService struct {
	backend  store.Backend
	resolver session.Resolver
	hooks    Hooks
	log      logging.Logger
}

// NewProjectService wires the facade to a backend and a trigger
// implementation.
func NewProjectService(backend store.Backend, resolver session.Resolver, hooks Hooks, log logging.Logger) *ProjectService {
	return &ProjectService{backend: backend, resolver: resolver, hooks: hooks, log: log}
}

// List returns the caller's projects. Without an identity it returns an empty
// list rather than an error.
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	owner, ok, err := resolveForRead(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.Project{}, nil
	}
	return s.backend.Projects().List(ctx, owner)
}

// Get returns one project, or nil when it is absent or the caller has no
// identity.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	owner, ok, err := resolveForRead(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.backend.Projects().GetByID(ctx, owner, id)
}

// Create validates and persists a new project with zero progress.
func (s *ProjectService) Create(ctx context.Context, title, description string) (*models.Project, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("%w: project title is required", common.ErrValidation)
	}

	return s.backend.Projects().Create(ctx, &models.Project{
		OwnerID:     owner,
		Title:       title,
		Description: description,
	})
}

// Update applies a sparse update. A missing project yields (nil, nil).
func (s *ProjectService) Update(ctx context.Context, id string, upd ProjectUpdate) (*models.Project, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("%w: project title cannot be cleared", common.ErrValidation)
	}

	current, err := s.backend.Projects().GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	merged := *current
	if upd.Title != nil {
		merged.Title = *upd.Title
	}
	if upd.Description != nil {
		merged.Description = *upd.Description
	}
	return s.backend.Projects().Update(ctx, &merged)
}

// Delete removes the project and all of its tasks, then purges the payloads
// of every attachment those tasks carried. Deleting an absent project returns
// (false, nil).
func (s *ProjectService) Delete(ctx context.Context, id string) (bool, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return false, err
	}

	// Snapshot the tasks before the cascade so their attachments can be
	// purged afterwards.
	tasks, err := s.backend.Tasks().ListByProject(ctx, owner, id)
	if err != nil {
		return false, err
	}

	deleted, err := s.backend.Projects().DeleteCascade(ctx, owner, id)
	if err != nil || !deleted {
		return deleted, err
	}

	for _, t := range tasks {
		if err := s.hooks.TaskDeleted(ctx, t); err != nil {
			s.log.Warn(ctx, "post-delete cleanup failed", "task", t.ID, "error", err)
		}
	}
	return true, nil
}
