// Package triggers reacts to task lifecycle events: it keeps each project's
// progress roll-up current and purges attachment payloads when a task goes
// away. The reactions are deliberately idempotent, so replaying one after a
// crash converges to the same state.
package triggers

import (
	"context"
	"fmt"

	"github.com/mpetrenko/taskflow/internal/blob"
	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/models"
	"github.com/mpetrenko/taskflow/internal/progress"
	"github.com/mpetrenko/taskflow/internal/store"
)

// Engine wires the reactions to one backend and its blob store.
type Engine struct {
	projects store.ProjectRepository
	tasks    store.TaskRepository
	blobs    blob.Store
	log      logging.Logger
}

// New returns an Engine over the given repositories and blob store.
func New(projects store.ProjectRepository, tasks store.TaskRepository, blobs blob.Store, log logging.Logger) *Engine {
	return &Engine{projects: projects, tasks: tasks, blobs: blobs, log: log}
}

// TaskCreating guards a task about to be created: the parent project must
// exist and belong to the same owner, and the task itself must be well formed.
func (e *Engine) TaskCreating(ctx context.Context, t *models.Task) error {
	if t.Title == "" {
		return fmt.Errorf("%w: task title is required", common.ErrValidation)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrValidation, t.Status)
	}
	if t.ProjectID == "" {
		return fmt.Errorf("%w: task must reference a project", common.ErrValidation)
	}

	parent, err := e.projects.GetByID(ctx, t.OwnerID, t.ProjectID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%w: project %s does not exist", common.ErrValidation, t.ProjectID)
	}
	return nil
}

// TaskWritten recomputes the owning project's progress from its current task
// set. Running it twice in a row is harmless.
func (e *Engine) TaskWritten(ctx context.Context, ownerID, projectID string) error {
	return progress.Recompute(ctx, e.projects, e.tasks, ownerID, projectID)
}

// TaskDeleted purges the payloads of the deleted task's attachments. A failed
// deletion is logged and skipped, so one bad object never blocks the rest;
// re-running the purge finishes the job.
func (e *Engine) TaskDeleted(ctx context.Context, t *models.Task) error {
	objects, err := e.blobs.List(ctx, t.OwnerID, t.ID)
	if err != nil {
		return fmt.Errorf("failed to list attachments of task %s: %w", t.ID, err)
	}

	for _, obj := range objects {
		if err := e.blobs.Delete(ctx, obj.Key); err != nil {
			e.log.Warn(ctx, "failed to purge attachment payload",
				"task", t.ID, "key", obj.Key, "error", err)
		}
	}
	return nil
}
