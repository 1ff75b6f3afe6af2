// Package progress derives a project's completion percentage from its tasks.
//
// The computation is a pure function so that both aggregation paths — the
// synchronous client-driven one used by the local backend and the trigger-driven
// one used by the remote backend — share a single, independently testable unit.
// Recomputing is idempotent: applying it twice yields the same stored value.
package progress

import (
	"context"
	"fmt"
	"math"

	"github.com/mpetrenko/taskflow/internal/models"
	"github.com/mpetrenko/taskflow/internal/store"
)

// Completion returns round(100 * doneTasks / totalTasks), or 0 when the task
// set is empty.
func Completion(tasks []*models.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == models.StatusDone {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(tasks)) * 100))
}

// Recompute loads the project's current tasks, derives the completion
// percentage and persists it onto the project record, refreshing its
// updatedAt. It is the single write path for the Progress field.
func Recompute(ctx context.Context, projects store.ProjectRepository, tasks store.TaskRepository, ownerID, projectID string) error {
	list, err := tasks.ListByProject(ctx, ownerID, projectID)
	if err != nil {
		return fmt.Errorf("listing tasks for progress: %w", err)
	}
	if err := projects.SetProgress(ctx, ownerID, projectID, Completion(list)); err != nil {
		return fmt.Errorf("persisting progress: %w", err)
	}
	return nil
}
