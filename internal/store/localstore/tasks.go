package localstore

import (
	"context"
	"fmt"

	"github.com/mpetrenko/taskflow/internal/dbx"
	"github.com/mpetrenko/taskflow/internal/ids"
	"github.com/mpetrenko/taskflow/internal/models"
)

// TaskRepository persists the task collection as one named entry, rewritten
// wholesale on every mutation.
type TaskRepository struct {
	s *Store
}

func (s *Store) loadTasks(ctx context.Context, q dbx.DBTX) ([]*models.Task, error) {
	data, err := NewKV(q).Get(ctx, KeyTasks)
	if err != nil {
		return nil, err
	}
	if data == nil {
		defaults := defaultTasks()
		if err := s.saveTasks(ctx, q, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	return s.decodeTasks(ctx, data)
}

func (s *Store) saveTasks(ctx context.Context, q dbx.DBTX, tasks []*models.Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	return NewKV(q).Set(ctx, KeyTasks, data)
}

// ListByProject returns the project's tasks in insertion order.
func (r *TaskRepository) ListByProject(ctx context.Context, ownerID, projectID string) ([]*models.Task, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tasks, err := r.s.loadTasks(ctx, r.s.db)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID == projectID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tasks, err := r.s.loadTasks(ctx, r.s.db)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var created *models.Task
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tasks, err := r.s.loadTasks(ctx, tx)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(tasks))
		for _, item := range tasks {
			existing = append(existing, item.ID)
		}

		now := r.s.now().UTC()
		stored := *t
		stored.ID = ids.Next(existing, ids.FirstTaskID)
		if stored.OwnerID == "" {
			stored.OwnerID = LocalOwnerID
		}
		if stored.Attachments == nil {
			stored.Attachments = []models.Attachment{}
		}
		stored.CreatedAt = now
		stored.UpdatedAt = now

		created = &stored
		return r.s.saveTasks(ctx, tx, append(tasks, created))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var updated *models.Task
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tasks, err := r.s.loadTasks(ctx, tx)
		if err != nil {
			return err
		}
		for i, item := range tasks {
			if item.ID == t.ID {
				stored := *t
				stored.UpdatedAt = r.s.now().UTC()
				tasks[i] = &stored
				updated = &stored
				return r.s.saveTasks(ctx, tx, tasks)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := false
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tasks, err := r.s.loadTasks(ctx, tx)
		if err != nil {
			return err
		}
		remaining := make([]*models.Task, 0, len(tasks))
		for _, item := range tasks {
			if item.ID == id {
				deleted = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !deleted {
			return nil
		}
		return r.s.saveTasks(ctx, tx, remaining)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
