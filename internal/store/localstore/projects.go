package localstore

import (
	"context"
	"fmt"

	"github.com/mpetrenko/taskflow/internal/dbx"
	"github.com/mpetrenko/taskflow/internal/ids"
	"github.com/mpetrenko/taskflow/internal/models"
)

// ProjectRepository persists the project collection as one named entry,
// rewritten wholesale on every mutation.
type ProjectRepository struct {
	s *Store
}

func (s *Store) loadProjects(ctx context.Context, q dbx.DBTX) ([]*models.Project, error) {
	data, err := NewKV(q).Get(ctx, KeyProjects)
	if err != nil {
		return nil, err
	}
	if data == nil {
		// First use: populate with the default dataset and persist it
		// immediately so subsequent reads are stable.
		defaults := defaultProjects()
		if err := s.saveProjects(ctx, q, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	return s.decodeProjects(ctx, data)
}

func (s *Store) saveProjects(ctx context.Context, q dbx.DBTX, projects []*models.Project) error {
	data, err := encodeProjects(projects)
	if err != nil {
		return fmt.Errorf("encoding projects: %w", err)
	}
	return NewKV(q).Set(ctx, KeyProjects, data)
}

// List returns all projects in insertion order. The local backend serves a
// single implicit user, so ownerID is not used as a filter.
func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]*models.Project, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.loadProjects(ctx, r.s.db)
}

func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Project, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	projects, err := r.s.loadProjects(ctx, r.s.db)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var created *models.Project
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		projects, err := r.s.loadProjects(ctx, tx)
		if err != nil {
			return err
		}
		existing := make([]string, 0, len(projects))
		for _, item := range projects {
			existing = append(existing, item.ID)
		}

		now := r.s.now().UTC()
		stored := *p
		stored.ID = ids.Next(existing, ids.FirstProjectID)
		if stored.OwnerID == "" {
			stored.OwnerID = LocalOwnerID
		}
		stored.CreatedAt = now
		stored.UpdatedAt = now

		created = &stored
		return r.s.saveProjects(ctx, tx, append(projects, created))
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var updated *models.Project
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		projects, err := r.s.loadProjects(ctx, tx)
		if err != nil {
			return err
		}
		for i, item := range projects {
			if item.ID == p.ID {
				stored := *p
				stored.UpdatedAt = r.s.now().UTC()
				projects[i] = &stored
				updated = &stored
				return r.s.saveProjects(ctx, tx, projects)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetProgress persists a derived progress value. Updating a project that no
// longer exists is a no-op so duplicate aggregation deliveries after a delete
// stay harmless.
func (r *ProjectRepository) SetProgress(ctx context.Context, ownerID, id string, progress int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		projects, err := r.s.loadProjects(ctx, tx)
		if err != nil {
			return err
		}
		for i, item := range projects {
			if item.ID == id {
				stored := *item
				stored.Progress = progress
				stored.UpdatedAt = r.s.now().UTC()
				projects[i] = &stored
				return r.s.saveProjects(ctx, tx, projects)
			}
		}
		r.s.log.Debug(ctx, "progress write for missing project ignored", "id", id)
		return nil
	})
}

// DeleteCascade removes the project and every task referencing it. The
// filtered task collection is persisted in the same transaction as the project
// collection, so no read can observe one without the other.
func (r *ProjectRepository) DeleteCascade(ctx context.Context, ownerID, id string) (bool, error) {
	if err := r.s.simulateLatency(ctx); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := false
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		projects, err := r.s.loadProjects(ctx, tx)
		if err != nil {
			return err
		}
		remaining := make([]*models.Project, 0, len(projects))
		for _, item := range projects {
			if item.ID == id {
				deleted = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !deleted {
			return nil
		}

		tasks, err := r.s.loadTasks(ctx, tx)
		if err != nil {
			return err
		}
		keep := make([]*models.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.ProjectID != id {
				keep = append(keep, t)
			}
		}

		if err := r.s.saveTasks(ctx, tx, keep); err != nil {
			return err
		}
		return r.s.saveProjects(ctx, tx, remaining)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
