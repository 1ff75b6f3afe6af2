package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mpetrenko/taskflow/internal/dbx"
	"github.com/mpetrenko/taskflow/internal/models"
)

// ProjectRepository persists project rows scoped by user_id.
type ProjectRepository struct {
	s *Store
}

// List returns the owner's projects, oldest first.
func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]*models.Project, error) {
	query := `SELECT id, user_id, title, description, progress, created_at, updated_at
		FROM projects WHERE user_id=$1 ORDER BY created_at`
	rows, err := r.s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		var item models.Project
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description,
			&item.Progress, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Project, error) {
	query := `SELECT id, user_id, title, description, progress, created_at, updated_at
		FROM projects WHERE id=$1 AND user_id=$2`
	row := r.s.db.QueryRowContext(ctx, query, id, ownerID)

	p := &models.Project{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Progress, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select project: %w", err)
	}
	return p, nil
}

// Create inserts the project with a server-assigned id; both timestamps come
// from the database clock.
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `INSERT INTO projects (id, user_id, title, description, progress)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	stored := *p
	stored.ID = uuid.NewString()

	err := r.s.db.QueryRowContext(ctx, query,
		stored.ID, stored.OwnerID, stored.Title, stored.Description, stored.Progress).
		Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return &stored, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `UPDATE projects SET title=$1, description=$2, updated_at=now()
		WHERE id=$3 AND user_id=$4
		RETURNING progress, created_at, updated_at`

	stored := *p
	err := r.s.db.QueryRowContext(ctx, query, stored.Title, stored.Description, stored.ID, stored.OwnerID).
		Scan(&stored.Progress, &stored.CreatedAt, &stored.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &stored, nil
}

// SetProgress persists a derived progress value. Zero rows affected means the
// project is already gone; duplicate aggregation deliveries stay harmless.
func (r *ProjectRepository) SetProgress(ctx context.Context, ownerID, id string, progress int) error {
	query := `UPDATE projects SET progress=$1, updated_at=now() WHERE id=$2 AND user_id=$3`
	if _, err := r.s.db.ExecContext(ctx, query, progress, id, ownerID); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// DeleteCascade stages the deletion of every task referencing the project plus
// the project itself and commits them as one transaction.
func (r *ProjectRepository) DeleteCascade(ctx context.Context, ownerID, id string) (bool, error) {
	deleted := false
	err := dbx.WithTx(ctx, r.s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE project_id=$1 AND user_id=$2`, id, ownerID); err != nil {
			return fmt.Errorf("failed to delete project tasks: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM projects WHERE id=$1 AND user_id=$2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected error: %w", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
