package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrenko/taskflow/internal/models"
)

// TaskRepository persists task rows scoped by user_id. The attachment list is
// stored document-style as a JSONB column and replaced wholesale on writes.
type TaskRepository struct {
	s *Store
}

type attachmentDoc struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func encodeAttachments(attachments []models.Attachment) ([]byte, error) {
	docs := make([]attachmentDoc, 0, len(attachments))
	for _, a := range attachments {
		docs = append(docs, attachmentDoc(a))
	}
	return json.Marshal(docs)
}

func decodeAttachments(data []byte) ([]models.Attachment, error) {
	var docs []attachmentDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	attachments := make([]models.Attachment, 0, len(docs))
	for _, d := range docs {
		attachments = append(attachments, models.Attachment(d))
	}
	return attachments, nil
}

func scanTask(scan func(dest ...any) error) (*models.Task, error) {
	var (
		t           models.Task
		due         sql.NullTime
		attachments []byte
	)
	if err := scan(&t.ID, &t.OwnerID, &t.ProjectID, &t.Title, &t.Description,
		&t.Status, &due, &attachments, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	decoded, err := decodeAttachments(attachments)
	if err != nil {
		return nil, err
	}
	t.Attachments = decoded
	return &t, nil
}

// ListByProject returns the owner's tasks under one project, newest first.
func (r *TaskRepository) ListByProject(ctx context.Context, ownerID, projectID string) ([]*models.Task, error) {
	query := `SELECT id, user_id, project_id, title, description, status, due_date, attachments, created_at, updated_at
		FROM tasks WHERE user_id=$1 AND project_id=$2 ORDER BY created_at DESC`
	rows, err := r.s.db.QueryContext(ctx, query, ownerID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	var result []*models.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query := `SELECT id, user_id, project_id, title, description, status, due_date, attachments, created_at, updated_at
		FROM tasks WHERE id=$1 AND user_id=$2`
	row := r.s.db.QueryRowContext(ctx, query, id, ownerID)

	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select task: %w", err)
	}
	return t, nil
}

// Create inserts the task with a server-assigned id; timestamps come from the
// database clock.
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := `INSERT INTO tasks (id, user_id, project_id, title, description, status, due_date, attachments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	stored := *t
	stored.ID = uuid.NewString()
	if stored.Attachments == nil {
		stored.Attachments = []models.Attachment{}
	}
	attachments, err := encodeAttachments(stored.Attachments)
	if err != nil {
		return nil, err
	}

	err = r.s.db.QueryRowContext(ctx, query,
		stored.ID, stored.OwnerID, stored.ProjectID, stored.Title, stored.Description,
		string(stored.Status), nullableTime(stored.DueDate), attachments).
		Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &stored, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := `UPDATE tasks SET title=$1, description=$2, status=$3, due_date=$4, attachments=$5, updated_at=now()
		WHERE id=$6 AND user_id=$7
		RETURNING created_at, updated_at`

	stored := *t
	attachments, err := encodeAttachments(stored.Attachments)
	if err != nil {
		return nil, err
	}

	err = r.s.db.QueryRowContext(ctx, query,
		stored.Title, stored.Description, string(stored.Status), nullableTime(stored.DueDate),
		attachments, stored.ID, stored.OwnerID).
		Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &stored, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
