package localstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mpetrenko/taskflow/internal/models"
)

// Wire records. Dates are serialized as RFC 3339 strings; a record whose date
// fails to parse on load is dropped with a warning instead of aborting the
// whole collection.

type projectRecord struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Progress    int    `json:"progress"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type attachmentRecord struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	FileURL    string `json:"fileUrl"`
	FileSize   int64  `json:"fileSize"`
	UploadedAt string `json:"uploadedAt"`
}

type taskRecord struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"ownerId"`
	ProjectID   string             `json:"projectId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	DueDate     *string            `json:"dueDate,omitempty"`
	Attachments []attachmentRecord `json:"attachments"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
}

func encodeProjects(projects []*models.Project) ([]byte, error) {
	records := make([]projectRecord, 0, len(projects))
	for _, p := range projects {
		records = append(records, projectRecord{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			Title:       p.Title,
			Description: p.Description,
			Progress:    p.Progress,
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return json.Marshal(records)
}

func (s *Store) decodeProjects(ctx context.Context, data []byte) ([]*models.Project, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	projects := make([]*models.Project, 0, len(raw))
	for _, item := range raw {
		var rec projectRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			s.log.Warn(ctx, "skipping unreadable project record", "error", err)
			continue
		}
		createdAt, err := time.Parse(time.RFC3339, rec.CreatedAt)
		if err != nil {
			s.log.Warn(ctx, "skipping project with invalid createdAt", "id", rec.ID, "error", err)
			continue
		}
		updatedAt, err := time.Parse(time.RFC3339, rec.UpdatedAt)
		if err != nil {
			s.log.Warn(ctx, "skipping project with invalid updatedAt", "id", rec.ID, "error", err)
			continue
		}
		projects = append(projects, &models.Project{
			ID:          rec.ID,
			OwnerID:     rec.OwnerID,
			Title:       rec.Title,
			Description: rec.Description,
			Progress:    rec.Progress,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		})
	}
	return projects, nil
}

func encodeTasks(tasks []*models.Task) ([]byte, error) {
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		rec := taskRecord{
			ID:          t.ID,
			OwnerID:     t.OwnerID,
			ProjectID:   t.ProjectID,
			Title:       t.Title,
			Description: t.Description,
			Status:      string(t.Status),
			Attachments: make([]attachmentRecord, 0, len(t.Attachments)),
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if t.DueDate != nil {
			due := t.DueDate.UTC().Format(time.RFC3339)
			rec.DueDate = &due
		}
		for _, a := range t.Attachments {
			rec.Attachments = append(rec.Attachments, attachmentRecord{
				ID:         a.ID,
				FileName:   a.FileName,
				FileURL:    a.FileURL,
				FileSize:   a.FileSize,
				UploadedAt: a.UploadedAt.UTC().Format(time.RFC3339),
			})
		}
		records = append(records, rec)
	}
	return json.Marshal(records)
}

func (s *Store) decodeTasks(ctx context.Context, data []byte) ([]*models.Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(raw))
	for _, item := range raw {
		var rec taskRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			s.log.Warn(ctx, "skipping unreadable task record", "error", err)
			continue
		}
		createdAt, err := time.Parse(time.RFC3339, rec.CreatedAt)
		if err != nil {
			s.log.Warn(ctx, "skipping task with invalid createdAt", "id", rec.ID, "error", err)
			continue
		}
		updatedAt, err := time.Parse(time.RFC3339, rec.UpdatedAt)
		if err != nil {
			s.log.Warn(ctx, "skipping task with invalid updatedAt", "id", rec.ID, "error", err)
			continue
		}
		task := &models.Task{
			ID:          rec.ID,
			OwnerID:     rec.OwnerID,
			ProjectID:   rec.ProjectID,
			Title:       rec.Title,
			Description: rec.Description,
			Status:      models.TaskStatus(rec.Status),
			Attachments: make([]models.Attachment, 0, len(rec.Attachments)),
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		}
		if rec.DueDate != nil {
			due, err := time.Parse(time.RFC3339, *rec.DueDate)
			if err != nil {
				s.log.Warn(ctx, "skipping task with invalid dueDate", "id", rec.ID, "error", err)
				continue
			}
			task.DueDate = &due
		}
		for _, a := range rec.Attachments {
			uploadedAt, err := time.Parse(time.RFC3339, a.UploadedAt)
			if err != nil {
				s.log.Warn(ctx, "dropping attachment with invalid uploadedAt", "task", rec.ID, "attachment", a.ID)
				continue
			}
			task.Attachments = append(task.Attachments, models.Attachment{
				ID:         a.ID,
				FileName:   a.FileName,
				FileURL:    a.FileURL,
				FileSize:   a.FileSize,
				UploadedAt: uploadedAt,
			})
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
