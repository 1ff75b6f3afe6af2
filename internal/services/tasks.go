package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrenko/taskflow/internal/blob"
	"github.com/mpetrenko/taskflow/internal/common"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/models"
	"github.com/mpetrenko/taskflow/internal/session"
	"github.com/mpetrenko/taskflow/internal/store"
)

// TaskUpdate carries the fields of a sparse task update. Nil fields are left
// untouched; ClearDueDate removes the due date.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// TaskService exposes task and attachment operations against the active
// backend.
type TaskService struct {
	backend  store.Backend
	resolver session.Resolver
	hooks    Hooks
	blobs    blob.Store
	log      logging.Logger
	now      func() time.Time
}

// NewTaskService wires the facade to a backend, a trigger implementation and
// the attachment payload store.
func NewTaskService(backend store.Backend, resolver session.Resolver, hooks Hooks, blobs blob.Store, log logging.Logger) *TaskService {
	return &TaskService{
		backend:  backend,
		resolver: resolver,
		hooks:    hooks,
		blobs:    blobs,
		log:      log,
		now:      time.Now,
	}
}

// ListByProject returns the caller's tasks under one project. Without an
// identity it returns an empty list rather than an error.
func (s *TaskService) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	owner, ok, err := resolveForRead(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.Task{}, nil
	}
	return s.backend.Tasks().ListByProject(ctx, owner, projectID)
}

// Get returns one task, or nil when it is absent or the caller has no
// identity.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	owner, ok, err := resolveForRead(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.backend.Tasks().GetByID(ctx, owner, id)
}

// Create validates and persists a new task, then refreshes the parent
// project's progress. An empty status defaults to todo.
func (s *TaskService) Create(ctx context.Context, projectID, title, description string, status models.TaskStatus, dueDate *time.Time) (*models.Task, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.StatusTodo
	}

	task := &models.Task{
		OwnerID:     owner,
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      status,
		DueDate:     dueDate,
		Attachments: []models.Attachment{},
	}
	if err := s.hooks.TaskCreating(ctx, task); err != nil {
		return nil, err
	}

	created, err := s.backend.Tasks().Create(ctx, task)
	if err != nil {
		return nil, err
	}
	if err := s.hooks.TaskWritten(ctx, owner, created.ProjectID); err != nil {
		s.log.Warn(ctx, "progress refresh failed", "project", created.ProjectID, "error", err)
	}
	return created, nil
}

// Update applies a sparse update and refreshes the parent project's progress.
// A missing task yields (nil, nil).
func (s *TaskService) Update(ctx context.Context, id string, upd TaskUpdate) (*models.Task, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("%w: task title cannot be cleared", common.ErrValidation)
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, *upd.Status)
	}

	current, err := s.backend.Tasks().GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	merged := *current
	merged.Attachments = current.CloneAttachments()
	if upd.Title != nil {
		merged.Title = *upd.Title
	}
	if upd.Description != nil {
		merged.Description = *upd.Description
	}
	if upd.Status != nil {
		merged.Status = *upd.Status
	}
	if upd.ClearDueDate {
		merged.DueDate = nil
	} else if upd.DueDate != nil {
		merged.DueDate = upd.DueDate
	}

	updated, err := s.backend.Tasks().Update(ctx, &merged)
	if err != nil || updated == nil {
		return updated, err
	}
	if err := s.hooks.TaskWritten(ctx, owner, updated.ProjectID); err != nil {
		s.log.Warn(ctx, "progress refresh failed", "project", updated.ProjectID, "error", err)
	}
	return updated, nil
}

// Delete removes the task, purges its attachment payloads, and refreshes the
// parent project's progress. Deleting an absent task returns (false, nil).
func (s *TaskService) Delete(ctx context.Context, id string) (bool, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return false, err
	}

	current, err := s.backend.Tasks().GetByID(ctx, owner, id)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, nil
	}

	deleted, err := s.backend.Tasks().Delete(ctx, owner, id)
	if err != nil || !deleted {
		return deleted, err
	}

	if err := s.hooks.TaskDeleted(ctx, current); err != nil {
		s.log.Warn(ctx, "attachment purge failed", "task", id, "error", err)
	}
	if err := s.hooks.TaskWritten(ctx, owner, current.ProjectID); err != nil {
		s.log.Warn(ctx, "progress refresh failed", "project", current.ProjectID, "error", err)
	}
	return true, nil
}

// Attach uploads content as a new attachment of the task and appends its
// record. The payload is stored first, so a failed record write leaves at
// worst an orphaned payload for a later purge.
func (s *TaskService) Attach(ctx context.Context, taskID, fileName string, content []byte) (*models.Task, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	current, err := s.backend.Tasks().GetByID(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	obj, err := s.blobs.Upload(ctx, owner, taskID, fileName, content)
	if err != nil {
		return nil, err
	}

	record := models.Attachment{
		ID:         uuid.NewString(),
		FileName:   obj.Name,
		FileURL:    obj.URL,
		FileSize:   obj.Size,
		UploadedAt: s.now().UTC(),
	}
	return s.ReplaceAttachments(ctx, taskID, append(current.CloneAttachments(), record))
}

// ReplaceAttachments swaps the task's attachment list wholesale. A missing
// task yields (nil, nil).
func (s *TaskService) ReplaceAttachments(ctx context.Context, taskID string, attachments []models.Attachment) (*models.Task, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	current, err := s.backend.Tasks().GetByID(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	merged := *current
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	merged.Attachments = attachments

	updated, err := s.backend.Tasks().Update(ctx, &merged)
	if err != nil || updated == nil {
		return updated, err
	}
	if err := s.hooks.TaskWritten(ctx, owner, updated.ProjectID); err != nil {
		s.log.Warn(ctx, "progress refresh failed", "project", updated.ProjectID, "error", err)
	}
	return updated, nil
}

// Detach removes one attachment record and then deletes its payload. The
// record goes first: a payload deletion failure leaves an orphaned blob, not
// a dangling reference, and is logged for a later purge.
func (s *TaskService) Detach(ctx context.Context, taskID, attachmentID string) (*models.Task, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	current, err := s.backend.Tasks().GetByID(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	var removed *models.Attachment
	kept := make([]models.Attachment, 0, len(current.Attachments))
	for _, a := range current.Attachments {
		if a.ID == attachmentID {
			copy := a
			removed = &copy
			continue
		}
		kept = append(kept, a)
	}
	if removed == nil {
		return nil, fmt.Errorf("%w: attachment %s", common.ErrNotFound, attachmentID)
	}

	updated, err := s.ReplaceAttachments(ctx, taskID, kept)
	if err != nil || updated == nil {
		return updated, err
	}

	key, err := s.findPayloadKey(ctx, owner, taskID, removed.FileName)
	if err != nil {
		s.log.Warn(ctx, "failed to locate attachment payload",
			"task", taskID, "file", removed.FileName, "error", err)
		return updated, nil
	}
	if key != "" {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "failed to delete attachment payload",
				"task", taskID, "key", key, "error", err)
		}
	}
	return updated, nil
}

// Download returns the payload of one attachment of the task.
func (s *TaskService) Download(ctx context.Context, taskID, attachmentID string) (string, []byte, error) {
	owner, err := resolveForWrite(ctx, s.resolver)
	if err != nil {
		return "", nil, err
	}

	current, err := s.backend.Tasks().GetByID(ctx, owner, taskID)
	if err != nil {
		return "", nil, err
	}
	if current == nil {
		return "", nil, fmt.Errorf("%w: task %s", common.ErrNotFound, taskID)
	}

	for _, a := range current.Attachments {
		if a.ID != attachmentID {
			continue
		}
		key, err := s.findPayloadKey(ctx, owner, taskID, a.FileName)
		if err != nil {
			return "", nil, err
		}
		if key == "" {
			return "", nil, fmt.Errorf("%w: payload of %s", common.ErrNotFound, a.FileName)
		}
		content, err := s.blobs.Download(ctx, key)
		if err != nil {
			return "", nil, err
		}
		return a.FileName, content, nil
	}
	return "", nil, fmt.Errorf("%w: attachment %s", common.ErrNotFound, attachmentID)
}

// findPayloadKey locates the blob key of an attachment by file name. The
// stored URL may be a short-lived presigned link, so it is never used as the
// key; the object store's listing is authoritative.
func (s *TaskService) findPayloadKey(ctx context.Context, owner, taskID, fileName string) (string, error) {
	objects, err := s.blobs.List(ctx, owner, taskID)
	if err != nil {
		return "", err
	}
	for _, obj := range objects {
		if obj.Name == fileName {
			return obj.Key, nil
		}
	}
	return "", nil
}
