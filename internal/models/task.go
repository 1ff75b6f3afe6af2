package models

import "time"

// Task belongs to exactly one project. ProjectID is immutable: tasks are never
// re-parented, only deleted (directly or by project cascade).
type Task struct {
	ID        string
	OwnerID   string
	ProjectID string

	Title       string
	Description string
	Status      TaskStatus

	// DueDate may be absent.
	DueDate *time.Time

	// Attachments is an ordered list, replaced wholesale by explicit
	// attachment operations rather than merged field by field.
	Attachments []Attachment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CloneAttachments returns a copy of the task's attachment list so callers can
// filter it without aliasing the stored slice.
func (t *Task) CloneAttachments() []Attachment {
	if t.Attachments == nil {
		return nil
	}
	out := make([]Attachment, len(t.Attachments))
	copy(out, t.Attachments)
	return out
}
