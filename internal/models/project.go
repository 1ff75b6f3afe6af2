// Package models defines the Project, Task and Attachment records shared by
// every storage backend.
package models

import "time"

// Project is a user-owned container of tasks.
//
// Progress is derived, never written directly by callers: it always equals
// round(100 * doneTasks / totalTasks) over the project's tasks, or 0 when the
// project has none.
type Project struct {
	// ID is an opaque identifier, assigned at creation, immutable afterwards.
	ID string

	// OwnerID identifies the owning user. Set at creation, never changed.
	OwnerID string

	Title       string
	Description string

	// Progress is the derived completion percentage, 0–100.
	Progress int

	CreatedAt time.Time
	UpdatedAt time.Time
}
