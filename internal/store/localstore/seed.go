package localstore

import (
	"time"

	"github.com/mpetrenko/taskflow/internal/models"
)

// LocalOwnerID is the implicit identity that owns all seeded local data.
const LocalOwnerID = "local-user"

var seedTime = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

func due(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

// defaultProjects is the fixed dataset the projects entry is populated with on
// first use.
func defaultProjects() []*models.Project {
	return []*models.Project{
		{
			ID:          "1",
			OwnerID:     LocalOwnerID,
			Title:       "Mobile App Development",
			Description: "Build the application for iOS and Android.",
			Progress:    50,
			CreatedAt:   seedTime,
			UpdatedAt:   seedTime,
		},
		{
			ID:          "2",
			OwnerID:     LocalOwnerID,
			Title:       "Final Thesis",
			Description: "Write the monograph on AI.",
			Progress:    0,
			CreatedAt:   seedTime,
			UpdatedAt:   seedTime,
		},
	}
}

// defaultTasks is the fixed dataset the tasks entry is populated with on
// first use. Task ids start at 101 to stay visually distinct from project ids.
func defaultTasks() []*models.Task {
	return []*models.Task{
		{
			ID:          "101",
			OwnerID:     LocalOwnerID,
			ProjectID:   "1",
			Title:       "Set up dev environment",
			Description: "Install all dependencies.",
			Status:      models.StatusDone,
			DueDate:     due(2025, 10, 15),
			Attachments: []models.Attachment{},
			CreatedAt:   seedTime,
			UpdatedAt:   seedTime,
		},
		{
			ID:          "102",
			OwnerID:     LocalOwnerID,
			ProjectID:   "1",
			Title:       "Create login screen",
			Description: "Develop the authentication component.",
			Status:      models.StatusInProgress,
			DueDate:     due(2025, 10, 20),
			Attachments: []models.Attachment{},
			CreatedAt:   seedTime,
			UpdatedAt:   seedTime,
		},
		{
			ID:          "103",
			OwnerID:     LocalOwnerID,
			ProjectID:   "2",
			Title:       "Literature research",
			Description: "Find relevant papers.",
			Status:      models.StatusTodo,
			DueDate:     due(2025, 10, 18),
			Attachments: []models.Attachment{},
			CreatedAt:   seedTime,
			UpdatedAt:   seedTime,
		},
	}
}
