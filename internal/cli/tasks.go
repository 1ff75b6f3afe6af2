package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mpetrenko/taskflow/internal/models"
	"github.com/mpetrenko/taskflow/internal/services"
)

const dueDateLayout = "2006-01-02"

func (a *App) listTasks(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: tasks <project-id>")
		return
	}

	tasks, err := a.tasks.ListByProject(ctx, args[0])
	if err != nil {
		a.println("Error:", err)
		return
	}
	if len(tasks) == 0 {
		a.println("No tasks.")
		return
	}
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = "due " + t.DueDate.Format(dueDateLayout)
		}
		a.printf("%-8s [%-11s] %s %s\n", t.ID, t.Status, t.Title, due)
		if len(t.Attachments) > 0 {
			a.printf("         %d attachment(s)\n", len(t.Attachments))
		}
	}
}

func (a *App) addTask(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: addtask <project-id>")
		return
	}

	title, err := getSimpleText(a.reader, "Title:", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}
	description, err := getSimpleText(a.reader, "Description (optional):", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}
	due, err := a.promptDueDate()
	if err != nil {
		a.println("Error:", err)
		return
	}

	created, err := a.tasks.Create(ctx, args[0], title, description, models.StatusTodo, due)
	if err != nil {
		a.println("Error:", err)
		return
	}
	a.printf("Created task %s.\n", created.ID)
}

func (a *App) editTask(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: edittask <id>")
		return
	}

	title, err := getSimpleText(a.reader, "New title (leave empty to keep):", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}
	status, err := getSimpleText(a.reader, "New status (todo, in_progress, done; leave empty to keep):", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}

	upd := services.TaskUpdate{}
	if title != "" {
		upd.Title = &title
	}
	if status != "" {
		s := models.TaskStatus(status)
		upd.Status = &s
	}

	updated, err := a.tasks.Update(ctx, args[0], upd)
	if err != nil {
		a.println("Error:", err)
		return
	}
	if updated == nil {
		a.println("No such task.")
		return
	}
	a.printf("Updated task %s.\n", updated.ID)
}

func (a *App) deleteTask(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: deltask <id>")
		return
	}

	deleted, err := a.tasks.Delete(ctx, args[0])
	if err != nil {
		a.println("Error:", err)
		return
	}
	if !deleted {
		a.println("No such task.")
		return
	}
	a.println("Task deleted.")
}

func (a *App) listAttachments(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: files <task-id>")
		return
	}

	task, err := a.tasks.Get(ctx, args[0])
	if err != nil {
		a.println("Error:", err)
		return
	}
	if task == nil {
		a.println("No such task.")
		return
	}
	if len(task.Attachments) == 0 {
		a.println("No attachments.")
		return
	}
	for _, att := range task.Attachments {
		a.printf("%-38s %8d bytes  %s\n", att.ID, att.FileSize, att.FileName)
	}
}

func (a *App) attach(ctx context.Context, args []string) {
	if len(args) != 2 {
		a.println("Usage: attach <task-id> <path>")
		return
	}

	content, err := os.ReadFile(args[1])
	if err != nil {
		a.println("Error:", err)
		return
	}

	updated, err := a.tasks.Attach(ctx, args[0], filepath.Base(args[1]), content)
	if err != nil {
		a.println("Error:", err)
		return
	}
	if updated == nil {
		a.println("No such task.")
		return
	}
	a.printf("Attached %s (%d bytes).\n", filepath.Base(args[1]), len(content))
}

func (a *App) detach(ctx context.Context, args []string) {
	if len(args) != 2 {
		a.println("Usage: detach <task-id> <attachment-id>")
		return
	}

	updated, err := a.tasks.Detach(ctx, args[0], args[1])
	if err != nil {
		a.println("Error:", err)
		return
	}
	if updated == nil {
		a.println("No such task.")
		return
	}
	a.println("Attachment removed.")
}

func (a *App) download(ctx context.Context, args []string) {
	if len(args) != 3 {
		a.println("Usage: download <task-id> <attachment-id> <path>")
		return
	}

	name, content, err := a.tasks.Download(ctx, args[0], args[1])
	if err != nil {
		a.println("Error:", err)
		return
	}
	if err := os.WriteFile(args[2], content, 0o600); err != nil {
		a.println("Error:", err)
		return
	}
	a.printf("Saved %s to %s.\n", name, args[2])
}

func (a *App) promptDueDate() (*time.Time, error) {
	raw, err := getSimpleText(a.reader, "Due date (YYYY-MM-DD, optional):", a.out)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dueDateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
