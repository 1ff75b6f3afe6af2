package cli

import (
	"context"

	"github.com/mpetrenko/taskflow/internal/services"
)

func (a *App) listProjects(ctx context.Context) {
	projects, err := a.projects.List(ctx)
	if err != nil {
		a.println("Error:", err)
		return
	}
	if len(projects) == 0 {
		a.println("No projects.")
		return
	}
	for _, p := range projects {
		a.printf("%-8s %3d%%  %s\n", p.ID, p.Progress, p.Title)
		if p.Description != "" {
			a.printf("         %s\n", p.Description)
		}
	}
}

func (a *App) addProject(ctx context.Context) {
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

	created, err := a.projects.Create(ctx, title, description)
	if err != nil {
		a.println("Error:", err)
		return
	}
	a.printf("Created project %s.\n", created.ID)
}

func (a *App) editProject(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: editproject <id>")
		return
	}

	title, err := getSimpleText(a.reader, "New title (leave empty to keep):", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}
	description, err := getSimpleText(a.reader, "New description (leave empty to keep):", a.out)
	if err != nil {
		a.println("Error:", err)
		return
	}

	upd := services.ProjectUpdate{}
	if title != "" {
		upd.Title = &title
	}
	if description != "" {
		upd.Description = &description
	}

	updated, err := a.projects.Update(ctx, args[0], upd)
	if err != nil {
		a.println("Error:", err)
		return
	}
	if updated == nil {
		a.println("No such project.")
		return
	}
	a.printf("Updated project %s.\n", updated.ID)
}

func (a *App) deleteProject(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.println("Usage: delproject <id>")
		return
	}

	deleted, err := a.projects.Delete(ctx, args[0])
	if err != nil {
		a.println("Error:", err)
		return
	}
	if !deleted {
		a.println("No such project.")
		return
	}
	a.println("Project and its tasks deleted.")
}
