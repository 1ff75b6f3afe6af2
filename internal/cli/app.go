// Package cli implements the interactive TaskFlow shell. It is a thin
// consumer of the services facade: every command parses input, calls one
// facade operation, and prints the result.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mpetrenko/taskflow/internal/config"
	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/services"
	"github.com/mpetrenko/taskflow/internal/session"
	"github.com/mpetrenko/taskflow/internal/users"
)

// Deps bundles everything the shell talks to. Registry and Sessions are nil
// in remote mode, where identity comes from the configured access token.
type Deps struct {
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Registry *users.Registry
	Sessions *session.Manager
	Log      logging.Logger
}

// App is the interactive shell.
type App struct {
	config   *config.Config
	projects *services.ProjectService
	tasks    *services.TaskService
	registry *users.Registry
	sessions *session.Manager
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp returns a shell reading from stdin and writing to stdout.
func NewApp(c *config.Config, deps Deps) *App {
	return &App{
		config:   c,
		projects: deps.Projects,
		tasks:    deps.Tasks,
		registry: deps.Registry,
		sessions: deps.Sessions,
		log:      deps.Log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	if a.sessions == nil {
		return true
	}
	_, err := a.sessions.Current(ctx)
	return err == nil
}

func (a *App) getStatus(ctx context.Context) string {
	if a.sessions == nil {
		return "(remote)"
	}
	if email := a.sessions.Email(ctx); email != "" && a.isLoggedIn(ctx) {
		return fmt.Sprintf("(%s)", email)
	}
	return "(logged out)"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// Run starts the read-eval-print loop. It exits on EOF or "exit"/"quit".
func (a *App) Run(ctx context.Context) {
	a.println("Welcome to TaskFlow (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		a.printf("tf %s> ", a.getStatus(ctx))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if a.dispatch(ctx, parts[0], parts[1:]) {
			return
		}
	}
}

// dispatch runs one command and reports whether the loop should exit.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "help":
		a.help(ctx)

	case "signup":
		a.signup(ctx)
	case "login":
		a.login(ctx)
	case "logout":
		a.logout(ctx)

	case "p", "projects":
		a.listProjects(ctx)
	case "addproject":
		a.addProject(ctx)
	case "editproject":
		a.editProject(ctx, args)
	case "delproject":
		a.deleteProject(ctx, args)

	case "t", "tasks":
		a.listTasks(ctx, args)
	case "addtask":
		a.addTask(ctx, args)
	case "edittask":
		a.editTask(ctx, args)
	case "deltask":
		a.deleteTask(ctx, args)

	case "files":
		a.listAttachments(ctx, args)
	case "attach":
		a.attach(ctx, args)
	case "detach":
		a.detach(ctx, args)
	case "download":
		a.download(ctx, args)

	case "exit", "quit":
		a.println("Bye!")
		return true

	default:
		a.println("Unknown command:", cmd)
	}
	return false
}

func (a *App) help(ctx context.Context) {
	if !a.isLoggedIn(ctx) {
		a.println("Available commands: signup, login, exit")
		return
	}
	a.println("Projects: (p)rojects, addproject, editproject <id>, delproject <id>")
	a.println("Tasks:    (t)asks <project-id>, addtask <project-id>, edittask <id>, deltask <id>")
	a.println("Files:    files <task-id>, attach <task-id> <path>, detach <task-id> <attachment-id>, download <task-id> <attachment-id> <path>")
	a.println("Other:    logout, exit")
}
