package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/models"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(db, log), mock, db
}

func TestProjectList_Success(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, user_id, title, description, progress, created_at, updated_at\s+FROM projects WHERE user_id=\$1 ORDER BY created_at`)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "title", "description", "progress", "created_at", "updated_at",
	}).
		AddRow("p1", "u1", "Website", "redesign", 50, now, now).
		AddRow("p2", "u1", "Mobile", "", 0, now, now)

	mock.ExpectQuery(q.String()).WithArgs("u1").WillReturnRows(rows)

	got, err := s.Projects().List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != "p1" || got[0].Progress != 50 {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].ID != "p2" || got[1].OwnerID != "u1" {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
}

func TestProjectList_QueryError(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, user_id, title, description, progress, created_at, updated_at\s+FROM projects WHERE user_id=\$1`)

	mock.ExpectQuery(q.String()).WithArgs("u1").WillReturnError(errors.New("db err"))

	_, err := s.Projects().List(context.Background(), "u1")
	if err == nil || !regexp.MustCompile(`failed to select projects: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestProjectGetByID_Missing(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, user_id, title, description, progress, created_at, updated_at\s+FROM projects WHERE id=\$1 AND user_id=\$2`)

	mock.ExpectQuery(q.String()).WithArgs("missing", "u1").WillReturnError(sql.ErrNoRows)

	got, err := s.Projects().GetByID(context.Background(), "u1", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for missing project, got %+v", got)
	}
}

func TestProjectCreate_AssignsServerID(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO projects \(id, user_id, title, description, progress\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5\)\s+RETURNING created_at, updated_at`)

	now := time.Now()
	mock.ExpectQuery(q.String()).
		WithArgs(sqlmock.AnyArg(), "u1", "Website", "redesign", 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := s.Projects().Create(context.Background(), &models.Project{
		OwnerID:     "u1",
		Title:       "Website",
		Description: "redesign",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected assigned id, got empty")
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not taken from database: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProjectUpdate_Missing(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE projects SET title=\$1, description=\$2, updated_at=now\(\)\s+WHERE id=\$3 AND user_id=\$4\s+RETURNING progress, created_at, updated_at`)

	mock.ExpectQuery(q.String()).
		WithArgs("New", "", "missing", "u1").
		WillReturnError(sql.ErrNoRows)

	got, err := s.Projects().Update(context.Background(), &models.Project{ID: "missing", OwnerID: "u1", Title: "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for missing project, got %+v", got)
	}
}

func TestProjectUpdate_PreservesProgress(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE projects SET title=\$1, description=\$2, updated_at=now\(\)`)

	created := time.Now().Add(-time.Hour)
	updated := time.Now()
	mock.ExpectQuery(q.String()).
		WithArgs("New title", "desc", "p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"progress", "created_at", "updated_at"}).AddRow(67, created, updated))

	got, err := s.Projects().Update(context.Background(), &models.Project{
		ID: "p1", OwnerID: "u1", Title: "New title", Description: "desc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Progress != 67 {
		t.Fatalf("progress not read back from row, got %d", got.Progress)
	}
}

func TestProjectSetProgress_MissingRowIsNoop(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE projects SET progress=\$1, updated_at=now\(\) WHERE id=\$2 AND user_id=\$3`)

	mock.ExpectExec(q.String()).
		WithArgs(100, "gone", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Projects().SetProgress(context.Background(), "u1", "gone", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProjectDeleteCascade_CommitsBoth(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tasks WHERE project_id=\$1 AND user_id=\$2`).
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM projects WHERE id=\$1 AND user_id=\$2`).
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := s.Projects().DeleteCascade(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatalf("want deleted=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProjectDeleteCascade_MissingProject(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tasks WHERE project_id=\$1 AND user_id=\$2`).
		WithArgs("gone", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM projects WHERE id=\$1 AND user_id=\$2`).
		WithArgs("gone", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := s.Projects().DeleteCascade(context.Background(), "u1", "gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Fatalf("want deleted=false for missing project")
	}
}

func TestProjectDeleteCascade_TaskDeleteErrorRollsBack(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tasks WHERE project_id=\$1 AND user_id=\$2`).
		WithArgs("p1", "u1").
		WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	_, err := s.Projects().DeleteCascade(context.Background(), "u1", "p1")
	if err == nil || !regexp.MustCompile(`failed to delete project tasks: .*constraint`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped cascade error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaskListByProject_NewestFirst(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, user_id, project_id, title, description, status, due_date, attachments, created_at, updated_at\s+FROM tasks WHERE user_id=\$1 AND project_id=\$2 ORDER BY created_at DESC`)

	now := time.Now()
	due := now.Add(48 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "project_id", "title", "description", "status",
		"due_date", "attachments", "created_at", "updated_at",
	}).
		AddRow("t2", "u1", "p1", "Later", "", "todo", due, []byte(`[]`), now, now).
		AddRow("t1", "u1", "p1", "Earlier", "", "done", nil,
			[]byte(`[{"id":"a1","fileName":"spec.pdf","fileUrl":"https://x/spec.pdf","fileSize":1024,"uploadedAt":"2026-01-02T03:04:05Z"}]`),
			now.Add(-time.Hour), now)

	mock.ExpectQuery(q.String()).WithArgs("u1", "p1").WillReturnRows(rows)

	got, err := s.Tasks().ListByProject(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != "t2" || got[0].DueDate == nil || !got[0].DueDate.Equal(due) {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].DueDate != nil {
		t.Fatalf("want nil due date, got %v", got[1].DueDate)
	}
	if len(got[1].Attachments) != 1 || got[1].Attachments[0].FileName != "spec.pdf" || got[1].Attachments[0].FileSize != 1024 {
		t.Fatalf("unexpected attachments: %+v", got[1].Attachments)
	}
}

func TestTaskListByProject_BadAttachmentJSON(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, user_id, project_id, .* FROM tasks WHERE user_id=\$1 AND project_id=\$2`)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "project_id", "title", "description", "status",
		"due_date", "attachments", "created_at", "updated_at",
	}).AddRow("t1", "u1", "p1", "T", "", "todo", nil, []byte(`{broken`), now, now)

	mock.ExpectQuery(q.String()).WithArgs("u1", "p1").WillReturnRows(rows)

	_, err := s.Tasks().ListByProject(context.Background(), "u1", "p1")
	if err == nil || !regexp.MustCompile(`failed to decode attachments`).MatchString(err.Error()) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestTaskGetByID_Missing(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, user_id, project_id, .* FROM tasks WHERE id=\$1 AND user_id=\$2`)

	mock.ExpectQuery(q.String()).WithArgs("missing", "u1").WillReturnError(sql.ErrNoRows)

	got, err := s.Tasks().GetByID(context.Background(), "u1", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for missing task, got %+v", got)
	}
}

func TestTaskCreate_EncodesAttachments(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO tasks \(id, user_id, project_id, title, description, status, due_date, attachments\)`)

	now := time.Now()
	mock.ExpectQuery(q.String()).
		WithArgs(sqlmock.AnyArg(), "u1", "p1", "Write docs", "", "todo",
			sql.NullTime{}, []byte(`[]`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := s.Tasks().Create(context.Background(), &models.Task{
		OwnerID:   "u1",
		ProjectID: "p1",
		Title:     "Write docs",
		Status:    models.StatusTodo,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected assigned id, got empty")
	}
	if got.Attachments == nil || len(got.Attachments) != 0 {
		t.Fatalf("want empty attachment list, got %+v", got.Attachments)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaskUpdate_Missing(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE tasks SET title=\$1, description=\$2, status=\$3, due_date=\$4, attachments=\$5, updated_at=now\(\)`)

	mock.ExpectQuery(q.String()).
		WithArgs("T", "", "done", sql.NullTime{}, []byte(`[]`), "missing", "u1").
		WillReturnError(sql.ErrNoRows)

	got, err := s.Tasks().Update(context.Background(), &models.Task{
		ID: "missing", OwnerID: "u1", Title: "T", Status: models.StatusDone,
		Attachments: []models.Attachment{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for missing task, got %+v", got)
	}
}

func TestTaskDelete_ReportsPresence(t *testing.T) {
	s, mock, db := newStoreWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`DELETE FROM tasks WHERE id=\$1 AND user_id=\$2`)

	mock.ExpectExec(q.String()).WithArgs("t1", "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q.String()).WithArgs("t1", "u1").WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := s.Tasks().Delete(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatalf("want deleted=true on first delete")
	}

	deleted, err = s.Tasks().Delete(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Fatalf("want deleted=false on repeat delete")
	}
}
