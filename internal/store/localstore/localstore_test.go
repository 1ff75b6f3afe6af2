package localstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrenko/taskflow/internal/logging"
	"github.com/mpetrenko/taskflow/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, testLogger(), opts...)
}

func TestProjects_SeededOnFirstUse(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	projects, err := s.Projects().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "1", projects[0].ID)
	assert.Equal(t, "2", projects[1].ID)

	// Seeding persisted immediately: the entry is now present in the store.
	data, err := s.KV().Get(ctx, KeyProjects)
	require.NoError(t, err)
	require.NotNil(t, data)

	again, err := s.Projects().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestProjects_CreateAssignsNextID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Projects().Create(ctx, &models.Project{Title: "Website", Description: "Build it"})
	require.NoError(t, err)
	assert.Equal(t, "3", p.ID) // seeded ids are 1 and 2
	assert.Equal(t, LocalOwnerID, p.OwnerID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	got, err := s.Projects().GetByID(ctx, "", p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Website", got.Title)
	assert.Equal(t, "Build it", got.Description)
	assert.Equal(t, 0, got.Progress)
}

func TestProjects_GetByID_AbsentIsNil(t *testing.T) {
	s := setupStore(t)

	p, err := s.Projects().GetByID(context.Background(), "", "999")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProjects_Update_RefreshesUpdatedAt(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	s := setupStore(t, WithNow(func() time.Time { return now }))
	ctx := context.Background()

	p, err := s.Projects().GetByID(ctx, "", "1")
	require.NoError(t, err)
	require.NotNil(t, p)

	now = now.Add(time.Hour)
	p.Title = "Renamed"
	updated, err := s.Projects().Update(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, now, updated.UpdatedAt)

	missing, err := s.Projects().Update(ctx, &models.Project{ID: "999", Title: "x"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProjects_SetProgress(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Projects().SetProgress(ctx, "", "2", 50))

	p, err := s.Projects().GetByID(ctx, "", "2")
	require.NoError(t, err)
	assert.Equal(t, 50, p.Progress)

	// Missing project: silently ignored.
	require.NoError(t, s.Projects().SetProgress(ctx, "", "999", 10))
}

func TestProjects_DeleteCascade(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Project 1 owns seeded tasks 101 and 102.
	deleted, err := s.Projects().DeleteCascade(ctx, "", "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	p, err := s.Projects().GetByID(ctx, "", "1")
	require.NoError(t, err)
	assert.Nil(t, p)

	for _, id := range []string{"101", "102"} {
		task, err := s.Tasks().GetByID(ctx, "", id)
		require.NoError(t, err)
		assert.Nil(t, task, "task %s should be gone", id)
	}

	// Task of another project survives.
	other, err := s.Tasks().GetByID(ctx, "", "103")
	require.NoError(t, err)
	require.NotNil(t, other)
}

func TestProjects_DeleteCascade_MissingIDIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	deleted, err := s.Projects().DeleteCascade(ctx, "", "999")
	require.NoError(t, err)
	assert.False(t, deleted)

	projects, err := s.Projects().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestTasks_SequentialCreatesYieldIncreasingIDs(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	t1, err := s.Tasks().Create(ctx, &models.Task{ProjectID: "1", Title: "a", Status: models.StatusTodo})
	require.NoError(t, err)
	t2, err := s.Tasks().Create(ctx, &models.Task{ProjectID: "1", Title: "b", Status: models.StatusTodo})
	require.NoError(t, err)

	assert.Equal(t, "104", t1.ID) // seeded ids end at 103
	assert.Equal(t, "105", t2.ID)
	assert.NotNil(t, t1.Attachments)
}

func TestTasks_ListByProject_InsertionOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Tasks().Create(ctx, &models.Task{ProjectID: "2", Title: "later", Status: models.StatusTodo})
	require.NoError(t, err)

	tasks, err := s.Tasks().ListByProject(ctx, "", "2")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "103", tasks[0].ID)
	assert.Equal(t, "later", tasks[1].Title)
}

func TestTasks_Delete_Idempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	deleted, err := s.Tasks().Delete(ctx, "", "103")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Tasks().Delete(ctx, "", "103")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTasks_RoundTripDueDateAndAttachments(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	dueDate := time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)
	created, err := s.Tasks().Create(ctx, &models.Task{
		ProjectID:   "1",
		Title:       "wrap up",
		Description: "with files",
		Status:      models.StatusInProgress,
		DueDate:     &dueDate,
		Attachments: []models.Attachment{
			{ID: "a1", FileName: "a.png", FileURL: "local://attachments/x/a.png", FileSize: 12, UploadedAt: seedTime},
		},
	})
	require.NoError(t, err)

	got, err := s.Tasks().GetByID(ctx, "", created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, dueDate, got.DueDate.UTC())
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "a.png", got.Attachments[0].FileName)
	assert.Equal(t, int64(12), got.Attachments[0].FileSize)
}

func TestDecode_CorruptDateIsIsolatedPerRecord(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// One good record, one with an unparseable date: only the bad one is dropped.
	payload := `[
	  {"id":"1","ownerId":"local-user","title":"ok","description":"d","progress":0,
	   "createdAt":"2025-10-01T09:00:00Z","updatedAt":"2025-10-01T09:00:00Z"},
	  {"id":"2","ownerId":"local-user","title":"broken","description":"d","progress":0,
	   "createdAt":"not-a-date","updatedAt":"2025-10-01T09:00:00Z"}
	]`
	require.NoError(t, s.KV().Set(ctx, KeyProjects, []byte(payload)))

	projects, err := s.Projects().List(ctx, "")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "ok", projects[0].Title)
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='kv'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "kv", name)
}
