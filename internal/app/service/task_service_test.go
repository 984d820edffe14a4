package service

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDueDate("2025-03-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC), d)

	_, err = ParseDueDate("next tuesday")
	assert.Error(t, err)
}

func TestTaskService_CreateForcesOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice", model.RoleUser)

	task, err := f.taskSvc.Create(context.Background(), alice, CreateTaskRequest{
		Title:   " Write report ",
		DueDate: ptr("2025-03-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", task.OwnerID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, model.TaskStatusTodo, task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	stored, err := f.tasks.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.OwnerID)
}

func TestTaskService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice", model.RoleUser)

	_, err := f.taskSvc.Create(context.Background(), alice, CreateTaskRequest{
		Title:   "  ",
		Status:  "blocked",
		DueDate: ptr("soon"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	var pub *common.PublicError
	require.ErrorAs(t, err, &pub)
	fields := make([]string, 0, len(pub.Details))
	for _, d := range pub.Details {
		fields = append(fields, d.Field)
	}
	assert.Equal(t, []string{"title", "status", "dueDate"}, fields)

	_, err = f.taskSvc.Create(context.Background(), nil, CreateTaskRequest{Title: "x"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestTaskService_GetNotFoundBeforeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", model.RoleUser)
	mallory := f.seedUser(t, "mallory", model.RoleUser)
	admin := f.seedUser(t, "root", model.RoleAdmin)

	task, err := f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "Private"})
	require.NoError(t, err)

	_, err = f.taskSvc.Get(ctx, mallory, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, "Task not found", err.Error())

	_, err = f.taskSvc.Get(ctx, mallory, task.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := f.taskSvc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title)

	got, err = f.taskSvc.Get(ctx, admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestTaskService_UpdateAllowList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", model.RoleUser)

	created := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	f.taskSvc.now = func() time.Time { return created }
	task, err := f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "Draft"})
	require.NoError(t, err)

	later := created.Add(time.Hour)
	f.taskSvc.now = func() time.Time { return later }

	// Same values: nothing changes, not even UpdatedAt.
	same, err := f.taskSvc.Update(ctx, alice, task.ID, UpdateTaskRequest{Title: ptr("Draft")})
	require.NoError(t, err)
	assert.True(t, same.UpdatedAt.Equal(created))

	updated, err := f.taskSvc.Update(ctx, alice, task.ID, UpdateTaskRequest{
		Status:  ptr("done"),
		DueDate: ptr("2025-02-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, updated.Status)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "alice", updated.OwnerID)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(created))

	_, err = f.taskSvc.Update(ctx, alice, task.ID, UpdateTaskRequest{Title: ptr("   ")})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestTaskService_UpdateForbiddenLeavesTaskUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", model.RoleUser)
	mallory := f.seedUser(t, "mallory", model.RoleUser)

	task, err := f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "Mine"})
	require.NoError(t, err)

	_, err = f.taskSvc.Update(ctx, mallory, task.ID, UpdateTaskRequest{Title: ptr("Stolen")})
	assert.ErrorIs(t, err, common.ErrForbidden)

	stored, err := f.tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", stored.Title)
}

func TestTaskService_ReplaceRequiresTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", model.RoleUser)
	task, err := f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "T"})
	require.NoError(t, err)

	_, err = f.taskSvc.Replace(ctx, alice, task.ID, UpdateTaskRequest{Status: ptr("done")})
	assert.ErrorIs(t, err, common.ErrValidation)

	replaced, err := f.taskSvc.Replace(ctx, alice, task.ID, UpdateTaskRequest{Title: ptr("T2"), Description: ptr("d")})
	require.NoError(t, err)
	assert.Equal(t, "T2", replaced.Title)
	assert.Equal(t, "d", replaced.Description)
}

func TestTaskService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", model.RoleUser)
	mallory := f.seedUser(t, "mallory", model.RoleUser)
	admin := f.seedUser(t, "root", model.RoleAdmin)

	task, err := f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "T"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.taskSvc.Delete(ctx, mallory, task.ID), common.ErrForbidden)
	_, err = f.tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)

	require.NoError(t, f.taskSvc.Delete(ctx, admin, task.ID))
	assert.ErrorIs(t, f.taskSvc.Delete(ctx, admin, task.ID), common.ErrNotFound)
}

func TestTaskService_ListScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice", model.RoleUser)
	bob := f.seedUser(t, "bob", model.RoleUser)
	admin := f.seedUser(t, "root", model.RoleAdmin)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	f.taskSvc.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	_, err := f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "a1"})
	require.NoError(t, err)
	_, err = f.taskSvc.Create(ctx, bob, CreateTaskRequest{Title: "b1", Status: "done"})
	require.NoError(t, err)
	_, err = f.taskSvc.Create(ctx, alice, CreateTaskRequest{Title: "a2", Status: "done"})
	require.NoError(t, err)

	titles := func(tasks []model.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.Title)
		}
		return out
	}

	own, err := f.taskSvc.List(ctx, alice, ListTasksQuery{AllOwners: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, titles(own), "non-admins cannot widen scope")

	adminOwn, err := f.taskSvc.List(ctx, admin, ListTasksQuery{})
	require.NoError(t, err)
	assert.Empty(t, adminOwn)
	assert.NotNil(t, adminOwn)

	all, err := f.taskSvc.List(ctx, admin, ListTasksQuery{AllOwners: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b1", "a1"}, titles(all))

	done, err := f.taskSvc.List(ctx, admin, ListTasksQuery{AllOwners: true, Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b1"}, titles(done))

	_, err = f.taskSvc.List(ctx, alice, ListTasksQuery{Status: "blocked"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.taskSvc.List(ctx, nil, ListTasksQuery{})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
