package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTask() TaskInput {
	return TaskInput{Title: "T", Date: "2024-01-01", Time: "10:00", Status: "Pending"}
}

func TestCreateTask_DefaultsToPending(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "a@b.com")

	in := validTask()
	in.Status = ""
	task, err := env.taskSvc.CreateTask(context.Background(), owner.ID, in)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, owner.ID, task.OwnerID)

	tasks, err := env.taskSvc.ListTasks(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "T", tasks[0].Title)
	assert.Equal(t, models.TaskStatusPending, tasks[0].Status)
}

func TestCreateTask_Validation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "a@b.com")

	tests := []struct {
		name   string
		mutate func(*TaskInput)
	}{
		{"missing title", func(in *TaskInput) { in.Title = " " }},
		{"long title", func(in *TaskInput) { in.Title = strings.Repeat("x", models.MaxTaskTitleLength+1) }},
		{"long details", func(in *TaskInput) { in.Details = strings.Repeat("x", models.MaxTaskDetailsLength+1) }},
		{"missing date", func(in *TaskInput) { in.Date = "" }},
		{"bad date", func(in *TaskInput) { in.Date = "01/02/2024" }},
		{"missing time", func(in *TaskInput) { in.Time = "" }},
		{"bad time", func(in *TaskInput) { in.Time = "25:00" }},
		{"bad status", func(in *TaskInput) { in.Status = "Done" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validTask()
			tt.mutate(&in)
			_, err := env.taskSvc.CreateTask(context.Background(), owner.ID, in)
			requireKind(t, err, apperrors.KindValidation)
		})
	}

	tasks, err := env.taskSvc.ListTasks(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestOwnershipGuard(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@b.com")
	bob := env.register(t, "bob@b.com")
	ctx := context.Background()

	task, err := env.taskSvc.CreateTask(ctx, alice.ID, validTask())
	require.NoError(t, err)

	_, err = env.taskSvc.GetTask(ctx, bob.ID, task.ID)
	requireKind(t, err, apperrors.KindNotFound)

	update := validTask()
	update.Title = "stolen"
	_, err = env.taskSvc.UpdateTask(ctx, bob.ID, task.ID, update)
	requireKind(t, err, apperrors.KindNotFound)

	err = env.taskSvc.DeleteTask(ctx, bob.ID, task.ID)
	requireKind(t, err, apperrors.KindNotFound)

	// Foreign and missing tasks look the same.
	_, missing := env.taskSvc.GetTask(ctx, bob.ID, "does-not-exist")
	_, foreign := env.taskSvc.GetTask(ctx, bob.ID, task.ID)
	assert.Equal(t, missing.Error(), foreign.Error())

	got, err := env.taskSvc.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)

	bobTasks, err := env.taskSvc.ListTasks(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobTasks)
}

func TestUpdateTask_WhitelistedFieldsAndAnyTransition(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "a@b.com")
	ctx := context.Background()

	task, err := env.taskSvc.CreateTask(ctx, owner.ID, validTask())
	require.NoError(t, err)

	for _, status := range []string{"Completed", "Pending", "In-progress"} {
		in := validTask()
		in.Title = "renamed"
		in.Details = "notes"
		in.Status = status

		updated, err := env.taskSvc.UpdateTask(ctx, owner.ID, task.ID, in)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatus(status), updated.Status)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, "notes", updated.Details)
		assert.Equal(t, owner.ID, updated.OwnerID)
	}
}

func TestUpdateTask_RequiresFullFieldSet(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "a@b.com")
	ctx := context.Background()

	task, err := env.taskSvc.CreateTask(ctx, owner.ID, validTask())
	require.NoError(t, err)

	in := validTask()
	in.Status = ""
	_, err = env.taskSvc.UpdateTask(ctx, owner.ID, task.ID, in)
	requireKind(t, err, apperrors.KindValidation)

	in = validTask()
	in.Title = ""
	_, err = env.taskSvc.UpdateTask(ctx, owner.ID, task.ID, in)
	requireKind(t, err, apperrors.KindValidation)
}

func TestDeleteTask_Twice(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "a@b.com")
	ctx := context.Background()

	task, err := env.taskSvc.CreateTask(ctx, owner.ID, validTask())
	require.NoError(t, err)

	require.NoError(t, env.taskSvc.DeleteTask(ctx, owner.ID, task.ID))
	requireKind(t, env.taskSvc.DeleteTask(ctx, owner.ID, task.ID), apperrors.KindNotFound)
}

func TestTaskService_RequiresOwner(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.taskSvc.ListTasks(context.Background(), "")
	requireKind(t, err, apperrors.KindUnauthorized)

	_, err = env.taskSvc.CreateTask(context.Background(), "", validTask())
	requireKind(t, err, apperrors.KindUnauthorized)
}

type brokenTaskRepo struct {
	store.Repository[models.Task]
}

func (brokenTaskRepo) FindByID(context.Context, string) (*models.Task, error) {
	return nil, errors.New("connection reset")
}

func TestOwnershipGuard_StoreFailureIsInternal(t *testing.T) {
	guard := NewOwnershipGuard(brokenTaskRepo{})

	_, err := guard.Authorize(context.Background(), "owner", "task")
	requireKind(t, err, apperrors.KindInternal)
}
