package services

import (
	"context"
	"errors"
	"strings"

	"task-tracker/backend/internal/apperrors"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/store"

	"go.uber.org/zap"
)

// TaskInput is the full set of task fields a caller may write.
type TaskInput struct {
	Title   string `validate:"required,max=50"`
	Details string `validate:"max=500"`
	Date    string `validate:"required,datetime=2006-01-02"`
	Time    string `validate:"required,datetime=15:04"`
	Status  string `validate:"omitempty,oneof=Pending In-progress Completed"`
}

func (in TaskInput) normalized() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Details = strings.TrimSpace(in.Details)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Status = strings.TrimSpace(in.Status)
	return in
}

func (in TaskInput) fields() store.Fields {
	return store.Fields{
		store.FieldTitle:   in.Title,
		store.FieldDetails: in.Details,
		store.FieldDate:    in.Date,
		store.FieldTime:    in.Time,
		store.FieldStatus:  models.TaskStatus(in.Status),
	}
}

type TaskService interface {
	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)
	CreateTask(ctx context.Context, ownerID string, in TaskInput) (*models.Task, error)
	GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID string, in TaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID string) error
}

// OwnershipGuard binds a task to the session subject. Missing and foreign
// tasks are reported the same way.
type OwnershipGuard struct {
	tasks store.Repository[models.Task]
}

func NewOwnershipGuard(tasks store.Repository[models.Task]) *OwnershipGuard {
	return &OwnershipGuard{tasks: tasks}
}

func (g *OwnershipGuard) Authorize(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if taskID == "" {
		return nil, taskNotFound()
	}

	task, err := g.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, apperrors.Internal(err)
	}
	if task.OwnerID != ownerID {
		return nil, taskNotFound()
	}
	return task, nil
}

func taskNotFound() *apperrors.Error {
	return apperrors.NotFound("Task not found")
}

type TaskServiceImpl struct {
	tasks  store.Repository[models.Task]
	guard  *OwnershipGuard
	logger *zap.Logger
}

func NewTaskService(tasks store.Repository[models.Task], log *zap.Logger) *TaskServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskServiceImpl{
		tasks:  tasks,
		guard:  NewOwnershipGuard(tasks),
		logger: log.Named("tasks"),
	}
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	tasks, err := s.tasks.List(ctx, store.Where(store.Eq(store.FieldOwnerID, ownerID)))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return tasks, nil
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, ownerID string, in TaskInput) (*models.Task, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	in = in.normalized()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = string(models.TaskStatusPending)
	}

	id, err := models.NewID()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	task := &models.Task{
		ID:      id,
		Title:   in.Title,
		Details: in.Details,
		Date:    in.Date,
		Time:    in.Time,
		Status:  models.TaskStatus(in.Status),
		OwnerID: ownerID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.WithRequestID(ctx, s.logger).Info("task created",
		zap.String("task_id", task.ID),
		zap.String("owner_id", ownerID),
	)
	return task, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	return s.guard.Authorize(ctx, ownerID, taskID)
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, ownerID, taskID string, in TaskInput) (*models.Task, error) {
	if _, err := s.guard.Authorize(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	in = in.normalized()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		return nil, apperrors.Validation("Invalid input", []string{"status: required"})
	}

	owned := store.Where(store.Eq(store.FieldID, taskID), store.Eq(store.FieldOwnerID, ownerID))
	task, err := s.tasks.Update(ctx, owned, in.fields())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, apperrors.Internal(err)
	}

	logger.WithRequestID(ctx, s.logger).Info("task updated", zap.String("task_id", taskID))
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if _, err := s.guard.Authorize(ctx, ownerID, taskID); err != nil {
		return err
	}

	owned := store.Where(store.Eq(store.FieldID, taskID), store.Eq(store.FieldOwnerID, ownerID))
	if err := s.tasks.Delete(ctx, owned); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return taskNotFound()
		}
		return apperrors.Internal(err)
	}

	logger.WithRequestID(ctx, s.logger).Info("task deleted", zap.String("task_id", taskID))
	return nil
}
