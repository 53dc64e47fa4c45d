package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/logger"
	"task-tracker/backend/internal/models"

	"go.uber.org/zap"
)

// TaskCache is the subset of cache.RedisCache the decorator needs.
type TaskCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedTaskService caches each owner's task list. Cache failures never
// fail a request; reads fall through to the wrapped service.
type CachedTaskService struct {
	next   TaskService
	cache  TaskCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedTaskService(next TaskService, c TaskCache, ttl time.Duration, log *zap.Logger) *CachedTaskService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedTaskService{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: log.Named("task_cache"),
	}
}

func userTasksKey(ownerID string) string {
	return fmt.Sprintf("user_tasks:%s", ownerID)
}

func (s *CachedTaskService) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	key := userTasksKey(ownerID)

	var cached []models.Task
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.WithRequestID(ctx, s.logger).Warn("task cache read failed", zap.String("key", key), zap.Error(err))
	}

	tasks, err := s.next.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, tasks, s.ttl); err != nil {
		logger.WithRequestID(ctx, s.logger).Warn("task cache write failed", zap.String("key", key), zap.Error(err))
	}
	return tasks, nil
}

func (s *CachedTaskService) CreateTask(ctx context.Context, ownerID string, in TaskInput) (*models.Task, error) {
	task, err := s.next.CreateTask(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return task, nil
}

func (s *CachedTaskService) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	return s.next.GetTask(ctx, ownerID, taskID)
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, ownerID, taskID string, in TaskInput) (*models.Task, error) {
	task, err := s.next.UpdateTask(ctx, ownerID, taskID, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return task, nil
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if err := s.next.DeleteTask(ctx, ownerID, taskID); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *CachedTaskService) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Delete(ctx, userTasksKey(ownerID)); err != nil {
		logger.WithRequestID(ctx, s.logger).Warn("task cache invalidation failed",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
	}
}
