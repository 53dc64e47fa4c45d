package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type JobType string

const (
	JobTypePasswordResetEmail JobType = "password_reset_email"
)

const (
	RetryQueue = "retry_queue"
	DeadQueue  = "dead_queue"
)

var errNotDue = errors.New("job not due yet")

type Job struct {
	ID        string         `json:"id"`
	Type      JobType        `json:"type"`
	Payload   map[string]any `json:"payload"`
	Attempts  int            `json:"attempts"`
	MaxTries  int            `json:"max_tries"`
	CreatedAt time.Time      `json:"created_at"`
	ProcessAt time.Time      `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	retryBase    time.Duration
	logger       *zap.Logger
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	PollInterval time.Duration
	Queues       []string
	// RetryBase is the first retry delay; it doubles on each attempt.
	RetryBase time.Duration
	Logger    *zap.Logger
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetryBase <= 0 {
		config.RetryBase = time.Minute
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	queues := config.Queues
	if !contains(queues, RetryQueue) {
		queues = append(append([]string{}, queues...), RetryQueue)
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queues:       queues,
		pollInterval: config.PollInterval,
		retryBase:    config.RetryBase,
		logger:       config.Logger.Named("worker"),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	w.logger.Info("starting worker", zap.Int("goroutines", concurrency), zap.Strings("queues", w.queues))

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		err := w.processNextJob()
		if err == nil {
			continue
		}
		if w.ctx.Err() != nil {
			return
		}
		if !errors.Is(err, errNotDue) {
			w.logger.Error("error processing job", zap.Error(err))
		}

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, w.pollInterval, w.queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	if time.Now().Before(job.ProcessAt) {
		if err := w.enqueueJob(queue, &job); err != nil {
			return err
		}
		return errNotDue
	}

	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	log := w.logger.With(zap.String("job_id", job.ID), zap.String("job_type", string(job.Type)))

	if !exists {
		return w.moveToDeadQueue(job, fmt.Errorf("no handler registered for job type: %s", job.Type))
	}

	log.Debug("processing job")

	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			log.Warn("job failed, retrying",
				zap.Int("attempt", job.Attempts), zap.Int("max_tries", job.MaxTries), zap.Error(err))
			return w.retryJob(job)
		}

		log.Error("job failed permanently", zap.Int("attempts", job.Attempts), zap.Error(err))
		return w.moveToDeadQueue(job, err)
	}

	log.Debug("job completed")
	return nil
}

func (w *Worker) retryJob(job *Job) error {
	delay := w.retryBase << (job.Attempts - 1)
	job.ProcessAt = time.Now().Add(delay)

	return w.enqueueJob(RetryQueue, job)
}

func (w *Worker) enqueueJob(queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.RPush(w.ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]any{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(w.ctx, DeadQueue, deadJobData).Err()
}

type JobQueue struct {
	client   *redis.Client
	maxTries int
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client, maxTries: 3}
}

func (q *JobQueue) Enqueue(ctx context.Context, queue string, jobType JobType, payload map[string]any) error {
	return q.EnqueueAt(ctx, queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(ctx context.Context, queue string, jobType JobType, payload map[string]any, processAt time.Time) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate job id: %w", err)
	}

	job := &Job{
		ID:        id.String(),
		Type:      jobType,
		Payload:   payload,
		MaxTries:  q.maxTries,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, queue, jobData).Err()
}

func (q *JobQueue) GetQueueSize(ctx context.Context, queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
