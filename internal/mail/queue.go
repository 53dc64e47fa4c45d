package mail

import (
	"context"
	"errors"
	"fmt"

	"task-tracker/backend/internal/worker"
)

type enqueuer interface {
	Enqueue(ctx context.Context, queue string, jobType worker.JobType, payload map[string]any) error
}

// QueueMailer hands messages to the job queue; a worker delivers them.
type QueueMailer struct {
	queue     enqueuer
	queueName string
}

func NewQueueMailer(queue enqueuer, queueName string) *QueueMailer {
	return &QueueMailer{queue: queue, queueName: queueName}
}

func (m *QueueMailer) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}
	if err := m.queue.Enqueue(ctx, m.queueName, worker.JobTypePasswordResetEmail, payload); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// JobHandler delivers queued messages through mailer.
func JobHandler(mailer Mailer) worker.JobHandler {
	return func(ctx context.Context, job *worker.Job) error {
		msg, err := messageFromPayload(job.Payload)
		if err != nil {
			return err
		}
		return mailer.Send(ctx, msg)
	}
}

func messageFromPayload(payload map[string]any) (Message, error) {
	to, _ := payload["to"].(string)
	subject, _ := payload["subject"].(string)
	body, _ := payload["body"].(string)
	if to == "" {
		return Message{}, errors.New("mail job without recipient")
	}
	return Message{To: to, Subject: subject, Body: body}, nil
}
