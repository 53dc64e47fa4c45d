package mail

import (
	"context"

	"task-tracker/backend/internal/breaker"
)

// BreakerMailer fails fast while the wrapped mailer keeps failing.
type BreakerMailer struct {
	next Mailer
	cb   *breaker.CircuitBreaker
}

func NewBreakerMailer(next Mailer, cb *breaker.CircuitBreaker) *BreakerMailer {
	return &BreakerMailer{next: next, cb: cb}
}

func (m *BreakerMailer) Send(ctx context.Context, msg Message) error {
	return m.cb.Execute(func() error {
		return m.next.Send(ctx, msg)
	})
}

func (m *BreakerMailer) Stats() map[string]any {
	return m.cb.Stats()
}
