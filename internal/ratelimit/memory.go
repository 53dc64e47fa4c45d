package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter     *rate.Limiter
	windowStart time.Time
}

// MemoryLimiter is a fixed window per key: a bucket of attempts tokens that
// never refills, replaced once the window has elapsed.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	attempts int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

func NewMemoryLimiter(attempts int, window, cleanup time.Duration) *MemoryLimiter {
	if attempts < 1 {
		attempts = 1
	}
	l := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		attempts: attempts,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if cleanup > 0 {
		go l.cleanupLoop(cleanup)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok || now.Sub(v.windowStart) >= l.window {
		v = &visitor{limiter: rate.NewLimiter(0, l.attempts), windowStart: now}
		l.visitors[key] = v
	}

	if !v.limiter.AllowN(now, 1) {
		return Decision{Allowed: false, RetryAfter: v.windowStart.Add(l.window).Sub(now)}, nil
	}

	return Decision{Allowed: true, Remaining: int(v.limiter.TokensAt(now))}, nil
}

// Close stops the cleanup goroutine.
func (l *MemoryLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *MemoryLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep drops visitors whose window has closed.
func (l *MemoryLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, v := range l.visitors {
		if !v.windowStart.After(cutoff) {
			delete(l.visitors, key)
		}
	}
}
