// Package ratelimit throttles requests per client key.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most a fixed number of attempts per key and window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
