package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates every outbound call to the reasoning oracle and the corpus
// index. There is exactly one limiter per process: the quota being
// protected is the shared external one, so it is never duplicated per
// worker or per case.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a process-wide rate limiter.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait blocks until the limiter grants a slot or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
