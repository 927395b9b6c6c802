package quotes

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Limiters hands out one token bucket per data source. Every outbound call must acquire a
// token with Wait before it is sent.
type Limiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewLimiters creates buckets refilling at rps tokens per second. rps <= 0 disables limiting.
func NewLimiters(rps float64, burst int) *Limiters {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiters{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *Limiters) get(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[source]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[source] = lim
	}
	return lim
}

// Wait blocks until a token for source is available or ctx is done.
func (l *Limiters) Wait(ctx context.Context, source string) error {
	if err := l.get(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s failed: %w", source, err)
	}
	return nil
}

// Allow takes a token for source without blocking and reports whether one was available.
func (l *Limiters) Allow(source string) bool {
	return l.get(source).Allow()
}
