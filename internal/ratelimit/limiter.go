package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// Endpoint names for the outbound buckets. Each has its own capacity;
// they never share tokens.
const (
	EndpointReddit       = "reddit"
	EndpointTwitterAPI   = "twitter_api"
	EndpointTwitterMedia = "twitter_media"
)

// BucketConfig describes one token bucket: a burst capacity and a
// continuous refill rate in tokens per second.
type BucketConfig struct {
	Capacity  int
	PerSecond float64
}

// Limiter holds one token bucket per logical endpoint. Buckets refill
// continuously and start full. The map is fixed at construction, so reads
// need no locking; each bucket serializes its own refill and debit.
type Limiter struct {
	buckets map[string]*rate.Limiter
}

// New builds a limiter from endpoint bucket configs.
func New(cfgs map[string]BucketConfig) *Limiter {
	l := &Limiter{buckets: make(map[string]*rate.Limiter, len(cfgs))}
	for name, c := range cfgs {
		burst := c.Capacity
		if burst < 1 {
			burst = 1
		}
		per := c.PerSecond
		if per <= 0 {
			per = 1
		}
		l.buckets[name] = rate.NewLimiter(rate.Limit(per), burst)
	}
	return l
}

// Acquire blocks until one token is available on the named endpoint's
// bucket, then debits it. It returns an error only when ctx is cancelled
// while waiting. Requesting an endpoint that was never configured is a
// programming error and panics.
func (l *Limiter) Acquire(ctx context.Context, endpoint string) error {
	b, ok := l.buckets[endpoint]
	if !ok {
		panic(fmt.Sprintf("ratelimit: unknown endpoint %q", endpoint))
	}
	if err := b.Wait(ctx); err != nil {
		return fmt.Errorf("acquire %s: %w", endpoint, err)
	}
	slog.Debug("ratelimit: token acquired", "endpoint", endpoint)
	return nil
}
