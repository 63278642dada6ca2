// Package gate bounds concurrent outbound work and paces request starts.
package gate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"fastwebsearch/internal/metrics"
)

// Gate admits at most MaxConcurrent operations at once and spaces
// consecutive admissions by at least 1/RateLimit seconds. Every
// successful Acquire must be paired with exactly one Release.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// Config holds gate configuration.
type Config struct {
	MaxConcurrent int
	RateLimit     float64
}

// New creates a Gate. MaxConcurrent and RateLimit must be positive.
func New(cfg Config) (*Gate, error) {
	if cfg.MaxConcurrent <= 0 {
		return nil, fmt.Errorf("gate: max concurrent must be > 0, got %d", cfg.MaxConcurrent)
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("gate: rate limit must be > 0, got %v", cfg.RateLimit)
	}
	return &Gate{
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}, nil
}

// Acquire blocks until a concurrency slot is free and the pacing
// interval has elapsed, or the context is done. On success the caller
// owns one slot and must call Release on every exit path.
func (g *Gate) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("gate acquire: %w", err)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		g.sem.Release(1)
		return fmt.Errorf("gate pacing wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveGateDelay(waited)
	}
	return nil
}

// Release frees a concurrency slot obtained by Acquire.
func (g *Gate) Release() {
	g.sem.Release(1)
}
