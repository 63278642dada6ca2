// Package orchestrator fans search queries out to a provider under the
// shared rate gate.
package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fastwebsearch/internal/gate"
	"fastwebsearch/internal/metrics"
	"fastwebsearch/internal/search"
)

// Orchestrator wraps a search provider with admission control and
// batch fan-out. Provider failures surface as empty result lists; a
// single query's failure never aborts its batch.
type Orchestrator struct {
	provider search.Provider
	gate     *gate.Gate
	logger   *zap.Logger
}

// New constructs an Orchestrator.
func New(provider search.Provider, g *gate.Gate, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		gate:     g,
		logger:   logger,
	}
}

// Search runs one rate-gated query. Any provider error is logged and
// converted to an empty result list.
func (o *Orchestrator) Search(ctx context.Context, query string, maxResults int) []search.Result {
	if err := o.gate.Acquire(ctx); err != nil {
		o.logger.Warn("search admission failed",
			zap.String("query", query), zap.Error(err))
		metrics.IncSearch("rejected")
		return []search.Result{}
	}
	defer o.gate.Release()

	results, err := o.provider.Search(ctx, query, maxResults)
	if err != nil {
		o.logger.Warn("search failed",
			zap.String("query", query), zap.Error(err))
		metrics.IncSearch("error")
		return []search.Result{}
	}
	metrics.IncSearch("ok")
	return results
}

// MultiSearch runs every query concurrently and returns a mapping
// from query to its (possibly empty) result list. Duplicate query
// strings are each dispatched; they share a key and the last to
// finish wins.
func (o *Orchestrator) MultiSearch(ctx context.Context, queries []string, maxResults int) map[string][]search.Result {
	batchID := uuid.NewString()
	o.logger.Info("search batch started",
		zap.String("batch_id", batchID),
		zap.Int("queries", len(queries)),
	)

	out := make(map[string][]search.Result, len(queries))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, q := range queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			results := o.Search(ctx, q, maxResults)
			mu.Lock()
			out[q] = results
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	o.logger.Info("search batch finished", zap.String("batch_id", batchID))
	return out
}
