// Package proxypool manages a scored set of outbound proxies.
package proxypool

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"fastwebsearch/internal/metrics"
	"fastwebsearch/internal/search"
)

// ErrNoProxy is returned when the working set is empty or every
// candidate fails verification.
var ErrNoProxy = errors.New("no proxy available")

// topCandidates is how many ranked proxies GetProxy probes before
// falling back to re-verifying the whole working set.
const topCandidates = 3

// evictionThreshold is the success ratio below which a proxy is
// permanently removed from the working set.
const evictionThreshold = 0.5

// stats is the mutable per-proxy record. One record per identity,
// created at pool construction, guarded by its own mutex so updates
// to different proxies never contend.
type stats struct {
	mu           sync.Mutex
	successCount int
	failCount    int
	avgResponse  time.Duration
	lastUsed     time.Time
	lastVerified time.Time
}

func (s *stats) score() (float64, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ratio := float64(s.successCount) / float64(s.successCount+s.failCount+1)
	return ratio, s.avgResponse
}

// Prober performs one liveness check through a proxy, returning the
// observed response time.
type Prober interface {
	Probe(ctx context.Context, p search.Proxy) (time.Duration, error)
}

// Pool holds registered proxies and their rolling statistics. The
// working set shrinks as proxies fail; there is no automatic
// re-admission path.
type Pool struct {
	mu      sync.Mutex
	working []search.Proxy
	stats   map[search.ProxyKey]*stats
	prober  Prober
	clock   search.Clock
	logger  *zap.Logger
}

// New builds a Pool over the given proxies. All start in the working set.
func New(proxies []search.Proxy, prober Prober, clock search.Clock, logger *zap.Logger) *Pool {
	p := &Pool{
		working: make([]search.Proxy, len(proxies)),
		stats:   make(map[search.ProxyKey]*stats, len(proxies)),
		prober:  prober,
		clock:   clock,
		logger:  logger,
	}
	copy(p.working, proxies)
	for _, proxy := range proxies {
		p.stats[proxy.Key()] = &stats{}
	}
	return p
}

// Verify runs one liveness probe against the proxy. On success it
// updates the rolling average response time and the verification
// timestamp; on any failure it increments the failure counter. Probe
// errors never escape this method.
func (p *Pool) Verify(ctx context.Context, proxy search.Proxy) bool {
	st, ok := p.statsFor(proxy)
	if !ok {
		return false
	}
	elapsed, err := p.prober.Probe(ctx, proxy)
	if err != nil {
		st.mu.Lock()
		st.failCount++
		st.mu.Unlock()
		metrics.IncProxyVerification("failure")
		p.logger.Debug("proxy verification failed",
			zap.String("proxy", proxy.String()), zap.Error(err))
		return false
	}

	st.mu.Lock()
	st.successCount++
	n := st.successCount
	st.avgResponse = time.Duration(
		(int64(st.avgResponse)*int64(n-1) + int64(elapsed)) / int64(n),
	)
	st.lastVerified = p.clock.Now()
	st.mu.Unlock()
	metrics.IncProxyVerification("success")
	return true
}

// GetProxy returns a verified proxy from the working set, preferring
// high success ratio and low latency. The top-ranked candidates are
// probed in order; if none verify, the entire working set is
// re-verified concurrently and pruned to the survivors.
func (p *Pool) GetProxy(ctx context.Context) (search.Proxy, error) {
	ranked := p.rankedWorking()
	if len(ranked) == 0 {
		return search.Proxy{}, ErrNoProxy
	}

	limit := topCandidates
	if len(ranked) < limit {
		limit = len(ranked)
	}
	for _, candidate := range ranked[:limit] {
		if p.Verify(ctx, candidate) {
			p.stampUsed(candidate)
			return candidate, nil
		}
	}

	return p.reverifyAll(ctx)
}

// reverifyAll probes every working proxy concurrently, keeps only the
// survivors (in original registration order), and returns the first.
func (p *Pool) reverifyAll(ctx context.Context) (search.Proxy, error) {
	p.mu.Lock()
	working := make([]search.Proxy, len(p.working))
	copy(working, p.working)
	p.mu.Unlock()

	results := make([]bool, len(working))
	var wg sync.WaitGroup
	for i, proxy := range working {
		wg.Add(1)
		go func(i int, proxy search.Proxy) {
			defer wg.Done()
			results[i] = p.Verify(ctx, proxy)
		}(i, proxy)
	}
	wg.Wait()

	survivors := working[:0:0]
	for i, ok := range results {
		if ok {
			survivors = append(survivors, working[i])
		}
	}

	p.mu.Lock()
	p.working = survivors
	p.mu.Unlock()

	if len(survivors) == 0 {
		return search.Proxy{}, ErrNoProxy
	}
	chosen := survivors[0]
	p.stampUsed(chosen)
	return chosen, nil
}

// MarkFailed records a failed use. A proxy whose success ratio drops
// below the eviction threshold is removed from the working set for
// the rest of the run.
func (p *Pool) MarkFailed(proxy search.Proxy) {
	st, ok := p.statsFor(proxy)
	if !ok {
		return
	}
	st.mu.Lock()
	st.failCount++
	ratio := float64(st.successCount) / float64(st.successCount+st.failCount)
	st.mu.Unlock()

	if ratio < evictionThreshold {
		p.evict(proxy)
	}
}

// MarkSuccess records a successful use. The response-time average is
// only maintained by Verify.
func (p *Pool) MarkSuccess(proxy search.Proxy) {
	st, ok := p.statsFor(proxy)
	if !ok {
		return
	}
	st.mu.Lock()
	st.successCount++
	st.mu.Unlock()
}

// Working returns a snapshot of the current working set.
func (p *Pool) Working() []search.Proxy {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]search.Proxy, len(p.working))
	copy(out, p.working)
	return out
}

func (p *Pool) evict(proxy search.Proxy) {
	key := proxy.Key()
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.working {
		if w.Key() == key {
			p.working = append(p.working[:i], p.working[i+1:]...)
			metrics.IncProxyEviction()
			p.logger.Info("proxy evicted from working set",
				zap.String("proxy", proxy.String()))
			return
		}
	}
}

func (p *Pool) statsFor(proxy search.Proxy) (*stats, bool) {
	p.mu.Lock()
	st, ok := p.stats[proxy.Key()]
	p.mu.Unlock()
	return st, ok
}

func (p *Pool) stampUsed(proxy search.Proxy) {
	if st, ok := p.statsFor(proxy); ok {
		st.mu.Lock()
		st.lastUsed = p.clock.Now()
		st.mu.Unlock()
	}
}

// rankedWorking snapshots the working set ordered by descending
// success ratio, then ascending average response time.
func (p *Pool) rankedWorking() []search.Proxy {
	working := p.Working()

	type scored struct {
		proxy search.Proxy
		ratio float64
		avg   time.Duration
	}
	candidates := make([]scored, 0, len(working))
	for _, proxy := range working {
		st, ok := p.statsFor(proxy)
		if !ok {
			continue
		}
		ratio, avg := st.score()
		candidates = append(candidates, scored{proxy: proxy, ratio: ratio, avg: avg})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ratio != candidates[j].ratio {
			return candidates[i].ratio > candidates[j].ratio
		}
		return candidates[i].avg < candidates[j].avg
	})

	out := make([]search.Proxy, len(candidates))
	for i, c := range candidates {
		out[i] = c.proxy
	}
	return out
}
