package proxypool

import (
	"sync"

	"fastwebsearch/internal/search"
)

// Rotation cycles over a fixed proxy list round-robin. Batch scraping
// uses this simple rotation instead of the pool's scored selection.
type Rotation struct {
	mu      sync.Mutex
	proxies []search.Proxy
	next    int
}

// NewRotation builds a rotation over the given proxies. An empty list
// yields a rotation whose Next always reports no proxy.
func NewRotation(proxies []search.Proxy) *Rotation {
	out := make([]search.Proxy, len(proxies))
	copy(out, proxies)
	return &Rotation{proxies: out}
}

// Cycle returns a rotation over the pool's registered working set.
func (p *Pool) Cycle() *Rotation {
	return NewRotation(p.Working())
}

// Next returns the next proxy in the cycle, or false when the
// rotation is empty.
func (r *Rotation) Next() (search.Proxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.proxies) == 0 {
		return search.Proxy{}, false
	}
	proxy := r.proxies[r.next]
	r.next = (r.next + 1) % len(r.proxies)
	return proxy, true
}

// Len reports how many proxies are in the rotation.
func (r *Rotation) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}
