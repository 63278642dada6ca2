// Package search defines core types shared across subsystems.
package search

import (
	"fmt"
	"net/url"
	"time"
)

// Result represents a single ranked hit returned by a search provider.
type Result struct {
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Snippet   string         `json:"snippet"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Proxy identifies an outbound proxy endpoint. Identity is
// (Host, Port, Protocol); credentials and usage timestamps are not
// part of identity, so mutable bookkeeping lives elsewhere.
type Proxy struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Key returns the comparable identity used to index pool statistics.
func (p Proxy) Key() ProxyKey {
	return ProxyKey{Host: p.Host, Port: p.Port, Protocol: p.Protocol}
}

// URL renders the proxy endpoint as a URL, embedding credentials when set.
func (p Proxy) URL() *url.URL {
	u := &url.URL{
		Scheme: p.Protocol,
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

func (p Proxy) String() string {
	return fmt.Sprintf("%s://%s:%d", p.Protocol, p.Host, p.Port)
}

// ProxyKey is the hashable identity of a proxy endpoint.
type ProxyKey struct {
	Host     string
	Port     int
	Protocol string
}

// ScrapeResult is the outcome of one fetch attempt sequence for a URL.
// Content is empty when Error is set.
type ScrapeResult struct {
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Failed reports whether the fetch ended in an error.
func (r ScrapeResult) Failed() bool {
	return r.Error != ""
}
