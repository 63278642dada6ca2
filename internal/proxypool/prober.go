package proxypool

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"

	"fastwebsearch/internal/search"
)

// HTTPProber verifies proxies by issuing a GET against a known-good
// target through the proxy under test.
type HTTPProber struct {
	targetURL string
	timeout   time.Duration
}

// NewHTTPProber builds a prober hitting targetURL with the given
// per-probe timeout.
func NewHTTPProber(targetURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{targetURL: targetURL, timeout: timeout}
}

// Probe implements Prober. Any non-2xx status counts as a failure.
func (p *HTTPProber) Probe(ctx context.Context, px search.Proxy) (time.Duration, error) {
	transport, err := transportFor(px)
	if err != nil {
		return 0, err
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   p.timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.targetURL, nil)
	if err != nil {
		return 0, fmt.Errorf("new probe request: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe via %s: %w", px, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("probe via %s: status %d", px, resp.StatusCode)
	}
	return time.Since(start), nil
}

// transportFor builds an http.Transport routed through the proxy.
// HTTP(S) proxies use the standard CONNECT path; socks5 gets a
// dedicated dialer.
func transportFor(px search.Proxy) (*http.Transport, error) {
	switch px.Protocol {
	case "http", "https":
		return &http.Transport{
			Proxy:             http.ProxyURL(px.URL()),
			DisableKeepAlives: true,
		}, nil
	case "socks5":
		var auth *proxy.Auth
		if px.Username != "" {
			auth = &proxy.Auth{User: px.Username, Password: px.Password}
		}
		dialer, err := proxy.SOCKS5("tcp", net.JoinHostPort(px.Host, fmt.Sprintf("%d", px.Port)), auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer for %s: %w", px, err)
		}
		tr := &http.Transport{DisableKeepAlives: true}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			tr.DialContext = cd.DialContext
		} else {
			tr.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return tr, nil
	default:
		return nil, fmt.Errorf("unsupported proxy protocol %q", px.Protocol)
	}
}
