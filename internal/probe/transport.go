package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultPerHost caps simultaneous connections to one host.
	DefaultPerHost = 100

	// DefaultMaxIdleConns is the size of the shared idle connection pool.
	DefaultMaxIdleConns = 300

	// defaultDialTimeout bounds a TCP connect when the probe context has a
	// longer deadline. Probes normally end sooner through their own timeout.
	defaultDialTimeout = 30 * time.Second

	idleConnTimeout = 30 * time.Second
)

// transportSettings collects the values applied by TransportOption.
type transportSettings struct {
	perHost      int
	maxIdleConns int
	dnsTTL       time.Duration
	proxyURL     string
	resolver     resolver
}

// TransportOption configures NewTransport.
type TransportOption func(*transportSettings)

// WithPerHost sets http.Transport.MaxConnsPerHost. Non-positive values are ignored.
func WithPerHost(n int) TransportOption {
	return func(s *transportSettings) {
		if n > 0 {
			s.perHost = n
		}
	}
}

// WithMaxIdleConns sets the size of the idle connection pool. Non-positive values are ignored.
func WithMaxIdleConns(n int) TransportOption {
	return func(s *transportSettings) {
		if n > 0 {
			s.maxIdleConns = n
		}
	}
}

// WithDNSTTL sets how long resolved hosts stay cached.
func WithDNSTTL(ttl time.Duration) TransportOption {
	return func(s *transportSettings) {
		if ttl > 0 {
			s.dnsTTL = ttl
		}
	}
}

// WithProxy routes every connection through a SOCKS5 proxy given as
// "socks5://host:port" or "socks5h://host:port". Name resolution is then
// performed by the proxy and the DNS cache is bypassed.
func WithProxy(rawURL string) TransportOption {
	return func(s *transportSettings) {
		s.proxyURL = rawURL
	}
}

// withResolver replaces the system resolver; used by tests.
func withResolver(r resolver) TransportOption {
	return func(s *transportSettings) {
		s.resolver = r
	}
}

// NewTransport builds the http.Transport shared by all probes of a batch.
//
// Keep-alive connections are pooled and reused across probes, connections per
// host are capped, and host names resolve through a DNS cache with a bounded
// TTL. The returned transport is safe for concurrent use.
func NewTransport(opts ...TransportOption) (*http.Transport, error) {
	s := &transportSettings{
		perHost:      DefaultPerHost,
		maxIdleConns: DefaultMaxIdleConns,
		dnsTTL:       DefaultDNSTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	base := &net.Dialer{
		Timeout:   defaultDialTimeout,
		KeepAlive: 30 * time.Second,
	}

	dial, err := newDialFunc(base, s)
	if err != nil {
		return nil, err
	}

	idlePerHost := s.perHost
	if idlePerHost > s.maxIdleConns {
		idlePerHost = s.maxIdleConns
	}

	return &http.Transport{
		DialContext:         dial,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        s.maxIdleConns,
		MaxIdleConnsPerHost: idlePerHost,
		MaxConnsPerHost:     s.perHost,
		IdleConnTimeout:     idleConnTimeout,
		// Probes never read bodies, so negotiating compression is wasted work.
		DisableCompression: true,
	}, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// newDialFunc returns the proxy dialer when a proxy is configured and the
// DNS-caching dialer otherwise.
func newDialFunc(base *net.Dialer, s *transportSettings) (dialFunc, error) {
	if s.proxyURL == "" {
		cache := newDNSCache(s.resolver, s.dnsTTL)
		return cachingDialer(base, cache), nil
	}

	u, err := ParseProxyURL(s.proxyURL)
	if err != nil {
		return nil, err
	}
	d, err := proxy.FromURL(u, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return contextless(d), nil
}

// ParseProxyURL validates a SOCKS5 proxy URL.
func ParseProxyURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", rawURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxy, u.Scheme)
	}
	if u.Host == "" || u.Port() == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: expected host:port", rawURL)
	}
	return u, nil
}

// cachingDialer resolves the host through cache and tries each address in
// order until one connects or ctx ends.
func cachingDialer(base *net.Dialer, cache *dnsCache) dialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if net.ParseIP(host) != nil {
			return base.DialContext(ctx, network, addr)
		}

		addrs, err := cache.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}

		var errs []error
		for _, ip := range addrs {
			conn, err := base.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		if len(errs) == 0 {
			return nil, ErrNoAddress
		}
		return nil, errors.Join(errs...)
	}
}

// contextless wraps a proxy.Dialer without DialContext support. The dial
// keeps running in the background if ctx ends first and its connection is
// closed when it eventually arrives.
func contextless(d proxy.Dialer) dialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)

		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			go func() {
				if result := <-resultCh; result.conn != nil {
					_ = result.conn.Close() //nolint:errcheck // abandoned connection
				}
			}()
			return nil, ctx.Err()
		}
	}
}
