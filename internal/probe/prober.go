package probe

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/iptvscan/internal/model"
)

const (
	// DefaultTimeout is the per-probe deadline.
	DefaultTimeout = 1 * time.Second

	// DefaultUserAgent mimics a desktop browser. Some stream servers reject
	// requests without a conventional User-Agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Prober checks the reachability of a single link.
// Implementations must be safe for concurrent use and must not retry.
type Prober interface {
	Probe(ctx context.Context, link string) model.Status
}

// ProberFunc adapts an ordinary function to the Prober interface.
type ProberFunc func(ctx context.Context, link string) model.Status

// Probe calls f(ctx, link).
func (f ProberFunc) Probe(ctx context.Context, link string) model.Status {
	return f(ctx, link)
}

// HTTPProber probes http and https links with a single header-only request.
type HTTPProber struct {
	client    *http.Client
	timeout   time.Duration
	method    string
	userAgent string
	headers   map[string]string
	logger    *slog.Logger
}

// Option configures an HTTPProber.
type Option func(*HTTPProber)

// WithTimeout sets the per-probe deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithMethod selects the request method: http.MethodHead (default) or
// http.MethodGet. GET requests are closed right after the headers arrive.
func WithMethod(method string) Option {
	return func(p *HTTPProber) {
		switch strings.ToUpper(method) {
		case http.MethodGet:
			p.method = http.MethodGet
		case http.MethodHead:
			p.method = http.MethodHead
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *HTTPProber) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithHeaders adds extra headers to every probe request.
func WithHeaders(headers map[string]string) Option {
	return func(p *HTTPProber) {
		p.headers = headers
	}
}

// WithTransport sets the round tripper shared by all probes.
// Use NewTransport to build one with pooling and DNS caching.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *HTTPProber) {
		if rt != nil {
			p.client.Transport = rt
		}
	}
}

// WithLogger sets the logger used for per-probe debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *HTTPProber) {
		p.logger = logger
	}
}

// NewHTTPProber creates a prober. Without WithTransport it uses
// http.DefaultTransport.
func NewHTTPProber(opts ...Option) *HTTPProber {
	p := &HTTPProber{
		client: &http.Client{
			// A redirect target is a different endpoint; report the
			// redirect response itself instead of following it.
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout:   DefaultTimeout,
		method:    http.MethodHead,
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Timeout returns the per-probe deadline.
func (p *HTTPProber) Timeout() time.Duration {
	return p.timeout
}

// Probe performs one reachability check of link.
// It returns NeedsManualCheck for non-HTTP schemes and Error for links that
// do not parse, both without touching the network.
func (p *HTTPProber) Probe(ctx context.Context, link string) model.Status {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return model.StatusError
	}
	if !isHTTPScheme(u.Scheme) {
		return model.StatusNeedsManualCheck
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, p.method, u.String(), nil)
	if err != nil {
		p.logger.Debug("invalid probe request", "link", link, "error", err)
		return model.StatusError
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "*/*")
	for key, value := range p.headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		status := Classify(err)
		p.logger.Debug("probe failed", "link", link, "status", status.Name(), "error", err)
		return status
	}
	// The body is never read; closing it releases the connection.
	_ = resp.Body.Close() //nolint:errcheck // nothing to recover from a failed close

	return ClassifyStatusCode(resp.StatusCode)
}

// ClassifyStatusCode maps an HTTP status code onto Available or Unavailable.
func ClassifyStatusCode(code int) model.Status {
	if code < http.StatusBadRequest {
		return model.StatusAvailable
	}
	return model.StatusUnavailable
}

// IsHTTPLink reports whether link parses as an absolute http or https URL.
func IsHTTPLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return isHTTPScheme(u.Scheme)
}

func isHTTPScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// HostOf returns the lower-cased host (without port) of link, or the empty
// string when link has no host. It is the key used for per-host limits.
func HostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
