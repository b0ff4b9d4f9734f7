package playlist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/nao1215/iptvscan/internal/model"
)

// Default fetch settings.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultAttempts     = 3
	DefaultRetryDelay   = 5 * time.Second

	// maxPlaylistSize bounds the body read from a playlist server.
	maxPlaylistSize = 256 << 20
)

// Loader fetches and parses playlists.
type Loader struct {
	client     *http.Client
	attempts   int
	retryDelay time.Duration
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithAttempts sets how many times a URL fetch is tried. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(l *Loader) {
		if n >= 1 {
			l.attempts = n
		}
	}
}

// WithRetryDelay sets the wait between fetch attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Loader) {
		if d >= 0 {
			l.retryDelay = d
		}
	}
}

// WithUserAgent sets the User-Agent of playlist requests.
func WithUserAgent(ua string) Option {
	return func(l *Loader) {
		l.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader with a 30 second timeout and three attempts
// five seconds apart.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:     &http.Client{Timeout: DefaultFetchTimeout},
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the playlist at source, an http(s) URL or a file path, and parses it.
func (l *Loader) Load(ctx context.Context, source string) ([]*model.Entry, error) {
	r, err := l.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	return Parse(r)
}

// Open returns the playlist at source decoded to UTF-8.
func (l *Loader) Open(ctx context.Context, source string) (io.Reader, error) {
	if isURL(source) {
		return l.fetch(ctx, source)
	}

	data, err := os.ReadFile(source) //nolint:gosec // user-provided playlist path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return decode(data, "")
}

// fetch downloads a playlist, retrying failed attempts.
func (l *Loader) fetch(ctx context.Context, url string) (io.Reader, error) {
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		l.logger.Debug("fetching playlist", "url", url, "attempt", attempt, "max_attempts", l.attempts)

		body, contentType, err := l.get(ctx, url)
		if err == nil {
			return decode(body, contentType)
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == l.attempts {
			break
		}

		l.logger.Warn("playlist fetch failed, retrying",
			"url", url,
			"attempt", attempt,
			"retry_in", l.retryDelay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFetchFailed, l.attempts, lastErr)
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read playlist body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// decode converts data to UTF-8. A charset declared in the content type
// wins. Otherwise valid UTF-8 is used as is, and anything else is decoded
// with the encoding sniffed from the content.
func decode(data []byte, contentType string) (io.Reader, error) {
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		r, err := charset.NewReader(bytes.NewReader(data), contentType)
		if err != nil {
			return nil, fmt.Errorf("failed to decode playlist: %w", err)
		}
		return r, nil
	}
	if utf8.Valid(data) {
		return bytes.NewReader(data), nil
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	return transform.NewReader(bytes.NewReader(data), enc.NewDecoder()), nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
