package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/iptvscan/internal/model"
)

// countingTransport records how many requests reach the network layer.
type countingTransport struct {
	calls atomic.Int32
	base  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return t.base.RoundTrip(req)
}

// newStubServer serves /200, /404, /redirect and /slow.
func newStubServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/200", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/404", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "/404", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/headers", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodHead && r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Header.Get("X-Token") != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/get-only", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte("#EXTM3U\n")) //nolint:errcheck // test server
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPProberProbe(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newStubServer(t, &hits)

	tests := []struct {
		name string
		path string
		want model.Status
	}{
		{name: "200 is available", path: "/200", want: model.StatusAvailable},
		{name: "404 is unavailable", path: "/404", want: model.StatusUnavailable},
		{name: "redirect is not followed", path: "/redirect", want: model.StatusAvailable},
		{name: "slow response times out", path: "/slow", want: model.StatusTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewHTTPProber(WithTimeout(100 * time.Millisecond))
			if got := p.Probe(context.Background(), server.URL+tt.path); got != tt.want {
				t.Errorf("Probe(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPProberNonHTTPSchemes(t *testing.T) {
	t.Parallel()

	counter := &countingTransport{base: http.DefaultTransport}
	p := NewHTTPProber(WithTransport(counter))

	for _, link := range []string{
		"ftp://x",
		"rtmp://live.example.com/app/stream",
		"udp://@239.1.1.1:1234",
		"rtsp://camera.example.com/stream",
		"mms://media.example.com/live",
	} {
		if got := p.Probe(context.Background(), link); got != model.StatusNeedsManualCheck {
			t.Errorf("Probe(%q) = %v, want NeedsManualCheck", link, got)
		}
	}

	if calls := counter.calls.Load(); calls != 0 {
		t.Errorf("expected no network calls, got %d", calls)
	}
}

func TestHTTPProberSchemeIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newStubServer(t, &hits)

	p := NewHTTPProber()
	link := "HTTP" + server.URL[len("http"):] + "/200"
	if got := p.Probe(context.Background(), link); got != model.StatusAvailable {
		t.Errorf("Probe(%q) = %v, want Available", link, got)
	}
}

func TestHTTPProberRedirectTargetNotRequested(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newStubServer(t, &hits)

	p := NewHTTPProber()
	_ = p.Probe(context.Background(), server.URL+"/redirect")

	if got := hits.Load(); got != 1 {
		t.Errorf("expected exactly one request, got %d", got)
	}
}

func TestHTTPProberHeadersAndMethod(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newStubServer(t, &hits)

	t.Run("sends user agent and extra headers", func(t *testing.T) {
		t.Parallel()

		p := NewHTTPProber(WithHeaders(map[string]string{"X-Token": "abc"}))
		if got := p.Probe(context.Background(), server.URL+"/headers"); got != model.StatusAvailable {
			t.Errorf("got %v, want Available", got)
		}
	})

	t.Run("HEAD against GET-only endpoint is unavailable", func(t *testing.T) {
		t.Parallel()

		p := NewHTTPProber()
		if got := p.Probe(context.Background(), server.URL+"/get-only"); got != model.StatusUnavailable {
			t.Errorf("got %v, want Unavailable", got)
		}
	})

	t.Run("GET mode reaches GET-only endpoint", func(t *testing.T) {
		t.Parallel()

		p := NewHTTPProber(WithMethod("get"))
		if got := p.Probe(context.Background(), server.URL+"/get-only"); got != model.StatusAvailable {
			t.Errorf("got %v, want Available", got)
		}
	})

	t.Run("unknown method keeps HEAD", func(t *testing.T) {
		t.Parallel()

		p := NewHTTPProber(WithMethod("PATCH"))
		if p.method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", p.method)
		}
	})
}

func TestHTTPProberConnectionRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("failed to close listener: %v", err)
	}

	p := NewHTTPProber(WithTimeout(time.Second))
	if got := p.Probe(context.Background(), "http://"+addr+"/live.m3u8"); got != model.StatusConnectionFailed {
		t.Errorf("got %v, want ConnectionFailed", got)
	}
}

func TestHTTPProberMalformedLink(t *testing.T) {
	t.Parallel()

	p := NewHTTPProber()
	if got := p.Probe(context.Background(), "http://[::1"); got != model.StatusError {
		t.Errorf("got %v, want Error", got)
	}
}

func TestHTTPProberTimeoutBound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newStubServer(t, &hits)

	timeout := 100 * time.Millisecond
	p := NewHTTPProber(WithTimeout(timeout))

	start := time.Now()
	_ = p.Probe(context.Background(), server.URL+"/slow")
	if elapsed := time.Since(start); elapsed > timeout+500*time.Millisecond {
		t.Errorf("probe took %v, expected at most about %v", elapsed, timeout)
	}
}

func TestIsHTTPLinkAndHostOf(t *testing.T) {
	t.Parallel()

	if !IsHTTPLink("https://example.com/a.m3u8") {
		t.Error("expected https link to be HTTP")
	}
	if IsHTTPLink("rtmp://example.com/a") {
		t.Error("expected rtmp link not to be HTTP")
	}
	if got := HostOf("http://CDN.Example.com:8080/live"); got != "cdn.example.com" {
		t.Errorf("HostOf = %q", got)
	}
	if got := HostOf("http://[::1"); got != "" {
		t.Errorf("expected empty host for malformed link, got %q", got)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]model.Status{
		200: model.StatusAvailable,
		204: model.StatusAvailable,
		302: model.StatusAvailable,
		399: model.StatusAvailable,
		400: model.StatusUnavailable,
		403: model.StatusUnavailable,
		503: model.StatusUnavailable,
	} {
		if got := ClassifyStatusCode(code); got != want {
			t.Errorf("ClassifyStatusCode(%d) = %v, want %v", code, got, want)
		}
	}
}
