package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/iptvscan/internal/model"
)

func TestNewTransport(t *testing.T) {
	t.Parallel()

	t.Run("applies pool settings", func(t *testing.T) {
		t.Parallel()

		tr, err := NewTransport(WithPerHost(7), WithMaxIdleConns(50))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.MaxConnsPerHost != 7 {
			t.Errorf("expected MaxConnsPerHost 7, got %d", tr.MaxConnsPerHost)
		}
		if tr.MaxIdleConns != 50 {
			t.Errorf("expected MaxIdleConns 50, got %d", tr.MaxIdleConns)
		}
		if tr.MaxIdleConnsPerHost != 7 {
			t.Errorf("expected MaxIdleConnsPerHost 7, got %d", tr.MaxIdleConnsPerHost)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		tr, err := NewTransport(WithPerHost(0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr.MaxConnsPerHost != DefaultPerHost {
			t.Errorf("expected default per host, got %d", tr.MaxConnsPerHost)
		}
	})

	t.Run("accepts socks5 proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := NewTransport(WithProxy("socks5://127.0.0.1:9050")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects http proxy", func(t *testing.T) {
		t.Parallel()

		_, err := NewTransport(WithProxy("http://127.0.0.1:8080"))
		if !errors.Is(err, ErrUnsupportedProxy) {
			t.Errorf("expected ErrUnsupportedProxy, got %v", err)
		}
	})
}

func TestParseProxyURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		wantErr bool
	}{
		{raw: "socks5://127.0.0.1:9050"},
		{raw: "socks5h://proxy.example.com:1080"},
		{raw: "SOCKS5://127.0.0.1:9050"},
		{raw: "socks5://127.0.0.1", wantErr: true},
		{raw: "https://proxy.example.com:443", wantErr: true},
		{raw: "::not a url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			_, err := ParseProxyURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseProxyURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestTransportResolvesThroughCache(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	_, port, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}

	r := &fakeResolver{hosts: map[string][]string{"stream.test": {"127.0.0.1"}}}
	tr, err := NewTransport(withResolver(r), WithDNSTTL(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(tr.CloseIdleConnections)

	p := NewHTTPProber(WithTransport(tr), WithTimeout(time.Second))
	link := "http://stream.test:" + port + "/live.m3u8"
	for range 3 {
		if got := p.Probe(context.Background(), link); got != model.StatusAvailable {
			t.Fatalf("Probe(%q) = %v, want Available", link, got)
		}
	}
	if got := r.calls.Load(); got > 1 {
		t.Errorf("expected at most one lookup, got %d", got)
	}

	if got := p.Probe(context.Background(), "http://unknown.test:"+port+"/"); got != model.StatusConnectionFailed {
		t.Errorf("expected unresolvable host to be ConnectionFailed, got %v", got)
	}
}
