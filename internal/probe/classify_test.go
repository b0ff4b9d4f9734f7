package probe

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/nao1215/iptvscan/internal/model"
)

// timeoutError is a net.Error that reports a timeout.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func wrapURL(err error) error {
	return &url.Error{Op: "Head", URL: "http://example.com/live", Err: err}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want model.Status
	}{
		{
			name: "deadline exceeded",
			err:  wrapURL(context.DeadlineExceeded),
			want: model.StatusTimeout,
		},
		{
			name: "cancelled",
			err:  wrapURL(context.Canceled),
			want: model.StatusTimeout,
		},
		{
			name: "net timeout",
			err:  wrapURL(&net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}),
			want: model.StatusTimeout,
		},
		{
			name: "connection refused",
			err: wrapURL(&net.OpError{
				Op:  "dial",
				Net: "tcp",
				Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
			}),
			want: model.StatusConnectionFailed,
		},
		{
			name: "connection reset",
			err:  wrapURL(fmt.Errorf("read: %w", syscall.ECONNRESET)),
			want: model.StatusConnectionFailed,
		},
		{
			name: "dns failure",
			err: wrapURL(&net.OpError{
				Op:  "dial",
				Net: "tcp",
				Err: &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true},
			}),
			want: model.StatusConnectionFailed,
		},
		{
			name: "server closed connection",
			err:  wrapURL(io.EOF),
			want: model.StatusConnectionFailed,
		},
		{
			name: "unknown certificate authority",
			err:  wrapURL(x509.UnknownAuthorityError{}),
			want: model.StatusError,
		},
		{
			name: "malformed response",
			err:  wrapURL(errors.New(`net/http: malformed HTTP response "garbage"`)),
			want: model.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
