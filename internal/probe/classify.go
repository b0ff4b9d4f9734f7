package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/nao1215/iptvscan/internal/model"
)

// Classify maps an error returned by an HTTP round trip onto a status.
//
// The checks run from most to least specific:
//  1. deadline exceeded, cancellation or any net.Error reporting Timeout() -> Timeout
//  2. TLS and certificate failures -> Error
//  3. DNS failures, dial/read/write failures, refused or reset connections
//     and servers closing the connection before answering -> ConnectionFailed
//  4. everything else, including malformed responses -> Error
func Classify(err error) model.Status {
	if err == nil {
		return model.StatusAvailable
	}

	if isTimeout(err) {
		return model.StatusTimeout
	}
	if isTLSFailure(err) {
		return model.StatusError
	}
	if isConnectionFailure(err) {
		return model.StatusConnectionFailed
	}
	return model.StatusError
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTLSFailure(err error) bool {
	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &recordErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

func isConnectionFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrNoAddress) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
