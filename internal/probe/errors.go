package probe

import "errors"

var (
	// ErrUnsupportedProxy is returned when the proxy URL scheme is not socks5 or socks5h.
	ErrUnsupportedProxy = errors.New("unsupported proxy scheme: expected socks5 or socks5h")

	// ErrNoAddress is returned by the caching dialer when a host resolves to no addresses.
	ErrNoAddress = errors.New("host resolved to no addresses")
)
