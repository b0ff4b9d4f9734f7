package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when no playlist URL or file is configured.
	ErrNoSource = errors.New("no playlist source specified")

	// ErrInvalidConcurrency is returned when the global concurrency limit is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidPerHost is returned when the per-host concurrency limit is not positive.
	ErrInvalidPerHost = errors.New("invalid per-host concurrency: must be positive")

	// ErrInvalidTimeout is returned when the probe timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidProgressInterval is returned when the progress interval is not positive.
	ErrInvalidProgressInterval = errors.New("invalid progress interval: must be positive")

	// ErrInvalidMethod is returned for request methods other than HEAD and GET.
	ErrInvalidMethod = errors.New("invalid method: must be HEAD or GET")

	// ErrInvalidFormat is returned for an unknown export format.
	ErrInvalidFormat = errors.New("invalid export format")

	// ErrInvalidRate is returned when the probe start rate is negative.
	// Zero means unlimited.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidProxy is returned when the proxy is not a socks5:// URL with a host.
	ErrInvalidProxy = errors.New("invalid proxy: must be socks5://host:port")
)
