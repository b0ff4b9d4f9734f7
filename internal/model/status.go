package model

import (
	"fmt"
	"strings"
)

// Status represents the outcome of probing one stream link.
//
// The zero value is StatusUntested so that freshly created entries are
// untested without explicit initialization.
type Status int

const (
	// StatusUntested is the initial status of every entry.
	// It is never a terminal status of a probe pass.
	StatusUntested Status = iota

	// StatusAvailable indicates the endpoint answered with a status code below 400.
	StatusAvailable

	// StatusUnavailable indicates the endpoint answered with a status code of 400 or above.
	StatusUnavailable

	// StatusTimeout indicates the probe exceeded its deadline.
	StatusTimeout

	// StatusConnectionFailed indicates a transport-level failure:
	// connection refused or reset, DNS failure, unreachable network.
	StatusConnectionFailed

	// StatusError indicates any other failure during the probe,
	// including malformed responses and TLS handshake failures.
	StatusError

	// StatusNeedsManualCheck indicates the link uses a scheme (rtmp, udp, rtsp, ...)
	// that cannot be checked with HTTP semantics. It is not an error.
	StatusNeedsManualCheck
)

// statusNames holds the stable machine names used in JSON and SQLite output.
var statusNames = map[Status]string{
	StatusUntested:         "untested",
	StatusAvailable:        "available",
	StatusUnavailable:      "unavailable",
	StatusTimeout:          "timeout",
	StatusConnectionFailed: "connection_failed",
	StatusError:            "error",
	StatusNeedsManualCheck: "needs_manual_check",
}

// statusLabels holds the human-readable labels used by text exporters.
var statusLabels = map[Status]string{
	StatusUntested:         "Untested",
	StatusAvailable:        "Available",
	StatusUnavailable:      "Unavailable",
	StatusTimeout:          "Timed out",
	StatusConnectionFailed: "Connection failed",
	StatusError:            "Error",
	StatusNeedsManualCheck: "Needs manual check",
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []Status {
	return []Status{
		StatusUntested,
		StatusAvailable,
		StatusUnavailable,
		StatusTimeout,
		StatusConnectionFailed,
		StatusError,
		StatusNeedsManualCheck,
	}
}

// String returns the human-readable label of the status.
func (s Status) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// Name returns the stable machine name of the status.
func (s Status) Name() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether s is a valid outcome of a probe.
func (s Status) IsTerminal() bool {
	_, ok := statusNames[s]
	return ok && s != StatusUntested
}

// IsUnavailable reports whether s belongs to the "unavailable" display group:
// Unavailable, Timeout, ConnectionFailed and Error.
func (s Status) IsUnavailable() bool {
	switch s {
	case StatusUnavailable, StatusTimeout, StatusConnectionFailed, StatusError:
		return true
	default:
		return false
	}
}

// MarshalText encodes the status as its machine name.
func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.Name()), nil
}

// UnmarshalText decodes a machine name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a machine name into a Status.
// Matching is case-insensitive and accepts '-' in place of '_'.
func ParseStatus(name string) (Status, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for status, n := range statusNames {
		if n == normalized {
			return status, nil
		}
	}
	return StatusUntested, fmt.Errorf("%w: %q", ErrUnknownStatus, name)
}
