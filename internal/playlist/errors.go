package playlist

import "errors"

var (
	// ErrUnexpectedStatus is returned when the playlist server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrFetchFailed is returned when every fetch attempt failed.
	ErrFetchFailed = errors.New("failed to fetch playlist")
)
