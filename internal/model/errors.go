package model

import "errors"

// ErrUnknownStatus is returned by ParseStatus for names that do not map to a Status.
var ErrUnknownStatus = errors.New("unknown status")
