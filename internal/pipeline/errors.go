package pipeline

import "errors"

var (
	// ErrNoController is returned by New when neither the stream scheduler
	// nor the worker pool can be initialized. It is the only batch-level
	// failure; per-entry problems are always reported as statuses.
	ErrNoController = errors.New("no concurrency controller available")

	// ErrSchedulerUnavailable is returned when the stream scheduler cannot
	// get enough capacity for the configured concurrency.
	ErrSchedulerUnavailable = errors.New("stream scheduler unavailable")

	// ErrPoolUnavailable is returned when the worker pool cannot start a single worker.
	ErrPoolUnavailable = errors.New("worker pool unavailable")

	// ErrNilProber is returned when a controller is created without a prober.
	ErrNilProber = errors.New("prober must not be nil")
)
