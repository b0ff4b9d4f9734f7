package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/nao1215/iptvscan/internal/model"
	"github.com/nao1215/iptvscan/internal/probe"
)

// Default controller settings.
const (
	// DefaultConcurrency is the maximum number of probes in flight.
	DefaultConcurrency = 200

	// DefaultPerHost is the maximum number of probes in flight against one host.
	DefaultPerHost = 100

	// DefaultProgressInterval is the number of completions between progress reports.
	DefaultProgressInterval = 200
)

// Strategy names reported in model.BatchRun.Strategy.
const (
	StrategyStream = "stream"
	StrategyPool   = "pool"
)

// Controller probes every entry of a list exactly once.
//
// Run writes one terminal status into every entry, in place and by index, and
// returns the statistics of the pass. Probe failures never abort a pass. Run
// returns a non-nil error only when ctx ends before the pass completes; the
// entries that were never probed are then marked Timeout and the statistics
// are still returned.
type Controller interface {
	Run(ctx context.Context, entries []*model.Entry) (*model.BatchRun, error)

	// Strategy returns StrategyStream or StrategyPool.
	Strategy() string
}

// CapacityFunc reports how many probes the process can keep in flight when
// requested are wanted. It may return less than requested. An error means no
// capacity could be determined at all.
type CapacityFunc func(requested int) (int, error)

// settings holds the configuration shared by both strategies.
type settings struct {
	prober           probe.Prober
	concurrency      int
	perHost          int
	progressInterval int
	rateLimit        float64
	observer         ProgressObserver
	logger           *slog.Logger
	capacity         CapacityFunc
}

// Option configures a Controller.
type Option func(*settings)

// WithConcurrency sets the global cap on probes in flight.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPerHost sets the cap on probes in flight against a single host.
// Non-positive values keep the default.
func WithPerHost(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.perHost = n
		}
	}
}

// WithProgressInterval sets how many completions pass between progress
// reports. A report is always sent for the final completion as well.
// Non-positive values keep the default.
func WithProgressInterval(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.progressInterval = n
		}
	}
}

// WithRate limits how many probes start per second. Zero means unlimited.
func WithRate(perSecond float64) Option {
	return func(s *settings) {
		if perSecond >= 0 {
			s.rateLimit = perSecond
		}
	}
}

// WithObserver sets the progress observer. Nil disables progress reports.
func WithObserver(o ProgressObserver) Option {
	return func(s *settings) {
		s.observer = o
	}
}

// WithLogger sets the logger used for batch-level messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithCapacity replaces the capability check used to pick a strategy.
// The default inspects the process file descriptor limit.
func WithCapacity(f CapacityFunc) Option {
	return func(s *settings) {
		if f != nil {
			s.capacity = f
		}
	}
}

func newSettings(prober probe.Prober, opts []Option) (*settings, error) {
	if prober == nil {
		return nil, ErrNilProber
	}

	s := &settings{
		prober:           prober,
		concurrency:      DefaultConcurrency,
		perHost:          DefaultPerHost,
		progressInterval: DefaultProgressInterval,
		capacity:         DescriptorCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// New returns the best available Controller.
//
// The stream scheduler is tried first. If it cannot be initialized the worker
// pool is tried once. If that fails too, New returns an error wrapping
// ErrNoController together with both causes.
func New(prober probe.Prober, opts ...Option) (Controller, error) {
	s, err := newSettings(prober, opts)
	if err != nil {
		return nil, err
	}

	stream, streamErr := newStreamScheduler(s)
	if streamErr == nil {
		return stream, nil
	}

	s.logger.Warn("stream scheduler unavailable, falling back to worker pool",
		"concurrency", s.concurrency,
		"error", streamErr,
	)

	pool, poolErr := newWorkerPool(s)
	if poolErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoController, errors.Join(streamErr, poolErr))
	}
	return pool, nil
}

// limiter returns a start-rate limiter, or nil when the rate is unlimited.
func (s *settings) limiter() *rate.Limiter {
	if s.rateLimit <= 0 {
		return nil
	}
	burst := int(s.rateLimit)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.rateLimit), burst)
}
