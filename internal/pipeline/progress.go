package pipeline

import (
	"log/slog"
	"time"
)

// Progress is a snapshot of a running pass.
type Progress struct {
	// Completed is the number of entries with a terminal status so far.
	Completed int

	// Total is the number of entries in the pass.
	Total int

	// Available is the running count of available entries.
	Available int

	// Elapsed is the time since the pass started.
	Elapsed time.Duration
}

// Throughput returns completions per second so far.
func (p Progress) Throughput() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Completed) / p.Elapsed.Seconds()
}

// Done reports whether every entry has completed.
func (p Progress) Done() bool {
	return p.Completed == p.Total
}

// ProgressObserver receives periodic progress reports.
// OnProgress is always called from the single collector goroutine of a pass,
// so implementations need no locking for state they own.
type ProgressObserver interface {
	OnProgress(p Progress)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(p Progress)

// OnProgress calls f(p).
func (f ProgressFunc) OnProgress(p Progress) {
	f(p)
}

// NopObserver discards progress reports.
type NopObserver struct{}

// OnProgress does nothing.
func (NopObserver) OnProgress(Progress) {}

// LogObserver writes progress reports to a structured logger at Info level.
type LogObserver struct {
	Logger *slog.Logger
}

// OnProgress logs p.
func (o LogObserver) OnProgress(p Progress) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("probe progress",
		"completed", p.Completed,
		"total", p.Total,
		"available", p.Available,
		"elapsed", p.Elapsed.Round(time.Millisecond),
		"per_second", p.Throughput(),
	)
}

// MultiObserver fans a report out to several observers in order.
type MultiObserver []ProgressObserver

// OnProgress forwards p to every observer.
func (m MultiObserver) OnProgress(p Progress) {
	for _, o := range m {
		if o != nil {
			o.OnProgress(p)
		}
	}
}
