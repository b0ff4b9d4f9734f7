package model

import (
	"math"
	"time"
)

// BatchRun is the aggregate of one probe pass over an entry list.
// It is recomputed on every pass and never persisted across passes.
type BatchRun struct {
	// ID identifies the pass. Controllers assign a time-ordered UUID.
	ID string `json:"id,omitempty"`

	// Total is the number of entries in the pass.
	Total int `json:"total"`

	// Counts holds the number of entries per status.
	// Every status in AllStatuses has a key, zero counts included.
	Counts map[Status]int `json:"counts"`

	// Elapsed is the wall time of the pass.
	Elapsed time.Duration `json:"elapsed"`

	// Strategy names the execution strategy that ran the pass ("stream" or "pool").
	// Empty when the run was summarized outside a controller.
	Strategy string `json:"strategy,omitempty"`

	// Interrupted is set when the pass was cancelled before every entry was
	// probed. Entries cut short by the cancellation count as Timeout.
	Interrupted bool `json:"interrupted,omitempty"`
}

// Summarize tallies entry statuses into a BatchRun.
// It does not modify the entries.
func Summarize(entries []*Entry, elapsed time.Duration) *BatchRun {
	run := &BatchRun{
		Total:   len(entries),
		Counts:  make(map[Status]int, len(statusNames)),
		Elapsed: elapsed,
	}
	for _, s := range AllStatuses() {
		run.Counts[s] = 0
	}
	for _, e := range entries {
		run.Counts[e.Status]++
	}
	return run
}

// Count returns the number of entries with status s.
func (r *BatchRun) Count(s Status) int {
	return r.Counts[s]
}

// Available returns the number of available entries.
func (r *BatchRun) Available() int {
	return r.Counts[StatusAvailable]
}

// Unavailable returns the size of the "unavailable" display group:
// Unavailable, Timeout, ConnectionFailed and Error combined.
func (r *BatchRun) Unavailable() int {
	return r.Counts[StatusUnavailable] +
		r.Counts[StatusTimeout] +
		r.Counts[StatusConnectionFailed] +
		r.Counts[StatusError]
}

// NeedsManualCheck returns the number of entries whose scheme cannot be probed.
func (r *BatchRun) NeedsManualCheck() int {
	return r.Counts[StatusNeedsManualCheck]
}

// Residual returns the number of entries that are in none of the other groups,
// which after a complete pass is always zero.
func (r *BatchRun) Residual() int {
	return r.Total - r.Available() - r.Unavailable() - r.NeedsManualCheck()
}

// Percent returns count/total*100 rounded to one decimal place.
// It returns 0 when the run is empty.
func (r *BatchRun) Percent(count int) float64 {
	if r.Total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(r.Total)*1000) / 10
}

// Throughput returns entries probed per second, or 0 for an empty or instant run.
func (r *BatchRun) Throughput() float64 {
	if r.Total == 0 || r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Total) / r.Elapsed.Seconds()
}
