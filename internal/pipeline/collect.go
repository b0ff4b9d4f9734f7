package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/iptvscan/internal/model"
)

// result is what a probe goroutine hands to the collector.
type result struct {
	index  int
	status model.Status
}

// pass holds the state of one Run shared by probe goroutines and the collector.
// Probe goroutines only read entries[i].Link; the collector is the only writer.
type pass struct {
	*settings

	id      string
	entries []*model.Entry
	queue   *hostQueue
	results chan result
	done    chan struct{}
	start   time.Time
}

func (s *settings) newPass(entries []*model.Entry) *pass {
	return &pass{
		settings: s,
		id:       newRunID(),
		entries:  entries,
		queue:    newHostQueue(entries, s.perHost),
		results:  make(chan result, s.concurrency),
		done:     make(chan struct{}),
		start:    time.Now(),
	}
}

// collect consumes results until the channel is closed.
func (p *pass) collect() {
	defer close(p.done)

	total := len(p.entries)
	completed, available := 0, 0
	for r := range p.results {
		p.entries[r.index].Status = r.status
		completed++
		if r.status == model.StatusAvailable {
			available++
		}
		if completed%p.progressInterval == 0 || completed == total {
			p.observer.OnProgress(Progress{
				Completed: completed,
				Total:     total,
				Available: available,
				Elapsed:   time.Since(p.start),
			})
		}
	}
}

// probe runs the prober for entry i, which must have been handed out by
// p.queue.next, and frees its host slot afterwards.
func (p *pass) probe(ctx context.Context, i int) model.Status {
	defer p.queue.release(i)
	return p.prober.Probe(ctx, p.entries[i].Link)
}

// skipPending marks every entry not yet dispatched as timed out. It is used
// when ctx ends before the whole list was dispatched.
func (p *pass) skipPending() {
	for _, i := range p.queue.drain() {
		p.results <- result{index: i, status: model.StatusTimeout}
	}
}

// finish closes the result channel, waits for the collector and summarizes.
// A non-nil err marks the run as interrupted.
func (p *pass) finish(strategy string, err error) *model.BatchRun {
	close(p.results)
	<-p.done

	run := model.Summarize(p.entries, time.Since(p.start))
	run.ID = p.id
	run.Strategy = strategy
	run.Interrupted = err != nil

	if run.Interrupted {
		p.logger.Warn("probe pass interrupted, unfinished links are reported as timed out",
			"run", run.ID,
			"error", err,
		)
	}

	p.logger.Info("probe pass complete",
		"run", run.ID,
		"strategy", strategy,
		"total", run.Total,
		"available", run.Available(),
		"unavailable", run.Unavailable(),
		"manual", run.NeedsManualCheck(),
		"elapsed", run.Elapsed,
	)
	return run
}

// emptyRun is returned for empty input without starting any goroutine.
func emptyRun(strategy string) *model.BatchRun {
	run := model.Summarize(nil, 0)
	run.ID = newRunID()
	run.Strategy = strategy
	return run
}

// newRunID returns a time-ordered run identifier, or an empty string if the
// random source fails.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}
	return id.String()
}
