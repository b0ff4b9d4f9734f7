package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/iptvscan/internal/model"
	"github.com/nao1215/iptvscan/internal/probe"
)

// StreamScheduler starts one goroutine per entry. A weighted semaphore is
// acquired before each goroutine starts, so at most concurrency probes are in
// flight and the number of live goroutines stays bounded for lists of any size.
// Entries are started only once their host has a free slot, so a saturated
// host never holds global capacity.
type StreamScheduler struct {
	*settings
}

// NewStreamScheduler creates a stream scheduler, failing with
// ErrSchedulerUnavailable when the capability check cannot grant the full
// concurrency.
func NewStreamScheduler(prober probe.Prober, opts ...Option) (*StreamScheduler, error) {
	s, err := newSettings(prober, opts)
	if err != nil {
		return nil, err
	}
	return newStreamScheduler(s)
}

func newStreamScheduler(s *settings) (*StreamScheduler, error) {
	granted, err := s.capacity(s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchedulerUnavailable, err)
	}
	if granted < s.concurrency {
		return nil, fmt.Errorf("%w: capacity %d is below concurrency %d",
			ErrSchedulerUnavailable, granted, s.concurrency)
	}
	return &StreamScheduler{settings: s}, nil
}

// Strategy returns StrategyStream.
func (c *StreamScheduler) Strategy() string {
	return StrategyStream
}

// Run probes every entry. See Controller.
func (c *StreamScheduler) Run(ctx context.Context, entries []*model.Entry) (*model.BatchRun, error) {
	if len(entries) == 0 {
		return emptyRun(StrategyStream), nil
	}

	c.logger.Info("starting probe pass",
		"strategy", StrategyStream,
		"total", len(entries),
		"concurrency", c.concurrency,
		"per_host", c.perHost,
	)

	p := c.newPass(entries)
	go p.collect()

	global := semaphore.NewWeighted(int64(c.concurrency))
	limiter := c.limiter()

	var wg sync.WaitGroup
	var dispatchErr error
	for range entries {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				dispatchErr = err
				p.skipPending()
				break
			}
		}
		if err := global.Acquire(ctx, 1); err != nil {
			dispatchErr = err
			p.skipPending()
			break
		}
		// Waits only while every remaining host is saturated, so the
		// global slot held here is never parked behind one busy host.
		i, ok := p.queue.next(ctx)
		if !ok {
			global.Release(1)
			dispatchErr = ctx.Err()
			p.skipPending()
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			status := p.probe(ctx, i)
			global.Release(1)
			p.results <- result{index: i, status: status}
		}()
	}

	wg.Wait()
	if dispatchErr == nil {
		dispatchErr = ctx.Err()
	}
	run := p.finish(StrategyStream, dispatchErr)
	return run, dispatchErr
}
