package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/iptvscan/internal/model"
	"github.com/nao1215/iptvscan/internal/probe"
)

// WorkerPool runs a fixed set of workers. Each worker takes an entry index
// from a channel and runs one blocking probe at a time. The dispatcher only
// hands out entries whose host has a free slot, so workers never sit idle
// waiting on a saturated host.
type WorkerPool struct {
	*settings

	// workers is the pool size: the configured concurrency, reduced to the
	// capacity the process could grant.
	workers int
}

// NewWorkerPool creates a worker pool. It fails with ErrPoolUnavailable when
// the capability check cannot grant a single worker.
func NewWorkerPool(prober probe.Prober, opts ...Option) (*WorkerPool, error) {
	s, err := newSettings(prober, opts)
	if err != nil {
		return nil, err
	}
	return newWorkerPool(s)
}

func newWorkerPool(s *settings) (*WorkerPool, error) {
	granted, err := s.capacity(s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
	}
	if granted < 1 {
		return nil, fmt.Errorf("%w: no capacity for a single worker", ErrPoolUnavailable)
	}

	workers := s.concurrency
	if granted < workers {
		s.logger.Warn("worker pool reduced to available capacity",
			"requested", s.concurrency,
			"workers", granted,
		)
		workers = granted
	}
	return &WorkerPool{settings: s, workers: workers}, nil
}

// Strategy returns StrategyPool.
func (c *WorkerPool) Strategy() string {
	return StrategyPool
}

// Workers returns the pool size.
func (c *WorkerPool) Workers() int {
	return c.workers
}

// Run probes every entry. See Controller.
func (c *WorkerPool) Run(ctx context.Context, entries []*model.Entry) (*model.BatchRun, error) {
	if len(entries) == 0 {
		return emptyRun(StrategyPool), nil
	}

	workers := c.workers
	if workers > len(entries) {
		workers = len(entries)
	}

	c.logger.Info("starting probe pass",
		"strategy", StrategyPool,
		"total", len(entries),
		"workers", workers,
		"per_host", c.perHost,
	)

	p := c.newPass(entries)
	go p.collect()

	jobs := make(chan int)

	// Workers never fail; errgroup is used for its lifecycle handling only.
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for i := range jobs {
				p.results <- result{index: i, status: p.probe(ctx, i)}
			}
			return nil
		})
	}

	limiter := c.limiter()
	var dispatchErr error
dispatch:
	for range entries {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				dispatchErr = err
				p.skipPending()
				break
			}
		}
		i, ok := p.queue.next(ctx)
		if !ok {
			dispatchErr = ctx.Err()
			p.skipPending()
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			p.queue.release(i)
			p.results <- result{index: i, status: model.StatusTimeout}
			dispatchErr = ctx.Err()
			p.skipPending()
			break dispatch
		}
	}
	close(jobs)

	_ = g.Wait() //nolint:errcheck // workers always return nil
	if dispatchErr == nil {
		dispatchErr = ctx.Err()
	}
	run := p.finish(StrategyPool, dispatchErr)
	return run, dispatchErr
}
