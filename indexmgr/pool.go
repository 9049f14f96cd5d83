package indexmgr

import (
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// pool is the fixed-size background worker pool that runs segment
// writes and merges off the caller's goroutine (spec.md §4.9, §5). Jobs
// are plain closures; failures are logged and stashed on the owning
// Manager's status rather than panicking the worker (spec.md §7:
// "background jobs must not panic").
type pool struct {
	jobs    chan func()
	wg      sync.WaitGroup // outstanding submitted jobs, for commit/force_merge to drain
	workers sync.WaitGroup // the worker goroutines themselves, for Close
	pending atomic.Int64   // queued + running jobs, for add_doc backpressure
	logger  *zap.Logger
}

func newPool(size int, logger *zap.Logger) *pool {
	p := &pool{jobs: make(chan func(), 4096), logger: logger}
	for i := 0; i < size; i++ {
		p.workers.Add(1)
		go p.run()
	}
	return p
}

func (p *pool) run() {
	defer p.workers.Done()
	for job := range p.jobs {
		job()
	}
}

// waitForCapacity busy-waits, sleeping 100ms between checks, until the
// pool's queued+running depth is at or below max (spec.md §5, §9).
func (p *pool) waitForCapacity(max int64) {
	for p.pending.Load() > max {
		time.Sleep(100 * time.Millisecond)
	}
}

// submit enqueues fn, tracking it in both the drain WaitGroup (for
// commit/force_merge) and the pending counter (for backpressure).
// Errors are logged; they never propagate synchronously to the
// submitter, matching the background-job contract in spec.md §7.
func (p *pool) submit(fn func() error, onError func(error)) {
	p.pending.Inc()
	p.wg.Add(1)
	p.jobs <- func() {
		defer p.wg.Done()
		defer p.pending.Dec()
		if err := fn(); err != nil {
			p.logger.Error("indexmgr: background job failed", zap.Error(err))
			if onError != nil {
				onError(err)
			}
		}
	}
}

// drain blocks until every job submitted so far has completed.
func (p *pool) drain() {
	p.wg.Wait()
}

// close stops accepting new jobs and waits for the worker goroutines to
// exit. Already-queued jobs still run to completion first.
func (p *pool) close() {
	close(p.jobs)
	p.workers.Wait()
}
