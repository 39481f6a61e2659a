package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
)

// Job is one unit of work executed on the pool
type Job func(ctx context.Context) error

// Pool runs jobs across a bounded set of goroutines. Job errors are
// collected, not fatal; a failed job never stops its siblings.
type Pool struct {
	queue   chan Job
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.Mutex
	errs []error

	logger arbor.ILogger
}

// NewPool creates a pool with the given worker count
func NewPool(workers int, logger arbor.ILogger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:   make(chan Job),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Start launches the workers. Submit blocks until a worker is free, which
// keeps memory bounded when jobs render large page ranges.
func (p *Pool) Start() {
	p.logger.Debug().
		Int("workers", p.workers).
		Msg("Worker pool starting")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Submit hands a job to the pool, blocking until a worker accepts it
func (p *Pool) Submit(job Job) error {
	select {
	case p.queue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Wait closes the queue and blocks until in-flight jobs finish
func (p *Pool) Wait() {
	close(p.queue)
	p.wg.Wait()
}

// Shutdown cancels in-flight jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.logger.Debug().Msg("Worker pool stopped")
}

// Errors returns the errors collected so far
func (p *Pool) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			if err := job(p.ctx); err != nil {
				p.mu.Lock()
				p.errs = append(p.errs, err)
				p.mu.Unlock()

				p.logger.Warn().
					Err(err).
					Int("worker", id).
					Msg("Job failed")
			}
		}
	}
}
