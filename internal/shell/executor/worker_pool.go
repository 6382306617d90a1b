package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
)

var ErrPoolStopped = errors.New("worker pool is stopped")

// JobRunner runs one queued export
type JobRunner interface {
	Execute(ctx context.Context, referenceID string) error
}

// WorkerPool runs queued exports on a fixed number of goroutines.
// The queue is a bounded FIFO channel of reference ids.
type WorkerPool struct {
	runner  JobRunner
	workers int
	queue   chan string

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool
	cancel  context.CancelFunc
}

func NewWorkerPool(runner JobRunner, workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &WorkerPool{
		runner:  runner,
		workers: workers,
		queue:   make(chan string, queueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (p *WorkerPool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	log.Infof("Starting export worker pool with %d workers (queue size %d)", p.workers, cap(p.queue))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx, i)
	}
}

// Enqueue never blocks; it returns domain.ErrQueueFull when the queue is at capacity.
func (p *WorkerPool) Enqueue(referenceID string) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}

	select {
	case p.queue <- referenceID:
		QueueDepth.Inc()
		log.Debugf("WorkerPool.Enqueue - queued export %s", referenceID)
		return nil
	default:
		QueueRejectionsTotal.Inc()
		return domain.ErrQueueFull
	}
}

// Stop stops intake and waits for running jobs to finish. If ctx expires
// first, running jobs are cancelled and ctx.Err() is returned. Ids still
// queued stay PENDING in the store.
func (p *WorkerPool) Stop(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Infof("Export worker pool stopped")
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		<-done
		return ctx.Err()
	}
}

// Len is the number of ids waiting for a worker.
func (p *WorkerPool) Len() int {
	return len(p.queue)
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case referenceID := <-p.queue:
			QueueDepth.Dec()
			p.run(ctx, id, referenceID)
		}
	}
}

// run isolates one job so neither an error nor a panic stops the worker.
func (p *WorkerPool) run(ctx context.Context, workerID int, referenceID string) {
	logger := log.WithFields(log.Fields{"worker": workerID, "reference_id": referenceID})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Export worker recovered from panic: %v", r)
		}
	}()

	if err := p.runner.Execute(ctx, referenceID); err != nil {
		logger.Errorf("Export worker error: %v", err)
	}
}
