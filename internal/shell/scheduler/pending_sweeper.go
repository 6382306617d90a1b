package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
)

const InterruptedMessage = "Export interrupted before completion"

// JobStore is the part of the export job store the sweeper needs
type JobStore interface {
	FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error)
	TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error
	CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error)
}

// Queue is the worker intake
type Queue interface {
	Enqueue(referenceID string) error
	Len() int
}

// PendingSweeper re-queues PENDING jobs that are not waiting in the worker
// queue: jobs left by a previous process or refused by a full queue.
type PendingSweeper struct {
	store    JobStore
	queue    Queue
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
}

func NewPendingSweeper(store JobStore, queue Queue, schedule string) *PendingSweeper {
	return &PendingSweeper{
		store:    store,
		queue:    queue,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start fails jobs a previous process left PROCESSING, sweeps once, then
// sweeps on the configured schedule until ctx is done.
func (s *PendingSweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			log.Warnf("Pending export sweep failed: %v", err)
		}
		s.RecordStatusCounts(ctx)
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if n, err := s.RecoverInterrupted(ctx); err != nil {
		log.Warnf("Failed to recover interrupted exports: %v", err)
	} else if n > 0 {
		log.Infof("Marked %d interrupted exports as failed", n)
	}

	if _, err := s.Sweep(ctx); err != nil {
		log.Warnf("Initial pending export sweep failed: %v", err)
	}
	s.RecordStatusCounts(ctx)

	log.Infof("Starting pending export sweeper (%s)", s.schedule)
	s.cron.Start()
	return nil
}

func (s *PendingSweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Infof("Pending export sweeper stopped")
}

// Sweep queues PENDING jobs oldest first. It does nothing while the queue
// still holds ids, and stops early when the queue fills up.
func (s *PendingSweeper) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() > 0 {
		log.Debugf("PendingSweeper.Sweep - queue not drained, skipping")
		return 0, nil
	}

	pending, err := s.store.FindByStatus(ctx, domain.StatusPending)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(job.ReferenceID); err != nil {
			if errors.Is(err, domain.ErrQueueFull) {
				log.Debugf("PendingSweeper.Sweep - queue full after %d of %d jobs", queued, len(pending))
				break
			}
			return queued, err
		}
		queued++
	}

	if queued > 0 {
		log.Infof("Re-queued %d pending exports", queued)
	}
	return queued, nil
}

// RecoverInterrupted fails every PROCESSING job. Only call it before the
// worker pool starts, when no job of this process can be PROCESSING.
func (s *PendingSweeper) RecoverInterrupted(ctx context.Context) (int, error) {
	processing, err := s.store.FindByStatus(ctx, domain.StatusProcessing)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, job := range processing {
		err := s.store.TransitionStatus(ctx, domain.StatusProcessing, job.WithFailed(InterruptedMessage))
		if errors.Is(err, domain.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

var trackedStatuses = []domain.ExportStatus{
	domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed,
}

// RecordStatusCounts refreshes the per-status job gauge from the store.
func (s *PendingSweeper) RecordStatusCounts(ctx context.Context) {
	for _, status := range trackedStatuses {
		count, err := s.store.CountByStatus(ctx, status)
		if err != nil {
			log.Debugf("PendingSweeper.RecordStatusCounts - %s: %v", status, err)
			continue
		}
		JobsByStatus.WithLabelValues(string(status)).Set(float64(count))
	}
}
