package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
	"employee-export/internal/core/usecases"
)

// outcomeRetryDelay is the pause before the one retry of a failed outcome write.
var outcomeRetryDelay = 500 * time.Millisecond

// ExportJobExecutor drives one export job from PENDING to a terminal status
type ExportJobExecutor struct {
	repo     usecases.ExportJobRepository
	filter   *usecases.RecordFilter
	encoders usecases.EncoderRegistry
	notifier ExportCompletionNotifier
}

func NewExportJobExecutor(repo usecases.ExportJobRepository, filter *usecases.RecordFilter, encoders usecases.EncoderRegistry, notifier ExportCompletionNotifier) *ExportJobExecutor {
	if notifier == nil {
		notifier = NewNullExportCompletionNotifier()
	}
	return &ExportJobExecutor{
		repo:     repo,
		filter:   filter,
		encoders: encoders,
		notifier: notifier,
	}
}

// Execute claims the job with a compare-and-set on PENDING and runs it.
// Jobs that are no longer PENDING are skipped. Failures while producing
// the export are recorded on the job, not returned; the returned error
// only reports store problems.
func (e *ExportJobExecutor) Execute(ctx context.Context, referenceID string) error {
	logger := log.WithField("reference_id", referenceID)

	job, err := e.repo.FindByReferenceID(ctx, referenceID)
	if err != nil {
		return fmt.Errorf("failed to load export %s: %w", referenceID, err)
	}

	if job.Status != domain.StatusPending {
		logger.Debugf("ExportJobExecutor.Execute - skipping export in %s status", job.Status)
		return nil
	}

	processing := job.WithProcessing()
	if err := e.repo.TransitionStatus(ctx, domain.StatusPending, processing); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			logger.Debugf("ExportJobExecutor.Execute - export left PENDING before it could be claimed")
			return nil
		}
		return fmt.Errorf("failed to mark export %s processing: %w", referenceID, err)
	}
	logger.Infof("Processing export")

	JobsCurrentlyRunning.Inc()
	defer JobsCurrentlyRunning.Dec()

	start := time.Now()
	final := e.produce(ctx, processing)

	if err := e.recordOutcome(ctx, final); err != nil {
		logger.WithField("status", final.Status).Errorf("Export outcome was not recorded; it stays PROCESSING until start-up recovery: %v", err)
		return fmt.Errorf("failed to record outcome of export %s: %w", referenceID, err)
	}

	status := strings.ToLower(string(final.Status))
	JobDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	JobsFinishedTotal.WithLabelValues(status).Inc()

	if final.Status == domain.StatusFailed {
		logger.Warnf("Export failed: %s", final.ErrorMessage)
	} else {
		logger.Infof("Export completed with %d records (%d bytes)", totalRecords(final), final.FileSize)
	}

	e.notify(ctx, final)
	return nil
}

// recordOutcome writes the terminal status, retrying once on a store error.
// The outcome is recorded even if ctx was cancelled mid-job.
func (e *ExportJobExecutor) recordOutcome(ctx context.Context, final domain.ExportJob) error {
	ctx = context.WithoutCancel(ctx)
	err := e.repo.TransitionStatus(ctx, domain.StatusProcessing, final)
	if err == nil || errors.Is(err, domain.ErrStatusConflict) || errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}

	log.WithField("reference_id", final.ReferenceID).Warnf("Retrying outcome write: %v", err)
	time.Sleep(outcomeRetryDelay)
	return e.repo.TransitionStatus(ctx, domain.StatusProcessing, final)
}

// produce returns the job in its terminal state. A panic anywhere in the
// pipeline fails the job instead of escaping.
func (e *ExportJobExecutor) produce(ctx context.Context, job domain.ExportJob) (final domain.ExportJob) {
	current := job
	defer func() {
		if r := recover(); r != nil {
			final = current.WithFailed(fmt.Sprintf("internal error: %v", r))
		}
	}()

	completed, err := e.run(ctx, &current)
	if err != nil {
		return current.WithFailed(err.Error())
	}
	return completed
}

// run updates *job as it progresses so a failure keeps what was learned.
func (e *ExportJobExecutor) run(ctx context.Context, job *domain.ExportJob) (domain.ExportJob, error) {
	params, err := job.DecodeParameters()
	if err != nil {
		return domain.ExportJob{}, err
	}

	records, err := e.filter.Apply(ctx, params)
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("failed to select records: %w", err)
	}

	*job = job.WithTotalRecords(len(records))
	if err := e.repo.Update(ctx, *job); err != nil {
		return domain.ExportJob{}, fmt.Errorf("failed to record total records: %w", err)
	}

	sorted, ok := usecases.SortEmployees(records, params.SortBy, params.SortDir)
	if !ok {
		warning := fmt.Sprintf("unknown sort field %q ignored", params.SortBy)
		log.WithField("reference_id", job.ReferenceID).Warn(warning)
		*job = job.WithWarning(warning)
	}

	encoder, err := e.encoders.Lookup(job.ExportType)
	if err != nil {
		return domain.ExportJob{}, err
	}

	data, err := encoder.Encode(sorted, params.FieldList())
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("failed to encode export: %w", err)
	}

	return job.WithCompleted(data), nil
}

func (e *ExportJobExecutor) notify(ctx context.Context, job domain.ExportJob) {
	notification := &ExportCompletionNotification{
		ReferenceID:  job.ReferenceID,
		OwnerID:      job.OwnerID,
		Status:       string(job.Status),
		TotalRecords: totalRecords(job),
		FileSize:     job.FileSize,
		ErrorMsg:     job.ErrorMessage,
	}
	if err := e.notifier.ExportComplete(ctx, notification); err != nil {
		log.WithField("reference_id", job.ReferenceID).Warnf("Completion notification failed: %v", err)
	}
}

func totalRecords(job domain.ExportJob) int {
	if job.TotalRecords == nil {
		return 0
	}
	return *job.TotalRecords
}
