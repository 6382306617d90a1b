package usecases

import (
	"cmp"
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
	"employee-export/internal/core/ports"
)

// ExportJobRepository persists export jobs keyed by reference id.
// Implementations must make every write atomic per job.
type ExportJobRepository interface {
	// Create stores a new job; ErrExportExists if the reference id is taken.
	Create(ctx context.Context, job domain.ExportJob) error
	// Update overwrites the stored job.
	Update(ctx context.Context, job domain.ExportJob) error
	// TransitionStatus overwrites the stored job only if its current status
	// equals from, otherwise it returns ErrStatusConflict.
	TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error
	FindByReferenceID(ctx context.Context, referenceID string) (domain.ExportJob, error)
	FindByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error)
	FindAll(ctx context.Context) ([]domain.ExportJob, error)
	// FindByStatus returns jobs in the given status, oldest first.
	FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error)
	CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error)
}

// JobQueue hands reference ids to the background workers without blocking.
type JobQueue interface {
	Enqueue(referenceID string) error
}

const (
	minEstimatedDuration = 5 * time.Second
	referenceIDAttempts  = 3
)

var _ ports.ExportService = (*ExportService)(nil)

type ExportService struct {
	repo     ExportJobRepository
	queue    JobQueue
	validate *validator.Validate
	newID    func() string
}

func NewExportService(repo ExportJobRepository, queue JobQueue) *ExportService {
	return &ExportService{
		repo:     repo,
		queue:    queue,
		validate: newParameterValidator(),
		newID:    domain.NewReferenceID,
	}
}

func (s *ExportService) SubmitExport(ctx context.Context, ownerID string, params domain.ExportParameters) (domain.SubmissionReceipt, error) {
	log.Debugf("ExportService.SubmitExport - owner: %s", ownerID)

	params = params.WithDefaults()
	if err := s.validateParameters(params); err != nil {
		log.Debugf("ExportService.SubmitExport - validation failed: %v", err)
		return domain.SubmissionReceipt{}, err
	}

	var job domain.ExportJob
	for attempt := 1; ; attempt++ {
		var err error
		job, err = domain.NewExportJob(s.newID(), ownerID, params)
		if err != nil {
			return domain.SubmissionReceipt{}, err
		}

		err = s.repo.Create(ctx, job)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrExportExists) && attempt < referenceIDAttempts {
			log.Warnf("ExportService.SubmitExport - reference id collision on %s, regenerating", job.ReferenceID)
			continue
		}
		log.Debugf("ExportService.SubmitExport - failed to persist job: %v", err)
		return domain.SubmissionReceipt{}, err
	}
	log.Debugf("ExportService.SubmitExport - persisted PENDING job %s", job.ReferenceID)

	// The job is durable at this point; a full queue leaves it PENDING for the sweeper.
	if err := s.queue.Enqueue(job.ReferenceID); err != nil {
		log.WithField("reference_id", job.ReferenceID).Warnf("ExportService.SubmitExport - job not queued: %v", err)
	}

	return domain.SubmissionReceipt{
		ReferenceID:         job.ReferenceID,
		Status:              job.Status,
		EstimatedCompletion: EstimateCompletion(job.CreatedAt, params.Size),
	}, nil
}

// EstimateCompletion allows one second per thousand requested records, with a five second floor.
func EstimateCompletion(from time.Time, size int) time.Time {
	estimate := time.Duration(size/1000) * time.Second
	return from.Add(max(minEstimatedDuration, estimate))
}

func (s *ExportService) GetExport(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	return s.repo.FindByReferenceID(ctx, referenceID)
}

func (s *ExportService) ListExports(ctx context.Context) ([]domain.ExportJob, error) {
	jobs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return sortByCreation(jobs), nil
}

func (s *ExportService) ListExportsByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error) {
	jobs, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return sortByCreation(jobs), nil
}

// CancelExport fails a PENDING job. A job the worker already claimed is
// reported as a conflict with its current status.
func (s *ExportService) CancelExport(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	job, err := s.repo.FindByReferenceID(ctx, referenceID)
	if err != nil {
		return domain.ExportJob{}, err
	}

	if job.Status != domain.StatusPending {
		log.Debugf("ExportService.CancelExport - %s is %s, rejecting", referenceID, job.Status)
		return domain.ExportJob{}, &domain.CancelConflictError{Status: job.Status}
	}

	cancelled := job.WithFailed(domain.CancelledByUserMessage)
	err = s.repo.TransitionStatus(ctx, domain.StatusPending, cancelled)
	if errors.Is(err, domain.ErrStatusConflict) {
		current, findErr := s.repo.FindByReferenceID(ctx, referenceID)
		if findErr != nil {
			return domain.ExportJob{}, findErr
		}
		log.Debugf("ExportService.CancelExport - lost race for %s, now %s", referenceID, current.Status)
		return domain.ExportJob{}, &domain.CancelConflictError{Status: current.Status}
	}
	if err != nil {
		return domain.ExportJob{}, err
	}

	log.Infof("Export %s cancelled", referenceID)
	return cancelled, nil
}

func (s *ExportService) validateParameters(params domain.ExportParameters) error {
	var fieldErrors []domain.FieldError

	if err := s.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fieldErrors = append(fieldErrors, domain.FieldError{
				Field:  fe.Field(),
				Reason: validationMessage(fe),
			})
		}
	}

	if params.MinSalary != nil && params.MaxSalary != nil && *params.MaxSalary < *params.MinSalary {
		fieldErrors = append(fieldErrors, domain.FieldError{Field: "maxSalary", Reason: "must not be below minSalary"})
	}

	if len(fieldErrors) > 0 {
		return &domain.ValidationError{Fields: fieldErrors}
	}
	return nil
}

// newParameterValidator reports fields by their JSON names.
func newParameterValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func sortByCreation(jobs []domain.ExportJob) []domain.ExportJob {
	slices.SortStableFunc(jobs, func(a, b domain.ExportJob) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ReferenceID, b.ReferenceID)
	})
	return jobs
}
