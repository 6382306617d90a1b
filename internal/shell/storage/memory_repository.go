package storage

import (
	"context"
	"slices"
	"sync"

	"employee-export/internal/core/domain"
)

// MemoryExportJobRepository keeps jobs in a map guarded by a RWMutex.
// Jobs are cloned on the way in and out so callers never share state with
// the stored copy.
type MemoryExportJobRepository struct {
	jobs map[string]domain.ExportJob
	mu   sync.RWMutex
}

func NewMemoryExportJobRepository() *MemoryExportJobRepository {
	return &MemoryExportJobRepository{
		jobs: make(map[string]domain.ExportJob),
	}
}

func (r *MemoryExportJobRepository) Create(ctx context.Context, job domain.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ReferenceID]; exists {
		return domain.ErrExportExists
	}
	r.jobs[job.ReferenceID] = job.Clone()
	return nil
}

func (r *MemoryExportJobRepository) Update(ctx context.Context, job domain.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ReferenceID]; !exists {
		return domain.ErrExportNotFound
	}
	r.jobs[job.ReferenceID] = job.Clone()
	return nil
}

func (r *MemoryExportJobRepository) TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error {
	if err := domain.CheckTransition(from, job.Status); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.jobs[job.ReferenceID]
	if !exists {
		return domain.ErrExportNotFound
	}
	if current.Status != from {
		return domain.ErrStatusConflict
	}
	r.jobs[job.ReferenceID] = job.Clone()
	return nil
}

func (r *MemoryExportJobRepository) FindByReferenceID(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[referenceID]
	if !exists {
		return domain.ExportJob{}, domain.ErrExportNotFound
	}
	return job.Clone(), nil
}

func (r *MemoryExportJobRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error) {
	return r.collect(func(j domain.ExportJob) bool { return j.OwnerID == ownerID }), nil
}

func (r *MemoryExportJobRepository) FindAll(ctx context.Context) ([]domain.ExportJob, error) {
	return r.collect(func(domain.ExportJob) bool { return true }), nil
}

func (r *MemoryExportJobRepository) FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error) {
	jobs := r.collect(func(j domain.ExportJob) bool { return j.Status == status })
	slices.SortStableFunc(jobs, func(a, b domain.ExportJob) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs, nil
}

func (r *MemoryExportJobRepository) CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *MemoryExportJobRepository) collect(match func(domain.ExportJob) bool) []domain.ExportJob {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]domain.ExportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if match(job) {
			jobs = append(jobs, job.Clone())
		}
	}
	return jobs
}
