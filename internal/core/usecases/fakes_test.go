package usecases

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"employee-export/internal/core/domain"
)

// fakeEmployees records which lookup the filter chose.
type fakeEmployees struct {
	records []domain.Employee
	calls   []string
	err     error
}

func (f *fakeEmployees) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeEmployees) where(match func(domain.Employee) bool) ([]domain.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Employee
	for _, e := range f.records {
		if match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployees) FindByID(ctx context.Context, id int64) (domain.Employee, error) {
	f.record("id")
	for _, e := range f.records {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Employee{}, domain.ErrRecordNotFound
}

func (f *fakeEmployees) FindByEmail(ctx context.Context, email string) (domain.Employee, error) {
	f.record("email")
	if f.err != nil {
		return domain.Employee{}, f.err
	}
	for _, e := range f.records {
		if e.Email == email {
			return e, nil
		}
	}
	return domain.Employee{}, domain.ErrRecordNotFound
}

func (f *fakeEmployees) FindByNameContaining(ctx context.Context, fragment string) ([]domain.Employee, error) {
	f.record("name")
	return f.where(func(e domain.Employee) bool { return e.NameContains(fragment) })
}

func (f *fakeEmployees) FindByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	f.record("department")
	return f.where(func(e domain.Employee) bool { return e.Department == department })
}

func (f *fakeEmployees) FindByPosition(ctx context.Context, position string) ([]domain.Employee, error) {
	f.record("position")
	return f.where(func(e domain.Employee) bool { return e.Position == position })
}

func (f *fakeEmployees) FindByDepartmentAndPosition(ctx context.Context, department, position string) ([]domain.Employee, error) {
	f.record("department+position")
	return f.where(func(e domain.Employee) bool { return e.Department == department && e.Position == position })
}

func (f *fakeEmployees) FindBySalaryGreaterThan(ctx context.Context, bound float64) ([]domain.Employee, error) {
	f.record("salary")
	return f.where(func(e domain.Employee) bool { return e.Salary != nil && *e.Salary > bound })
}

func (f *fakeEmployees) FindPage(ctx context.Context, page, size int) ([]domain.Employee, error) {
	f.record("page")
	if f.err != nil {
		return nil, f.err
	}
	start, ok := domain.PageOffset(page, size)
	if !ok || start >= len(f.records) {
		return nil, nil
	}
	return slices.Clone(f.records[start:min(start+size, len(f.records))]), nil
}

func (f *fakeEmployees) Count(ctx context.Context) (int, error) {
	return len(f.records), nil
}

// fakeJobRepo is a minimal map-backed job store.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.ExportJob

	createErrs []error
	// beforeTransition runs inside TransitionStatus before the status check.
	beforeTransition func(jobs map[string]domain.ExportJob)
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]domain.ExportJob{}}
}

func (r *fakeJobRepo) Create(ctx context.Context, job domain.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := r.jobs[job.ReferenceID]; ok {
		return domain.ErrExportExists
	}
	r.jobs[job.ReferenceID] = job.Clone()
	return nil
}

func (r *fakeJobRepo) Update(ctx context.Context, job domain.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ReferenceID]; !ok {
		return domain.ErrExportNotFound
	}
	r.jobs[job.ReferenceID] = job.Clone()
	return nil
}

func (r *fakeJobRepo) TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeTransition != nil {
		r.beforeTransition(r.jobs)
	}
	current, ok := r.jobs[job.ReferenceID]
	if !ok {
		return domain.ErrExportNotFound
	}
	if current.Status != from {
		return domain.ErrStatusConflict
	}
	r.jobs[job.ReferenceID] = job.Clone()
	return nil
}

func (r *fakeJobRepo) FindByReferenceID(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[referenceID]
	if !ok {
		return domain.ExportJob{}, domain.ErrExportNotFound
	}
	return job.Clone(), nil
}

func (r *fakeJobRepo) filter(match func(domain.ExportJob) bool) []domain.ExportJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ExportJob{}
	for _, j := range r.jobs {
		if match(j) {
			out = append(out, j.Clone())
		}
	}
	return out
}

func (r *fakeJobRepo) FindByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error) {
	return r.filter(func(j domain.ExportJob) bool { return j.OwnerID == ownerID }), nil
}

func (r *fakeJobRepo) FindAll(ctx context.Context) ([]domain.ExportJob, error) {
	return r.filter(func(domain.ExportJob) bool { return true }), nil
}

func (r *fakeJobRepo) FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error) {
	return sortByCreation(r.filter(func(j domain.ExportJob) bool { return j.Status == status })), nil
}

func (r *fakeJobRepo) CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error) {
	return len(r.filter(func(j domain.ExportJob) bool { return j.Status == status })), nil
}

// fakeQueue accepts ids until it holds capacity of them.
type fakeQueue struct {
	mu       sync.Mutex
	ids      []string
	capacity int
}

func (q *fakeQueue) Enqueue(referenceID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.ids) >= q.capacity {
		return domain.ErrQueueFull
	}
	q.ids = append(q.ids, referenceID)
	return nil
}

func salary(v float64) *float64 { return &v }

func date(s string) *domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func timestamp(s string) *time.Time {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func employeeIDs(records []domain.Employee) []int64 {
	ids := make([]int64, 0, len(records))
	for _, e := range records {
		ids = append(ids, e.ID)
	}
	return ids
}

func csvLines(data []byte) []string {
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
