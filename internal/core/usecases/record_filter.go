package usecases

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
)

// DefaultMaxPageSize bounds an unfiltered export.
const DefaultMaxPageSize = 10000

// EmployeeRepository is the read-only record store the export pipeline draws from.
type EmployeeRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Employee, error)
	FindByEmail(ctx context.Context, email string) (domain.Employee, error)
	FindByNameContaining(ctx context.Context, fragment string) ([]domain.Employee, error)
	FindByDepartment(ctx context.Context, department string) ([]domain.Employee, error)
	FindByPosition(ctx context.Context, position string) ([]domain.Employee, error)
	FindByDepartmentAndPosition(ctx context.Context, department, position string) ([]domain.Employee, error)
	// FindBySalaryGreaterThan excludes records without a salary.
	FindBySalaryGreaterThan(ctx context.Context, bound float64) ([]domain.Employee, error)
	// FindPage returns one page ordered by id; page is zero-based.
	FindPage(ctx context.Context, page, size int) ([]domain.Employee, error)
	Count(ctx context.Context) (int, error)
}

// RecordFilter selects the candidate records for an export.
//
// Exactly one filter category applies, chosen in this order: email, name,
// department+position, department, position, salary range, and finally a
// single page of the whole collection. Filters from different categories
// are not combined.
type RecordFilter struct {
	records     EmployeeRepository
	maxPageSize int
}

func NewRecordFilter(records EmployeeRepository, maxPageSize int) *RecordFilter {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &RecordFilter{
		records:     records,
		maxPageSize: maxPageSize,
	}
}

// Apply never returns a nil slice on success.
func (f *RecordFilter) Apply(ctx context.Context, params domain.ExportParameters) ([]domain.Employee, error) {
	records, err := f.selectRecords(ctx, params)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Employee{}
	}
	return records, nil
}

func (f *RecordFilter) selectRecords(ctx context.Context, params domain.ExportParameters) ([]domain.Employee, error) {
	switch {
	case params.Email != "":
		log.Debugf("RecordFilter.Apply - filtering by email")
		employee, err := f.records.FindByEmail(ctx, params.Email)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return []domain.Employee{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.Employee{employee}, nil

	case params.Name != "":
		log.Debugf("RecordFilter.Apply - filtering by name fragment: %s", params.Name)
		return f.records.FindByNameContaining(ctx, params.Name)

	case params.Department != "" && params.Position != "":
		log.Debugf("RecordFilter.Apply - filtering by department %s and position %s", params.Department, params.Position)
		return f.records.FindByDepartmentAndPosition(ctx, params.Department, params.Position)

	case params.Department != "":
		log.Debugf("RecordFilter.Apply - filtering by department: %s", params.Department)
		return f.records.FindByDepartment(ctx, params.Department)

	case params.Position != "":
		log.Debugf("RecordFilter.Apply - filtering by position: %s", params.Position)
		return f.records.FindByPosition(ctx, params.Position)

	case params.HasSalaryBound():
		return f.salaryRange(ctx, params.MinSalary, params.MaxSalary)

	default:
		page := params.Page
		if page < 1 {
			page = 1
		}
		size := params.Size
		if size < 1 {
			size = domain.DefaultSize
		}
		if size > f.maxPageSize {
			log.Debugf("RecordFilter.Apply - capping page size %d to %d", size, f.maxPageSize)
			size = f.maxPageSize
		}
		log.Debugf("RecordFilter.Apply - no filter given, taking page %d of size %d", page, size)
		return f.records.FindPage(ctx, page-1, size)
	}
}

// salaryRange starts from the lower-bound match; with only an upper bound
// the candidate set is empty.
func (f *RecordFilter) salaryRange(ctx context.Context, min, max *float64) ([]domain.Employee, error) {
	var candidates []domain.Employee
	if min != nil {
		log.Debugf("RecordFilter.Apply - filtering by salary > %.2f", *min)
		found, err := f.records.FindBySalaryGreaterThan(ctx, *min)
		if err != nil {
			return nil, err
		}
		candidates = found
	}

	if max == nil {
		return candidates, nil
	}

	log.Debugf("RecordFilter.Apply - restricting to salary <= %.2f", *max)
	bounded := make([]domain.Employee, 0, len(candidates))
	for _, e := range candidates {
		if e.Salary != nil && *e.Salary <= *max {
			bounded = append(bounded, e)
		}
	}
	return bounded, nil
}
