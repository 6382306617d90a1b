package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
)

// MemoryEmployeeRepository is an in-process record store ordered by id.
type MemoryEmployeeRepository struct {
	employees []domain.Employee
	mu        sync.RWMutex
}

func NewMemoryEmployeeRepository(employees ...domain.Employee) *MemoryEmployeeRepository {
	sorted := slices.Clone(employees)
	slices.SortStableFunc(sorted, func(a, b domain.Employee) int { return cmp.Compare(a.ID, b.ID) })
	return &MemoryEmployeeRepository{employees: sorted}
}

// LoadEmployeesFromFile reads a JSON array of employees.
func LoadEmployeesFromFile(path string) ([]domain.Employee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read employee seed file: %w", err)
	}

	var employees []domain.Employee
	if err := json.Unmarshal(data, &employees); err != nil {
		return nil, fmt.Errorf("failed to parse employee seed file: %w", err)
	}

	log.Infof("Loaded %d employees from %s", len(employees), path)
	return employees, nil
}

func (r *MemoryEmployeeRepository) FindByID(ctx context.Context, id int64) (domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Employee{}, domain.ErrRecordNotFound
}

func (r *MemoryEmployeeRepository) FindByEmail(ctx context.Context, email string) (domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return domain.Employee{}, domain.ErrRecordNotFound
}

func (r *MemoryEmployeeRepository) FindByNameContaining(ctx context.Context, fragment string) ([]domain.Employee, error) {
	return r.where(func(e domain.Employee) bool { return e.NameContains(fragment) }), nil
}

func (r *MemoryEmployeeRepository) FindByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	return r.where(func(e domain.Employee) bool { return e.Department == department }), nil
}

func (r *MemoryEmployeeRepository) FindByPosition(ctx context.Context, position string) ([]domain.Employee, error) {
	return r.where(func(e domain.Employee) bool { return e.Position == position }), nil
}

func (r *MemoryEmployeeRepository) FindByDepartmentAndPosition(ctx context.Context, department, position string) ([]domain.Employee, error) {
	return r.where(func(e domain.Employee) bool {
		return e.Department == department && e.Position == position
	}), nil
}

func (r *MemoryEmployeeRepository) FindBySalaryGreaterThan(ctx context.Context, bound float64) ([]domain.Employee, error) {
	return r.where(func(e domain.Employee) bool { return e.Salary != nil && *e.Salary > bound }), nil
}

func (r *MemoryEmployeeRepository) FindPage(ctx context.Context, page, size int) ([]domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start, ok := domain.PageOffset(page, size)
	if !ok || start >= len(r.employees) {
		return []domain.Employee{}, nil
	}
	end := min(start+size, len(r.employees))
	return slices.Clone(r.employees[start:end]), nil
}

func (r *MemoryEmployeeRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.employees), nil
}

func (r *MemoryEmployeeRepository) where(match func(domain.Employee) bool) []domain.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Employee{}
	for _, e := range r.employees {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

