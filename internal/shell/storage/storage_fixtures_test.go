package storage

import (
	"testing"
	"time"

	"employee-export/internal/core/domain"
)

func newTestJob(t *testing.T, ref, owner string, createdAt time.Time) domain.ExportJob {
	t.Helper()
	job, err := domain.NewExportJob(ref, owner, domain.ExportParameters{Department: "Engineering"}.WithDefaults())
	if err != nil {
		t.Fatalf("Failed to build job: %v", err)
	}
	job.CreatedAt = createdAt.UTC().Truncate(time.Millisecond)
	return job
}

func salary(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) *domain.Date {
	v := domain.NewDate(y, m, d)
	return &v
}

func testEmployees() []domain.Employee {
	return []domain.Employee{
		{ID: 3, FirstName: "Carol", LastName: "Smith", Email: "carol@example.com", Department: "Sales", Position: "Manager", Salary: salary(90000), HireDate: date(2019, time.March, 1)},
		{ID: 1, FirstName: "Alice", LastName: "Jones", Email: "alice@example.com", PhoneNumber: "555-0100", Department: "Engineering", Position: "Developer", Salary: salary(120000), DateOfBirth: date(1990, time.May, 17)},
		{ID: 2, FirstName: "Bob", LastName: "Smithers", Email: "bob@example.com", Department: "Engineering", Position: "Manager"},
		{ID: 4, FirstName: "Dan", LastName: "O_Neil", Email: "dan@example.com", Department: "Engineering", Position: "Developer", Salary: salary(75000.5)},
	}
}
