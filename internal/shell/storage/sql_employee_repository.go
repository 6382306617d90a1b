package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
)

const employeeColumns = `id, first_name, last_name, email, phone_number, date_of_birth, hire_date,
	salary, position, department, created_at, updated_at`

// SQLEmployeeRepository is the relational record store, shared by SQLite and
// Postgres. Fields named in transforms are encoded on write and decoded on read.
type SQLEmployeeRepository struct {
	db         *sql.DB
	transforms FieldTransforms
	postgres   bool
}

// NewSQLiteEmployeeRepository creates the employees table if needed.
func NewSQLiteEmployeeRepository(db *sql.DB, transforms FieldTransforms) (*SQLEmployeeRepository, error) {
	if transforms == nil {
		transforms = FieldTransforms{}
	}
	repo := &SQLEmployeeRepository{db: db, transforms: transforms}
	if err := repo.initSQLiteSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewPostgresEmployeeRepository expects the schema from RunPostgresMigrations.
func NewPostgresEmployeeRepository(db *sql.DB, transforms FieldTransforms) *SQLEmployeeRepository {
	if transforms == nil {
		transforms = FieldTransforms{}
	}
	return &SQLEmployeeRepository{db: db, transforms: transforms, postgres: true}
}

func (r *SQLEmployeeRepository) initSQLiteSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS employees (
    id INTEGER PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT NULL,
    date_of_birth TEXT NULL,
    hire_date TEXT NULL,
    salary REAL NULL,
    position TEXT NULL,
    department TEXT NULL,
    created_at DATETIME NULL,
    updated_at DATETIME NULL
);

CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department);
CREATE INDEX IF NOT EXISTS idx_employees_position ON employees(position);
CREATE INDEX IF NOT EXISTS idx_employees_salary ON employees(salary);
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize employees schema: %w", err)
	}
	return nil
}

// Save inserts or replaces an employee. The export pipeline never calls it;
// it is used for seeding.
func (r *SQLEmployeeRepository) Save(ctx context.Context, e domain.Employee) error {
	phone, err := r.transforms.encode("phoneNumber", e.PhoneNumber)
	if err != nil {
		return err
	}
	email, err := r.transforms.encode("email", e.Email)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	createdAt := e.CreatedAt
	if createdAt == nil {
		createdAt = &now
	}

	_, err = r.db.ExecContext(ctx, r.rebind(`INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone_number = excluded.phone_number,
			date_of_birth = excluded.date_of_birth,
			hire_date = excluded.hire_date,
			salary = excluded.salary,
			position = excluded.position,
			department = excluded.department,
			updated_at = ?`),
		e.ID, e.FirstName, e.LastName, email, nullString(phone),
		nullDate(e.DateOfBirth), nullDate(e.HireDate), nullFloat(e.Salary),
		nullString(e.Position), nullString(e.Department),
		nullTime(createdAt), nullTime(e.UpdatedAt), now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %d: %w", e.ID, err)
	}
	return nil
}

// SeedEmployees saves employees one by one.
func (r *SQLEmployeeRepository) SeedEmployees(ctx context.Context, employees []domain.Employee) error {
	for _, e := range employees {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	log.Infof("Seeded %d employees", len(employees))
	return nil
}

func (r *SQLEmployeeRepository) FindByID(ctx context.Context, id int64) (domain.Employee, error) {
	return r.queryOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
}

func (r *SQLEmployeeRepository) FindByEmail(ctx context.Context, email string) (domain.Employee, error) {
	if _, encrypted := r.transforms["email"]; encrypted {
		// Encrypted values are not comparable in SQL.
		all, err := r.query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
		if err != nil {
			return domain.Employee{}, err
		}
		for _, e := range all {
			if e.Email == email {
				return e, nil
			}
		}
		return domain.Employee{}, domain.ErrRecordNotFound
	}
	return r.queryOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = ?`, email)
}

func (r *SQLEmployeeRepository) FindByNameContaining(ctx context.Context, fragment string) ([]domain.Employee, error) {
	// SQLite LOWER only folds ASCII, so names are matched after the scan.
	all, err := r.query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	matched := all[:0]
	for _, e := range all {
		if e.NameContains(fragment) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (r *SQLEmployeeRepository) FindByDepartment(ctx context.Context, department string) ([]domain.Employee, error) {
	return r.query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE department = ? ORDER BY id`, department)
}

func (r *SQLEmployeeRepository) FindByPosition(ctx context.Context, position string) ([]domain.Employee, error) {
	return r.query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE position = ? ORDER BY id`, position)
}

func (r *SQLEmployeeRepository) FindByDepartmentAndPosition(ctx context.Context, department, position string) ([]domain.Employee, error) {
	return r.query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE department = ? AND position = ? ORDER BY id`, department, position)
}

func (r *SQLEmployeeRepository) FindBySalaryGreaterThan(ctx context.Context, bound float64) ([]domain.Employee, error) {
	return r.query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE salary IS NOT NULL AND salary > ? ORDER BY id`, bound)
}

func (r *SQLEmployeeRepository) FindPage(ctx context.Context, page, size int) ([]domain.Employee, error) {
	offset, ok := domain.PageOffset(page, size)
	if !ok {
		return []domain.Employee{}, nil
	}
	return r.query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id LIMIT ? OFFSET ?`, size, offset)
}

func (r *SQLEmployeeRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}

func (r *SQLEmployeeRepository) queryOne(ctx context.Context, query string, args ...any) (domain.Employee, error) {
	e, err := r.scanEmployee(r.db.QueryRowContext(ctx, r.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, domain.ErrRecordNotFound
	}
	return e, err
}

func (r *SQLEmployeeRepository) query(ctx context.Context, query string, args ...any) ([]domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []domain.Employee{}
	for rows.Next() {
		e, err := r.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *SQLEmployeeRepository) scanEmployee(row rowScanner) (domain.Employee, error) {
	var (
		e           domain.Employee
		phone       sql.NullString
		dateOfBirth sql.NullString
		hireDate    sql.NullString
		salary      sql.NullFloat64
		position    sql.NullString
		department  sql.NullString
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)

	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &phone, &dateOfBirth, &hireDate,
		&salary, &position, &department, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Employee{}, err
		}
		return domain.Employee{}, fmt.Errorf("failed to scan employee: %w", err)
	}

	if e.Email, err = r.transforms.decode("email", e.Email); err != nil {
		return domain.Employee{}, err
	}
	if e.PhoneNumber, err = r.transforms.decode("phoneNumber", phone.String); err != nil {
		return domain.Employee{}, err
	}
	if e.DateOfBirth, err = parseNullDate(dateOfBirth); err != nil {
		return domain.Employee{}, err
	}
	if e.HireDate, err = parseNullDate(hireDate); err != nil {
		return domain.Employee{}, err
	}
	if salary.Valid {
		s := salary.Float64
		e.Salary = &s
	}
	e.Position = position.String
	e.Department = department.String
	e.CreatedAt = timePtr(createdAt)
	e.UpdatedAt = timePtr(updatedAt)
	return e, nil
}

func nullDate(d *domain.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (*domain.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", s.String, err)
	}
	return &d, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// rebind rewrites ? placeholders as $n for Postgres.
func (r *SQLEmployeeRepository) rebind(query string) string {
	if !r.postgres {
		return query
	}
	return rebindDollar(query)
}
