package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/core/domain"
)

const exportJobColumns = `reference_id, owner_id, export_type, parameters, fields, status,
	total_records, result, file_size, error_message, warnings, created_at, started_at, completed_at`

type SQLiteExportJobRepository struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with a busy timeout. A single
// connection serializes writers so each statement is atomic per job.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewSQLiteExportJobRepository(dbPath string) (*SQLiteExportJobRepository, error) {
	log.Debugf("SQLiteExportJobRepository - opening database: %s", dbPath)

	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	repo := &SQLiteExportJobRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("SQLiteExportJobRepository - database initialized successfully")
	return repo, nil
}

func (r *SQLiteExportJobRepository) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS export_jobs (
    reference_id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL DEFAULT '',
    export_type TEXT NOT NULL,
    parameters TEXT NOT NULL, -- JSON snapshot
    fields TEXT NOT NULL,
    status TEXT NOT NULL,
    total_records INTEGER NULL,
    result BLOB NULL,
    file_size INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NULL,
    warnings TEXT NULL, -- JSON array
    created_at DATETIME NOT NULL,
    started_at DATETIME NULL,
    completed_at DATETIME NULL
);

CREATE INDEX IF NOT EXISTS idx_export_jobs_owner_id ON export_jobs(owner_id);
CREATE INDEX IF NOT EXISTS idx_export_jobs_status ON export_jobs(status, created_at);
CREATE INDEX IF NOT EXISTS idx_export_jobs_created_at ON export_jobs(created_at);
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize export_jobs schema: %w", err)
	}
	return nil
}

func (r *SQLiteExportJobRepository) Create(ctx context.Context, job domain.ExportJob) error {
	warnings, err := encodeWarnings(job.Warnings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO export_jobs (`+exportJobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ReferenceID, job.OwnerID, string(job.ExportType), string(job.Parameters), job.Fields, string(job.Status),
		nullInt(job.TotalRecords), job.Result, job.FileSize, nullString(job.ErrorMessage), warnings,
		job.CreatedAt.UTC(), nullTime(job.StartedAt), nullTime(job.CompletedAt),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return domain.ErrExportExists
		}
		return fmt.Errorf("failed to create export job: %w", err)
	}
	return nil
}

func (r *SQLiteExportJobRepository) Update(ctx context.Context, job domain.ExportJob) error {
	return r.update(ctx, job, "")
}

func (r *SQLiteExportJobRepository) TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error {
	if err := domain.CheckTransition(from, job.Status); err != nil {
		return err
	}
	return r.update(ctx, job, from)
}

// update overwrites every mutable column in one statement; a non-empty
// from adds the status guard.
func (r *SQLiteExportJobRepository) update(ctx context.Context, job domain.ExportJob, from domain.ExportStatus) error {
	warnings, err := encodeWarnings(job.Warnings)
	if err != nil {
		return err
	}

	query := `UPDATE export_jobs SET owner_id = ?, export_type = ?, parameters = ?, fields = ?, status = ?,
		total_records = ?, result = ?, file_size = ?, error_message = ?, warnings = ?,
		started_at = ?, completed_at = ?
		WHERE reference_id = ?`
	args := []any{
		job.OwnerID, string(job.ExportType), string(job.Parameters), job.Fields, string(job.Status),
		nullInt(job.TotalRecords), job.Result, job.FileSize, nullString(job.ErrorMessage), warnings,
		nullTime(job.StartedAt), nullTime(job.CompletedAt),
		job.ReferenceID,
	}
	if from != "" {
		query += ` AND status = ?`
		args = append(args, string(from))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.FindByReferenceID(ctx, job.ReferenceID); err != nil {
		return err
	}
	return domain.ErrStatusConflict
}

func (r *SQLiteExportJobRepository) FindByReferenceID(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE reference_id = ?`, referenceID)

	job, err := scanExportJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ExportJob{}, domain.ErrExportNotFound
	}
	return job, err
}

func (r *SQLiteExportJobRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error) {
	return r.queryJobs(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE owner_id = ? ORDER BY created_at`, ownerID)
}

func (r *SQLiteExportJobRepository) FindAll(ctx context.Context) ([]domain.ExportJob, error) {
	return r.queryJobs(ctx, `SELECT `+exportJobColumns+` FROM export_jobs ORDER BY created_at`)
}

func (r *SQLiteExportJobRepository) FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error) {
	return r.queryJobs(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE status = ? ORDER BY created_at`, string(status))
}

func (r *SQLiteExportJobRepository) CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM export_jobs WHERE status = ?`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count export jobs: %w", err)
	}
	return count, nil
}

// DB exposes the connection so the employee store can share the file.
func (r *SQLiteExportJobRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteExportJobRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteExportJobRepository) queryJobs(ctx context.Context, query string, args ...any) ([]domain.ExportJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.ExportJob{}
	for rows.Next() {
		job, err := scanExportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanExportJob(row rowScanner) (domain.ExportJob, error) {
	var (
		job          domain.ExportJob
		exportType   string
		parameters   string
		status       string
		totalRecords sql.NullInt64
		errorMessage sql.NullString
		warnings     sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ReferenceID, &job.OwnerID, &exportType, &parameters, &job.Fields, &status,
		&totalRecords, &job.Result, &job.FileSize, &errorMessage, &warnings,
		&job.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ExportJob{}, err
		}
		return domain.ExportJob{}, fmt.Errorf("failed to scan export job: %w", err)
	}

	job.ExportType = domain.ExportType(exportType)
	job.Parameters = []byte(parameters)
	job.Status = domain.ExportStatus(status)
	job.TotalRecords = intPtr(totalRecords)
	job.ErrorMessage = errorMessage.String
	job.CreatedAt = job.CreatedAt.UTC()
	job.StartedAt = timePtr(startedAt)
	job.CompletedAt = timePtr(completedAt)
	if len(job.Result) == 0 {
		job.Result = nil
	}

	job.Warnings, err = decodeWarnings(warnings)
	if err != nil {
		return domain.ExportJob{}, err
	}
	return job, nil
}
