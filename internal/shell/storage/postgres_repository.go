package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"employee-export/internal/config"
	"employee-export/internal/core/domain"
)

const uniqueViolation = "23505"

type PostgresExportJobRepository struct {
	db *sql.DB
}

// OpenPostgres connects using the database settings and verifies the connection.
func OpenPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	ConfigurePool(db, cfg.Database)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ConfigurePool applies the connection pool limits from the database settings.
func ConfigurePool(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
}

// NewPostgresExportJobRepository expects the schema from RunPostgresMigrations.
func NewPostgresExportJobRepository(db *sql.DB) *PostgresExportJobRepository {
	log.Debugf("PostgresExportJobRepository - using existing connection pool")
	return &PostgresExportJobRepository{db: db}
}

func (r *PostgresExportJobRepository) Create(ctx context.Context, job domain.ExportJob) error {
	warnings, err := encodeWarnings(job.Warnings)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO export_jobs (`+exportJobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		job.ReferenceID, job.OwnerID, string(job.ExportType), string(job.Parameters), job.Fields, string(job.Status),
		nullInt(job.TotalRecords), job.Result, job.FileSize, nullString(job.ErrorMessage), warnings,
		job.CreatedAt.UTC(), nullTime(job.StartedAt), nullTime(job.CompletedAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrExportExists
		}
		return fmt.Errorf("failed to create export job: %w", err)
	}
	return nil
}

func (r *PostgresExportJobRepository) Update(ctx context.Context, job domain.ExportJob) error {
	return r.update(ctx, job, "")
}

func (r *PostgresExportJobRepository) TransitionStatus(ctx context.Context, from domain.ExportStatus, job domain.ExportJob) error {
	if err := domain.CheckTransition(from, job.Status); err != nil {
		return err
	}
	return r.update(ctx, job, from)
}

func (r *PostgresExportJobRepository) update(ctx context.Context, job domain.ExportJob, from domain.ExportStatus) error {
	warnings, err := encodeWarnings(job.Warnings)
	if err != nil {
		return err
	}

	query := `UPDATE export_jobs SET owner_id = $1, export_type = $2, parameters = $3, fields = $4, status = $5,
		total_records = $6, result = $7, file_size = $8, error_message = $9, warnings = $10,
		started_at = $11, completed_at = $12
		WHERE reference_id = $13`
	args := []any{
		job.OwnerID, string(job.ExportType), string(job.Parameters), job.Fields, string(job.Status),
		nullInt(job.TotalRecords), job.Result, job.FileSize, nullString(job.ErrorMessage), warnings,
		nullTime(job.StartedAt), nullTime(job.CompletedAt),
		job.ReferenceID,
	}
	if from != "" {
		query += ` AND status = $14`
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

func (r *PostgresExportJobRepository) FindByReferenceID(ctx context.Context, referenceID string) (domain.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE reference_id = $1`, referenceID)

	job, err := scanExportJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ExportJob{}, domain.ErrExportNotFound
	}
	return job, err
}

func (r *PostgresExportJobRepository) FindByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error) {
	return r.queryJobs(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

func (r *PostgresExportJobRepository) FindAll(ctx context.Context) ([]domain.ExportJob, error) {
	return r.queryJobs(ctx, `SELECT `+exportJobColumns+` FROM export_jobs ORDER BY created_at`)
}

func (r *PostgresExportJobRepository) FindByStatus(ctx context.Context, status domain.ExportStatus) ([]domain.ExportJob, error) {
	return r.queryJobs(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE status = $1 ORDER BY created_at`, string(status))
}

func (r *PostgresExportJobRepository) CountByStatus(ctx context.Context, status domain.ExportStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM export_jobs WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count export jobs: %w", err)
	}
	return count, nil
}

func (r *PostgresExportJobRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresExportJobRepository) queryJobs(ctx context.Context, query string, args ...any) ([]domain.ExportJob, error) {
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
