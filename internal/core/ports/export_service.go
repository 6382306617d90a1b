package ports

import (
	"context"

	"employee-export/internal/core/domain"
)

// ExportService defines the contract for export job operations.
// All methods accept a context as the first parameter.
type ExportService interface {
	// SubmitExport validates params, persists a PENDING job and queues it
	SubmitExport(ctx context.Context, ownerID string, params domain.ExportParameters) (domain.SubmissionReceipt, error)

	// GetExport retrieves a job by reference id
	GetExport(ctx context.Context, referenceID string) (domain.ExportJob, error)

	// ListExports retrieves all jobs ordered by creation time
	ListExports(ctx context.Context) ([]domain.ExportJob, error)

	// ListExportsByOwner retrieves one owner's jobs ordered by creation time
	ListExportsByOwner(ctx context.Context, ownerID string) ([]domain.ExportJob, error)

	// CancelExport fails a job that is still PENDING
	CancelExport(ctx context.Context, referenceID string) (domain.ExportJob, error)
}
