package http

import (
	"time"

	"employee-export/internal/core/domain"
)

// SubmitExportRequest is the body of POST /api/exports. UserID is only
// used when the request carries no identity header.
type SubmitExportRequest struct {
	domain.ExportParameters
	UserID string `json:"userId,omitempty"`
}

type SubmitExportResponse struct {
	ReferenceID         string    `json:"referenceId"`
	Status              string    `json:"status"`
	Message             string    `json:"message"`
	EstimatedCompletion time.Time `json:"estimatedCompletion"`
}

// ExportStatusResponse reports a job's progress. Which optional fields are
// present depends on the status.
type ExportStatusResponse struct {
	ReferenceID  string     `json:"referenceId"`
	Status       string     `json:"status"`
	Message      string     `json:"message"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	TotalRecords *int       `json:"totalRecords,omitempty"`
	FileSize     *int64     `json:"fileSize,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
}

// ExportSummaryResponse is one entry of a listing. It never carries the
// artifact bytes.
type ExportSummaryResponse struct {
	ReferenceID  string     `json:"referenceId"`
	OwnerID      string     `json:"ownerId,omitempty"`
	ExportType   string     `json:"exportType"`
	Status       string     `json:"status"`
	Fields       string     `json:"fields"`
	TotalRecords *int       `json:"totalRecords,omitempty"`
	FileSize     int64      `json:"fileSize"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type CancelExportResponse struct {
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

const (
	submittedMessage  = "Export request submitted successfully. Use reference ID to check status."
	pendingMessage    = "Export is queued for processing"
	processingMessage = "Export is currently being processed"
	completedMessage  = "Export completed successfully"
	cancelledMessage  = "Export cancelled successfully"
)

func ToSubmitExportResponse(receipt domain.SubmissionReceipt) SubmitExportResponse {
	return SubmitExportResponse{
		ReferenceID:         receipt.ReferenceID,
		Status:              string(receipt.Status),
		Message:             submittedMessage,
		EstimatedCompletion: receipt.EstimatedCompletion,
	}
}

// ToExportStatusResponse builds the status payload for a job.
func ToExportStatusResponse(job domain.ExportJob) ExportStatusResponse {
	resp := ExportStatusResponse{
		ReferenceID: job.ReferenceID,
		Status:      string(job.Status),
	}

	createdAt := job.CreatedAt
	switch job.Status {
	case domain.StatusPending:
		resp.Message = pendingMessage
	case domain.StatusProcessing:
		resp.Message = processingMessage
		resp.CreatedAt = &createdAt
	case domain.StatusCompleted:
		fileSize := job.FileSize
		resp.Message = completedMessage
		resp.CreatedAt = &createdAt
		resp.CompletedAt = job.CompletedAt
		resp.TotalRecords = job.TotalRecords
		resp.FileSize = &fileSize
		resp.Warnings = job.Warnings
	case domain.StatusFailed:
		resp.Message = "Export failed: " + job.ErrorMessage
		resp.CreatedAt = &createdAt
		resp.CompletedAt = job.CompletedAt
	}
	return resp
}

func ToExportSummaryResponse(job domain.ExportJob) ExportSummaryResponse {
	return ExportSummaryResponse{
		ReferenceID:  job.ReferenceID,
		OwnerID:      job.OwnerID,
		ExportType:   string(job.ExportType),
		Status:       string(job.Status),
		Fields:       job.Fields,
		TotalRecords: job.TotalRecords,
		FileSize:     job.FileSize,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}

func ToExportSummaryResponseList(jobs []domain.ExportJob) []ExportSummaryResponse {
	responses := make([]ExportSummaryResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = ToExportSummaryResponse(job)
	}
	return responses
}

func ToCancelExportResponse(job domain.ExportJob) CancelExportResponse {
	return CancelExportResponse{
		ReferenceID: job.ReferenceID,
		Status:      string(job.Status),
		Message:     cancelledMessage,
	}
}
