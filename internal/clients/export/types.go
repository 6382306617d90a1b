package export

import (
	"fmt"
	"strings"
	"time"
)

// ExportStatus mirrors the server's job status values
type ExportStatus string

const (
	StatusPending    ExportStatus = "PENDING"
	StatusProcessing ExportStatus = "PROCESSING"
	StatusCompleted  ExportStatus = "COMPLETED"
	StatusFailed     ExportStatus = "FAILED"
)

// ExportRequest is the body of a submission. Unset fields take the
// server's defaults.
type ExportRequest struct {
	Department string   `json:"department,omitempty"`
	Position   string   `json:"position,omitempty"`
	Email      string   `json:"email,omitempty"`
	Name       string   `json:"name,omitempty"`
	MinSalary  *float64 `json:"minSalary,omitempty"`
	MaxSalary  *float64 `json:"maxSalary,omitempty"`
	Fields     string   `json:"fields,omitempty"`
	SortBy     string   `json:"sortBy,omitempty"`
	SortDir    string   `json:"sortDir,omitempty"`
	Page       int      `json:"page,omitempty"`
	Size       int      `json:"size,omitempty"`
	ExportType string   `json:"exportType,omitempty"`
	UserID     string   `json:"userId,omitempty"`
}

type SubmitResponse struct {
	ReferenceID         string       `json:"referenceId"`
	Status              ExportStatus `json:"status"`
	Message             string       `json:"message"`
	EstimatedCompletion time.Time    `json:"estimatedCompletion"`
}

type StatusResponse struct {
	ReferenceID  string       `json:"referenceId"`
	Status       ExportStatus `json:"status"`
	Message      string       `json:"message"`
	CreatedAt    *time.Time   `json:"createdAt,omitempty"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
	TotalRecords *int         `json:"totalRecords,omitempty"`
	FileSize     *int64       `json:"fileSize,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
}

type ExportSummary struct {
	ReferenceID  string       `json:"referenceId"`
	OwnerID      string       `json:"ownerId,omitempty"`
	ExportType   string       `json:"exportType"`
	Status       ExportStatus `json:"status"`
	Fields       string       `json:"fields"`
	TotalRecords *int         `json:"totalRecords,omitempty"`
	FileSize     int64        `json:"fileSize"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	StartedAt    *time.Time   `json:"startedAt,omitempty"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}

type CancelResponse struct {
	ReferenceID string       `json:"referenceId"`
	Status      ExportStatus `json:"status"`
	Message     string       `json:"message"`
}

// Artifact is a downloaded export file
type Artifact struct {
	Filename     string
	ContentType  string
	TotalRecords int
	CreatedAt    time.Time
	Data         []byte
}

// ErrorObject is one JSON:API error returned by the service
type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// APIError is returned for any response with status >= 400
type APIError struct {
	StatusCode int
	Errors     []ErrorObject
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
	}
	details := make([]string, len(e.Errors))
	for i, obj := range e.Errors {
		details[i] = obj.Title + " - " + obj.Detail
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, strings.Join(details, "; "))
}

// NotReadyError is returned by Download when the export has no artifact yet
type NotReadyError struct {
	Status StatusResponse
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("export %s is %s: %s", e.Status.ReferenceID, e.Status.Status, e.Status.Message)
}
