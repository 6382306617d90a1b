package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type ExportStatus string

const (
	StatusPending    ExportStatus = "PENDING"
	StatusProcessing ExportStatus = "PROCESSING"
	StatusCompleted  ExportStatus = "COMPLETED"
	StatusFailed     ExportStatus = "FAILED"
)

// CanTransition reports whether from -> to is an allowed lifecycle step.
// PENDING -> FAILED is the cancellation path.
func CanTransition(from, to ExportStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// CheckTransition returns ErrInvalidTransition unless from -> to is allowed.
func CheckTransition(from, to ExportStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

type ExportType string

const (
	ExportTypeCSV ExportType = "CSV"
)

const CancelledByUserMessage = "Export cancelled by user"

// ExportJob is the lifecycle record of one export request.
type ExportJob struct {
	ReferenceID  string          `json:"referenceId"`
	OwnerID      string          `json:"ownerId,omitempty"`
	ExportType   ExportType      `json:"exportType"`
	Parameters   json.RawMessage `json:"parameters"`
	Fields       string          `json:"fields"`
	Status       ExportStatus    `json:"status"`
	TotalRecords *int            `json:"totalRecords,omitempty"`
	Result       []byte          `json:"result,omitempty"`
	FileSize     int64           `json:"fileSize"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    *time.Time      `json:"startedAt,omitempty"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

// NewExportJob snapshots params into a PENDING job.
func NewExportJob(referenceID, ownerID string, params ExportParameters) (ExportJob, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return ExportJob{}, fmt.Errorf("failed to serialize export parameters: %w", err)
	}

	exportType := ExportType(params.ExportType)
	if exportType == "" {
		exportType = ExportTypeCSV
	}

	return ExportJob{
		ReferenceID: referenceID,
		OwnerID:     ownerID,
		ExportType:  exportType,
		Parameters:  raw,
		Fields:      params.Fields,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// DecodeParameters rebuilds the parameter snapshot taken at submission.
func (j ExportJob) DecodeParameters() (ExportParameters, error) {
	var params ExportParameters
	if len(j.Parameters) == 0 {
		return params, fmt.Errorf("export %s has no parameters", j.ReferenceID)
	}
	if err := json.Unmarshal(j.Parameters, &params); err != nil {
		return params, fmt.Errorf("failed to parse export parameters: %w", err)
	}
	return params, nil
}

func (j ExportJob) WithProcessing() ExportJob {
	now := time.Now().UTC()
	updated := j.Clone()
	updated.Status = StatusProcessing
	updated.StartedAt = &now
	return updated
}

func (j ExportJob) WithTotalRecords(total int) ExportJob {
	updated := j.Clone()
	updated.TotalRecords = &total
	return updated
}

func (j ExportJob) WithWarning(warning string) ExportJob {
	updated := j.Clone()
	updated.Warnings = append(updated.Warnings, warning)
	return updated
}

func (j ExportJob) WithCompleted(result []byte) ExportJob {
	now := time.Now().UTC()
	updated := j.Clone()
	updated.Status = StatusCompleted
	updated.Result = append([]byte(nil), result...)
	updated.FileSize = int64(len(result))
	updated.ErrorMessage = ""
	updated.CompletedAt = &now
	return updated
}

func (j ExportJob) WithFailed(message string) ExportJob {
	now := time.Now().UTC()
	updated := j.Clone()
	updated.Status = StatusFailed
	updated.Result = nil
	updated.FileSize = 0
	updated.ErrorMessage = message
	updated.CompletedAt = &now
	return updated
}

// Clone returns a copy that shares no mutable state with j.
func (j ExportJob) Clone() ExportJob {
	c := j
	if j.Parameters != nil {
		c.Parameters = append(json.RawMessage(nil), j.Parameters...)
	}
	if j.Result != nil {
		c.Result = append([]byte(nil), j.Result...)
	}
	if j.Warnings != nil {
		c.Warnings = append([]string(nil), j.Warnings...)
	}
	if j.TotalRecords != nil {
		total := *j.TotalRecords
		c.TotalRecords = &total
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// SubmissionReceipt is what a caller gets back from a successful submission.
type SubmissionReceipt struct {
	ReferenceID         string
	Status              ExportStatus
	EstimatedCompletion time.Time
}
