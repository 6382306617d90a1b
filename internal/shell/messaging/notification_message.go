package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventExportCompleted = "export-completed"
	EventExportFailed    = "export-failed"
)

// ExportCompletionMessage is the event published when an export reaches a terminal status
type ExportCompletionMessage struct {
	ID           string `json:"id"`
	Version      string `json:"version"`
	Application  string `json:"application"`
	EventType    string `json:"event_type"`
	Timestamp    string `json:"timestamp"` // RFC3339 format
	ReferenceID  string `json:"reference_id"`
	OwnerID      string `json:"owner_id,omitempty"`
	Status       string `json:"status"`
	TotalRecords int    `json:"total_records"`
	FileSize     int64  `json:"file_size"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewExportCompletionMessage builds the event for a finished export
func NewExportCompletionMessage(referenceID, ownerID, status string, totalRecords int, fileSize int64, errorMsg string) *ExportCompletionMessage {
	eventType := EventExportCompleted
	if status == "FAILED" {
		eventType = EventExportFailed
	}

	return &ExportCompletionMessage{
		ID:           uuid.NewString(),
		Version:      "v1.0.0",
		Application:  "employee-export",
		EventType:    eventType,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ReferenceID:  referenceID,
		OwnerID:      ownerID,
		Status:       status,
		TotalRecords: totalRecords,
		FileSize:     fileSize,
		ErrorMessage: errorMsg,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportCompletionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
