package executor

import "context"

// ExportCompletionNotification contains the data for an export completion notification
type ExportCompletionNotification struct {
	ReferenceID  string
	OwnerID      string
	Status       string
	TotalRecords int
	FileSize     int64
	ErrorMsg     string
}

// ExportCompletionNotifier defines the interface for announcing terminal export states
type ExportCompletionNotifier interface {
	// ExportComplete sends a notification when an export completes or fails
	ExportComplete(ctx context.Context, notification *ExportCompletionNotification) error
}
