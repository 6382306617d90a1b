package executor

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// NullExportCompletionNotifier is a no-op ExportCompletionNotifier used when
// notifications are disabled (null object pattern)
type NullExportCompletionNotifier struct{}

func NewNullExportCompletionNotifier() *NullExportCompletionNotifier {
	return &NullExportCompletionNotifier{}
}

// ExportComplete only logs
func (n *NullExportCompletionNotifier) ExportComplete(ctx context.Context, notification *ExportCompletionNotification) error {
	log.Debugf("No notifier configured - skipping completion notification for export: %s", notification.ReferenceID)
	return nil
}
