package executor

import (
	"context"

	log "github.com/sirupsen/logrus"

	"employee-export/internal/shell/messaging"
)

// MessageProducer publishes keyed messages to a topic
type MessageProducer interface {
	SendMessage(key string, value []byte, headers map[string]string) error
}

// KafkaExportCompletionNotifier publishes export completion events to Kafka
type KafkaExportCompletionNotifier struct {
	producer MessageProducer
}

func NewKafkaExportCompletionNotifier(producer MessageProducer) *KafkaExportCompletionNotifier {
	return &KafkaExportCompletionNotifier{
		producer: producer,
	}
}

// ExportComplete sends an export completion event keyed by reference id
func (n *KafkaExportCompletionNotifier) ExportComplete(ctx context.Context, notification *ExportCompletionNotification) error {
	log.Debugf("Sending export completion event via Kafka for export: %s", notification.ReferenceID)

	message := messaging.NewExportCompletionMessage(
		notification.ReferenceID,
		notification.OwnerID,
		notification.Status,
		notification.TotalRecords,
		notification.FileSize,
		notification.ErrorMsg,
	)

	payload, err := message.ToJSON()
	if err != nil {
		return err
	}

	headers := map[string]string{
		"event-type": message.EventType,
		"message-id": message.ID,
	}

	if err := n.producer.SendMessage(notification.ReferenceID, payload, headers); err != nil {
		log.Warnf("Failed to send completion event for export %s: %v", notification.ReferenceID, err)
		return err
	}

	log.Debugf("Completion event sent for export %s", notification.ReferenceID)
	return nil
}
