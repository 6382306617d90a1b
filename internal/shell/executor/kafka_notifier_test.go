package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMessage struct {
	key     string
	value   []byte
	headers map[string]string
}

type fakeProducer struct {
	sent []capturedMessage
	err  error
}

func (p *fakeProducer) SendMessage(key string, value []byte, headers map[string]string) error {
	p.sent = append(p.sent, capturedMessage{key: key, value: value, headers: headers})
	return p.err
}

func TestKafkaExportCompletionNotifier(t *testing.T) {
	producer := &fakeProducer{}
	notifier := NewKafkaExportCompletionNotifier(producer)

	err := notifier.ExportComplete(context.Background(), &ExportCompletionNotification{
		ReferenceID: "EXP_AAAAAAAAAAAA",
		OwnerID:     "user-1",
		Status:      "FAILED",
		ErrorMsg:    "Export cancelled by user",
	})
	require.NoError(t, err)
	require.Len(t, producer.sent, 1)

	msg := producer.sent[0]
	assert.Equal(t, "EXP_AAAAAAAAAAAA", msg.key)
	assert.Equal(t, "export-failed", msg.headers["event-type"])
	assert.NotEmpty(t, msg.headers["message-id"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.value, &body))
	assert.Equal(t, "EXP_AAAAAAAAAAAA", body["reference_id"])
	assert.Equal(t, "Export cancelled by user", body["error_message"])
}

func TestKafkaExportCompletionNotifierPropagatesErrors(t *testing.T) {
	producer := &fakeProducer{err: errors.New("no leader")}
	notifier := NewKafkaExportCompletionNotifier(producer)

	err := notifier.ExportComplete(context.Background(), &ExportCompletionNotification{ReferenceID: "EXP_AAAAAAAAAAAA", Status: "COMPLETED"})
	assert.Error(t, err)
}

func TestNullExportCompletionNotifier(t *testing.T) {
	n := NewNullExportCompletionNotifier()
	assert.NoError(t, n.ExportComplete(context.Background(), &ExportCompletionNotification{ReferenceID: "EXP_AAAAAAAAAAAA"}))
}
