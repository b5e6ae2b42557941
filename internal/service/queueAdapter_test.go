package service

import (
	"context"
	"testing"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureQueue struct {
	tasks []*queue.Task
}

func (q *captureQueue) Publish(ctx context.Context, task *queue.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func TestQueueAdapterPublishesNotificationTask(t *testing.T) {
	q := &captureQueue{}
	adapter := NewQueueAdapter(q)

	err := adapter.Publish(context.Background(), &entity.Notification{
		ID:        "n1",
		Recipient: "42",
		Title:     "Rental confirmed",
		Body:      "See you soon",
		Data:      map[string]string{"booking_id": "7"},
	})
	require.NoError(t, err)
	require.Len(t, q.tasks, 1)

	task := q.tasks[0]
	assert.Equal(t, queue.TaskTypeSendNotification, task.Type)
	assert.Equal(t, "42", task.GetString("recipient"))
	assert.Equal(t, "Rental confirmed", task.GetString("title"))
	assert.Equal(t, map[string]interface{}{"booking_id": "7"}, task.Data["data"])

	assert.Error(t, adapter.Publish(context.Background(), "not a notification"))
}

func TestNotifierSkipsMissingRecipient(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub, nil, "")

	n.Notify(context.Background(), "", "t", "b", nil)
	n.NotifyAdmin(context.Background(), "t", "b", nil)
	assert.Empty(t, pub.messages)

	n.Notify(context.Background(), "9", "t", "b", nil)
	require.Len(t, pub.messages, 1)
	assert.NotEmpty(t, pub.messages[0].ID)

	var nilNotifier *Notifier
	nilNotifier.Notify(context.Background(), "9", "t", "b", nil)
	nilNotifier.Emit(context.Background(), &entity.LifecycleEvent{BookingID: 1})
}
