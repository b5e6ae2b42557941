package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/queue"
)

type TaskQueue interface {
	Publish(ctx context.Context, task *queue.Task) error
}

// QueueAdapter turns notifications into send_notification tasks on the Redis queue.
// It stands in for the message bus when RabbitMQ is disabled.
type QueueAdapter struct {
	queue TaskQueue
}

func NewQueueAdapter(q TaskQueue) *QueueAdapter {
	return &QueueAdapter{queue: q}
}

func (a *QueueAdapter) Publish(ctx context.Context, message interface{}) error {
	if a.queue == nil {
		return nil
	}

	n, ok := message.(*entity.Notification)
	if !ok {
		return fmt.Errorf("unsupported message type %T", message)
	}

	data := map[string]interface{}{
		"notification_id": n.ID,
		"recipient":       n.Recipient,
		"title":           n.Title,
		"body":            n.Body,
	}
	if len(n.Data) > 0 {
		extra := make(map[string]interface{}, len(n.Data))
		for k, v := range n.Data {
			extra[k] = v
		}
		data["data"] = extra
	}

	return a.queue.Publish(ctx, &queue.Task{
		Type: queue.TaskTypeSendNotification,
		Data: data,
	})
}
