package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/sirupsen/logrus"
)

// Consumer is the subscribing side of the notification bus.
type Consumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error
}

// NotificationWorker delivers notifications published on the bus.
type NotificationWorker struct {
	sender  MessageSender
	timeout time.Duration
}

func NewNotificationWorker(sender MessageSender) *NotificationWorker {
	if sender == nil {
		sender = LogSender{}
	}
	return &NotificationWorker{sender: sender, timeout: 15 * time.Second}
}

// Start subscribes and returns; deliveries run until ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context, consumer Consumer) error {
	if err := consumer.Consume(ctx, w.Handle); err != nil {
		return err
	}
	logrus.Info("Notification worker started")
	return nil
}

// Handle decodes one message and sends it. A malformed payload is dropped; a failed send
// is returned so the bus can redeliver it.
func (w *NotificationWorker) Handle(ctx context.Context, body []byte) error {
	var n entity.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		logrus.WithError(err).Error("Dropping malformed notification")
		return nil
	}
	if n.Recipient == "" {
		logrus.WithField("notification_id", n.ID).Warn("Dropping notification without recipient")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.sender.SendMessage(ctx, n.Recipient, formatMessage(n.Title, n.Body)); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"recipient":       n.Recipient,
	}).Debug("Notification delivered")
	return nil
}
