package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dispatchTimeout = 5 * time.Second

// Notifier fans state changes out to the notification bus and the event stream.
// Every failure is logged and swallowed; a nil Notifier or nil sink does nothing.
type Notifier struct {
	notifications NotificationPublisher
	events        EventProducer
	adminChatID   string
}

func NewNotifier(notifications NotificationPublisher, events EventProducer, adminChatID string) *Notifier {
	return &Notifier{
		notifications: notifications,
		events:        events,
		adminChatID:   adminChatID,
	}
}

func (n *Notifier) Notify(ctx context.Context, recipient, title, body string, data map[string]string) {
	if n == nil || n.notifications == nil || recipient == "" {
		return
	}

	msg := &entity.Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	if err := n.notifications.Publish(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient": recipient,
			"title":     title,
		}).Warn("Failed to dispatch notification")
	}
}

func (n *Notifier) NotifyAdmin(ctx context.Context, title, body string, data map[string]string) {
	if n == nil {
		return
	}
	n.Notify(ctx, n.adminChatID, title, body, data)
}

// Emit publishes a lifecycle event keyed by booking id.
func (n *Notifier) Emit(ctx context.Context, ev *entity.LifecycleEvent) {
	if n == nil || n.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	if err := n.events.SendMessage(ctx, strconv.FormatInt(ev.BookingID, 10), ev); err != nil {
		logrus.WithError(err).WithField("booking_id", ev.BookingID).Warn("Failed to emit lifecycle event")
	}
}

// stageMessages holds the customer-facing text per reached stage. Stages without an
// entry notify nobody.
var stageMessages = map[rental.Stage]struct{ title, body string }{
	rental.StageConfirmed:       {"Rental confirmed", "Your rental of %s from %s to %s is confirmed."},
	rental.StageRejected:        {"Rental declined", "Your request for %s from %s to %s could not be accepted."},
	rental.StageCancelled:       {"Rental cancelled", "Your rental of %s from %s to %s was cancelled."},
	rental.StageInTransitToUser: {"Camera shipped", "%s is on its way for your rental from %s to %s."},
	rental.StageActive:          {"Rental started", "Enjoy %s! Your rental runs from %s to %s."},
	rental.StageReturnScheduled: {"Return scheduled", "Please ship %s back by %[3]s."},
	rental.StageCompleted:       {"Rental completed", "Thanks for renting %s from %s to %s."},
}

// stageChanged notifies the customer (and the admin where action is needed) and emits
// the lifecycle event.
func (n *Notifier) stageChanged(ctx context.Context, b *entity.Booking, cameraName string, action rental.Action, from, to rental.Stage, forced bool) {
	if n == nil {
		return
	}

	n.Emit(ctx, &entity.LifecycleEvent{
		ID:             uuid.NewString(),
		BookingID:      b.ID,
		CameraID:       b.CameraID,
		Action:         string(action),
		FromStage:      string(from),
		ToStage:        string(to),
		RentalStatus:   b.RentalStatus,
		ShippingStatus: b.ShippingStatus,
		Forced:         forced,
		OccurredAt:     time.Now(),
	})

	data := map[string]string{
		"booking_id": strconv.FormatInt(b.ID, 10),
		"stage":      string(to),
	}

	if msg, ok := stageMessages[to]; ok {
		n.Notify(ctx, b.CustomerChatID, msg.title,
			fmt.Sprintf(msg.body, cameraName, b.StartDate, b.EndDate), data)
	}

	if to == rental.StageInTransitToOwner {
		n.NotifyAdmin(ctx, "Return in transit",
			fmt.Sprintf("%s from booking #%d is on its way back.", cameraName, b.ID), data)
	}
}
