package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/ds124wfegd/camera-rental/pkg/queue"
	"github.com/sirupsen/logrus"
)

// BookingLookup reloads a booking before a reminder goes out.
type BookingLookup interface {
	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
}

// TaskHandler runs the tasks of the reminder queue.
type TaskHandler struct {
	bookings    BookingLookup
	sender      MessageSender
	adminChatID string
	timeout     time.Duration
}

func NewTaskHandler(bookings BookingLookup, sender MessageSender, adminChatID string) *TaskHandler {
	if sender == nil {
		sender = LogSender{}
	}
	return &TaskHandler{
		bookings:    bookings,
		sender:      sender,
		adminChatID: adminChatID,
		timeout:     15 * time.Second,
	}
}

// HandleTask is the queue subscriber callback. Bad task data is a permanent failure.
func (h *TaskHandler) HandleTask(task *queue.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"type":     task.Type,
		"attempts": task.Attempts,
	}).Debug("Handling task")

	switch task.Type {
	case queue.TaskTypeShipReminder:
		return h.handleReminder(ctx, task, shipReminder)
	case queue.TaskTypeReturnReminder:
		return h.handleReminder(ctx, task, returnReminder)
	case queue.TaskTypeSendNotification:
		return h.handleSendNotification(ctx, task)
	default:
		return queue.Permanent(fmt.Errorf("unknown task type: %s", task.Type))
	}
}

type reminder struct {
	// stages in which the reminder still makes sense
	stages   map[rental.Stage]bool
	admin    func(task *queue.Task) string
	customer func(task *queue.Task) string
}

var shipReminder = reminder{
	stages: map[rental.Stage]bool{
		rental.StageConfirmed:   true,
		rental.StageReadyToShip: true,
	},
	admin: func(t *queue.Task) string {
		return fmt.Sprintf("Ship reminder\n\nBooking #%d: %s for %s starts %s.",
			t.GetInt64("booking_id"), t.GetString("camera_name"), t.GetString("customer_name"), t.GetString("start_date"))
	},
	customer: func(t *queue.Task) string {
		return fmt.Sprintf("Your rental of %s starts on %s. We are getting it ready to ship.",
			t.GetString("camera_name"), t.GetString("start_date"))
	},
}

var returnReminder = reminder{
	stages: map[rental.Stage]bool{
		rental.StageDelivered:       true,
		rental.StageActive:          true,
		rental.StageReturnScheduled: true,
	},
	admin: func(t *queue.Task) string {
		return fmt.Sprintf("Return reminder\n\nBooking #%d: %s from %s ends %s.",
			t.GetInt64("booking_id"), t.GetString("camera_name"), t.GetString("customer_name"), t.GetString("end_date"))
	},
	customer: func(t *queue.Task) string {
		return fmt.Sprintf("Your rental of %s ends on %s. Please prepare it for return.",
			t.GetString("camera_name"), t.GetString("end_date"))
	},
}

func (h *TaskHandler) handleReminder(ctx context.Context, task *queue.Task, r reminder) error {
	bookingID := task.GetInt64("booking_id")
	if bookingID <= 0 {
		return queue.Permanent(fmt.Errorf("task %s: missing booking_id", task.ID))
	}

	booking, err := h.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, entity.ErrBookingNotFound) {
		logrus.WithField("booking_id", bookingID).Info("Booking gone, reminder skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load booking %d: %w", bookingID, err)
	}

	stage := rental.ResolveStage(booking)
	if !r.stages[stage] {
		logrus.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"type":       task.Type,
			"stage":      stage,
		}).Info("Reminder no longer relevant, skipped")
		return nil
	}

	if h.adminChatID != "" {
		if err := h.sender.SendMessage(ctx, h.adminChatID, r.admin(task)); err != nil {
			return fmt.Errorf("failed to send admin reminder: %w", err)
		}
	}
	if chatID := task.GetString("customer_chat_id"); chatID != "" {
		if err := h.sender.SendMessage(ctx, chatID, r.customer(task)); err != nil {
			return fmt.Errorf("failed to send customer reminder: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"type":       task.Type,
	}).Info("Reminder sent")
	return nil
}

func (h *TaskHandler) handleSendNotification(ctx context.Context, task *queue.Task) error {
	recipient := task.GetString("recipient")
	if recipient == "" {
		return queue.Permanent(fmt.Errorf("task %s: missing recipient", task.ID))
	}

	text := formatMessage(task.GetString("title"), task.GetString("body"))
	if err := h.sender.SendMessage(ctx, recipient, text); err != nil {
		return fmt.Errorf("failed to send notification %s: %w", task.GetString("notification_id"), err)
	}
	return nil
}
