package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/queue"
	"github.com/sirupsen/logrus"
)

// ReminderSource lists bookings that are about to ship or to come back.
type ReminderSource interface {
	GetStartingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error)
	GetEndingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error)
}

type TaskPublisher interface {
	PublishOnce(ctx context.Context, task *queue.Task, ttl time.Duration) (bool, error)
}

type Options struct {
	Interval time.Duration
	// Horizon is how far ahead each tick looks for start/end dates.
	Horizon    time.Duration
	ShipLead   time.Duration
	ReturnLead time.Duration
}

// Scheduler enqueues ship and return reminders for upcoming bookings. Each reminder is
// keyed by booking so repeated ticks do not duplicate it.
type Scheduler struct {
	source    ReminderSource
	publisher TaskPublisher
	opts      Options
	now       func() time.Time
}

func NewScheduler(source ReminderSource, publisher TaskPublisher, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.Horizon <= 0 {
		opts.Horizon = 72 * time.Hour
	}
	return &Scheduler{
		source:    source,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	logrus.WithField("interval", s.opts.Interval.String()).Info("Reminder scheduler started")

	for {
		select {
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				logrus.WithError(err).Error("Error scheduling reminders")
			}
		case <-ctx.Done():
			logrus.Info("Reminder scheduler stopped")
			return
		}
	}
}

// Tick schedules reminders for the window [now, now+Horizon] and returns how many new
// tasks were enqueued.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	now := s.now()
	to := now.Add(s.opts.Horizon)

	starting, err := s.source.GetStartingBetween(ctx, now, to)
	if err != nil {
		return 0, fmt.Errorf("failed to get starting bookings: %w", err)
	}
	ending, err := s.source.GetEndingBetween(ctx, now, to)
	if err != nil {
		return 0, fmt.Errorf("failed to get ending bookings: %w", err)
	}

	scheduled := 0
	for _, r := range starting {
		ok, err := s.schedule(ctx, queue.TaskTypeShipReminder, "ship", r, r.StartDate, s.opts.ShipLead, now)
		if err != nil {
			return scheduled, err
		}
		if ok {
			scheduled++
		}
	}
	for _, r := range ending {
		ok, err := s.schedule(ctx, queue.TaskTypeReturnReminder, "return", r, r.EndDate, s.opts.ReturnLead, now)
		if err != nil {
			return scheduled, err
		}
		if ok {
			scheduled++
		}
	}

	if scheduled > 0 {
		logrus.WithFields(logrus.Fields{
			"starting":  len(starting),
			"ending":    len(ending),
			"scheduled": scheduled,
		}).Info("Reminders scheduled")
	}
	return scheduled, nil
}

func (s *Scheduler) schedule(ctx context.Context, typ queue.TaskType, prefix string, r *entity.BookingReminder, due entity.Date, lead time.Duration, now time.Time) (bool, error) {
	executeAt := due.Add(-lead)
	if executeAt.Before(now) {
		executeAt = now
	}

	task := &queue.Task{
		Type: typ,
		Data: map[string]interface{}{
			"booking_id":       r.BookingID,
			"camera_id":        r.CameraID,
			"camera_name":      r.CameraName,
			"customer_name":    r.CustomerName,
			"customer_chat_id": r.CustomerChatID,
			"start_date":       r.StartDate.String(),
			"end_date":         r.EndDate.String(),
		},
		ExecuteAt: executeAt,
		DedupKey:  fmt.Sprintf("%s:%d", prefix, r.BookingID),
	}

	// the key outlives the due date so later ticks inside the horizon stay deduplicated
	ttl := due.Add(24 * time.Hour).Sub(now)
	if ttl < time.Hour {
		ttl = time.Hour
	}

	ok, err := s.publisher.PublishOnce(ctx, task, ttl)
	if err != nil {
		return false, fmt.Errorf("failed to schedule %s reminder for booking %d: %w", prefix, r.BookingID, err)
	}
	return ok, nil
}
