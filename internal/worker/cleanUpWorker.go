package worker

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"github.com/sirupsen/logrus"
)

// StaleCanceller cancels pending requests whose start date is already behind us.
type StaleCanceller interface {
	CancelStalePending(ctx context.Context, before time.Time, limit int) (int64, error)
}

type BookingCleanupWorker struct {
	rentals   StaleCanceller
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewBookingCleanupWorker(rentals StaleCanceller, interval time.Duration, batchSize int) *BookingCleanupWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &BookingCleanupWorker{
		rentals:   rentals,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (w *BookingCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Booking cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Booking cleanup worker stopped")
			return
		case <-ticker.C:
			w.Cleanup(ctx)
		}
	}
}

// Cleanup cancels stale pending bookings batch by batch until a short batch comes back.
// A booking starting today is not stale yet.
func (w *BookingCleanupWorker) Cleanup(ctx context.Context) int64 {
	cutoff := now.With(w.now().UTC()).BeginningOfDay()

	var total int64
	batches := 0
	for {
		select {
		case <-ctx.Done():
			logrus.WithField("cancelled", total).Info("Cleanup interrupted by context cancellation")
			return total
		default:
		}

		n, err := w.rentals.CancelStalePending(ctx, cutoff, w.batchSize)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"cutoff":  cutoff.Format("2006-01-02"),
				"batches": batches,
				"error":   err,
			}).Error("Failed to cancel stale pending bookings")
			break
		}
		batches++
		total += n

		if n < int64(w.batchSize) {
			break
		}
	}

	if total > 0 {
		logrus.WithFields(logrus.Fields{
			"cancelled": total,
			"batches":   batches,
		}).Info("Stale bookings cleanup completed")
	} else {
		logrus.Debug("No stale pending bookings found")
	}
	return total
}

func (w *BookingCleanupWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "booking_cleanup",
		"interval":    w.interval.String(),
		"batch_size":  w.batchSize,
	}
}
