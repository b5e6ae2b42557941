package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/camera-rental/internal/database/postgres"
	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/ds124wfegd/camera-rental/pkg/calendar"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type rentalService struct {
	bookingRepo repository.BookingRepository
	cameraRepo  repository.CameraRepository
	cache       CalendarCache
	notifier    *Notifier
}

func NewRentalService(
	bookingRepo repository.BookingRepository,
	cameraRepo repository.CameraRepository,
	cache CalendarCache,
	notifier *Notifier,
) RentalService {
	return &rentalService{
		bookingRepo: bookingRepo,
		cameraRepo:  cameraRepo,
		cache:       cache,
		notifier:    notifier,
	}
}

func monthQuery(cameraID int64, month *time.Time) repository.BookingQuery {
	q := repository.BookingQuery{CameraID: cameraID}
	if month != nil {
		first, last := calendar.MonthRange(*month)
		q.From, q.To = &first, &last
	}
	return q
}

// ListRentals returns one page of rentals matching the filter key. An empty key lists all.
func (s *rentalService) ListRentals(ctx context.Context, q *RentalQuery) (*RentalPage, error) {
	bookings, err := s.bookingRepo.List(ctx, monthQuery(q.CameraID, q.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}

	if q.Filter != "" {
		bookings = rental.Filter(bookings, q.Taxonomy, q.Filter)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	page := &RentalPage{
		Items:  []*RentalItem{},
		Total:  len(bookings),
		Limit:  limit,
		Offset: offset,
	}
	if offset >= len(bookings) {
		return page, nil
	}

	end := offset + limit
	if end > len(bookings) {
		end = len(bookings)
	}
	for _, b := range bookings[offset:end] {
		page.Items = append(page.Items, &RentalItem{
			Booking:     b,
			FilterKey:   rental.DeriveFilterKey(b),
			StepKey:     rental.CurrentStepKey(b),
			NeedsAction: rental.NeedsAdminAction(b),
		})
	}
	return page, nil
}

func (s *rentalService) CountFilters(ctx context.Context, taxonomy rental.Taxonomy, month *time.Time) (map[rental.FilterKey]int, error) {
	bookings, err := s.bookingRepo.List(ctx, monthQuery(0, month))
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return rental.CountFilters(bookings, taxonomy, month), nil
}

func (s *rentalService) NeedsAction(ctx context.Context) ([]*entity.Booking, error) {
	bookings, err := s.bookingRepo.List(ctx, repository.BookingQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return rental.Filter(bookings, rental.TaxonomyStatus, rental.FilterNeedsAction), nil
}

func (s *rentalService) GetLifecycle(ctx context.Context, id int64) (*LifecycleView, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return lifecycleView(booking), nil
}

func lifecycleView(b *entity.Booking) *LifecycleView {
	stage := rental.ResolveStage(b)

	anomalies := rental.Anomalies(b)
	if len(anomalies) > 0 {
		logrus.WithFields(logrus.Fields{
			"booking_id":      b.ID,
			"rental_status":   b.RentalStatus,
			"shipping_status": b.ShippingStatus,
			"stage":           stage,
			"anomalies":       anomalies,
		}).Warn("Inconsistent rental status combination")
	} else {
		anomalies = []string{}
	}

	return &LifecycleView{
		Booking:        b,
		StepKey:        rental.CurrentStepKey(b),
		StepIndex:      rental.StepIndex(b),
		Steps:          rental.Steps(),
		Stage:          stage,
		AllowedActions: rental.AllowedActions(stage),
		Anomalies:      anomalies,
	}
}

// ApplyAction runs one lifecycle transition. Entering a blocking stage from a
// non-blocking one is refused with ErrBookingConflict while a blocking booking overlaps,
// unless force is set. The check and the write are not atomic.
func (s *rentalService) ApplyAction(ctx context.Context, id int64, name string, force bool) (*LifecycleView, error) {
	action, err := rental.ParseAction(name)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := rental.ResolveStage(booking)
	to, err := rental.Transition(from, action)
	if err != nil {
		return nil, err
	}

	forced := false
	if to.Blocking() && !from.Blocking() {
		existing, err := s.bookingRepo.GetByCamera(ctx, booking.CameraID)
		if err != nil {
			return nil, fmt.Errorf("failed to load camera bookings: %w", err)
		}
		conflicts := rental.FindConflicts(booking.CameraID, booking.StartDate.Time, booking.EndDate.Time, booking.ID, existing)
		if len(conflicts) > 0 {
			if !force {
				return nil, fmt.Errorf("%w: %d overlapping booking(s)", entity.ErrBookingConflict, len(conflicts))
			}
			forced = true
			logrus.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"conflicts":  len(conflicts),
			}).Warn("Conflict overridden by admin")
		}
	}

	if _, _, err := rental.Apply(booking, action); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.UpdateLifecycle(ctx, booking.ID, booking.LifecycleStage, booking.RentalStatus, booking.ShippingStatus); err != nil {
		return nil, fmt.Errorf("failed to save lifecycle: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"action":     action,
		"from":       from,
		"to":         to,
	}).Info("Lifecycle transition applied")

	invalidate(ctx, s.cache, booking.CameraID)

	s.notifier.stageChanged(ctx, booking, s.cameraName(ctx, booking.CameraID), action, from, to, forced)

	return lifecycleView(booking), nil
}

func (s *rentalService) cameraName(ctx context.Context, cameraID int64) string {
	camera, err := s.cameraRepo.GetByID(ctx, cameraID)
	if err != nil {
		return fmt.Sprintf("camera #%d", cameraID)
	}
	return camera.Name
}

// CancelStalePending cancels up to limit pending requests whose start date is before
// the cutoff and returns how many rows changed.
func (s *rentalService) CancelStalePending(ctx context.Context, before time.Time, limit int) (int64, error) {
	stale, err := s.bookingRepo.GetStalePending(ctx, before, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get stale bookings: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(stale))
	for _, b := range stale {
		ids = append(ids, b.ID)
	}

	rs, ss := rental.StageCancelled.Statuses()
	n, err := s.bookingRepo.BulkUpdateLifecycle(ctx, ids, string(rental.StageCancelled), rs, ss)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale bookings: %w", err)
	}

	cameras := make(map[int64]bool)
	for _, b := range stale {
		if !cameras[b.CameraID] {
			cameras[b.CameraID] = true
			invalidate(ctx, s.cache, b.CameraID)
		}
		b.LifecycleStage = string(rental.StageCancelled)
		b.RentalStatus, b.ShippingStatus = rs, ss
		s.notifier.stageChanged(ctx, b, s.cameraName(ctx, b.CameraID), rental.ActionCancel, rental.StagePending, rental.StageCancelled, false)
	}

	logrus.WithFields(logrus.Fields{"found": len(stale), "cancelled": n}).Info("Stale pending bookings cancelled")
	return n, nil
}
