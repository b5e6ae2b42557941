package service

import (
	"context"
	"fmt"
	"strconv"

	repository "github.com/ds124wfegd/camera-rental/internal/database/postgres"
	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/ds124wfegd/camera-rental/pkg/calendar"
	"github.com/sirupsen/logrus"
)

type bookingService struct {
	bookingRepo repository.BookingRepository
	cameraRepo  repository.CameraRepository
	cache       CalendarCache
	notifier    *Notifier
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	cameraRepo repository.CameraRepository,
	cache CalendarCache,
	notifier *Notifier,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		cameraRepo:  cameraRepo,
		cache:       cache,
		notifier:    notifier,
	}
}

func validateRange(start, end entity.Date) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", entity.ErrInvalidInput)
	}
	if start.After(end.Time) {
		return entity.ErrInvalidDateRange
	}
	return nil
}

func price(camera *entity.Camera, start, end entity.Date) float64 {
	return camera.DailyRate * float64(calendar.DaysInclusive(start.Time, end.Time))
}

// CreateBooking stores a new pending request. Overlaps with blocking bookings are
// reported but do not prevent the request.
func (s *bookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResult, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	camera, err := s.cameraRepo.GetByID(ctx, req.CameraID)
	if err != nil {
		return nil, err
	}

	booking := &entity.Booking{
		CameraID:       req.CameraID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerChatID: req.CustomerChatID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		RentalStatus:   entity.RentalStatusPending,
		ShippingStatus: entity.ShippingStatusNone,
		LifecycleStage: string(rental.StagePending),
		TotalPrice:     price(camera, req.StartDate, req.EndDate),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"camera_id":  booking.CameraID,
		"start":      booking.StartDate.String(),
		"end":        booking.EndDate.String(),
	}).Info("Booking created")

	invalidate(ctx, s.cache, booking.CameraID)

	conflicts := s.conflictsFor(ctx, booking)

	s.notifier.NotifyAdmin(ctx, "New rental request",
		fmt.Sprintf("%s requested %s from %s to %s.", booking.CustomerName, camera.Name, booking.StartDate, booking.EndDate),
		map[string]string{"booking_id": strconv.FormatInt(booking.ID, 10)})

	return &BookingResult{Booking: booking, Conflicts: conflicts}, nil
}

// conflictsFor is best effort: a failed lookup yields no warnings.
func (s *bookingService) conflictsFor(ctx context.Context, b *entity.Booking) []*entity.Booking {
	existing, err := s.bookingRepo.GetByCamera(ctx, b.CameraID)
	if err != nil {
		logrus.WithError(err).WithField("booking_id", b.ID).Warn("Conflict check skipped")
		return []*entity.Booking{}
	}

	conflicts := rental.FindConflicts(b.CameraID, b.StartDate.Time, b.EndDate.Time, b.ID, existing)
	if len(conflicts) > 0 {
		logrus.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"conflicts":  len(conflicts),
		}).Warn("Booking overlaps blocking bookings")
	}
	if conflicts == nil {
		conflicts = []*entity.Booking{}
	}
	return conflicts
}

func (s *bookingService) GetBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// UpdateDates moves a booking. The booking itself is excluded from the conflict check.
// A pending booking only gets warnings; a blocking one is refused with ErrBookingConflict
// while another blocking booking overlaps the new range, unless req.Force is set.
func (s *bookingService) UpdateDates(ctx context.Context, id int64, req *UpdateDatesRequest) (*BookingResult, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rental.ResolveStage(booking).Terminal() {
		return nil, fmt.Errorf("%w: dates of a %s booking are final", entity.ErrInvalidTransition, rental.ResolveStage(booking))
	}

	camera, err := s.cameraRepo.GetByID(ctx, booking.CameraID)
	if err != nil {
		return nil, err
	}

	var conflicts []*entity.Booking
	if booking.RentalStatus.Blocking() {
		existing, err := s.bookingRepo.GetByCamera(ctx, booking.CameraID)
		if err != nil {
			return nil, fmt.Errorf("failed to load camera bookings: %w", err)
		}
		conflicts = rental.FindConflicts(booking.CameraID, req.StartDate.Time, req.EndDate.Time, booking.ID, existing)
		if len(conflicts) > 0 {
			if !req.Force {
				return nil, fmt.Errorf("%w: %d overlapping booking(s)", entity.ErrBookingConflict, len(conflicts))
			}
			logrus.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"conflicts":  len(conflicts),
			}).Warn("Conflict overridden by admin")
		}
	}

	booking.StartDate = req.StartDate
	booking.EndDate = req.EndDate
	booking.TotalPrice = price(camera, req.StartDate, req.EndDate)

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	invalidate(ctx, s.cache, booking.CameraID)

	if !booking.RentalStatus.Blocking() {
		conflicts = s.conflictsFor(ctx, booking)
	}
	if conflicts == nil {
		conflicts = []*entity.Booking{}
	}
	return &BookingResult{Booking: booking, Conflicts: conflicts}, nil
}

// DeleteBooking refuses bookings that still reserve the camera; cancel them first.
func (s *bookingService) DeleteBooking(ctx context.Context, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if booking.RentalStatus.Blocking() {
		return entity.ErrBookingBlocking
	}

	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return err
	}

	invalidate(ctx, s.cache, booking.CameraID)
	logrus.WithField("booking_id", id).Info("Booking deleted")
	return nil
}

func (s *bookingService) CheckConflict(ctx context.Context, req *ConflictCheckRequest) (*rental.ConflictSummary, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	existing, err := s.bookingRepo.GetByCamera(ctx, req.CameraID)
	if err != nil {
		return nil, fmt.Errorf("failed to load camera bookings: %w", err)
	}

	summary := rental.Summarize(req.CameraID, req.StartDate, req.EndDate, req.BookingID, existing)
	return &summary, nil
}

func invalidate(ctx context.Context, cache CalendarCache, cameraID int64) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, cameraID); err != nil {
		logrus.WithError(err).WithField("camera_id", cameraID).Warn("Failed to invalidate calendar cache")
	}
}
