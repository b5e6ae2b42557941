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

type calendarService struct {
	bookingRepo repository.BookingRepository
	cameraRepo  repository.CameraRepository
	cache       CalendarCache
}

func NewCalendarService(bookingRepo repository.BookingRepository, cameraRepo repository.CameraRepository, cache CalendarCache) CalendarService {
	return &calendarService{
		bookingRepo: bookingRepo,
		cameraRepo:  cameraRepo,
		cache:       cache,
	}
}

// RenderMonth draws the camera's month. The bookings touching the month come from the
// cache when present; a cache failure falls through to the database.
func (s *calendarService) RenderMonth(ctx context.Context, cameraID int64, month time.Time, sel *rental.Selection) (*CalendarView, error) {
	if _, err := s.cameraRepo.GetByID(ctx, cameraID); err != nil {
		return nil, err
	}

	first, last := calendar.MonthRange(month)
	log := logrus.WithFields(logrus.Fields{"camera_id": cameraID, "month": first.Format("2006-01")})

	bookings, hit := s.cachedMonth(ctx, cameraID, first, log)
	if !hit {
		var err error
		bookings, err = s.bookingRepo.List(ctx, repository.BookingQuery{CameraID: cameraID, From: &first, To: &last})
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings: %w", err)
		}
		if s.cache != nil {
			if err := s.cache.SetMonth(ctx, cameraID, first, bookings); err != nil {
				log.WithError(err).Warn("Failed to cache calendar month")
			}
		}
	}

	view := &CalendarView{
		CameraID: cameraID,
		Month:    first.Format("2006-01"),
		Cells:    rental.RenderMonth(cameraID, first, bookings, sel),
	}

	if sel != nil {
		view.Selection = sel
		// the selection may extend past the month, so check against the full set
		existing, err := s.bookingRepo.GetByCamera(ctx, cameraID)
		if err != nil {
			return nil, fmt.Errorf("failed to load camera bookings: %w", err)
		}
		view.Conflicts = rental.SelectionConflicts(cameraID, *sel, 0, existing)
	}

	return view, nil
}

func (s *calendarService) cachedMonth(ctx context.Context, cameraID int64, first time.Time, log *logrus.Entry) ([]*entity.Booking, bool) {
	if s.cache == nil {
		return nil, false
	}
	bookings, hit, err := s.cache.GetMonth(ctx, cameraID, first)
	if err != nil {
		log.WithError(err).Warn("Calendar cache read failed")
		return nil, false
	}
	if hit {
		log.Debug("Calendar cache hit")
	}
	return bookings, hit
}
