package service

import (
	"context"
	"fmt"

	repository "github.com/ds124wfegd/camera-rental/internal/database/postgres"
	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type potentialBookingService struct {
	potentialRepo repository.PotentialBookingRepository
	bookingRepo   repository.BookingRepository
	cameraRepo    repository.CameraRepository
	concurrency   int
}

func NewPotentialBookingService(
	potentialRepo repository.PotentialBookingRepository,
	bookingRepo repository.BookingRepository,
	cameraRepo repository.CameraRepository,
	concurrency int,
) PotentialBookingService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &potentialBookingService{
		potentialRepo: potentialRepo,
		bookingRepo:   bookingRepo,
		cameraRepo:    cameraRepo,
		concurrency:   concurrency,
	}
}

func (s *potentialBookingService) CreatePotentialBooking(ctx context.Context, req *CreatePotentialBookingRequest) (*entity.PotentialBooking, error) {
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if _, err := s.cameraRepo.GetByID(ctx, req.CameraID); err != nil {
		return nil, err
	}

	pb := &entity.PotentialBooking{
		CameraID:     req.CameraID,
		CustomerName: req.CustomerName,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Notes:        req.Notes,
	}
	if err := s.potentialRepo.Create(ctx, pb); err != nil {
		return nil, fmt.Errorf("failed to create potential booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{"potential_id": pb.ID, "camera_id": pb.CameraID}).Info("Potential booking created")
	return pb, nil
}

func (s *potentialBookingService) GetPotentialBooking(ctx context.Context, id int64) (*entity.PotentialBooking, error) {
	return s.potentialRepo.GetByID(ctx, id)
}

func (s *potentialBookingService) GetAllPotentialBookings(ctx context.Context, cameraID int64) ([]*entity.PotentialBooking, error) {
	if cameraID != 0 {
		return s.potentialRepo.GetByCamera(ctx, cameraID)
	}
	return s.potentialRepo.GetAll(ctx)
}

func (s *potentialBookingService) DeletePotentialBooking(ctx context.Context, id int64) error {
	return s.potentialRepo.Delete(ctx, id)
}

// CheckPotentialConflicts checks every potential booking against a fresh snapshot of its
// camera's bookings. A failed item is logged and reported as conflict-free so one bad
// lookup does not fail the batch. Results keep the input order.
func (s *potentialBookingService) CheckPotentialConflicts(ctx context.Context) ([]*PotentialConflict, error) {
	potentials, err := s.potentialRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load potential bookings: %w", err)
	}

	results := make([]*PotentialConflict, len(potentials))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, pb := range potentials {
		i, pb := i, pb
		g.Go(func() error {
			results[i] = s.checkOne(gctx, pb)
			return nil
		})
	}
	// workers never return an error
	_ = g.Wait()

	return results, nil
}

func (s *potentialBookingService) checkOne(ctx context.Context, pb *entity.PotentialBooking) *PotentialConflict {
	result := &PotentialConflict{PotentialBooking: pb, Conflicts: []*entity.Booking{}}

	existing, err := s.bookingRepo.GetByCamera(ctx, pb.CameraID)
	if err != nil {
		logrus.WithError(err).WithField("potential_id", pb.ID).Warn("Potential booking conflict check failed")
		return result
	}

	// potential bookings have no row in bookings, so nothing to exclude
	conflicts := rental.FindConflicts(pb.CameraID, pb.StartDate.Time, pb.EndDate.Time, 0, existing)
	if len(conflicts) > 0 {
		result.HasConflict = true
		result.Conflicts = conflicts
	}
	return result
}
