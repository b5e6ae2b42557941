package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
)

// BookingQuery narrows List. Zero values mean "no constraint".
type BookingQuery struct {
	CameraID int64
	// From/To select bookings whose inclusive range touches [From, To].
	From *time.Time
	To   *time.Time
}

type BookingRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	Delete(ctx context.Context, id int64) error

	// Lifecycle operations
	UpdateLifecycle(ctx context.Context, id int64, stage string, rs entity.RentalStatus, ss entity.ShippingStatus) error
	BulkUpdateLifecycle(ctx context.Context, ids []int64, stage string, rs entity.RentalStatus, ss entity.ShippingStatus) (int64, error)

	// Query operations
	List(ctx context.Context, q BookingQuery) ([]*entity.Booking, error)
	GetByCamera(ctx context.Context, cameraID int64) ([]*entity.Booking, error)
	GetStalePending(ctx context.Context, before time.Time, limit int) ([]*entity.Booking, error)

	// Reminder operations
	GetStartingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error)
	GetEndingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error)
}

type CameraRepository interface {
	Create(ctx context.Context, camera *entity.Camera) error
	GetByID(ctx context.Context, id int64) (*entity.Camera, error)
	GetAll(ctx context.Context) ([]*entity.Camera, error)
	Update(ctx context.Context, camera *entity.Camera) error
}

type PotentialBookingRepository interface {
	Create(ctx context.Context, pb *entity.PotentialBooking) error
	GetByID(ctx context.Context, id int64) (*entity.PotentialBooking, error)
	GetAll(ctx context.Context) ([]*entity.PotentialBooking, error)
	GetByCamera(ctx context.Context, cameraID int64) ([]*entity.PotentialBooking, error)
	Delete(ctx context.Context, id int64) error
}
