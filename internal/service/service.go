package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
)

type CameraService interface {
	CreateCamera(ctx context.Context, req *CreateCameraRequest) (*entity.Camera, error)
	GetCamera(ctx context.Context, id int64) (*entity.Camera, error)
	GetAllCameras(ctx context.Context) ([]*entity.Camera, error)
	UpdateCamera(ctx context.Context, id int64, req *UpdateCameraRequest) (*entity.Camera, error)
}

// BookingService covers booking CRUD and the single-range conflict check.
type BookingService interface {
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingResult, error)
	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
	UpdateDates(ctx context.Context, id int64, req *UpdateDatesRequest) (*BookingResult, error)
	DeleteBooking(ctx context.Context, id int64) error
	CheckConflict(ctx context.Context, req *ConflictCheckRequest) (*rental.ConflictSummary, error)
}

type PotentialBookingService interface {
	CreatePotentialBooking(ctx context.Context, req *CreatePotentialBookingRequest) (*entity.PotentialBooking, error)
	GetPotentialBooking(ctx context.Context, id int64) (*entity.PotentialBooking, error)
	// GetAllPotentialBookings lists every potential booking, or one camera's when cameraID is set.
	GetAllPotentialBookings(ctx context.Context, cameraID int64) ([]*entity.PotentialBooking, error)
	DeletePotentialBooking(ctx context.Context, id int64) error
	// CheckPotentialConflicts runs one independent check per potential booking.
	CheckPotentialConflicts(ctx context.Context) ([]*PotentialConflict, error)
}

// RentalService is the admin dashboard: filtering, counts and lifecycle actions.
type RentalService interface {
	ListRentals(ctx context.Context, q *RentalQuery) (*RentalPage, error)
	CountFilters(ctx context.Context, taxonomy rental.Taxonomy, month *time.Time) (map[rental.FilterKey]int, error)
	NeedsAction(ctx context.Context) ([]*entity.Booking, error)
	GetLifecycle(ctx context.Context, id int64) (*LifecycleView, error)
	ApplyAction(ctx context.Context, id int64, action string, force bool) (*LifecycleView, error)
	CancelStalePending(ctx context.Context, before time.Time, limit int) (int64, error)
}

type CalendarService interface {
	RenderMonth(ctx context.Context, cameraID int64, month time.Time, sel *rental.Selection) (*CalendarView, error)
}

// CalendarCache stores month render inputs per camera. Writers call Invalidate.
type CalendarCache interface {
	GetMonth(ctx context.Context, cameraID int64, month time.Time) ([]*entity.Booking, bool, error)
	SetMonth(ctx context.Context, cameraID int64, month time.Time, bookings []*entity.Booking) error
	Invalidate(ctx context.Context, cameraID int64) error
}

// NotificationPublisher is the fire-and-forget dispatch endpoint.
type NotificationPublisher interface {
	Publish(ctx context.Context, message interface{}) error
}

// EventProducer receives lifecycle events keyed by booking.
type EventProducer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
}

type CreateCameraRequest struct {
	Name      string  `json:"name" binding:"required,min=1,max=255"`
	Brand     string  `json:"brand" binding:"max=100"`
	DailyRate float64 `json:"daily_rate" binding:"gte=0"`
}

type UpdateCameraRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Brand     *string  `json:"brand" binding:"omitempty,max=100"`
	DailyRate *float64 `json:"daily_rate" binding:"omitempty,gte=0"`
	Active    *bool    `json:"active"`
}

type CreateBookingRequest struct {
	CameraID       int64       `json:"camera_id" binding:"required"`
	CustomerName   string      `json:"customer_name" binding:"required,min=1,max=255"`
	CustomerEmail  string      `json:"customer_email" binding:"omitempty,email"`
	CustomerChatID string      `json:"customer_chat_id"`
	StartDate      entity.Date `json:"start_date" binding:"required"`
	EndDate        entity.Date `json:"end_date" binding:"required"`
}

type UpdateDatesRequest struct {
	StartDate entity.Date `json:"start_date" binding:"required"`
	EndDate   entity.Date `json:"end_date" binding:"required"`
	// Force moves a blocking booking onto dates another blocking booking holds.
	Force bool `json:"-"`
}

type ConflictCheckRequest struct {
	CameraID  int64       `json:"camera_id" binding:"required"`
	StartDate entity.Date `json:"start_date" binding:"required"`
	EndDate   entity.Date `json:"end_date" binding:"required"`
	// BookingID is excluded from the check when editing an existing booking.
	BookingID int64 `json:"booking_id"`
}

type CreatePotentialBookingRequest struct {
	CameraID     int64       `json:"camera_id" binding:"required"`
	CustomerName string      `json:"customer_name" binding:"required,min=1,max=255"`
	StartDate    entity.Date `json:"start_date" binding:"required"`
	EndDate      entity.Date `json:"end_date" binding:"required"`
	Notes        string      `json:"notes"`
}

// BookingResult carries the booking plus conflicts found at write time. Conflicts are
// warnings: a pending booking never blocks anything.
type BookingResult struct {
	Booking   *entity.Booking   `json:"booking"`
	Conflicts []*entity.Booking `json:"conflicts"`
}

type PotentialConflict struct {
	PotentialBooking *entity.PotentialBooking `json:"potential_booking"`
	HasConflict      bool                     `json:"has_conflict"`
	Conflicts        []*entity.Booking        `json:"conflicts"`
}

type RentalQuery struct {
	Taxonomy rental.Taxonomy
	Filter   rental.FilterKey
	Month    *time.Time
	CameraID int64
	Limit    int
	Offset   int
}

type RentalPage struct {
	Items  []*RentalItem `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// RentalItem is one row of the admin list.
type RentalItem struct {
	*entity.Booking
	FilterKey   rental.FilterKey `json:"filter_key"`
	StepKey     rental.StepKey   `json:"step_key"`
	NeedsAction bool             `json:"needs_action"`
}

type LifecycleView struct {
	Booking        *entity.Booking `json:"booking"`
	StepKey        rental.StepKey  `json:"step_key"`
	StepIndex      int             `json:"step_index"`
	Steps          []rental.Step   `json:"steps"`
	Stage          rental.Stage    `json:"stage"`
	AllowedActions []rental.Action `json:"allowed_actions"`
	Anomalies      []string        `json:"anomalies"`
}

type CalendarView struct {
	CameraID  int64             `json:"camera_id"`
	Month     string            `json:"month"`
	Cells     []rental.Cell     `json:"cells"`
	Selection *rental.Selection `json:"selection,omitempty"`
	// Conflicts lists blocking bookings overlapping the selection.
	Conflicts []*entity.Booking `json:"conflicts,omitempty"`
}
