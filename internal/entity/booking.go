package entity

import (
	"time"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusConfirmed RentalStatus = "confirmed"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
	RentalStatusRejected  RentalStatus = "rejected"
)

// ShippingStatus is the logistics axis. The zero value means no shipping activity yet.
type ShippingStatus string

const (
	ShippingStatusNone             ShippingStatus = ""
	ShippingStatusReadyToShip      ShippingStatus = "ready_to_ship"
	ShippingStatusInTransitToUser  ShippingStatus = "in_transit_to_user"
	ShippingStatusDelivered        ShippingStatus = "delivered"
	ShippingStatusReturnScheduled  ShippingStatus = "return_scheduled"
	ShippingStatusInTransitToOwner ShippingStatus = "in_transit_to_owner"
	ShippingStatusReturned         ShippingStatus = "returned"
)

var RentalStatuses = []RentalStatus{
	RentalStatusPending,
	RentalStatusConfirmed,
	RentalStatusActive,
	RentalStatusCompleted,
	RentalStatusCancelled,
	RentalStatusRejected,
}

var ShippingStatuses = []ShippingStatus{
	ShippingStatusNone,
	ShippingStatusReadyToShip,
	ShippingStatusInTransitToUser,
	ShippingStatusDelivered,
	ShippingStatusReturnScheduled,
	ShippingStatusInTransitToOwner,
	ShippingStatusReturned,
}

// Blocking reports whether a booking in this status reserves the camera.
func (s RentalStatus) Blocking() bool {
	switch s {
	case RentalStatusConfirmed, RentalStatusActive, RentalStatusCompleted:
		return true
	}
	return false
}

func (s RentalStatus) Valid() bool {
	for _, st := range RentalStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s ShippingStatus) Valid() bool {
	for _, st := range ShippingStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Booking is a rental of one camera for an inclusive date range.
type Booking struct {
	ID             int64          `json:"id" db:"id"`
	CameraID       int64          `json:"camera_id" db:"camera_id"`
	CustomerName   string         `json:"customer_name" db:"customer_name"`
	CustomerEmail  string         `json:"customer_email" db:"customer_email"`
	CustomerChatID string         `json:"customer_chat_id,omitempty" db:"customer_chat_id"`
	StartDate      Date           `json:"start_date" db:"start_date"`
	EndDate        Date           `json:"end_date" db:"end_date"`
	RentalStatus   RentalStatus   `json:"rental_status" db:"rental_status"`
	ShippingStatus ShippingStatus `json:"shipping_status" db:"shipping_status"`
	// LifecycleStage is authoritative once set; rows written before it existed leave it
	// empty and the stage is derived from the two status fields.
	LifecycleStage string    `json:"lifecycle_stage,omitempty" db:"lifecycle_stage"`
	TotalPrice     float64   `json:"total_price" db:"total_price"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// PotentialBooking is a tentative admin pre-block that never blocks anything itself.
type PotentialBooking struct {
	ID           int64     `json:"id" db:"id"`
	CameraID     int64     `json:"camera_id" db:"camera_id"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	StartDate    Date      `json:"start_date" db:"start_date"`
	EndDate      Date      `json:"end_date" db:"end_date"`
	Notes        string    `json:"notes" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// BookingReminder is a joined row used to schedule ship/return reminders.
type BookingReminder struct {
	BookingID      int64          `json:"booking_id"`
	CameraID       int64          `json:"camera_id"`
	CameraName     string         `json:"camera_name"`
	CustomerName   string         `json:"customer_name"`
	CustomerChatID string         `json:"customer_chat_id"`
	StartDate      Date           `json:"start_date"`
	EndDate        Date           `json:"end_date"`
	RentalStatus   RentalStatus   `json:"rental_status"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
}
