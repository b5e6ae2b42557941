package entity

import (
	"time"
)

// Notification is the fire-and-forget dispatch payload.
type Notification struct {
	ID        string            `json:"id"`
	Recipient string            `json:"recipient"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// LifecycleEvent is emitted for every applied lifecycle action.
type LifecycleEvent struct {
	ID             string         `json:"id"`
	BookingID      int64          `json:"booking_id"`
	CameraID       int64          `json:"camera_id"`
	Action         string         `json:"action"`
	FromStage      string         `json:"from_stage"`
	ToStage        string         `json:"to_stage"`
	RentalStatus   RentalStatus   `json:"rental_status"`
	ShippingStatus ShippingStatus `json:"shipping_status"`
	Forced         bool           `json:"forced,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}
