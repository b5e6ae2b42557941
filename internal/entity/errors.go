package entity

import "errors"

var (
	// Camera errors
	ErrCameraNotFound = errors.New("camera not found")

	// Booking errors
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingConflict   = errors.New("booking conflicts with a confirmed booking")
	ErrBookingBlocking   = errors.New("booking still reserves the camera")
	ErrInvalidDateRange  = errors.New("start date must not be after end date")
	ErrInvalidTransition = errors.New("action not allowed in current stage")
	ErrUnknownAction     = errors.New("unknown lifecycle action")

	// Potential booking errors
	ErrPotentialBookingNotFound = errors.New("potential booking not found")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFilter = errors.New("invalid filter key")
	ErrDatabaseError = errors.New("database error")
)
