package rental

import (
	"github.com/ds124wfegd/camera-rental/internal/entity"
)

type StepKey string

const (
	StepPending          StepKey = "pending"
	StepConfirmed        StepKey = "confirmed"
	StepReadyToShip      StepKey = "ready_to_ship"
	StepInTransitToUser  StepKey = "in_transit_to_user"
	StepDelivered        StepKey = "delivered"
	StepActive           StepKey = "active"
	StepReturnScheduled  StepKey = "return_scheduled"
	StepInTransitToOwner StepKey = "in_transit_to_owner"
	StepReturned         StepKey = "returned"
	StepCompleted        StepKey = "completed"
)

// Step is one position of the progress UI.
type Step struct {
	Key   StepKey `json:"key"`
	Index int     `json:"index"`
	Label string  `json:"label"`
}

var steps = []Step{
	{StepPending, 0, "Request received"},
	{StepConfirmed, 1, "Confirmed"},
	{StepReadyToShip, 2, "Ready to ship"},
	{StepInTransitToUser, 3, "On the way to customer"},
	{StepDelivered, 4, "Delivered"},
	{StepActive, 5, "In use"},
	{StepReturnScheduled, 6, "Return scheduled"},
	{StepInTransitToOwner, 7, "On the way back"},
	{StepReturned, 8, "Returned"},
	{StepCompleted, 9, "Completed"},
}

// Steps returns the ordered lifecycle, a fresh copy per call.
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// CurrentStepKey resolves the lifecycle position from the two status fields.
// Late states are checked first so a stale rental_status cannot pull a finished rental
// back to an early step.
func CurrentStepKey(b *entity.Booking) StepKey {
	return stepOf(b.RentalStatus, b.ShippingStatus)
}

func stepOf(rs entity.RentalStatus, ss entity.ShippingStatus) StepKey {
	switch {
	case rs == entity.RentalStatusCompleted || ss == entity.ShippingStatusReturned:
		return StepCompleted
	case ss == entity.ShippingStatusInTransitToOwner:
		return StepInTransitToOwner
	case ss == entity.ShippingStatusReturnScheduled:
		return StepReturnScheduled
	case rs == entity.RentalStatusActive:
		return StepActive
	case ss == entity.ShippingStatusDelivered:
		return StepDelivered
	case ss == entity.ShippingStatusInTransitToUser:
		return StepInTransitToUser
	case ss == entity.ShippingStatusReadyToShip:
		return StepReadyToShip
	case rs == entity.RentalStatusConfirmed:
		return StepConfirmed
	case rs == entity.RentalStatusPending:
		return StepPending
	default:
		return StepPending
	}
}

// StepIndex is the 0..9 position of CurrentStepKey.
func StepIndex(b *entity.Booking) int {
	return IndexOf(CurrentStepKey(b))
}

func IndexOf(key StepKey) int {
	for _, s := range steps {
		if s.Key == key {
			return s.Index
		}
	}
	return 0
}
