package rental

import (
	"fmt"

	"github.com/ds124wfegd/camera-rental/internal/entity"
)

// Stage is the closed set of lifecycle states: the ten steps plus the two terminal
// refusals. Bookings persist it; the raw status pair is kept in sync for older readers.
type Stage string

const (
	StagePending          = Stage(StepPending)
	StageConfirmed        = Stage(StepConfirmed)
	StageReadyToShip      = Stage(StepReadyToShip)
	StageInTransitToUser  = Stage(StepInTransitToUser)
	StageDelivered        = Stage(StepDelivered)
	StageActive           = Stage(StepActive)
	StageReturnScheduled  = Stage(StepReturnScheduled)
	StageInTransitToOwner = Stage(StepInTransitToOwner)
	StageReturned         = Stage(StepReturned)
	StageCompleted        = Stage(StepCompleted)
	StageCancelled        Stage = "cancelled"
	StageRejected         Stage = "rejected"
)

type Action string

const (
	ActionConfirm        Action = "confirm"
	ActionReject         Action = "reject"
	ActionCancel         Action = "cancel"
	ActionMarkReady      Action = "mark_ready"
	ActionShip           Action = "ship"
	ActionDeliver        Action = "deliver"
	ActionActivate       Action = "activate"
	ActionScheduleReturn Action = "schedule_return"
	ActionReturnShip     Action = "return_ship"
	ActionReceiveReturn  Action = "receive_return"
	ActionComplete       Action = "complete"
)

type statusPair struct {
	rental   entity.RentalStatus
	shipping entity.ShippingStatus
}

var canonical = map[Stage]statusPair{
	StagePending:          {entity.RentalStatusPending, entity.ShippingStatusNone},
	StageConfirmed:        {entity.RentalStatusConfirmed, entity.ShippingStatusNone},
	StageReadyToShip:      {entity.RentalStatusConfirmed, entity.ShippingStatusReadyToShip},
	StageInTransitToUser:  {entity.RentalStatusConfirmed, entity.ShippingStatusInTransitToUser},
	StageDelivered:        {entity.RentalStatusConfirmed, entity.ShippingStatusDelivered},
	StageActive:           {entity.RentalStatusActive, entity.ShippingStatusDelivered},
	StageReturnScheduled:  {entity.RentalStatusActive, entity.ShippingStatusReturnScheduled},
	StageInTransitToOwner: {entity.RentalStatusActive, entity.ShippingStatusInTransitToOwner},
	StageReturned:         {entity.RentalStatusActive, entity.ShippingStatusReturned},
	StageCompleted:        {entity.RentalStatusCompleted, entity.ShippingStatusReturned},
	StageCancelled:        {entity.RentalStatusCancelled, entity.ShippingStatusNone},
	StageRejected:         {entity.RentalStatusRejected, entity.ShippingStatusNone},
}

var transitions = map[Stage]map[Action]Stage{
	StagePending: {
		ActionConfirm: StageConfirmed,
		ActionReject:  StageRejected,
		ActionCancel:  StageCancelled,
	},
	StageConfirmed: {
		ActionMarkReady: StageReadyToShip,
		ActionCancel:    StageCancelled,
	},
	StageReadyToShip: {
		ActionShip:   StageInTransitToUser,
		ActionCancel: StageCancelled,
	},
	// Delivery hands the camera over, so the rental becomes active in the same step.
	StageInTransitToUser:  {ActionDeliver: StageActive},
	StageDelivered:        {ActionActivate: StageActive},
	StageActive:           {ActionScheduleReturn: StageReturnScheduled},
	StageReturnScheduled:  {ActionReturnShip: StageInTransitToOwner},
	StageInTransitToOwner: {ActionReceiveReturn: StageReturned},
	StageReturned:         {ActionComplete: StageCompleted},
}

// actionOrder keeps AllowedActions deterministic.
var actionOrder = []Action{
	ActionConfirm,
	ActionReject,
	ActionMarkReady,
	ActionShip,
	ActionDeliver,
	ActionActivate,
	ActionScheduleReturn,
	ActionReturnShip,
	ActionReceiveReturn,
	ActionComplete,
	ActionCancel,
}

func (s Stage) Valid() bool {
	_, ok := canonical[s]
	return ok
}

// Statuses is the raw pair written alongside the stage.
func (s Stage) Statuses() (entity.RentalStatus, entity.ShippingStatus) {
	p, ok := canonical[s]
	if !ok {
		p = canonical[StagePending]
	}
	return p.rental, p.shipping
}

func (s Stage) Terminal() bool {
	return len(transitions[s]) == 0
}

// Blocking reports whether a booking in this stage reserves its camera.
func (s Stage) Blocking() bool {
	rs, _ := s.Statuses()
	return rs.Blocking()
}

// StageOf derives the stage of a row that carries only the raw status pair.
func StageOf(rs entity.RentalStatus, ss entity.ShippingStatus) Stage {
	switch rs {
	case entity.RentalStatusCancelled:
		return StageCancelled
	case entity.RentalStatusRejected:
		return StageRejected
	}
	return Stage(stepOf(rs, ss))
}

// ResolveStage prefers the stored stage and falls back to derivation.
func ResolveStage(b *entity.Booking) Stage {
	if s := Stage(b.LifecycleStage); s.Valid() {
		return s
	}
	return StageOf(b.RentalStatus, b.ShippingStatus)
}

func ParseAction(s string) (Action, error) {
	for _, a := range actionOrder {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", entity.ErrUnknownAction, s)
}

// Transition returns the stage reached by applying action in from.
func Transition(from Stage, action Action) (Stage, error) {
	to, ok := transitions[from][action]
	if !ok {
		return from, fmt.Errorf("%w: %s in %s", entity.ErrInvalidTransition, action, from)
	}
	return to, nil
}

// AllowedActions lists the actions valid from stage.
func AllowedActions(stage Stage) []Action {
	allowed := make([]Action, 0, 3)
	for _, a := range actionOrder {
		if _, ok := transitions[stage][a]; ok {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// Apply moves b to the stage reached by action and rewrites the raw status pair.
// It returns the previous and the new stage; b is untouched on error.
func Apply(b *entity.Booking, action Action) (Stage, Stage, error) {
	from := ResolveStage(b)
	to, err := Transition(from, action)
	if err != nil {
		return from, from, err
	}
	b.LifecycleStage = string(to)
	b.RentalStatus, b.ShippingStatus = to.Statuses()
	return from, to, nil
}

// Anomalies describes status combinations that derivation accepts but that no
// transition produces. An empty result means the booking looks consistent.
func Anomalies(b *entity.Booking) []string {
	var out []string
	rs, ss := b.RentalStatus, b.ShippingStatus

	switch rs {
	case entity.RentalStatusPending:
		if ss != entity.ShippingStatusNone {
			out = append(out, fmt.Sprintf("pending rental already has shipping status %s", ss))
		}
	case entity.RentalStatusCancelled, entity.RentalStatusRejected:
		if ss != entity.ShippingStatusNone {
			out = append(out, fmt.Sprintf("%s rental still has shipping status %s", rs, ss))
		}
	case entity.RentalStatusActive:
		if ss == entity.ShippingStatusReadyToShip || ss == entity.ShippingStatusInTransitToUser {
			out = append(out, fmt.Sprintf("active rental has not been delivered (%s)", ss))
		}
	case entity.RentalStatusCompleted:
		if ss != entity.ShippingStatusNone && ss != entity.ShippingStatusReturned {
			out = append(out, fmt.Sprintf("completed rental has open shipping status %s", ss))
		}
	}

	if stored := Stage(b.LifecycleStage); stored.Valid() {
		wantRS, wantSS := stored.Statuses()
		if wantRS != rs || wantSS != ss {
			out = append(out, fmt.Sprintf("stored stage %s disagrees with statuses %s/%s", stored, rs, ss))
		}
	}
	return out
}
