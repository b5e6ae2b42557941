package rental

import (
	"testing"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathReachesCompleted(t *testing.T) {
	b := &entity.Booking{ID: 1, CameraID: 1, RentalStatus: entity.RentalStatusPending}

	path := []struct {
		action Action
		stage  Stage
		step   StepKey
	}{
		{ActionConfirm, StageConfirmed, StepConfirmed},
		{ActionMarkReady, StageReadyToShip, StepReadyToShip},
		{ActionShip, StageInTransitToUser, StepInTransitToUser},
		{ActionDeliver, StageActive, StepActive},
		{ActionScheduleReturn, StageReturnScheduled, StepReturnScheduled},
		{ActionReturnShip, StageInTransitToOwner, StepInTransitToOwner},
		// derivation cannot tell returned from completed; the stored stage can
		{ActionReceiveReturn, StageReturned, StepCompleted},
		{ActionComplete, StageCompleted, StepCompleted},
	}

	for _, p := range path {
		_, to, err := Apply(b, p.action)
		require.NoError(t, err, p.action)
		assert.Equal(t, p.stage, to)
		assert.Equal(t, string(p.stage), b.LifecycleStage)
		assert.Equal(t, p.step, CurrentStepKey(b), p.action)
		assert.Empty(t, Anomalies(b), p.action)
	}
	assert.True(t, ResolveStage(b).Terminal())
}

func TestTransitionRejectsInvalidActions(t *testing.T) {
	_, err := Transition(StagePending, ActionShip)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = Transition(StageCompleted, ActionCancel)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = Transition(StageInTransitToUser, ActionCancel)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	b := &entity.Booking{RentalStatus: entity.RentalStatusActive, ShippingStatus: entity.ShippingStatusDelivered}
	_, _, err = Apply(b, ActionConfirm)
	require.Error(t, err)
	assert.Equal(t, entity.RentalStatusActive, b.RentalStatus)
	assert.Empty(t, b.LifecycleStage)
}

func TestAllowedActions(t *testing.T) {
	assert.Equal(t, []Action{ActionConfirm, ActionReject, ActionCancel}, AllowedActions(StagePending))
	assert.Equal(t, []Action{ActionMarkReady, ActionCancel}, AllowedActions(StageConfirmed))
	assert.Equal(t, []Action{ActionActivate}, AllowedActions(StageDelivered))
	assert.Empty(t, AllowedActions(StageCancelled))
	assert.Empty(t, AllowedActions(StageRejected))
	assert.Empty(t, AllowedActions(Stage("bogus")))

	for stage := range canonical {
		for _, a := range AllowedActions(stage) {
			to, err := Transition(stage, a)
			require.NoError(t, err)
			assert.True(t, to.Valid())
		}
	}
}

func TestStageOfAndResolve(t *testing.T) {
	assert.Equal(t, StageCancelled, StageOf(entity.RentalStatusCancelled, entity.ShippingStatusReadyToShip))
	assert.Equal(t, StageRejected, StageOf(entity.RentalStatusRejected, entity.ShippingStatusNone))
	assert.Equal(t, StageActive, StageOf(entity.RentalStatusActive, entity.ShippingStatusDelivered))

	b := &entity.Booking{RentalStatus: entity.RentalStatusActive, ShippingStatus: entity.ShippingStatusReturned}
	assert.Equal(t, StageCompleted, ResolveStage(b))
	b.LifecycleStage = string(StageReturned)
	assert.Equal(t, StageReturned, ResolveStage(b))
	b.LifecycleStage = "garbage"
	assert.Equal(t, StageCompleted, ResolveStage(b))
}

func TestStageStatusesRoundTrip(t *testing.T) {
	for stage := range canonical {
		rs, ss := stage.Statuses()
		assert.True(t, rs.Valid())
		assert.True(t, ss.Valid())
		if stage == StageReturned {
			continue
		}
		assert.Equal(t, stage, StageOf(rs, ss), stage)
	}
	assert.True(t, StageConfirmed.Blocking())
	assert.False(t, StagePending.Blocking())
	assert.False(t, StageCancelled.Blocking())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("schedule_return")
	require.NoError(t, err)
	assert.Equal(t, ActionScheduleReturn, a)

	_, err = ParseAction("teleport")
	assert.ErrorIs(t, err, entity.ErrUnknownAction)
}

func TestAnomalies(t *testing.T) {
	tests := []struct {
		name  string
		b     *entity.Booking
		count int
	}{
		{"clean pending", rentalWith(entity.RentalStatusPending, entity.ShippingStatusNone), 0},
		{"pending in transit back", rentalWith(entity.RentalStatusPending, entity.ShippingStatusInTransitToOwner), 1},
		{"cancelled but shipped", rentalWith(entity.RentalStatusCancelled, entity.ShippingStatusInTransitToUser), 1},
		{"active never delivered", rentalWith(entity.RentalStatusActive, entity.ShippingStatusReadyToShip), 1},
		{"completed still outbound", rentalWith(entity.RentalStatusCompleted, entity.ShippingStatusInTransitToUser), 1},
		{"completed without shipping", rentalWith(entity.RentalStatusCompleted, entity.ShippingStatusNone), 0},
		{"stored stage drift", &entity.Booking{
			RentalStatus:   entity.RentalStatusConfirmed,
			ShippingStatus: entity.ShippingStatusNone,
			LifecycleStage: string(StageActive),
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Anomalies(tt.b), tt.count)
		})
	}
}
