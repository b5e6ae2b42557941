package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rentalFixture struct {
	svc    RentalService
	repo   *fakeBookingRepo
	cache  *fakeCache
	pub    *recordingPublisher
	events *recordingProducer
}

func newRentalFixture(existing ...*entity.Booking) *rentalFixture {
	f := &rentalFixture{
		repo:   newFakeBookingRepo(existing...),
		cache:  newFakeCache(),
		pub:    &recordingPublisher{},
		events: &recordingProducer{},
	}
	cameras := newFakeCameraRepo(&entity.Camera{ID: 1, Name: "Leica Q2"}, &entity.Camera{ID: 2, Name: "Fuji X100V"})
	f.svc = NewRentalService(f.repo, cameras, f.cache, NewNotifier(f.pub, f.events, "admin"))
	return f
}

func TestApplyActionConfirmBlockedByConflict(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusConfirmed, entity.ShippingStatusNone),
		booking(2, 1, day(2024, 6, 15), day(2024, 6, 18), entity.RentalStatusPending, entity.ShippingStatusNone),
	)
	ctx := context.Background()

	_, err := f.svc.ApplyAction(ctx, 2, "confirm", false)
	require.ErrorIs(t, err, entity.ErrBookingConflict)

	stored, _ := f.repo.GetByID(ctx, 2)
	assert.Equal(t, entity.RentalStatusPending, stored.RentalStatus)
	assert.Empty(t, f.events.events)

	view, err := f.svc.ApplyAction(ctx, 2, "confirm", true)
	require.NoError(t, err)
	assert.Equal(t, rental.StageConfirmed, view.Stage)
	require.Len(t, f.events.events, 1)
	assert.True(t, f.events.events[0].Forced)
	assert.Equal(t, "2", f.events.keys[0])
}

func TestApplyActionWalksLifecycle(t *testing.T) {
	f := newRentalFixture(
		booking(5, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusPending, entity.ShippingStatusNone),
	)
	ctx := context.Background()

	actions := []string{"confirm", "mark_ready", "ship", "deliver", "schedule_return", "return_ship", "receive_return", "complete"}
	var view *LifecycleView
	for _, a := range actions {
		var err error
		view, err = f.svc.ApplyAction(ctx, 5, a, false)
		require.NoError(t, err, a)
		assert.Empty(t, view.Anomalies, a)
	}

	assert.Equal(t, rental.StageCompleted, view.Stage)
	assert.Equal(t, rental.StepCompleted, view.StepKey)
	assert.Equal(t, 9, view.StepIndex)
	assert.Empty(t, view.AllowedActions)

	stored, _ := f.repo.GetByID(ctx, 5)
	assert.Equal(t, entity.RentalStatusCompleted, stored.RentalStatus)
	assert.Equal(t, entity.ShippingStatusReturned, stored.ShippingStatus)
	assert.Equal(t, "completed", stored.LifecycleStage)

	require.Len(t, f.events.events, len(actions))
	assert.Equal(t, "pending", f.events.events[0].FromStage)
	assert.Equal(t, "completed", f.events.events[len(actions)-1].ToStage)

	// confirm, ship, deliver, schedule_return, complete reach the customer; return_ship reaches admin
	var toAdmin, toCustomer int
	for _, m := range f.pub.messages {
		if m.Recipient == "admin" {
			toAdmin++
		} else {
			toCustomer++
		}
	}
	assert.Equal(t, 1, toAdmin)
	assert.Equal(t, 5, toCustomer)
	assert.Len(t, f.cache.invalidated, len(actions))
}

func TestApplyActionErrors(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusPending, entity.ShippingStatusNone),
	)
	ctx := context.Background()

	_, err := f.svc.ApplyAction(ctx, 1, "teleport", false)
	assert.ErrorIs(t, err, entity.ErrUnknownAction)

	_, err = f.svc.ApplyAction(ctx, 1, "ship", false)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = f.svc.ApplyAction(ctx, 99, "confirm", false)
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}

func TestNotificationFailureDoesNotFailAction(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusPending, entity.ShippingStatusNone),
	)
	f.pub.err = errors.New("bus down")

	view, err := f.svc.ApplyAction(context.Background(), 1, "reject", false)
	require.NoError(t, err)
	assert.Equal(t, rental.StageRejected, view.Stage)
}

func TestGetLifecycleReportsAnomalies(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusPending, entity.ShippingStatusInTransitToUser),
	)

	view, err := f.svc.GetLifecycle(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, rental.StepInTransitToUser, view.StepKey)
	assert.NotEmpty(t, view.Anomalies)
	assert.Len(t, view.Steps, 10)
}

func TestListRentalsFilterAndPage(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 1), day(2024, 6, 3), entity.RentalStatusPending, entity.ShippingStatusNone),
		booking(2, 1, day(2024, 6, 5), day(2024, 6, 8), entity.RentalStatusConfirmed, entity.ShippingStatusInTransitToUser),
		booking(3, 2, day(2024, 6, 9), day(2024, 6, 12), entity.RentalStatusPending, entity.ShippingStatusNone),
		booking(4, 1, day(2024, 7, 1), day(2024, 7, 3), entity.RentalStatusPending, entity.ShippingStatusNone),
	)
	ctx := context.Background()
	june := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	page, err := f.svc.ListRentals(ctx, &RentalQuery{
		Taxonomy: rental.TaxonomyStatus,
		Filter:   rental.FilterPending,
		Month:    &june,
		Limit:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ID)
	// pending requests fall in no delivery bucket but still need the admin
	assert.Equal(t, rental.FilterNone, page.Items[0].FilterKey)
	assert.True(t, page.Items[0].NeedsAction)

	page, err = f.svc.ListRentals(ctx, &RentalQuery{Taxonomy: rental.TaxonomyDelivery, Filter: rental.FilterOutbound, CameraID: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.Items[0].ID)

	page, err = f.svc.ListRentals(ctx, &RentalQuery{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Empty(t, page.Items)
}

func TestCountFiltersAndNeedsAction(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 1), day(2024, 6, 3), entity.RentalStatusPending, entity.ShippingStatusNone),
		booking(2, 1, day(2024, 6, 5), day(2024, 6, 8), entity.RentalStatusConfirmed, entity.ShippingStatusInTransitToOwner),
		booking(3, 1, day(2024, 7, 5), day(2024, 7, 8), entity.RentalStatusActive, entity.ShippingStatusDelivered),
	)
	ctx := context.Background()
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	counts, err := f.svc.CountFilters(ctx, rental.TaxonomyStatus, &june)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[rental.FilterAll])
	assert.Equal(t, 2, counts[rental.FilterNeedsAction])
	assert.Equal(t, 0, counts[rental.FilterActive])

	counts, err = f.svc.CountFilters(ctx, rental.TaxonomyDelivery, nil)
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 3, total)

	needs, err := f.svc.NeedsAction(ctx)
	require.NoError(t, err)
	require.Len(t, needs, 2)
	assert.Equal(t, int64(1), needs[0].ID)
}

func TestCancelStalePending(t *testing.T) {
	f := newRentalFixture(
		booking(1, 1, day(2024, 6, 1), day(2024, 6, 3), entity.RentalStatusPending, entity.ShippingStatusNone),
		booking(2, 2, day(2024, 6, 2), day(2024, 6, 3), entity.RentalStatusPending, entity.ShippingStatusNone),
		booking(3, 1, day(2024, 6, 1), day(2024, 6, 3), entity.RentalStatusConfirmed, entity.ShippingStatusNone),
		booking(4, 1, day(2024, 6, 20), day(2024, 6, 23), entity.RentalStatusPending, entity.ShippingStatusNone),
	)
	ctx := context.Background()

	n, err := f.svc.CancelStalePending(ctx, time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for id, want := range map[int64]entity.RentalStatus{
		1: entity.RentalStatusCancelled,
		2: entity.RentalStatusCancelled,
		3: entity.RentalStatusConfirmed,
		4: entity.RentalStatusPending,
	} {
		b, _ := f.repo.GetByID(ctx, id)
		assert.Equal(t, want, b.RentalStatus, id)
	}
	assert.ElementsMatch(t, []int64{1, 2}, f.cache.invalidated)
	assert.Len(t, f.events.events, 2)

	n, err = f.svc.CancelStalePending(ctx, time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}
