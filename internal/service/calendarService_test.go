package service

import (
	"context"
	"testing"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMonthUsesCache(t *testing.T) {
	repo := newFakeBookingRepo(
		booking(1, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusConfirmed, entity.ShippingStatusNone),
		booking(2, 1, day(2024, 7, 1), day(2024, 7, 3), entity.RentalStatusConfirmed, entity.ShippingStatusNone),
	)
	cache := newFakeCache()
	svc := NewCalendarService(repo, newFakeCameraRepo(&entity.Camera{ID: 1}), cache)
	ctx := context.Background()
	june := time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)

	view, err := svc.RenderMonth(ctx, 1, june, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", view.Month)
	assert.Len(t, view.Cells, 35)
	require.Len(t, cache.months[1], 1)
	assert.Equal(t, int64(1), cache.months[1][0].ID)

	// a cached empty month is served without touching the store
	cache.months[1] = []*entity.Booking{}
	view, err = svc.RenderMonth(ctx, 1, june, nil)
	require.NoError(t, err)
	for _, c := range view.Cells {
		if c.Date != nil {
			assert.True(t, c.Available, c.Date.String())
		}
	}
}

func TestRenderMonthSelectionConflicts(t *testing.T) {
	repo := newFakeBookingRepo(
		booking(1, 1, day(2024, 6, 10), day(2024, 6, 15), entity.RentalStatusConfirmed, entity.ShippingStatusNone),
		booking(2, 1, day(2024, 7, 1), day(2024, 7, 3), entity.RentalStatusActive, entity.ShippingStatusDelivered),
	)
	svc := NewCalendarService(repo, newFakeCameraRepo(&entity.Camera{ID: 1}), nil)

	sel := rental.NewSelection(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC))
	view, err := svc.RenderMonth(context.Background(), 1, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), &sel)
	require.NoError(t, err)

	assert.Equal(t, day(2024, 6, 14), view.Selection.Start)
	require.Len(t, view.Conflicts, 2)

	var cell14 rental.Cell
	for _, c := range view.Cells {
		if c.Date != nil && c.Date.Day() == 14 {
			cell14 = c
		}
	}
	assert.True(t, cell14.Highlighted)
	assert.True(t, cell14.HasConflicts)
	assert.False(t, cell14.Available)
}

func TestRenderMonthUnknownCamera(t *testing.T) {
	svc := NewCalendarService(newFakeBookingRepo(), newFakeCameraRepo(), nil)
	_, err := svc.RenderMonth(context.Background(), 7, time.Now(), nil)
	assert.ErrorIs(t, err, entity.ErrCameraNotFound)
}
