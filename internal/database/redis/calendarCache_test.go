package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*CalendarCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCalendarCache(client, time.Minute), mr
}

func TestCalendarCacheRoundTrip(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, hit, err := cache.GetMonth(ctx, 7, june)
	require.NoError(t, err)
	assert.False(t, hit)

	bookings := []*entity.Booking{{
		ID:           1,
		CameraID:     7,
		StartDate:    entity.NewDate(2024, 6, 10),
		EndDate:      entity.NewDate(2024, 6, 15),
		RentalStatus: entity.RentalStatusConfirmed,
	}}
	require.NoError(t, cache.SetMonth(ctx, 7, june, bookings))

	got, hit, err := cache.GetMonth(ctx, 7, june)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, entity.NewDate(2024, 6, 15), got[0].EndDate)
	assert.Equal(t, entity.RentalStatusConfirmed, got[0].RentalStatus)
}

func TestCalendarCacheEmptyMonthIsAHit(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()
	may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.SetMonth(ctx, 3, may, []*entity.Booking{}))
	got, hit, err := cache.GetMonth(ctx, 3, may)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestCalendarCacheInvalidateIsPerCamera(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	july := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.SetMonth(ctx, 7, june, nil))
	require.NoError(t, cache.SetMonth(ctx, 7, july, nil))
	require.NoError(t, cache.SetMonth(ctx, 8, june, nil))

	require.NoError(t, cache.Invalidate(ctx, 7))

	assert.False(t, mr.Exists("calendar:7:2024-06"))
	assert.False(t, mr.Exists("calendar:7:2024-07"))
	assert.False(t, mr.Exists("calendar:7:keys"))
	assert.True(t, mr.Exists("calendar:8:2024-06"))

	require.NoError(t, cache.Invalidate(ctx, 99))
}

func TestCalendarCacheExpires(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.SetMonth(ctx, 7, june, nil))
	mr.FastForward(2 * time.Minute)

	_, hit, err := cache.GetMonth(ctx, 7, june)
	require.NoError(t, err)
	assert.False(t, hit)
}
