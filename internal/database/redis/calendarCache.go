package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"

	"github.com/go-redis/redis/v8"
)

// CalendarCache keeps the bookings a camera has in a month, keyed by camera and YYYY-MM.
type CalendarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCalendarCache(client *redis.Client, ttl time.Duration) *CalendarCache {
	return &CalendarCache{
		client: client,
		ttl:    ttl,
	}
}

func monthKey(cameraID int64, month time.Time) string {
	return fmt.Sprintf("calendar:%d:%s", cameraID, month.Format("2006-01"))
}

// indexKey lists every month key written for a camera so Invalidate can drop them at once.
func indexKey(cameraID int64) string {
	return fmt.Sprintf("calendar:%d:keys", cameraID)
}

// GetMonth returns the cached bookings and whether there was a hit.
func (c *CalendarCache) GetMonth(ctx context.Context, cameraID int64, month time.Time) ([]*entity.Booking, bool, error) {
	data, err := c.client.Get(ctx, monthKey(cameraID, month)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var bookings []*entity.Booking
	if err := json.Unmarshal([]byte(data), &bookings); err != nil {
		return nil, false, err
	}
	return bookings, true, nil
}

func (c *CalendarCache) SetMonth(ctx context.Context, cameraID int64, month time.Time, bookings []*entity.Booking) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return err
	}

	key := monthKey(cameraID, month)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, indexKey(cameraID), key)
	pipe.Expire(ctx, indexKey(cameraID), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate drops every cached month of the camera.
func (c *CalendarCache) Invalidate(ctx context.Context, cameraID int64) error {
	keys, err := c.client.SMembers(ctx, indexKey(cameraID)).Result()
	if err != nil {
		return err
	}
	keys = append(keys, indexKey(cameraID))
	return c.client.Del(ctx, keys...).Err()
}
