package service

import (
	"context"
	"sort"
	"sync"
	"time"

	repository "github.com/ds124wfegd/camera-rental/internal/database/postgres"
	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/internal/rental"
)

type fakeBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*entity.Booking
	// failCamera makes GetByCamera fail for that camera id
	failCamera int64
}

func newFakeBookingRepo(bookings ...*entity.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{bookings: map[int64]*entity.Booking{}}
	for _, b := range bookings {
		r.bookings[b.ID] = b
		if b.ID > r.nextID {
			r.nextID = b.ID
		}
	}
	return r
}

func clone(b *entity.Booking) *entity.Booking {
	c := *b
	return &c
}

func (r *fakeBookingRepo) sorted(keep func(*entity.Booking) bool) []*entity.Booking {
	out := []*entity.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate.Time)
	})
	return out
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = clone(b)
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}
	return clone(b), nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, b *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return entity.ErrBookingNotFound
	}
	r.bookings[b.ID] = clone(b)
	return nil
}

func (r *fakeBookingRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return entity.ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) UpdateLifecycle(ctx context.Context, id int64, stage string, rs entity.RentalStatus, ss entity.ShippingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return entity.ErrBookingNotFound
	}
	b.LifecycleStage, b.RentalStatus, b.ShippingStatus = stage, rs, ss
	return nil
}

func (r *fakeBookingRepo) BulkUpdateLifecycle(ctx context.Context, ids []int64, stage string, rs entity.RentalStatus, ss entity.ShippingStatus) (int64, error) {
	var n int64
	for _, id := range ids {
		if err := r.UpdateLifecycle(ctx, id, stage, rs, ss); err == nil {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) List(ctx context.Context, q repository.BookingQuery) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(b *entity.Booking) bool {
		if q.CameraID != 0 && b.CameraID != q.CameraID {
			return false
		}
		if q.From != nil && q.To != nil {
			return rental.RangesOverlap(b.StartDate.Time, b.EndDate.Time, *q.From, *q.To)
		}
		return true
	}), nil
}

func (r *fakeBookingRepo) GetByCamera(ctx context.Context, cameraID int64) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCamera != 0 && r.failCamera == cameraID {
		return nil, entity.ErrDatabaseError
	}
	return r.sorted(func(b *entity.Booking) bool { return b.CameraID == cameraID }), nil
}

func (r *fakeBookingRepo) GetStalePending(ctx context.Context, before time.Time, limit int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := entity.DateOf(before)
	out := r.sorted(func(b *entity.Booking) bool {
		return b.RentalStatus == entity.RentalStatusPending && b.StartDate.Before(cutoff.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBookingRepo) GetStartingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error) {
	return nil, nil
}

func (r *fakeBookingRepo) GetEndingBetween(ctx context.Context, from, to time.Time) ([]*entity.BookingReminder, error) {
	return nil, nil
}

type fakeCameraRepo struct {
	mu      sync.Mutex
	cameras map[int64]*entity.Camera
}

func newFakeCameraRepo(cameras ...*entity.Camera) *fakeCameraRepo {
	r := &fakeCameraRepo{cameras: map[int64]*entity.Camera{}}
	for _, c := range cameras {
		r.cameras[c.ID] = c
	}
	return r
}

func (r *fakeCameraRepo) Create(ctx context.Context, c *entity.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = int64(len(r.cameras) + 1)
	cp := *c
	r.cameras[c.ID] = &cp
	return nil
}

func (r *fakeCameraRepo) GetByID(ctx context.Context, id int64) (*entity.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cameras[id]
	if !ok {
		return nil, entity.ErrCameraNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCameraRepo) GetAll(ctx context.Context) ([]*entity.Camera, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Camera, 0, len(r.cameras))
	for _, c := range r.cameras {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCameraRepo) Update(ctx context.Context, c *entity.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cameras[c.ID]; !ok {
		return entity.ErrCameraNotFound
	}
	cp := *c
	r.cameras[c.ID] = &cp
	return nil
}

type fakePotentialRepo struct {
	mu    sync.Mutex
	items []*entity.PotentialBooking
}

func (r *fakePotentialRepo) Create(ctx context.Context, pb *entity.PotentialBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pb.ID = int64(len(r.items) + 1)
	r.items = append(r.items, pb)
	return nil
}

func (r *fakePotentialRepo) GetByID(ctx context.Context, id int64) (*entity.PotentialBooking, error) {
	for _, pb := range r.items {
		if pb.ID == id {
			return pb, nil
		}
	}
	return nil, entity.ErrPotentialBookingNotFound
}

func (r *fakePotentialRepo) GetAll(ctx context.Context) ([]*entity.PotentialBooking, error) {
	return r.items, nil
}

func (r *fakePotentialRepo) GetByCamera(ctx context.Context, cameraID int64) ([]*entity.PotentialBooking, error) {
	out := []*entity.PotentialBooking{}
	for _, pb := range r.items {
		if pb.CameraID == cameraID {
			out = append(out, pb)
		}
	}
	return out, nil
}

func (r *fakePotentialRepo) Delete(ctx context.Context, id int64) error {
	for i, pb := range r.items {
		if pb.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return entity.ErrPotentialBookingNotFound
}

type fakeCache struct {
	months      map[int64][]*entity.Booking
	invalidated []int64
	gets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{months: map[int64][]*entity.Booking{}}
}

func (c *fakeCache) GetMonth(ctx context.Context, cameraID int64, month time.Time) ([]*entity.Booking, bool, error) {
	c.gets++
	b, ok := c.months[cameraID]
	return b, ok, nil
}

func (c *fakeCache) SetMonth(ctx context.Context, cameraID int64, month time.Time, bookings []*entity.Booking) error {
	c.months[cameraID] = bookings
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, cameraID int64) error {
	delete(c.months, cameraID)
	c.invalidated = append(c.invalidated, cameraID)
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*entity.Notification
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message.(*entity.Notification))
	return nil
}

type recordingProducer struct {
	mu     sync.Mutex
	keys   []string
	events []*entity.LifecycleEvent
}

func (p *recordingProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, message.(*entity.LifecycleEvent))
	return nil
}

func day(y int, m time.Month, d int) entity.Date {
	return entity.NewDate(y, m, d)
}

func booking(id, cameraID int64, start, end entity.Date, rs entity.RentalStatus, ss entity.ShippingStatus) *entity.Booking {
	return &entity.Booking{
		ID:             id,
		CameraID:       cameraID,
		CustomerName:   "Customer",
		CustomerChatID: "chat-1",
		StartDate:      start,
		EndDate:        end,
		RentalStatus:   rs,
		ShippingStatus: ss,
	}
}
