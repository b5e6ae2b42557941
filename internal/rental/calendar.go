package rental

import (
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/calendar"
)

// Selection is a drag-to-select date range on the admin calendar.
type Selection struct {
	Start entity.Date `json:"start"`
	End   entity.Date `json:"end"`
}

// NewSelection orders the two endpoints so a drag in either direction gives Start <= End.
func NewSelection(a, b time.Time) Selection {
	da, db := entity.DateOf(a), entity.DateOf(b)
	if db.Before(da.Time) {
		da, db = db, da
	}
	return Selection{Start: da, End: db}
}

func (s Selection) Contains(date time.Time) bool {
	return calendar.IsDateWithinRange(date, s.Start.Time, s.End.Time)
}

// Cell is one square of the month view. Pad cells have a nil Date and nothing else set.
type Cell struct {
	Date         *entity.Date      `json:"date"`
	Bookings     []*entity.Booking `json:"bookings,omitempty"`
	Highlighted  bool              `json:"highlighted"`
	HasConflicts bool              `json:"has_conflicts"`
	Available    bool              `json:"available"`
}

// RenderMonth lays out the camera's bookings on the Monday-first grid of month.
// Cancelled and rejected bookings are not drawn.
func RenderMonth(cameraID int64, month time.Time, bookings []*entity.Booking, sel *Selection) []Cell {
	relevant := make([]*entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || b.CameraID != cameraID {
			continue
		}
		if b.RentalStatus == entity.RentalStatusCancelled || b.RentalStatus == entity.RentalStatusRejected {
			continue
		}
		relevant = append(relevant, b)
	}

	grid := calendar.BuildMonthGrid(month)
	cells := make([]Cell, len(grid))
	for i, d := range grid {
		if d == nil {
			continue
		}
		date := entity.DateOf(*d)
		cell := Cell{Date: &date}

		blocking := 0
		for _, b := range relevant {
			if !IsDateWithinBooking(*d, b) {
				continue
			}
			cell.Bookings = append(cell.Bookings, b)
			if b.RentalStatus.Blocking() {
				blocking++
			}
		}

		cell.Highlighted = sel != nil && sel.Contains(*d)
		cell.Available = blocking == 0
		cell.HasConflicts = blocking > 0 && (cell.Highlighted || len(cell.Bookings) > 1)
		cells[i] = cell
	}
	return cells
}

// SelectionConflicts returns the blocking bookings of the camera the selection overlaps.
func SelectionConflicts(cameraID int64, sel Selection, candidateID int64, bookings []*entity.Booking) []*entity.Booking {
	return FindConflicts(cameraID, sel.Start.Time, sel.End.Time, candidateID, bookings)
}
