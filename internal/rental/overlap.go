// Package rental holds the pure booking rules: overlap checks, status filters,
// the lifecycle stepper and the calendar renderer. Nothing here performs I/O.
package rental

import (
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/calendar"
)

// NoCandidate is passed as candidateID when checking a range that is not yet a booking.
const NoCandidate int64 = 0

// RangesOverlap reports whether the inclusive day ranges [s1,e1] and [s2,e2] share a day.
func RangesOverlap(s1, e1, s2, e2 time.Time) bool {
	s1, e1 = calendar.TruncateDay(s1), calendar.TruncateDay(e1)
	s2, e2 = calendar.TruncateDay(s2), calendar.TruncateDay(e2)
	return !s1.After(e2) && !s2.After(e1)
}

// IsDateWithinBooking reports whether date falls inside the booking's inclusive range.
func IsDateWithinBooking(date time.Time, b *entity.Booking) bool {
	return calendar.IsDateWithinRange(date, b.StartDate.Time, b.EndDate.Time)
}

// blocks reports whether b can conflict with a range checked for candidateID on cameraID:
// same camera, not the candidate itself, and in a blocking status.
func blocks(b *entity.Booking, cameraID, candidateID int64) bool {
	if b == nil || b.CameraID != cameraID {
		return false
	}
	if candidateID != NoCandidate && b.ID == candidateID {
		return false
	}
	return b.RentalStatus.Blocking()
}

// FindConflicts returns the bookings of cameraID that block [start, end].
// The booking with candidateID is skipped so an edited booking never conflicts with itself.
func FindConflicts(cameraID int64, start, end time.Time, candidateID int64, existing []*entity.Booking) []*entity.Booking {
	var conflicts []*entity.Booking
	for _, b := range existing {
		if blocks(b, cameraID, candidateID) && RangesOverlap(start, end, b.StartDate.Time, b.EndDate.Time) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// HasConflict is the boolean gate over FindConflicts. It stops at the first overlap.
func HasConflict(cameraID int64, start, end time.Time, candidateID int64, existing []*entity.Booking) bool {
	for _, b := range existing {
		if blocks(b, cameraID, candidateID) && RangesOverlap(start, end, b.StartDate.Time, b.EndDate.Time) {
			return true
		}
	}
	return false
}

// ConflictSummary is the detailed answer for a single range check.
type ConflictSummary struct {
	CameraID    int64             `json:"camera_id"`
	StartDate   entity.Date       `json:"start_date"`
	EndDate     entity.Date       `json:"end_date"`
	HasConflict bool              `json:"has_conflict"`
	Conflicts   []*entity.Booking `json:"conflicts"`
}

// Summarize runs FindConflicts for one range and never returns a nil Conflicts slice.
func Summarize(cameraID int64, start, end entity.Date, candidateID int64, existing []*entity.Booking) ConflictSummary {
	conflicts := FindConflicts(cameraID, start.Time, end.Time, candidateID, existing)
	if conflicts == nil {
		conflicts = []*entity.Booking{}
	}
	return ConflictSummary{
		CameraID:    cameraID,
		StartDate:   start,
		EndDate:     end,
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
	}
}
