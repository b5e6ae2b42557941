package rental

import (
	"time"

	"github.com/ds124wfegd/camera-rental/internal/entity"
	"github.com/ds124wfegd/camera-rental/pkg/calendar"
)

type FilterKey string

// Delivery-focused buckets. DeriveFilterKey puts every rental in exactly one of them.
const (
	FilterNeedsAction FilterKey = "needs_action"
	FilterOutbound    FilterKey = "outbound"
	FilterReturns     FilterKey = "returns"
	FilterDelivered   FilterKey = "delivered"
	FilterReturned    FilterKey = "returned"
	FilterNone        FilterKey = "none"
)

// Status-focused keys. FilterNeedsAction is shared but means NeedsAdminAction here.
const (
	FilterAll       FilterKey = "all"
	FilterPending   FilterKey = "pending"
	FilterConfirmed FilterKey = "confirmed"
	FilterActive    FilterKey = "active"
	FilterCompleted FilterKey = "completed"
	FilterCancelled FilterKey = "cancelled"
	FilterRejected  FilterKey = "rejected"
)

type Taxonomy string

const (
	TaxonomyDelivery Taxonomy = "delivery"
	TaxonomyStatus   Taxonomy = "status"
)

var DeliveryFilters = []FilterKey{
	FilterNeedsAction,
	FilterOutbound,
	FilterReturns,
	FilterDelivered,
	FilterReturned,
	FilterNone,
}

var StatusFilters = []FilterKey{
	FilterAll,
	FilterNeedsAction,
	FilterPending,
	FilterConfirmed,
	FilterActive,
	FilterCompleted,
	FilterCancelled,
	FilterRejected,
}

// DeriveFilterKey maps the two status fields to one delivery bucket.
// The rules are ordered and the first match wins.
func DeriveFilterKey(b *entity.Booking) FilterKey {
	rs, ss := b.RentalStatus, b.ShippingStatus

	switch {
	case rs == entity.RentalStatusConfirmed &&
		(ss == entity.ShippingStatusNone || ss == entity.ShippingStatusReadyToShip),
		ss == entity.ShippingStatusInTransitToOwner:
		return FilterNeedsAction
	case ss == entity.ShippingStatusReadyToShip || ss == entity.ShippingStatusInTransitToUser:
		return FilterOutbound
	case ss == entity.ShippingStatusReturnScheduled || ss == entity.ShippingStatusInTransitToOwner:
		return FilterReturns
	case ss == entity.ShippingStatusDelivered:
		return FilterDelivered
	case ss == entity.ShippingStatusReturned:
		return FilterReturned
	default:
		return FilterNone
	}
}

// NeedsAdminAction is the dashboard predicate: a request to review, or a return to receive.
func NeedsAdminAction(b *entity.Booking) bool {
	return b.RentalStatus == entity.RentalStatusPending ||
		(b.RentalStatus == entity.RentalStatusConfirmed && b.ShippingStatus == entity.ShippingStatusInTransitToOwner)
}

// Matches applies the predicate named by key within the given taxonomy.
func Matches(b *entity.Booking, taxonomy Taxonomy, key FilterKey) bool {
	if taxonomy == TaxonomyDelivery {
		return DeriveFilterKey(b) == key
	}

	switch key {
	case FilterAll:
		return true
	case FilterNeedsAction:
		return NeedsAdminAction(b)
	default:
		return string(b.RentalStatus) == string(key)
	}
}

// Filter keeps the rentals matching key, preserving order.
func Filter(bookings []*entity.Booking, taxonomy Taxonomy, key FilterKey) []*entity.Booking {
	out := make([]*entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		if Matches(b, taxonomy, key) {
			out = append(out, b)
		}
	}
	return out
}

// InMonth reports whether the rental's range touches the month containing month.
func InMonth(b *entity.Booking, month time.Time) bool {
	first, last := calendar.MonthRange(month)
	return RangesOverlap(b.StartDate.Time, b.EndDate.Time, first, last)
}

// CountFilters applies every key of the taxonomy to the rentals, optionally scoped to the
// month containing *month, and counts the matches per key.
func CountFilters(bookings []*entity.Booking, taxonomy Taxonomy, month *time.Time) map[FilterKey]int {
	keys := KeysFor(taxonomy)
	counts := make(map[FilterKey]int, len(keys))
	for _, key := range keys {
		counts[key] = 0
	}

	for _, b := range bookings {
		if month != nil && !InMonth(b, *month) {
			continue
		}
		for _, key := range keys {
			if Matches(b, taxonomy, key) {
				counts[key]++
			}
		}
	}
	return counts
}

// KeysFor lists the filter keys of a taxonomy in display order.
func KeysFor(taxonomy Taxonomy) []FilterKey {
	if taxonomy == TaxonomyDelivery {
		return DeliveryFilters
	}
	return StatusFilters
}

// ParseFilterKey validates a query-parameter key against a taxonomy.
func ParseFilterKey(taxonomy Taxonomy, s string) (FilterKey, error) {
	for _, key := range KeysFor(taxonomy) {
		if string(key) == s {
			return key, nil
		}
	}
	return "", entity.ErrInvalidFilter
}

// ParseTaxonomy accepts "delivery" or "status"; an empty string means status.
func ParseTaxonomy(s string) (Taxonomy, error) {
	switch Taxonomy(s) {
	case TaxonomyDelivery, TaxonomyStatus:
		return Taxonomy(s), nil
	case "":
		return TaxonomyStatus, nil
	}
	return "", entity.ErrInvalidFilter
}
