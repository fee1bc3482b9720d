// Package slots derives the half-hour availability grid of a room from its reservations.
package slots

import (
	"roombook/internal/model"
)

const (
	// Minutes is the length of one slot.
	Minutes = 30
	// PerDay is the number of slots in a day.
	PerDay = 24 * 60 / Minutes // 48
)

// Status of a single slot.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	// StatusPast is never stored on a derived slot; see Slot.At.
	StatusPast Status = "past"
)

// Slot is one 30-minute interval of a day.
type Slot struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
}

// Available reports whether the slot can be booked.
func (s Slot) Available() bool {
	return s.Status == StatusAvailable
}

// At returns the status of the slot as seen with the given cutoff: slots
// before it are past regardless of bookings.
func (s Slot) At(cutoff int) Status {
	if s.Index < cutoff {
		return StatusPast
	}
	return s.Status
}

// Range is an inclusive slot range [Start, End].
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of slots in the range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Minutes returns the booked duration.
func (r Range) Minutes() int {
	return DurationMinutes(r.Start, r.End)
}

// Label returns "HH:MM - HH:MM" with an exclusive end.
func (r Range) Label() string {
	return FormatRange(r.Start, r.End)
}

// DeriveSlots returns the 48 slots of a day. A slot is unavailable when any
// active reservation covers it.
func DeriveSlots(reservations []model.Reservation) []Slot {
	var occupied [PerDay]bool
	for i := range reservations {
		r := &reservations[i]
		if !r.IsActive() {
			continue
		}
		start, end := r.StartSlot, r.EndSlot
		if start < 0 {
			start = 0
		}
		if end >= PerDay {
			end = PerDay - 1
		}
		for idx := start; idx <= end; idx++ {
			occupied[idx] = true
		}
	}

	result := make([]Slot, PerDay)
	for i := range result {
		status := StatusAvailable
		if occupied[i] {
			status = StatusUnavailable
		}
		result[i] = Slot{Index: i, Status: status}
	}
	return result
}

// ByRoom groups reservations by room id.
func ByRoom(reservations []model.Reservation) map[int64][]model.Reservation {
	grouped := make(map[int64][]model.Reservation)
	for _, r := range reservations {
		grouped[r.RoomID] = append(grouped[r.RoomID], r)
	}
	return grouped
}

// RangeAvailable checks that every slot in [start, end] exists and is available.
func RangeAvailable(slots []Slot, start, end int) bool {
	if start < 0 || end < start || end >= len(slots) {
		return false
	}
	for i := start; i <= end; i++ {
		if !slots[i].Available() {
			return false
		}
	}
	return true
}

// FreeRanges returns maximal runs of consecutive available slots.
func FreeRanges(slots []Slot) []Range {
	var ranges []Range
	i := 0
	for i < len(slots) {
		if !slots[i].Available() {
			i++
			continue
		}
		start := i
		for i < len(slots) && slots[i].Available() && (i == start || slots[i].Index == slots[i-1].Index+1) {
			i++
		}
		ranges = append(ranges, Range{Start: slots[start].Index, End: slots[i-1].Index})
	}
	return ranges
}
