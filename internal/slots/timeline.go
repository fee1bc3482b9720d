package slots

import "time"

// CurrentSlotIndex returns the first slot still bookable on date.
// Dates other than today have no cutoff.
func CurrentSlotIndex(date, now time.Time) int {
	if !SameDay(date, now) {
		return 0
	}
	idx := now.Hour() * 2
	if now.Minute() >= 30 {
		idx++
	}
	if idx < 0 {
		idx = 0
	}
	if idx > PerDay-1 {
		idx = PerDay - 1
	}
	return idx
}

// VisibleSegments drops slots before the cutoff. Past slots are never shown.
func VisibleSegments(slots []Slot, cutoff int) []Slot {
	visible := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.At(cutoff) != StatusPast {
			visible = append(visible, s)
		}
	}
	return visible
}

// Segment is one rendered slot of a room timeline.
type Segment struct {
	Slot
	Clickable bool   `json:"clickable"`
	Current   bool   `json:"current"`
	Title     string `json:"title"`
}

// Marker is a time label placed at Position percent of the timeline width.
type Marker struct {
	Label    string  `json:"label"`
	Position float64 `json:"position"`
}

// Timeline is the rendered availability of one room.
type Timeline struct {
	Segments []Segment `json:"segments"`
	Markers  []Marker  `json:"markers"`
}

// BuildTimeline renders the visible suffix of a day. live marks the slot at
// the cutoff as the current one and is only set for today.
func BuildTimeline(slots []Slot, cutoff int, live bool) Timeline {
	visible := VisibleSegments(slots, cutoff)
	tl := Timeline{
		Segments: make([]Segment, 0, len(visible)),
		Markers:  make([]Marker, 0, len(visible)/2+1),
	}
	if len(visible) == 0 {
		return tl
	}

	total := float64(len(visible))
	for pos, s := range visible {
		clickable := s.Available()
		tl.Segments = append(tl.Segments, Segment{
			Slot:      s,
			Clickable: clickable,
			Current:   live && s.Index == cutoff,
			Title:     SlotTitle(s.Index, clickable),
		})
		if pos%2 == 0 {
			tl.Markers = append(tl.Markers, Marker{
				Label:    FormatSlotLabel(s.Index),
				Position: float64(pos) / total * 100,
			})
		}
	}

	last := visible[len(visible)-1]
	tl.Markers = append(tl.Markers, Marker{Label: FormatSlotLabel(last.Index + 1), Position: 100})
	return tl
}
