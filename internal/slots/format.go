package slots

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// FormatSlotLabel converts a slot index in [0, 48] to "HH:MM".
// 48 labels the end of the day ("24:00").
func FormatSlotLabel(index int) string {
	minute := "00"
	if index%2 != 0 {
		minute = "30"
	}
	return fmt.Sprintf("%02d:%s", index/2, minute)
}

// FormatRange formats an inclusive slot range with an exclusive end label.
func FormatRange(start, end int) string {
	return FormatSlotLabel(start) + " - " + FormatSlotLabel(end+1)
}

// DurationMinutes returns the length of an inclusive slot range.
func DurationMinutes(start, end int) int {
	return (end - start + 1) * Minutes
}

// SlotTitle is the tooltip of a timeline segment.
func SlotTitle(index int, clickable bool) string {
	title := fmt.Sprintf("%s ~ %s (30분)", FormatSlotLabel(index), FormatSlotLabel(index+1))
	if clickable {
		title += " - 클릭하여 예약"
	}
	return title
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// SameDay compares calendar days without converting between zones.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDateDisplay renders "오늘", "내일" or "M월 D일" relative to now.
func FormatDateDisplay(date, now time.Time) string {
	switch {
	case SameDay(date, now):
		return "오늘"
	case SameDay(date, now.AddDate(0, 0, 1)):
		return "내일"
	default:
		return fmt.Sprintf("%d월 %d일", int(date.Month()), date.Day())
	}
}
