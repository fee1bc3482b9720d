// Package selection provides the per-room slot range selection state machine.
package selection

import (
	"sync"

	"roombook/internal/slots"
)

// State represents the current state of a room selection.
type State string

const (
	StateIdle        State = "idle"
	StateStartPicked State = "start_picked"
)

// InvalidRangeMessage is shown when the picked range covers a booked slot.
const InvalidRangeMessage = "선택하신 시간 범위에 예약 불가능한 슬롯이 포함되어 있습니다. 다시 선택해주세요."

// GuideMessage is shown while a start is picked and the end is pending.
const GuideMessage = "끝나는 시간을 눌러주세요"

var transitions = map[State][]State{
	StateIdle:        {StateStartPicked},
	StateStartPicked: {StateStartPicked, StateIdle},
}

// CanTransition checks if a click may move the selection from one state to another.
// Reset is always allowed and bypasses this table.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OutcomeKind classifies the result of a click.
type OutcomeKind int

const (
	// OutcomeIgnored means the click hit a slot that cannot be booked.
	OutcomeIgnored OutcomeKind = iota
	// OutcomeStartPicked means a new start slot was recorded.
	OutcomeStartPicked
	// OutcomeRangeSelected means a valid range is ready for confirmation.
	OutcomeRangeSelected
	// OutcomeInvalidRange means the range covered an unavailable slot and the selection was cleared.
	OutcomeInvalidRange
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStartPicked:
		return "start_picked"
	case OutcomeRangeSelected:
		return "range_selected"
	case OutcomeInvalidRange:
		return "invalid_range"
	default:
		return "ignored"
	}
}

// Outcome contains the result of processing a click.
type Outcome struct {
	Kind    OutcomeKind
	RoomID  int64
	Range   slots.Range // set for OutcomeRangeSelected
	Message string      // set for OutcomeInvalidRange
}

// Mark is the highlight of a slot in the timeline.
type Mark string

const (
	MarkNone    Mark = ""
	MarkStart   Mark = "start"
	MarkEnd     Mark = "end"
	MarkInRange Mark = "in-range"
)

// Selection tracks the start and end slot picked in one room.
type Selection struct {
	roomID int64
	state  State
	start  int
	end    int // -1 until a valid end is picked; kept only for highlighting
	mu     sync.Mutex
}

// NewSelection creates an idle selection for a room.
func NewSelection(roomID int64) *Selection {
	return &Selection{roomID: roomID, state: StateIdle, start: -1, end: -1}
}

// State returns current state.
func (s *Selection) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start returns the picked start slot.
func (s *Selection) Start() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start, s.start >= 0
}

// End returns the picked end slot.
func (s *Selection) End() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end, s.end >= 0
}

// Reset clears the selection regardless of state.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Selection) reset() {
	s.state = StateIdle
	s.start = -1
	s.end = -1
}

// Click applies a click on slot index against the room's current slots.
func (s *Selection) Click(day []slots.Slot, index int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{Kind: OutcomeIgnored, RoomID: s.roomID}
	if index < 0 || index >= len(day) || !day[index].Available() {
		return out
	}

	switch {
	case s.state == StateIdle, index < s.start:
		s.move(StateStartPicked)
		s.start = index
		s.end = -1
		out.Kind = OutcomeStartPicked

	case slots.RangeAvailable(day, s.start, index):
		s.move(StateStartPicked)
		s.end = index
		out.Kind = OutcomeRangeSelected
		out.Range = slots.Range{Start: s.start, End: index}

	default:
		s.move(StateIdle)
		s.start = -1
		s.end = -1
		out.Kind = OutcomeInvalidRange
		out.Message = InvalidRangeMessage
	}
	return out
}

func (s *Selection) move(to State) {
	if CanTransition(s.state, to) {
		s.state = to
	}
}

// Highlight returns the mark of a slot for rendering.
func (s *Selection) Highlight(index int) Mark {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.start < 0:
		return MarkNone
	case index == s.start:
		return MarkStart
	case index == s.end:
		return MarkEnd
	case s.end >= 0 && index > s.start && index < s.end:
		return MarkInRange
	default:
		return MarkNone
	}
}

// Guide returns the hint shown on the room card, if any.
func (s *Selection) Guide() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start >= 0 && s.end < 0 {
		return GuideMessage
	}
	return ""
}
