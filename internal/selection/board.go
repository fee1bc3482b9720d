package selection

import (
	"sync"

	"roombook/internal/events"
)

// Board holds the selections of every room on a page.
type Board struct {
	selections map[int64]*Selection
	mu         sync.RWMutex
}

// NewBoard creates a board. When bus is set, every selection is cleared on
// modal close and date change.
func NewBoard(bus *events.Bus) *Board {
	b := &Board{selections: make(map[int64]*Selection)}
	if bus != nil {
		reset := func(events.Event) error {
			b.ResetAll()
			return nil
		}
		bus.Subscribe(events.TypeModalClosed, reset)
		bus.Subscribe(events.TypeDateChanged, reset)
	}
	return b
}

// For returns the selection of a room, creating it on first use.
func (b *Board) For(roomID int64) *Selection {
	b.mu.RLock()
	sel, ok := b.selections[roomID]
	b.mu.RUnlock()
	if ok {
		return sel
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if sel, ok = b.selections[roomID]; ok {
		return sel
	}
	sel = NewSelection(roomID)
	b.selections[roomID] = sel
	return sel
}

// ResetAll clears every room's selection.
func (b *Board) ResetAll() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sel := range b.selections {
		sel.Reset()
	}
}

// Active returns the ids of rooms with a picked start.
func (b *Board) Active() []int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var ids []int64
	for id, sel := range b.selections {
		if sel.State() == StateStartPicked {
			ids = append(ids, id)
		}
	}
	return ids
}
