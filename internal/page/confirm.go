package page

import (
	"context"
	"time"

	"roombook/internal/bookingapi"
	"roombook/internal/events"
	"roombook/internal/metrics"
	"roombook/internal/model"
	"roombook/internal/selection"
	"roombook/internal/slots"
)

// Confirmation is the shared surface asking the caller to book a range.
type Confirmation struct {
	RoomID    int64       `json:"roomId"`
	RoomName  string      `json:"roomName"`
	Date      string      `json:"date"`
	DateLabel string      `json:"dateLabel"`
	Range     slots.Range `json:"range"`
	TimeLabel string      `json:"timeLabel"`
	Minutes   int         `json:"minutes"`
	Error     string      `json:"error,omitempty"`
}

// Click applies a click on slot index of a room. Slots before the cutoff
// cannot be picked, and nothing can be picked on a grid whose date has left
// the booking window until it is reloaded. A valid range opens the
// confirmation.
func (p *Page) Click(roomID int64, index int) (selection.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conf != nil {
		return selection.Outcome{RoomID: roomID}, ErrConfirmationOpen
	}
	room, ok := p.findRoom(roomID)
	if !ok {
		return selection.Outcome{RoomID: roomID}, ErrUnknownRoom
	}
	if first, last := p.Window(); p.loadedDate.Before(first) || p.loadedDate.After(last) {
		return selection.Outcome{RoomID: roomID}, ErrDateOutOfWindow
	}
	if index >= 0 && index < len(room.slots) && room.slots[index].At(p.cutoff) == slots.StatusPast {
		return selection.Outcome{Kind: selection.OutcomeIgnored, RoomID: roomID}, nil
	}

	out := p.board.For(roomID).Click(room.slots, index)
	switch out.Kind {
	case selection.OutcomeRangeSelected:
		p.notice = ""
		p.conf = p.newConfirmation(room.room, out.Range)
	case selection.OutcomeInvalidRange:
		metrics.IncInvalidRange()
		p.notice = out.Message
	case selection.OutcomeStartPicked:
		p.notice = ""
	}
	return out, nil
}

func (p *Page) newConfirmation(room model.Room, r slots.Range) *Confirmation {
	return &Confirmation{
		RoomID:    room.ID,
		RoomName:  room.Name,
		Date:      slots.FormatDate(p.loadedDate),
		DateLabel: slots.FormatDateDisplay(p.loadedDate, p.clock.Now().In(p.loc)),
		Range:     r,
		TimeLabel: r.Label(),
		Minutes:   r.Minutes(),
	}
}

// Confirmation returns a copy of the open confirmation, if any.
func (p *Page) Confirmation() (Confirmation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conf == nil {
		return Confirmation{}, false
	}
	return *p.conf, true
}

// Confirm books the confirmed range. On success the confirmation closes and
// the page reloads. On failure it stays open showing the server message.
func (p *Page) Confirm(ctx context.Context) (*model.Reservation, error) {
	p.mu.Lock()
	conf := p.conf
	if conf == nil {
		p.mu.Unlock()
		return nil, ErrNoConfirmation
	}
	if p.reserving {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.reserving = true
	conf.Error = ""
	req := model.CreateRequest{
		UserID:    p.userID,
		RoomID:    conf.RoomID,
		Date:      conf.Date,
		StartSlot: conf.Range.Start,
		EndSlot:   conf.Range.End,
	}
	p.mu.Unlock()

	created, err := p.svc.Create(ctx, req)

	p.mu.Lock()
	p.reserving = false
	if err != nil {
		metrics.IncReservationCreated("failed")
		p.logger.Warn().Err(err).
			Int64("room_id", req.RoomID).
			Str("date", req.Date).
			Int("start_slot", req.StartSlot).
			Int("end_slot", req.EndSlot).
			Msg("Reservation rejected")
		if p.conf == conf {
			conf.Error = bookingapi.UserMessage(err)
		}
		p.mu.Unlock()
		return nil, err
	}
	metrics.IncReservationCreated("success")
	closed := p.conf == conf
	if closed {
		p.conf = nil
	}
	p.mu.Unlock()

	ev := p.logger.Info().
		Int64("room_id", req.RoomID).
		Str("date", req.Date)
	if created != nil {
		ev = ev.Int64("reservation_id", created.ID)
	}
	ev.Msg("Reservation created")

	if closed {
		p.publishModalClosed()
	}
	if err := p.Load(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("Reload after reservation failed")
	}
	return created, nil
}

// CloseConfirmation dismisses the confirmation and clears every selection.
func (p *Page) CloseConfirmation() {
	p.mu.Lock()
	p.conf = nil
	p.mu.Unlock()
	p.publishModalClosed()
}

func (p *Page) publishModalClosed() {
	if err := p.bus.Publish(events.Event{Type: events.TypeModalClosed, CreatedAt: time.Now()}); err != nil {
		p.logger.Warn().Err(err).Msg("Modal close handler failed")
	}
}
