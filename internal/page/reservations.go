package page

import (
	"context"

	"roombook/internal/bookingapi"
	"roombook/internal/metrics"
	"roombook/internal/model"
	"roombook/internal/slots"
)

// RequestCancel asks for confirmation before cancelling a reservation.
func (p *Page) RequestCancel(reservationID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.findMine(reservationID)
	if !ok || !p.cancellable(r) {
		return ErrNotCancellable
	}
	p.pendingCancel = reservationID
	return nil
}

// DismissCancel drops a pending cancel request.
func (p *Page) DismissCancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pendingCancel = 0
}

// Cancel cancels a reservation whose cancel was requested, then reloads.
func (p *Page) Cancel(ctx context.Context, reservationID int64) error {
	p.mu.Lock()
	if p.pendingCancel != reservationID {
		p.mu.Unlock()
		return ErrCancelNotConfirmed
	}
	if p.cancellingID != 0 {
		p.mu.Unlock()
		return ErrBusy
	}
	p.cancellingID = reservationID
	p.pendingCancel = 0
	p.mu.Unlock()

	err := p.svc.Cancel(ctx, reservationID, p.userID)

	p.mu.Lock()
	p.cancellingID = 0
	if err != nil {
		metrics.IncReservationCancelled("failed")
		p.notice = bookingapi.UserMessage(err)
		p.mu.Unlock()
		p.logger.Warn().Err(err).Int64("reservation_id", reservationID).Msg("Cancel rejected")
		return err
	}
	p.notice = ""
	p.mu.Unlock()

	metrics.IncReservationCancelled("success")
	p.logger.Info().Int64("reservation_id", reservationID).Msg("Reservation cancelled")
	if err := p.Load(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("Reload after cancel failed")
	}
	return nil
}

// Checkin checks in one of the caller's reservations that is running now.
func (p *Page) Checkin(ctx context.Context, reservationID int64) (*model.CheckinResult, error) {
	p.mu.Lock()
	r, ok := p.findMine(reservationID)
	if !ok || !p.checkinable(r) {
		p.mu.Unlock()
		return nil, ErrNotCheckinable
	}
	p.mu.Unlock()

	res, err := p.svc.ManualCheckin(ctx, reservationID)
	if err != nil {
		p.setNotice(bookingapi.UserMessage(err))
		p.logger.Warn().Err(err).Int64("reservation_id", reservationID).Msg("Check-in failed")
		return nil, err
	}
	p.setNotice(res.Message)
	if res.Success {
		if err := p.Load(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("Reload after check-in failed")
		}
	}
	return res, nil
}

func (p *Page) setNotice(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = msg
}

func (p *Page) findMine(id int64) (model.Reservation, bool) {
	for _, r := range p.mine {
		if r.ID == id {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// cancellable reports whether r is still reserved and has not started yet.
func (p *Page) cancellable(r model.Reservation) bool {
	if r.Status != model.StatusReserved {
		return false
	}
	start, err := r.StartsAt(p.loc)
	if err != nil {
		return false
	}
	return start.After(p.now)
}

// checkinable reports whether r is reserved for today, covers the current slot
// and has not been exempted from check-in by the service.
func (p *Page) checkinable(r model.Reservation) bool {
	if r.CheckinRequired != nil && !*r.CheckinRequired {
		return false
	}
	if r.Status != model.StatusReserved || r.Date != slots.FormatDate(p.now) {
		return false
	}
	current := slots.CurrentSlotIndex(p.now, p.now)
	return r.StartSlot <= current && current <= r.EndSlot
}
