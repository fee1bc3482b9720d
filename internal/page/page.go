// Package page holds the state of one booking page: the selected date, the
// derived availability of every room, the per-room selections and the shared
// confirmation. All transitions run under the page lock; remote calls do not.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"roombook/internal/events"
	"roombook/internal/metrics"
	"roombook/internal/model"
	"roombook/internal/selection"
	"roombook/internal/slots"
)

var (
	ErrBusy               = errors.New("another request of the same kind is in flight")
	ErrNoConfirmation     = errors.New("no confirmation is open")
	ErrConfirmationOpen   = errors.New("a confirmation is open")
	ErrDateOutOfWindow    = errors.New("date is outside the booking window")
	ErrUnknownRoom        = errors.New("unknown room")
	ErrNotCancellable     = errors.New("reservation cannot be cancelled")
	ErrCancelNotConfirmed = errors.New("cancel was not requested")
	ErrNotCheckinable     = errors.New("reservation cannot be checked in now")
)

// Service is the booking service capability the page needs.
type Service interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	ListReservations(ctx context.Context, date string) ([]model.Reservation, error)
	ListMyReservations(ctx context.Context, userID int64) ([]model.Reservation, error)
	Create(ctx context.Context, req model.CreateRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, reservationID, userID int64) error
	ManualCheckin(ctx context.Context, reservationID int64) (*model.CheckinResult, error)
}

// Clock supplies the wall clock.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Options configures a page.
type Options struct {
	Location       *time.Location
	MaxAdvanceDays int
	Clock          Clock
	Bus            *events.Bus
	Logger         *zerolog.Logger
}

type roomState struct {
	room  model.Room
	slots []slots.Slot
}

// Page is the booking grid of one caller.
type Page struct {
	svc        Service
	userID     int64
	clock      Clock
	loc        *time.Location
	maxAdvance int
	bus        *events.Bus
	board      *selection.Board
	logger     zerolog.Logger

	mu         sync.Mutex
	date       time.Time
	loadedDate time.Time
	loaded     bool
	generation uint64
	cutoff     int
	now        time.Time

	rooms []roomState
	mine  []model.Reservation
	tab   model.RoomType

	notice        string
	conf          *Confirmation
	reserving     bool
	cancellingID  int64
	pendingCancel int64
}

// New creates a page for userID showing today.
func New(svc Service, userID int64, opts Options) *Page {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = ClockFunc(time.Now)
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	now := opts.Clock.Now().In(opts.Location)
	return &Page{
		svc:        svc,
		userID:     userID,
		clock:      opts.Clock,
		loc:        opts.Location,
		maxAdvance: opts.MaxAdvanceDays,
		bus:        opts.Bus,
		board:      selection.NewBoard(opts.Bus),
		logger:     logger.With().Int64("user_id", userID).Logger(),
		date:       slots.StartOfDay(now),
		now:        now,
	}
}

// UserID returns the caller the page acts for.
func (p *Page) UserID() int64 {
	return p.userID
}

// Date returns the selected date.
func (p *Page) Date() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.date
}

// Window returns the first and last selectable dates.
func (p *Page) Window() (time.Time, time.Time) {
	today := slots.StartOfDay(p.clock.Now().In(p.loc))
	return today, today.AddDate(0, 0, p.maxAdvance)
}

// SelectDate switches the page to date and reloads it. Selections are cleared.
func (p *Page) SelectDate(ctx context.Context, date time.Time) error {
	day := slots.StartOfDay(date.In(p.loc))
	first, last := p.Window()
	if day.Before(first) || day.After(last) {
		return fmt.Errorf("%s: %w", slots.FormatDate(day), ErrDateOutOfWindow)
	}

	p.mu.Lock()
	p.switchDate(day)
	p.mu.Unlock()

	p.publishDateChanged(day)
	return p.Load(ctx)
}

// switchDate moves the page to day and drops everything tied to the old one.
// Callers hold p.mu.
func (p *Page) switchDate(day time.Time) {
	p.date = day
	p.generation++
	p.notice = ""
	p.conf = nil
}

func (p *Page) publishDateChanged(day time.Time) {
	if active := p.board.Active(); len(active) > 0 {
		p.logger.Debug().Ints64("rooms", active).Msg("Date changed, clearing selections")
	}
	if err := p.bus.PublishJSON(events.TypeDateChanged, map[string]string{"date": slots.FormatDate(day)}); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to publish date change")
	}
}

// Load fetches rooms, reservations of the selected date and the caller's own
// reservations in parallel. Results are applied only when all three succeed
// and no newer date was selected meanwhile; otherwise the prior state stays.
// A selected date that has fallen behind today moves to today first.
func (p *Page) Load(ctx context.Context) error {
	first, _ := p.Window()

	p.mu.Lock()
	rolled := p.date.Before(first)
	if rolled {
		p.switchDate(first)
	}
	gen := p.generation
	date := p.date
	p.mu.Unlock()

	if rolled {
		p.logger.Info().Str("date", slots.FormatDate(date)).Msg("Selected date has passed, moving to today")
		p.publishDateChanged(date)
	}

	dateStr := slots.FormatDate(date)
	var (
		rooms        []model.Room
		reservations []model.Reservation
		mine         []model.Reservation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rooms, err = p.svc.ListRooms(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		reservations, err = p.svc.ListReservations(gctx, dateStr)
		return err
	})
	g.Go(func() error {
		var err error
		mine, err = p.svc.ListMyReservations(gctx, p.userID)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.IncFetchFailure()
		p.logger.Error().Err(err).Str("date", dateStr).Uint64("generation", gen).Msg("Failed to load page data")
		return fmt.Errorf("load %s: %w", dateStr, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		metrics.IncStaleResponse()
		p.logger.Debug().
			Str("date", dateStr).
			Uint64("generation", gen).
			Uint64("current_generation", p.generation).
			Msg("Discarding stale page data")
		return nil
	}

	p.apply(date, rooms, reservations, mine)
	return nil
}

func (p *Page) apply(date time.Time, rooms []model.Room, reservations []model.Reservation, mine []model.Reservation) {
	now := p.clock.Now().In(p.loc)
	byRoom := slots.ByRoom(reservations)

	derived := make([]roomState, 0, len(rooms))
	for _, r := range rooms {
		derived = append(derived, roomState{room: r, slots: slots.DeriveSlots(byRoom[r.ID])})
	}

	p.rooms = derived
	p.mine = mine
	p.loadedDate = date
	p.loaded = true
	p.now = now
	p.cutoff = slots.CurrentSlotIndex(date, now)

	if !p.hasTab(p.tab) && len(derived) > 0 {
		p.tab = derived[0].room.Type
	}
}

// Tick advances the page clock. Only the cancel and check-in eligibility of the
// caller's reservations depend on it; slots are not re-derived.
func (p *Page) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now.In(p.loc)
}

// SetTab switches the visible room group.
func (p *Page) SetTab(t model.RoomType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasTab(t) {
		return fmt.Errorf("tab %q: %w", t, ErrUnknownRoom)
	}
	p.tab = t
	return nil
}

func (p *Page) hasTab(t model.RoomType) bool {
	if t == "" {
		return false
	}
	for _, r := range p.rooms {
		if r.room.Type == t {
			return true
		}
	}
	return false
}

func (p *Page) findRoom(id int64) (*roomState, bool) {
	for i := range p.rooms {
		if p.rooms[i].room.ID == id {
			return &p.rooms[i], true
		}
	}
	return nil, false
}
