package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roombook/internal/bookingapi"
	"roombook/internal/events"
	"roombook/internal/model"
	"roombook/internal/selection"
	"roombook/internal/slots"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListRooms(ctx context.Context) ([]model.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Room), args.Error(1)
}

func (m *mockService) ListReservations(ctx context.Context, date string) ([]model.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reservation), args.Error(1)
}

func (m *mockService) ListMyReservations(ctx context.Context, userID int64) ([]model.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reservation), args.Error(1)
}

func (m *mockService) Create(ctx context.Context, req model.CreateRequest) (*model.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *mockService) Cancel(ctx context.Context, reservationID, userID int64) error {
	return m.Called(ctx, reservationID, userID).Error(0)
}

func (m *mockService) ManualCheckin(ctx context.Context, reservationID int64) (*model.CheckinResult, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckinResult), args.Error(1)
}

const testUserID int64 = 42

var (
	kst       = time.FixedZone("KST", 9*60*60)
	testRooms = []model.Room{
		{ID: 1, Name: "B101", Type: model.RoomTypeBasement},
		{ID: 2, Name: "B102", Type: model.RoomTypeBasement},
		{ID: 3, Name: "D-1", Type: model.RoomTypeDCell},
	}
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, kst)
}

func newTestPage(t *testing.T, svc *mockService, clock *testClock) *Page {
	t.Helper()
	logger := zerolog.New(io.Discard)
	return New(svc, testUserID, Options{
		Location:       kst,
		MaxAdvanceDays: 6,
		Clock:          clock,
		Logger:         &logger,
	})
}

func expectLoad(svc *mockService, date string, reservations, mine []model.Reservation) {
	svc.On("ListRooms", mock.Anything).Return(testRooms, nil).Maybe()
	svc.On("ListReservations", mock.Anything, date).Return(reservations, nil).Maybe()
	svc.On("ListMyReservations", mock.Anything, testUserID).Return(mine, nil).Maybe()
}

func roomView(t *testing.T, v View, id int64) RoomView {
	t.Helper()
	for _, r := range v.Rooms {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("room %d not in view", id)
	return RoomView{}
}

func TestLoad_TodayAppliesCutoff(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 9, 45)}
	expectLoad(svc, "2026-03-14", []model.Reservation{
		{ID: 1, RoomID: 1, Date: "2026-03-14", StartSlot: 20, EndSlot: 21, Status: model.StatusReserved},
		{ID: 2, RoomID: 1, Date: "2026-03-14", StartSlot: 24, EndSlot: 24, Status: model.StatusCancelled},
	}, nil)

	p := newTestPage(t, svc, clock)
	require.NoError(t, p.Load(context.Background()))

	v := p.View()
	assert.True(t, v.Loaded)
	assert.False(t, v.Stale)
	assert.True(t, v.Live)
	assert.Equal(t, "오늘", v.DateLabel)
	assert.Equal(t, 19, v.Cutoff)
	assert.Equal(t, "2026-03-14", v.MinDate)
	assert.Equal(t, "2026-03-20", v.MaxDate)
	require.Len(t, v.Tabs, 2)
	assert.True(t, v.Tabs[0].Active)
	assert.Equal(t, "스터디룸", v.Tabs[0].Label)
	require.Len(t, v.Rooms, 2, "only the active tab is rendered")

	room := roomView(t, v, 1)
	require.Len(t, room.Segments, slots.PerDay-19)
	assert.Equal(t, 19, room.Segments[0].Index)
	assert.True(t, room.Segments[0].Current)
	assert.False(t, room.Segments[1].Clickable, "slot 20 is reserved")
	assert.True(t, room.Segments[5].Clickable, "cancelled reservations free their slots")
	assert.Equal(t, []slots.Range{{Start: 19, End: 19}, {Start: 22, End: 47}}, room.Free)

	require.NoError(t, p.SetTab(model.RoomTypeDCell))
	v = p.View()
	require.Len(t, v.Rooms, 1)
	assert.Equal(t, "D-1", v.Rooms[0].Name)
	assert.Error(t, p.SetTab("ROOFTOP"))
}

func TestLoad_OtherDateHasNoCutoff(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 9, 29)}
	expectLoad(svc, "2026-03-14", nil, nil)
	expectLoad(svc, "2026-03-15", nil, nil)

	p := newTestPage(t, svc, clock)
	require.NoError(t, p.Load(context.Background()))
	assert.Equal(t, 18, p.View().Cutoff)

	require.NoError(t, p.SelectDate(context.Background(), at(15, 0, 0)))
	v := p.View()
	assert.Equal(t, 0, v.Cutoff)
	assert.False(t, v.Live)
	assert.Equal(t, "내일", v.DateLabel)
	room := roomView(t, v, 1)
	assert.Len(t, room.Segments, slots.PerDay)
	for _, seg := range room.Segments {
		assert.False(t, seg.Current)
	}
}

func TestLoad_FailureKeepsPriorState(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 8, 0)}
	svc.On("ListRooms", mock.Anything).Return(testRooms, nil)
	svc.On("ListMyReservations", mock.Anything, testUserID).Return([]model.Reservation{}, nil)
	svc.On("ListReservations", mock.Anything, "2026-03-14").Return([]model.Reservation{
		{ID: 1, RoomID: 2, StartSlot: 30, EndSlot: 31, Status: model.StatusReserved},
	}, nil).Once()
	svc.On("ListReservations", mock.Anything, "2026-03-14").Return(nil, errors.New("connection refused")).Once()

	p := newTestPage(t, svc, clock)
	require.NoError(t, p.Load(context.Background()))
	before := p.View()

	err := p.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, before, p.View())
}

func TestLoad_DiscardsStaleResponse(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 8, 0)}
	svc.On("ListRooms", mock.Anything).Return(testRooms, nil)
	svc.On("ListMyReservations", mock.Anything, testUserID).Return([]model.Reservation{}, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	svc.On("ListReservations", mock.Anything, "2026-03-15").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]model.Reservation{{ID: 1, RoomID: 1, StartSlot: 0, EndSlot: 47, Status: model.StatusReserved}}, nil).
		Once()
	svc.On("ListReservations", mock.Anything, "2026-03-16").Return([]model.Reservation{}, nil).Once()

	p := newTestPage(t, svc, clock)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- p.SelectDate(ctx, at(15, 0, 0)) }()
	<-started

	require.NoError(t, p.SelectDate(ctx, at(16, 0, 0)))
	close(release)
	require.NoError(t, <-done)

	v := p.View()
	assert.Equal(t, "2026-03-16", v.Date)
	assert.False(t, v.Stale)
	room := roomView(t, v, 1)
	for _, seg := range room.Segments {
		assert.True(t, seg.Clickable, "slots of the abandoned date must not be applied")
	}
}

func TestSelectDate_Window(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 23, 50)}
	expectLoad(svc, "2026-03-20", nil, nil)

	p := newTestPage(t, svc, clock)
	ctx := context.Background()

	assert.ErrorIs(t, p.SelectDate(ctx, at(13, 12, 0)), ErrDateOutOfWindow)
	assert.ErrorIs(t, p.SelectDate(ctx, at(21, 0, 0)), ErrDateOutOfWindow)
	assert.Equal(t, "2026-03-14", slots.FormatDate(p.Date()))

	require.NoError(t, p.SelectDate(ctx, at(20, 18, 0)))
	assert.Equal(t, "2026-03-20", slots.FormatDate(p.Date()))
}

func TestSelectDate_ClearsSelections(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 8, 0)}
	expectLoad(svc, "2026-03-14", nil, nil)
	expectLoad(svc, "2026-03-15", nil, nil)

	p := newTestPage(t, svc, clock)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	out, err := p.Click(1, 30)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeStartPicked, out.Kind)
	assert.Equal(t, selection.GuideMessage, roomView(t, p.View(), 1).Guide)

	require.NoError(t, p.SelectDate(ctx, at(15, 0, 0)))
	room := roomView(t, p.View(), 1)
	assert.Empty(t, room.Guide)
	for _, seg := range room.Segments {
		assert.Equal(t, selection.MarkNone, seg.Mark)
	}
}

func loadedTomorrow(t *testing.T, svc *mockService, reservations []model.Reservation) *Page {
	t.Helper()
	clock := &testClock{now: at(14, 9, 45)}
	expectLoad(svc, "2026-03-15", reservations, nil)
	p := newTestPage(t, svc, clock)
	require.NoError(t, p.SelectDate(context.Background(), at(15, 0, 0)))
	return p
}

func TestClick_ValidRangeOpensConfirmation(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)

	_, err := p.Click(1, 10)
	require.NoError(t, err)
	out, err := p.Click(1, 13)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeRangeSelected, out.Kind)

	conf, ok := p.Confirmation()
	require.True(t, ok)
	assert.Equal(t, int64(1), conf.RoomID)
	assert.Equal(t, "B101", conf.RoomName)
	assert.Equal(t, "2026-03-15", conf.Date)
	assert.Equal(t, "내일", conf.DateLabel)
	assert.Equal(t, "05:00 - 07:00", conf.TimeLabel)
	assert.Equal(t, 120, conf.Minutes)

	_, err = p.Click(2, 3)
	assert.ErrorIs(t, err, ErrConfirmationOpen)

	marks := roomView(t, p.View(), 1).Segments
	assert.Equal(t, selection.MarkStart, marks[10].Mark)
	assert.Equal(t, selection.MarkInRange, marks[11].Mark)
	assert.Equal(t, selection.MarkEnd, marks[13].Mark)
}

func TestClick_SingleSlotRange(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)

	_, err := p.Click(2, 5)
	require.NoError(t, err)
	out, err := p.Click(2, 5)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeRangeSelected, out.Kind)

	conf, ok := p.Confirmation()
	require.True(t, ok)
	assert.Equal(t, 30, conf.Minutes)
	assert.Equal(t, "02:30 - 03:00", conf.TimeLabel)
}

func TestClick_InvalidRangeShowsNotice(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, []model.Reservation{
		{ID: 9, RoomID: 1, Date: "2026-03-15", StartSlot: 7, EndSlot: 7, Status: model.StatusReserved},
	})

	_, err := p.Click(1, 5)
	require.NoError(t, err)
	out, err := p.Click(1, 8)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeInvalidRange, out.Kind)

	v := p.View()
	assert.Equal(t, selection.InvalidRangeMessage, v.Notice)
	assert.Nil(t, v.Confirmation)
	room := roomView(t, v, 1)
	assert.False(t, room.Segments[7].Clickable)
	for _, seg := range room.Segments {
		assert.Equal(t, selection.MarkNone, seg.Mark)
	}
}

func TestClick_BeforeCutoffAndUnknownRoom(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 9, 45)}
	expectLoad(svc, "2026-03-14", nil, nil)
	p := newTestPage(t, svc, clock)
	require.NoError(t, p.Load(context.Background()))

	out, err := p.Click(1, 18)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeIgnored, out.Kind)

	_, err = p.Click(99, 20)
	assert.ErrorIs(t, err, ErrUnknownRoom)
}

func TestLoad_AcrossMidnightMovesToToday(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(10, 23, 50)}
	expectLoad(svc, "2026-03-10", nil, nil)
	expectLoad(svc, "2026-03-11", nil, nil)
	p := newTestPage(t, svc, clock)
	ctx := context.Background()

	var changed []string
	p.bus.Subscribe(events.TypeDateChanged, func(e events.Event) error {
		var payload map[string]string
		require.NoError(t, json.Unmarshal(e.Payload, &payload))
		changed = append(changed, payload["date"])
		return nil
	})

	require.NoError(t, p.Load(ctx))
	assert.Equal(t, 47, p.View().Cutoff)
	out, err := p.Click(1, 47)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeStartPicked, out.Kind)

	clock.Set(at(11, 0, 10))

	// The grid still shows yesterday until it is reloaded.
	_, err = p.Click(1, 47)
	assert.ErrorIs(t, err, ErrDateOutOfWindow)
	_, ok := p.Confirmation()
	assert.False(t, ok)
	assert.False(t, p.View().Live)

	require.NoError(t, p.Load(ctx))
	v := p.View()
	assert.Equal(t, "2026-03-11", v.Date)
	assert.Equal(t, "2026-03-11", slots.FormatDate(p.Date()))
	assert.Equal(t, 0, v.Cutoff)
	assert.True(t, v.Live)
	assert.False(t, v.Stale)
	assert.Nil(t, v.Confirmation)
	assert.Equal(t, []string{"2026-03-11"}, changed)
	svc.AssertCalled(t, "ListReservations", mock.Anything, "2026-03-11")

	room := roomView(t, v, 1)
	require.Len(t, room.Segments, slots.PerDay)
	assert.True(t, room.Segments[0].Current)
	for _, seg := range room.Segments {
		assert.Equal(t, selection.MarkNone, seg.Mark, "selection from the previous day is cleared")
	}

	out, err = p.Click(1, 0)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeStartPicked, out.Kind)
}

func TestClick_StaleGridBeyondWindowIsRejected(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)

	clock := p.clock.(*testClock)
	clock.Set(at(16, 9, 0))

	_, err := p.Click(1, 30)
	assert.ErrorIs(t, err, ErrDateOutOfWindow)
	_, ok := p.Confirmation()
	assert.False(t, ok)
}

func openConfirmation(t *testing.T, p *Page) Confirmation {
	t.Helper()
	_, err := p.Click(1, 10)
	require.NoError(t, err)
	_, err = p.Click(1, 13)
	require.NoError(t, err)
	conf, ok := p.Confirmation()
	require.True(t, ok)
	return conf
}

func TestConfirm_FailureKeepsConfirmationOpen(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)
	openConfirmation(t, p)

	conflict := fmt.Errorf("create reservation: %w", &bookingapi.APIError{Status: 409, Message: "이미 예약된 시간입니다"})
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, conflict).Once()

	_, err := p.Confirm(context.Background())
	require.Error(t, err)

	conf, ok := p.Confirmation()
	require.True(t, ok, "confirmation closes only on success")
	assert.Equal(t, "이미 예약된 시간입니다", conf.Error)
	assert.Equal(t, selection.MarkStart, roomView(t, p.View(), 1).Segments[10].Mark)

	svc.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	_, err = p.Confirm(context.Background())
	require.Error(t, err)
	conf, _ = p.Confirmation()
	assert.Equal(t, bookingapi.FallbackMessage, conf.Error)
}

func TestConfirm_SuccessClosesAndReloads(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)
	openConfirmation(t, p)

	want := model.CreateRequest{UserID: testUserID, RoomID: 1, Date: "2026-03-15", StartSlot: 10, EndSlot: 13}
	svc.On("Create", mock.Anything, want).Return(&model.Reservation{ID: 77, RoomID: 1, Date: "2026-03-15", StartSlot: 10, EndSlot: 13}, nil).Once()

	created, err := p.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(77), created.ID)

	_, ok := p.Confirmation()
	assert.False(t, ok)
	svc.AssertNumberOfCalls(t, "ListReservations", 2)
	assert.Equal(t, selection.MarkNone, roomView(t, p.View(), 1).Segments[10].Mark)

	_, err = p.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNoConfirmation)
}

func TestConfirm_SuccessWithoutBody(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)
	openConfirmation(t, p)

	svc.On("Create", mock.Anything, mock.Anything).Return(nil, nil).Once()

	var created *model.Reservation
	var err error
	require.NotPanics(t, func() { created, err = p.Confirm(context.Background()) })
	require.NoError(t, err)
	assert.Nil(t, created)

	_, ok := p.Confirmation()
	assert.False(t, ok)
}

func TestConfirm_BusyGuard(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)
	openConfirmation(t, p)

	started := make(chan struct{})
	release := make(chan struct{})
	svc.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&model.Reservation{ID: 1}, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := p.Confirm(context.Background())
		done <- err
	}()
	<-started

	assert.True(t, p.View().Reserving)
	_, err := p.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	svc.AssertNumberOfCalls(t, "Create", 1)
	assert.False(t, p.View().Reserving)
}

func TestCloseConfirmation_ResetsAllRooms(t *testing.T) {
	svc := new(mockService)
	p := loadedTomorrow(t, svc, nil)

	_, err := p.Click(2, 20)
	require.NoError(t, err)
	openConfirmation(t, p)

	p.CloseConfirmation()
	_, ok := p.Confirmation()
	assert.False(t, ok)
	v := p.View()
	assert.Empty(t, roomView(t, v, 2).Guide)
	assert.Equal(t, selection.MarkNone, roomView(t, v, 1).Segments[10].Mark)

	out, err := p.Click(1, 12)
	require.NoError(t, err)
	assert.Equal(t, selection.OutcomeStartPicked, out.Kind)
}

func myReservation(id int64, date string, start, end int, status string) model.Reservation {
	return model.Reservation{ID: id, UserID: testUserID, RoomID: 1, Date: date, StartSlot: start, EndSlot: end, Status: status}
}

func TestCancel_RequiresConfirmation(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 9, 45)}
	expectLoad(svc, "2026-03-14", nil, []model.Reservation{
		myReservation(5, "2026-03-14", 24, 25, model.StatusReserved),
		myReservation(6, "2026-03-14", 10, 11, model.StatusReserved),
		myReservation(7, "2026-03-15", 24, 25, model.StatusCheckedIn),
	})
	p := newTestPage(t, svc, clock)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	assert.ErrorIs(t, p.RequestCancel(6), ErrNotCancellable, "already started")
	assert.ErrorIs(t, p.RequestCancel(7), ErrNotCancellable, "checked in")
	assert.ErrorIs(t, p.RequestCancel(404), ErrNotCancellable)
	assert.ErrorIs(t, p.Cancel(ctx, 5), ErrCancelNotConfirmed)

	require.NoError(t, p.RequestCancel(5))
	p.DismissCancel()
	assert.ErrorIs(t, p.Cancel(ctx, 5), ErrCancelNotConfirmed)

	svc.On("Cancel", mock.Anything, int64(5), testUserID).Return(nil).Once()
	require.NoError(t, p.RequestCancel(5))
	mine := p.MyReservations()
	require.Len(t, mine, 3)
	for _, r := range mine {
		assert.Equal(t, r.ID == 5, r.PendingCancel)
	}
	require.NoError(t, p.Cancel(ctx, 5))
	svc.AssertExpectations(t)
}

func TestCancel_FailureSetsNotice(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 9, 45)}
	expectLoad(svc, "2026-03-14", nil, []model.Reservation{myReservation(5, "2026-03-15", 2, 3, model.StatusReserved)})
	p := newTestPage(t, svc, clock)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	svc.On("Cancel", mock.Anything, int64(5), testUserID).
		Return(&bookingapi.APIError{Status: 409, Message: "본인의 예약만 취소할 수 있습니다."}).Once()
	require.NoError(t, p.RequestCancel(5))
	require.Error(t, p.Cancel(ctx, 5))
	assert.Equal(t, "본인의 예약만 취소할 수 있습니다.", p.View().Notice)
}

func TestTick_RecomputesEligibility(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 9, 45)}
	expectLoad(svc, "2026-03-14", nil, []model.Reservation{myReservation(5, "2026-03-14", 20, 21, model.StatusReserved)})
	p := newTestPage(t, svc, clock)
	require.NoError(t, p.Load(context.Background()))

	mine := p.MyReservations()
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Cancellable)
	assert.False(t, mine[0].Checkinable)
	assert.Equal(t, "10:00 - 11:00", mine[0].TimeLabel)
	assert.Equal(t, "B101", mine[0].RoomName)
	assert.Equal(t, "오늘", mine[0].DateLabel)

	p.Tick(at(14, 10, 5))
	mine = p.MyReservations()
	assert.False(t, mine[0].Cancellable)
	assert.True(t, mine[0].Checkinable)
	assert.Equal(t, 19, p.View().Cutoff, "tick does not re-derive the grid")

	p.Tick(at(14, 11, 0))
	assert.False(t, p.MyReservations()[0].Checkinable)
}

func TestCheckin_NotRequired(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 10, 5)}
	exempt := myReservation(5, "2026-03-14", 20, 21, model.StatusReserved)
	exempt.CheckinRequired = new(bool)
	required := myReservation(6, "2026-03-14", 20, 21, model.StatusReserved)
	required.CheckinRequired = func() *bool { b := true; return &b }()
	expectLoad(svc, "2026-03-14", nil, []model.Reservation{exempt, required})
	p := newTestPage(t, svc, clock)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	checkinable := make(map[int64]bool)
	for _, r := range p.MyReservations() {
		checkinable[r.ID] = r.Checkinable
	}
	assert.Equal(t, map[int64]bool{5: false, 6: true}, checkinable)

	_, err := p.Checkin(ctx, 5)
	assert.ErrorIs(t, err, ErrNotCheckinable)
	svc.AssertNotCalled(t, "ManualCheckin", mock.Anything, int64(5))
}

func TestCheckin(t *testing.T) {
	svc := new(mockService)
	clock := &testClock{now: at(14, 10, 5)}
	expectLoad(svc, "2026-03-14", nil, []model.Reservation{
		myReservation(5, "2026-03-14", 20, 21, model.StatusReserved),
		myReservation(6, "2026-03-14", 30, 31, model.StatusReserved),
	})
	p := newTestPage(t, svc, clock)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	_, err := p.Checkin(ctx, 6)
	assert.ErrorIs(t, err, ErrNotCheckinable)

	svc.On("ManualCheckin", mock.Anything, int64(5)).Return(&model.CheckinResult{Success: true, Message: "체크인 완료!"}, nil).Once()
	res, err := p.Checkin(ctx, 5)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "체크인 완료!", p.View().Notice)
}
