package page

import (
	"sort"

	"roombook/internal/model"
	"roombook/internal/selection"
	"roombook/internal/slots"
)

// Legend lists the slot colours shown under the grid.
var Legend = []LegendItem{
	{Class: string(slots.StatusAvailable), Label: "예약 가능"},
	{Class: string(slots.StatusUnavailable), Label: "예약 불가"},
	{Class: string(slots.StatusPast), Label: "지난 시간"},
	{Class: "current", Label: "현재 시간"},
}

// LegendItem is one legend entry.
type LegendItem struct {
	Class string `json:"class"`
	Label string `json:"label"`
}

// Tab is one room group selector.
type Tab struct {
	Type   model.RoomType `json:"type"`
	Label  string         `json:"label"`
	Active bool           `json:"active"`
}

// SegmentView is a timeline segment with its selection mark.
type SegmentView struct {
	slots.Segment
	Mark selection.Mark `json:"mark,omitempty"`
}

// RoomView is one room card.
type RoomView struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Type     model.RoomType `json:"type"`
	Segments []SegmentView  `json:"segments"`
	Markers  []slots.Marker `json:"markers"`
	Free     []slots.Range  `json:"free"`
	Guide    string         `json:"guide,omitempty"`
}

// ReservationView is one row of the caller's reservation list.
type ReservationView struct {
	model.Reservation
	RoomName      string `json:"roomName"`
	DateLabel     string `json:"dateLabel"`
	TimeLabel     string `json:"timeLabel"`
	Cancellable   bool   `json:"cancellable"`
	Checkinable   bool   `json:"checkinable"`
	PendingCancel bool   `json:"pendingCancel"`
	Cancelling    bool   `json:"cancelling"`
}

// View is a snapshot of the page for rendering.
type View struct {
	UserID       int64             `json:"userId"`
	Date         string            `json:"date"`
	DateLabel    string            `json:"dateLabel"`
	MinDate      string            `json:"minDate"`
	MaxDate      string            `json:"maxDate"`
	Loaded       bool              `json:"loaded"`
	Stale        bool              `json:"stale"`
	Live         bool              `json:"live"`
	Cutoff       int               `json:"cutoff"`
	Tabs         []Tab             `json:"tabs"`
	Rooms        []RoomView        `json:"rooms"`
	Legend       []LegendItem      `json:"legend"`
	Notice       string            `json:"notice,omitempty"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	Reserving    bool              `json:"reserving"`
	Mine         []ReservationView `json:"myReservations"`
}

// View renders the current state.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now().In(p.loc)
	first, last := p.Window()
	v := View{
		UserID:    p.userID,
		Date:      slots.FormatDate(p.date),
		DateLabel: slots.FormatDateDisplay(p.date, now),
		MinDate:   slots.FormatDate(first),
		MaxDate:   slots.FormatDate(last),
		Loaded:    p.loaded,
		Stale:     p.loaded && !p.loadedDate.Equal(p.date),
		Live:      p.loaded && slots.SameDay(p.loadedDate, now),
		Cutoff:    p.cutoff,
		Legend:    Legend,
		Notice:    p.notice,
		Reserving: p.reserving,
	}
	if p.conf != nil {
		conf := *p.conf
		v.Confirmation = &conf
	}

	v.Tabs = p.tabs()
	for _, r := range p.rooms {
		if r.room.Type != p.tab {
			continue
		}
		v.Rooms = append(v.Rooms, p.roomView(r, v.Live))
	}
	v.Mine = p.myReservations()
	return v
}

func (p *Page) tabs() []Tab {
	var tabs []Tab
	seen := make(map[model.RoomType]bool)
	for _, r := range p.rooms {
		if seen[r.room.Type] {
			continue
		}
		seen[r.room.Type] = true
		tabs = append(tabs, Tab{Type: r.room.Type, Label: r.room.Type.Label(), Active: r.room.Type == p.tab})
	}
	return tabs
}

func (p *Page) roomView(r roomState, live bool) RoomView {
	sel := p.board.For(r.room.ID)
	tl := slots.BuildTimeline(r.slots, p.cutoff, live)

	segments := make([]SegmentView, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		segments = append(segments, SegmentView{Segment: seg, Mark: sel.Highlight(seg.Index)})
	}

	return RoomView{
		ID:       r.room.ID,
		Name:     r.room.Name,
		Type:     r.room.Type,
		Segments: segments,
		Markers:  tl.Markers,
		Free:     slots.FreeRanges(slots.VisibleSegments(r.slots, p.cutoff)),
		Guide:    sel.Guide(),
	}
}

// MyReservations returns the caller's reservations with their eligibility.
func (p *Page) MyReservations() []ReservationView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.myReservations()
}

func (p *Page) myReservations() []ReservationView {
	names := make(map[int64]string, len(p.rooms))
	for _, r := range p.rooms {
		names[r.room.ID] = r.room.Name
	}

	out := make([]ReservationView, 0, len(p.mine))
	for _, r := range p.mine {
		rv := ReservationView{
			Reservation:   r,
			RoomName:      names[r.RoomID],
			TimeLabel:     slots.FormatRange(r.StartSlot, r.EndSlot),
			Cancellable:   p.cancellable(r),
			Checkinable:   p.checkinable(r),
			PendingCancel: p.pendingCancel == r.ID,
			Cancelling:    p.cancellingID == r.ID,
		}
		if day, err := slots.ParseDate(r.Date, p.loc); err == nil {
			rv.DateLabel = slots.FormatDateDisplay(day, p.now)
		}
		out = append(out, rv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].StartSlot > out[j].StartSlot
	})
	return out
}
