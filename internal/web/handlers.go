package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"roombook/internal/bookingapi"
	"roombook/internal/config"
	"roombook/internal/export"
	"roombook/internal/model"
	"roombook/internal/page"
	"roombook/internal/session"
	"roombook/internal/slots"
)

// roomCard is a room of the view with its catalogue metadata.
type roomCard struct {
	page.RoomView
	Info    config.RoomInfo
	HasInfo bool
}

type indexData struct {
	User     model.User
	View     page.View
	Rooms    []roomCard
	Settings *model.PublicSettings
	Notice   string
}

func (s *Server) index(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	ctx := r.Context()
	if err := sess.Page.Load(ctx); err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		// The previous data stays on screen.
	}

	data := indexData{User: sess.User, View: sess.Page.View()}
	settings, err := s.deps.Client.PublicSettings(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("Public settings unavailable")
	} else {
		data.Settings = settings
	}

	catalog := s.deps.Rooms.Load()
	if catalog != nil {
		data.Notice = catalog.Notice
	}
	data.Rooms = roomCards(data.View.Rooms, catalog)

	s.render(w, r, "index.html", data)
}

// roomCards merges catalogue metadata, drops hidden rooms and applies the catalogue order.
func roomCards(rooms []page.RoomView, catalog *config.RoomsConfig) []roomCard {
	cards := make([]roomCard, 0, len(rooms))
	for _, rv := range rooms {
		info, ok := catalog.Room(rv.ID)
		if ok && info.Hidden {
			continue
		}
		cards = append(cards, roomCard{RoomView: rv, Info: info, HasInfo: ok})
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return catalog.Rank(cards[i].ID) < catalog.Rank(cards[j].ID)
	})
	return cards
}

func (s *Server) viewJSON(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	if err := sess.Page.Load(r.Context()); err != nil && s.expired(w, r, sess, err) {
		return
	}
	writeJSON(w, http.StatusOK, sess.Page.View())
}

func (s *Server) selectDate(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	date, err := slots.ParseDate(r.FormValue("date"), s.deps.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.finish(w, r, sess, sess.Page.SelectDate(r.Context(), date))
}

func (s *Server) selectTab(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	s.finish(w, r, sess, sess.Page.SetTab(model.RoomType(r.FormValue("type"))))
}

func (s *Server) clickSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) {
	roomID, ok := pathID(w, ps)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil || index < 0 || index >= slots.PerDay {
		http.Error(w, "invalid slot index", http.StatusBadRequest)
		return
	}
	_, err = sess.Page.Click(roomID, index)
	s.finish(w, r, sess, err)
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	_, err := sess.Page.Confirm(r.Context())
	s.finish(w, r, sess, err)
}

func (s *Server) closeConfirmation(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	sess.Page.CloseConfirmation()
	s.finish(w, r, sess, nil)
}

func (s *Server) requestCancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) {
	id, ok := pathID(w, ps)
	if !ok {
		return
	}
	s.finish(w, r, sess, sess.Page.RequestCancel(id))
}

func (s *Server) dismissCancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	sess.Page.DismissCancel()
	s.finish(w, r, sess, nil)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) {
	id, ok := pathID(w, ps)
	if !ok {
		return
	}
	s.finish(w, r, sess, sess.Page.Cancel(r.Context(), id))
}

func (s *Server) checkinReservation(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) {
	id, ok := pathID(w, ps)
	if !ok {
		return
	}
	_, err := sess.Page.Checkin(r.Context(), id)
	s.finish(w, r, sess, err)
}

func (s *Server) exportMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="my-reservations.xlsx"`)
	if err := export.MyReservations(w, sess.Page.MyReservations()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to export reservations")
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.deps.Client.WithCookies(r.Cookies()).Logout(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Booking service logout failed")
	}
	if ck, err := r.Cookie(session.CookieName); err == nil {
		if sess := s.deps.Sessions.Get(ck.Value); sess != nil {
			s.clearSession(w, sess)
		}
	}
	http.Redirect(w, r, s.deps.LogoutURL, http.StatusSeeOther)
}

// finish answers a state transition: JSON clients get the new view, browsers
// are redirected back to the page.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Transition refused")
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := statusFor(err)
	body := struct {
		Error string    `json:"error,omitempty"`
		View  page.View `json:"view"`
	}{View: sess.Page.View()}
	if err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}

// expired ends the session when the booking service no longer accepts its login.
func (s *Server) expired(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) bool {
	if !errors.Is(err, bookingapi.ErrUnauthorized) {
		return false
	}
	s.clearSession(w, sess)
	s.toLogin(w, r)
	return true
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, page.ErrDateOutOfWindow):
		return http.StatusBadRequest
	case errors.Is(err, page.ErrUnknownRoom):
		return http.StatusNotFound
	case errors.Is(err, page.ErrBusy),
		errors.Is(err, page.ErrConfirmationOpen),
		errors.Is(err, page.ErrNoConfirmation),
		errors.Is(err, page.ErrNotCancellable),
		errors.Is(err, page.ErrCancelNotConfirmed),
		errors.Is(err, page.ErrNotCheckinable),
		errors.Is(err, bookingapi.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func pathID(w http.ResponseWriter, ps httprouter.Params) (int64, bool) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}
