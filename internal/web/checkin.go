package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"roombook/internal/bookingapi"
	"roombook/internal/model"
	"roombook/internal/session"
)

const qrSize = 256

// CheckinURL returns the address a room's QR code points to.
func CheckinURL(publicURL string, roomID int64) string {
	return fmt.Sprintf("%s/checkin?roomId=%d", strings.TrimRight(publicURL, "/"), roomID)
}

// roomQR renders the check-in QR code of a room. Only admins print them.
func (s *Server) roomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) {
	if !sess.User.IsAdmin() {
		http.Error(w, "관리자만 접근할 수 있습니다.", http.StatusForbidden)
		return
	}
	roomID, ok := pathID(w, ps)
	if !ok {
		return
	}

	png, err := qrcode.Encode(CheckinURL(s.deps.PublicURL, roomID), qrcode.Medium, qrSize)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("room_id", roomID).Msg("Failed to generate QR code")
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

type checkinData struct {
	User   model.User
	RoomID int64
	Result model.CheckinResult
}

// checkinRoom is the target of a scanned QR code.
func (s *Server) checkinRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params, sess *session.Session) {
	roomID, err := strconv.ParseInt(r.URL.Query().Get("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		s.renderCheckin(w, r, http.StatusBadRequest, checkinData{
			User:   sess.User,
			Result: model.CheckinResult{Message: "잘못된 QR 코드입니다."},
		})
		return
	}

	logger := zerolog.Ctx(r.Context()).With().Int64("room_id", roomID).Int64("user_id", sess.User.ID).Logger()
	res, err := s.deps.Client.WithCookies(r.Cookies()).Checkin(r.Context(), roomID)
	if err != nil {
		if s.expired(w, r, sess, err) {
			return
		}
		logger.Error().Err(err).Msg("Check-in failed")
		s.renderCheckin(w, r, http.StatusBadGateway, checkinData{
			User:   sess.User,
			RoomID: roomID,
			Result: model.CheckinResult{Message: bookingapi.UserMessage(err)},
		})
		return
	}

	logger.Info().Bool("success", res.Success).Msg("Check-in processed")
	if res.Success {
		// Reload so the grid and the reservation list show the new status.
		if err := sess.Page.Load(r.Context()); err != nil {
			logger.Warn().Err(err).Msg("Reload after check-in failed")
		}
	}
	s.renderCheckin(w, r, http.StatusOK, checkinData{User: sess.User, RoomID: roomID, Result: *res})
}

func (s *Server) renderCheckin(w http.ResponseWriter, r *http.Request, status int, data checkinData) {
	if wantsJSON(r) {
		writeJSON(w, status, data.Result)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "checkin.html", data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render check-in page")
	}
}
