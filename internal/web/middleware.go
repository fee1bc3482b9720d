package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"roombook/internal/bookingapi"
	"roombook/internal/metrics"
	"roombook/internal/page"
	"roombook/internal/session"
)

// sessionHandle is a route handler that runs with a live session.
type sessionHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// route registers h and counts its responses under the route pattern.
func (s *Server) route(router *httprouter.Router, method, pattern string, h httprouter.Handle) {
	router.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r, ps)
		metrics.IncHTTPRequest(method+" "+pattern, strconv.Itoa(rec.status))
	})
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		logger := s.logger.With().Str("request_id", reqID).Logger()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// withSession resolves the caller's session, creating one from the booking
// service login when the browser has none. Callers without a login are sent
// to the login page.
func (s *Server) withSession(h sessionHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ck, err := r.Cookie(session.CookieName); err == nil {
			if sess := s.deps.Sessions.Get(ck.Value); sess != nil {
				h(w, r, ps, sess)
				return
			}
		}

		sess, err := s.newSession(r.Context(), r)
		if err != nil {
			if errors.Is(err, bookingapi.ErrUnauthorized) {
				s.toLogin(w, r)
				return
			}
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to start session")
			http.Error(w, "예약 서버에 연결할 수 없습니다.", http.StatusBadGateway)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.deps.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		h(w, r, ps, sess)
	}
}

func (s *Server) newSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	client := s.deps.Client.WithCookies(r.Cookies())
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Int64("user_id", user.ID).Logger()
	pg := page.New(client, user.ID, page.Options{
		Location:       s.deps.Location,
		MaxAdvanceDays: s.deps.MaxAdvanceDays,
		Clock:          s.deps.Clock,
		Logger:         &logger,
	})
	return s.deps.Sessions.Create(*user, pg), nil
}

// limit rejects mutating requests over the session's rate.
func (s *Server) limit(h sessionHandle) sessionHandle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, sess *session.Session) {
		if !sess.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		h(w, r, ps, sess)
	}
}

func (s *Server) toLogin(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "로그인이 필요합니다.", "login": s.deps.LoginURL})
		return
	}
	http.Redirect(w, r, s.deps.LoginURL, http.StatusFound)
}

func (s *Server) clearSession(w http.ResponseWriter, sess *session.Session) {
	s.deps.Sessions.Delete(sess.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
