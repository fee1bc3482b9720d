// Package web serves the booking pages over HTTP.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"roombook/internal/bookingapi"
	"roombook/internal/config"
	"roombook/internal/page"
	"roombook/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the collaborators of the web server.
type Deps struct {
	Client         *bookingapi.Client
	Sessions       *session.Store
	Rooms          *atomic.Pointer[config.RoomsConfig]
	Location       *time.Location
	MaxAdvanceDays int
	Clock          page.Clock
	LoginURL       string
	LogoutURL      string
	PublicURL      string
	CORSOrigins    []string
	SecureCookies  bool
	Logger         *zerolog.Logger
}

// Server holds the routes and templates.
type Server struct {
	deps   Deps
	tmpl   *template.Template
	logger zerolog.Logger
}

// NewServer parses the templates and prepares the server.
func NewServer(d Deps) (*Server, error) {
	if d.Client == nil || d.Sessions == nil {
		return nil, fmt.Errorf("web: client and sessions are required")
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Clock == nil {
		d.Clock = page.ClockFunc(time.Now)
	}
	if d.Rooms == nil {
		d.Rooms = new(atomic.Pointer[config.RoomsConfig])
	}
	if d.LogoutURL == "" {
		d.LogoutURL = "/"
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := zerolog.Nop()
	if d.Logger != nil {
		logger = d.Logger.With().Str("component", "web").Logger()
	}
	return &Server{deps: d, tmpl: tmpl, logger: logger}, nil
}

// Handler builds the router with its middleware chain.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	s.route(router, http.MethodGet, "/", s.withSession(s.index))
	s.route(router, http.MethodPost, "/date", s.withSession(s.limit(s.selectDate)))
	s.route(router, http.MethodPost, "/tab", s.withSession(s.limit(s.selectTab)))
	s.route(router, http.MethodPost, "/rooms/:id/slots", s.withSession(s.limit(s.clickSlot)))
	s.route(router, http.MethodGet, "/rooms/:id/qr.png", s.withSession(s.roomQR))
	s.route(router, http.MethodPost, "/confirm", s.withSession(s.limit(s.confirm)))
	s.route(router, http.MethodPost, "/confirm/close", s.withSession(s.limit(s.closeConfirmation)))
	s.route(router, http.MethodPost, "/reservations/:id/cancel/request", s.withSession(s.limit(s.requestCancel)))
	s.route(router, http.MethodPost, "/reservations/:id/cancel/dismiss", s.withSession(s.limit(s.dismissCancel)))
	s.route(router, http.MethodPost, "/reservations/:id/cancel", s.withSession(s.limit(s.cancel)))
	s.route(router, http.MethodPost, "/reservations/:id/checkin", s.withSession(s.limit(s.checkinReservation)))
	s.route(router, http.MethodGet, "/my-reservations.xlsx", s.withSession(s.exportMine))
	s.route(router, http.MethodGet, "/checkin", s.withSession(s.checkinRoom))
	s.route(router, http.MethodPost, "/logout", s.logout)

	api := httprouter.New()
	s.route(api, http.MethodGet, "/api/view", s.withSession(s.viewJSON))
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(api)

	mux := http.NewServeMux()
	mux.Handle("/api/", corsHandler)
	mux.Handle("/", router)

	return s.requestLogger(securityHeaders(mux))
}
