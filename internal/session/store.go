// Package session keeps the booking pages of logged in browsers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roombook/internal/metrics"
	"roombook/internal/model"
	"roombook/internal/page"
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "roombook_session"

// Session is one browser's page plus its request budget.
type Session struct {
	ID        string
	User      model.User
	Page      *page.Page
	CreatedAt time.Time

	limiter   *rate.Limiter
	updatedAt time.Time
	mu        sync.Mutex
}

// Allow reports whether a mutating request fits the session's rate limit.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = now
}

// IsExpired checks if the session was idle longer than timeout.
func (s *Session) IsExpired(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.updatedAt) > timeout
}

// Store manages sessions by id.
type Store struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
	limit    rate.Limit
	burst    int
	now      func() time.Time
	logger   zerolog.Logger
}

// NewStore creates a store expiring sessions idle for timeout. Each session may
// issue limit mutating requests per second with the given burst.
func NewStore(timeout time.Duration, limit rate.Limit, burst int, logger *zerolog.Logger) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if burst <= 0 {
		burst = 1
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "session").Logger()
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		logger:   l,
	}
}

// Create registers a new session for user showing pg.
func (st *Store) Create(user model.User, pg *page.Page) *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		User:      user,
		Page:      pg,
		CreatedAt: now,
		limiter:   rate.NewLimiter(st.limit, st.burst),
		updatedAt: now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.SetActiveSessions(n)
	st.logger.Info().Str("session_id", s.ID).Int64("user_id", user.ID).Msg("Session created")
	return s
}

// Get returns a live session and marks it used. Expired sessions are dropped.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil
	}

	now := st.now()
	if s.IsExpired(now, st.timeout) {
		st.Delete(id)
		return nil
	}
	s.touch(now)
	return s
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	metrics.SetActiveSessions(n)
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Cleanup removes expired sessions.
func (st *Store) Cleanup() int {
	now := st.now()

	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if s.IsExpired(now, st.timeout) {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.SetActiveSessions(n)
	return removed
}

// Tick advances the clock of every live page.
func (st *Store) Tick(now time.Time) {
	st.mu.RLock()
	pages := make([]*page.Page, 0, len(st.sessions))
	for _, s := range st.sessions {
		pages = append(pages, s.Page)
	}
	st.mu.RUnlock()

	for _, p := range pages {
		p.Tick(now)
	}
}

// Run drops expired sessions and ticks every page each interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := st.Cleanup(); removed > 0 {
				st.logger.Debug().Int("removed", removed).Msg("Expired sessions removed")
			}
			st.Tick(st.now())
		}
	}
}
