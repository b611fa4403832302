// Package server exposes area-selection sessions over HTTP so a browser map
// can drive them. Each client gets its own session keyed by a UUID; whatever
// the session shows (messages, maps, plots) is returned with the response
// that caused it.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/display"
	"github.com/livingwales/areaselect/internal/session"
)

// Session limit defaults.
const (
	DefaultSessionTTL  = time.Hour
	DefaultMaxSessions = 256
)

// Options configures a Server.
type Options struct {
	Session        session.Options
	AllowedOrigins []string
	// SessionTTL is how long a session may sit unused before it is dropped.
	SessionTTL time.Duration
	// MaxSessions caps live sessions; opening one more evicts the least
	// recently used.
	MaxSessions int
}

// Server holds the live sessions.
type Server struct {
	opts Options
	now  func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

type entry struct {
	session  *session.Session
	recorder *display.Recorder
	created  time.Time
	lastUsed time.Time
}

// New creates a Server with no sessions.
func New(opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &Server{opts: opts, now: time.Now, sessions: make(map[uuid.UUID]*entry)}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/sessions", s.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Delete("/", s.deleteSession)
		r.Get("/groups", s.withSession(s.groups))
		r.Get("/shapefiles", s.withSession(s.shapefiles))
		r.Get("/selector", s.withSession(s.currentSelector))
		r.Put("/selector", s.withSession(s.updateSelector))
		r.Get("/dataset", s.withSession(s.dataset))
		r.Post("/plot", s.withSession(s.plot))
		r.Post("/map", s.withSession(s.startMap))
		r.Post("/events/{event}", s.withSession(s.event))
		r.Get("/selection", s.withSession(s.confirmedSelection))
		r.Post("/selection/map", s.withSession(s.selectionMap))
		r.Get("/buffer/distance", s.withSession(s.bufferDistance))
		r.Put("/buffer/distance", s.withSession(s.setBufferDistance))
		r.Post("/buffer/distance/confirm", s.withSession(s.confirmBufferDistance))
		r.Get("/buffer/controls", s.withSession(s.bufferControls))
		r.Post("/buffer/confirm", s.withSession(s.confirmBuffer))
		r.Post("/buffer/{mode}", s.withSession(s.applyBuffer))
		r.Get("/help", s.withSession(s.help))
	})
	return r
}

// Len returns the number of live sessions.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) open() (uuid.UUID, *entry) {
	rec := display.NewRecorder()
	now := s.now()
	e := &entry{
		session:  session.New(s.opts.Session, rec),
		recorder: rec,
		created:  now,
		lastUsed: now,
	}
	id := uuid.New()

	s.mu.Lock()
	s.sweepLocked(now)
	if len(s.sessions) >= s.opts.MaxSessions {
		s.evictOldestLocked()
	}
	s.sessions[id] = e
	n := len(s.sessions)
	s.mu.Unlock()

	zap.L().Info("server: session opened", zap.String("session", id.String()), zap.Int("sessions", n))
	return id, e
}

func (s *Server) lookup(raw string) (*entry, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(e.lastUsed) > s.opts.SessionTTL {
		s.dropLocked(id, e, "expired")
		return nil, false
	}
	e.lastUsed = now
	return e, true
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped.
func (s *Server) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *Server) sweepLocked(now time.Time) int {
	var n int
	for id, e := range s.sessions {
		if now.Sub(e.lastUsed) > s.opts.SessionTTL {
			s.dropLocked(id, e, "expired")
			n++
		}
	}
	return n
}

func (s *Server) evictOldestLocked() {
	var (
		oldest uuid.UUID
		victim *entry
	)
	for id, e := range s.sessions {
		if victim == nil || e.lastUsed.Before(victim.lastUsed) {
			oldest, victim = id, e
		}
	}
	if victim != nil {
		s.dropLocked(oldest, victim, "evicted")
	}
}

func (s *Server) dropLocked(id uuid.UUID, e *entry, reason string) {
	delete(s.sessions, id)
	zap.L().Info("server: session "+reason,
		zap.String("session", id.String()),
		zap.Duration("age", s.now().Sub(e.created)),
	)
}

func (s *Server) close(raw string) bool {
	id, err := uuid.Parse(raw)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return false
	}
	s.dropLocked(id, e, "closed")
	return true
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
