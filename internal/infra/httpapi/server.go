package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"birthday_notification_bot/internal/domain/notification"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Cycles is the part of the birthday service exposed over HTTP.
type Cycles interface {
	RunCycle(ctx context.Context) notification.CycleSummary
	LastSummary() (notification.CycleSummary, bool)
}

// Pinger reports storage health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the operations HTTP API.
type Server struct {
	cycles  Cycles
	db      Pinger
	logger  *logrus.Entry
	router  chi.Router
	started time.Time
}

// New creates a Server. db may be nil, in which case health omits the storage check.
func New(cycles Cycles, db Pinger, logger *logrus.Entry) *Server {
	s := &Server{
		cycles:  cycles,
		db:      db,
		logger:  logger,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/cycles/run", s.handleRunCycle)
		r.Get("/cycles/last", s.handleLastCycle)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Seconds(),
	}
	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbOK := s.db.PingContext(ctx) == nil
		body["db"] = dbOK
		if !dbOK {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, body)
}

// handleRunCycle runs a cycle synchronously. The request context bounds it,
// so a client that disconnects abandons pending retries.
func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	s.logger.WithField("remote_addr", r.RemoteAddr).Info("Manual birthday cycle requested")
	summary := s.cycles.RunCycle(r.Context())
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLastCycle(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.cycles.LastSummary()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cycle has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
