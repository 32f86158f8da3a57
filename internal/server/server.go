package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/legacy/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures a Server.
type Options struct {
	Version   string
	JWTSecret string
	Issuer    string
	Logger    *slog.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server is the legacy HTTP API server.
type Server struct {
	engine  *engine.Engine
	router  chi.Router
	opts    Options
	logger  *slog.Logger
	started time.Time
}

// New creates a new Server around the given engine.
func New(eng *engine.Engine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		engine:  eng,
		opts:    opts,
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
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/register", s.handleRegister)

			// Everything below counts as an interaction by the principal.
			r.Group(func(r chi.Router) {
				r.Use(s.recordActivity)
				r.Post("/ping", s.handlePing)
				r.Get("/notify_setting", s.handleGetSettings)
				r.Post("/notify_setting", s.handleUpdateSettings)
				r.Get("/deliveries", s.handleDeliveries)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.engine.DB.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	body := map[string]any{
		"status":  "ok",
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"sender":  s.engine.Sender.Name(),
	}
	if dbOK {
		if n, err := s.engine.DB.CountPrincipals(); err == nil {
			body["principals"] = n
		}
	}
	if last, ok := s.engine.LastSweep(); ok {
		body["last_sweep"] = map[string]any{
			"cycle_id":          last.CycleID,
			"started_at":        last.StartedAt.UTC().Format(time.RFC3339),
			"candidates":        last.Candidates,
			"fired":             last.Fired,
			"delivery_failures": last.DeliveryFailures,
		}
	}

	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
