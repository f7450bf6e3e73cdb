// Package http exposes tour visibility state over a JSON API.
//
// A page-embedded client asks the server whether to start its tour and reports
// dismissals and completions; the server owns the policy and the persisted
// records, scoped per visitor.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// APIVersion is reported by /info.
const APIVersion = "0.1.0"

// ConfigProvider returns the configuration currently in effect.
type ConfigProvider interface {
	Current() *domain.TourConfig
}

// Server serves the visibility API.
type Server struct {
	kv       ports.KVStore
	locker   ports.DistributedLocker
	config   ConfigProvider
	version  string
	now      func() time.Time
	logger   *slog.Logger
	metrics  http.Handler
	reporter ports.Reporter
	Streams  *StreamManager
	visitors *policy.Visitors
}

// Option configures a Server.
type Option func(*Server)

// WithLocker serializes record updates across processes sharing kv.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Server) { s.locker = l }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithReporter receives the Closed and Completed labels of recorded changes.
func WithReporter(r ports.Reporter) Option {
	return func(s *Server) { s.reporter = r }
}

// NewServer creates a server storing visitor records in kv.
func NewServer(kv ports.KVStore, config ConfigProvider, opts ...Option) *Server {
	s := &Server{
		kv:      kv,
		config:  config,
		version: "dev",
		now:     time.Now,
		logger:  logging.NewNop(),
		Streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.visitors = policy.NewVisitors(kv, s.locker, s.logger)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/config", s.GetConfig)
	r.Get("/resolve", s.Resolve)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/visitors/{visitor}", func(r chi.Router) {
		r.Get("/records", s.GetRecords)
		r.Get("/events", s.SubscribeEvents)
		r.Route("/pages/{page}", func(r chi.Router) {
			r.Get("/status", s.GetStatus)
			r.Post("/dismissals", s.PostDismissal)
			r.Post("/completion", s.PostCompletion)
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// policyFor returns the policy over the visitor's namespace of the store.
func (s *Server) policyFor(visitor string) *policy.Policy {
	return s.visitors.For(visitor)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "tourguide-http",
		"version":     s.version,
		"api_version": APIVersion,
	})
}

// GetConfig handles GET /config.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Current())
}

// Resolve handles GET /resolve?path=...
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	cfg := s.config.Current()

	page, err := cfg.ResolvePage(path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":                 path,
		"page":                 page,
		"steps":                len(cfg.Steps(page)),
		"force_start_selector": cfg.ForceStartSelector(path),
	})
}

// GetRecords handles GET /visitors/{visitor}/records, in the persisted wire format.
func (s *Server) GetRecords(w http.ResponseWriter, r *http.Request) {
	store := s.policyFor(chi.URLParam(r, "visitor")).Store()
	writeJSON(w, http.StatusOK, map[string]any{
		domain.KeyViewed:       store.GetViewed(r.Context()),
		domain.KeyDismissCount: store.GetDismissCount(r.Context()),
	})
}

// GetStatus handles GET /visitors/{visitor}/pages/{page}/status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	visitor, page := chi.URLParam(r, "visitor"), domain.PageID(chi.URLParam(r, "page"))
	writeJSON(w, http.StatusOK, s.policyFor(visitor).Status(r.Context(), page, s.now()))
}

// PostDismissal handles POST /visitors/{visitor}/pages/{page}/dismissals.
// A dismissal is only recorded while the tour would still be offered.
func (s *Server) PostDismissal(w http.ResponseWriter, r *http.Request) {
	visitor, page := chi.URLParam(r, "visitor"), domain.PageID(chi.URLParam(r, "page"))
	pol := s.policyFor(visitor)
	now := s.now()

	recorded := false
	if pol.ShouldStart(r.Context(), page, now) {
		if err := pol.RecordDismissal(r.Context(), page, now); err != nil {
			s.logger.Error("Record dismissal failed", "visitor", visitor, "page", page, "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		recorded = true
		s.report(r, domain.LabelClosed)
	}

	s.respondStatus(w, r, visitor, page, recorded)
}

// PostCompletion handles POST /visitors/{visitor}/pages/{page}/completion.
func (s *Server) PostCompletion(w http.ResponseWriter, r *http.Request) {
	visitor, page := chi.URLParam(r, "visitor"), domain.PageID(chi.URLParam(r, "page"))
	if err := s.policyFor(visitor).RecordCompletion(r.Context(), page); err != nil {
		s.logger.Error("Record completion failed", "visitor", visitor, "page", page, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.report(r, domain.LabelCompleted)
	s.respondStatus(w, r, visitor, page, true)
}

func (s *Server) report(r *http.Request, label string) {
	if s.reporter != nil {
		s.reporter.Report(r.Context(), label)
	}
}

func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request, visitor string, page domain.PageID, changed bool) {
	status := s.policyFor(visitor).Status(r.Context(), page, s.now())
	if changed {
		if payload, err := json.Marshal(status); err == nil {
			s.Streams.Broadcast(visitor, string(payload))
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// SubscribeEvents handles GET /events (configuration reloads) and
// GET /visitors/{visitor}/events (record changes) as server-sent events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	topic := chi.URLParam(r, "visitor")
	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	msg := err.Error()
	if errors.Is(err, domain.ErrUnmappedPage) {
		msg = "no tutorial for path"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}
