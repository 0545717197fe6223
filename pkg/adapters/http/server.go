// Package http exposes the episode lifecycle over a JSON HTTP API so that a remote
// trainer can act as the policy.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/partree"
	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/internal/presentation/graph"
	"github.com/aretw0/partree/internal/runtime"
	"github.com/aretw0/partree/pkg/adapters/redis"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// StepRequest is the body of POST /episodes/{id}/step.
// Actions accept both {"dimension":d,"magnitude":m} and [d, m].
type StepRequest struct {
	Actions map[domain.RegionID]domain.Action `json:"actions" validate:"required"`
}

// ObservationResponse is returned by create and reset.
type ObservationResponse struct {
	EpisodeID    string                                 `json:"episode_id"`
	Frontier     []domain.RegionID                      `json:"frontier"`
	Observations map[domain.RegionID]domain.Observation `json:"observations"`
}

// EpisodeResponse describes a live episode.
type EpisodeResponse struct {
	EpisodeID string                 `json:"episode_id"`
	Status    domain.EpisodeStatus   `json:"status"`
	Frontier  []domain.RegionID      `json:"frontier"`
	Summary   *domain.EpisodeSummary `json:"summary"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves the episode API on top of a session manager.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	validate *validator.Validate
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		Manager:  manager,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for a session manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	return NewServer(manager, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/episodes", func(r chi.Router) {
		r.Post("/", s.CreateEpisode)
		r.Get("/", s.ListEpisodes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetEpisode)
			r.Delete("/", s.DeleteEpisode)
			r.Post("/reset", s.ResetEpisode)
			r.Post("/step", s.StepEpisode)
			r.Get("/graph", s.GetGraph)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	r.Get("/summaries", s.ListSummaries)
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateEpisode handles POST /episodes.
func (s *Server) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	id, obs, err := s.Manager.Create(r.Context())
	if err != nil {
		s.writeError(w, r, "create", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ObservationResponse{EpisodeID: id, Frontier: sortedKeys(obs), Observations: obs})
}

// ListEpisodes handles GET /episodes.
func (s *Server) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"episodes": s.Manager.List(r.Context())})
}

// GetEpisode handles GET /episodes/{id}.
func (s *Server) GetEpisode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var resp EpisodeResponse
	err := s.Manager.View(r.Context(), id, func(ep session.Episode) error {
		resp = EpisodeResponse{
			EpisodeID: ep.ID(),
			Status:    ep.Status(),
			Frontier:  ep.Frontier(),
			Summary:   ep.Summary(),
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, "get", err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// DeleteEpisode handles DELETE /episodes/{id}.
func (s *Server) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetEpisode handles POST /episodes/{id}/reset.
func (s *Server) ResetEpisode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	obs, err := s.Manager.Reset(r.Context(), id)
	if err != nil {
		s.writeError(w, r, "reset", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ObservationResponse{EpisodeID: id, Frontier: sortedKeys(obs), Observations: obs})
}

// StepEpisode handles POST /episodes/{id}/step.
func (s *Server) StepEpisode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body StepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		s.logger.Warn("StepEpisode: invalid request body", "episode_id", id, "err", err)
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	res, err := s.Manager.Step(r.Context(), id, body.Actions)
	if err != nil {
		s.writeError(w, r, "step", err)
		return
	}

	if payload, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(id, string(payload))
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GetGraph handles GET /episodes/{id}/graph and returns a Mermaid flowchart.
// The optional depth query parameter limits how many levels are drawn.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	depth := 0
	if q := r.URL.Query().Get("depth"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "depth must be a non-negative integer"})
			return
		}
		depth = n
	}

	var chart string
	err := s.Manager.View(r.Context(), chi.URLParam(r, "id"), func(ep session.Episode) error {
		regions := ep.Regions()
		overlay := &graph.Overlay{Frontier: ep.Frontier(), MaxDepth: depth}
		if ep.Status().Terminal() {
			overlay.Rewards = runtime.Rewards(regions)
		}
		chart = graph.GenerateMermaid(regions, overlay)
		return nil
	})
	if err != nil {
		s.writeError(w, r, "graph", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(chart))
}

// ListSummaries handles GET /summaries.
func (s *Server) ListSummaries(w http.ResponseWriter, r *http.Request) {
	list, err := s.Manager.Summaries(r.Context())
	if err != nil {
		s.writeError(w, r, "summaries", err)
		return
	}
	if list == nil {
		list = []*domain.EpisodeSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"summaries": list})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "partree-http",
		"version": strings.TrimSpace(partree.Version),
	})
}

// SubscribeEvents handles GET /episodes/{id}/events (SSE). Every step result of the
// episode is pushed as one data frame.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "streaming not supported"})
		return
	}
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "episode_id", id)

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

// StatusCode maps an engine error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrEpisodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEpisodeDone), errors.Is(err, runtime.ErrNotReset):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPreconditionViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, redis.ErrLockAcquire):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), op+" failed", "err", err)
	} else {
		s.logger.DebugContext(r.Context(), op+" rejected", "status", code, "err", err)
	}
	s.writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func sortedKeys(obs map[domain.RegionID]domain.Observation) []domain.RegionID {
	ids := make([]domain.RegionID, 0, len(obs))
	for id := range obs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
