// Package http exposes the conversation engine over a JSON API. It is a
// generic inbound channel: provider-specific webhook parsing stays outside,
// normalized to (ownerKey, event, payload) before it reaches these routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/entity"
	"github.com/aretw0/parley/pkg/session"
	"github.com/aretw0/parley/pkg/template"
)

// Server wires the orchestrator and template registry into HTTP handlers.
type Server struct {
	orchestrator *session.Orchestrator
	registry     *template.Registry
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer enables the /metrics endpoint for the given registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(orchestrator *session.Orchestrator, registry *template.Registry, opts ...Option) http.Handler {
	s := &Server{
		orchestrator: orchestrator,
		registry:     registry,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/templates", s.registerTemplate)
	r.Get("/templates", s.listTemplates)

	r.Post("/conversations", s.startConversation)
	r.Get("/conversations/{ownerKey}", s.getConversation)
	r.Post("/conversations/{ownerKey}/events", s.processEvent)
	r.Post("/conversations/{ownerKey}/finish", s.finishConversation)
	r.Post("/conversations/{ownerKey}/cancel", s.cancelConversation)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) registerTemplate(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	doc, err := template.Decode(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tpl, err := doc.Build()
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.registry.Register(tpl); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"id": tpl.ID()})
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"templates": s.registry.IDs()})
}

type startRequest struct {
	TemplateID string `json:"templateId"`
	OwnerKey   string `json:"ownerKey"`
	ChannelKey string `json:"channelKey"`
}

type startResponse struct {
	Conversation *domain.Conversation `json:"conversation"`
	View         *domain.ViewNode     `json:"view,omitempty"`
	Resumed      bool                 `json:"resumed"`
}

func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TemplateID == "" || req.OwnerKey == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("templateId and ownerKey are required"))
		return
	}
	if req.ChannelKey == "" {
		req.ChannelKey = req.OwnerKey
	}

	result, err := s.orchestrator.Start(r.Context(), req.TemplateID, req.OwnerKey, req.ChannelKey)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	s.writeJSON(w, status, startResponse{
		Conversation: result.Conversation,
		View:         result.View,
		Resumed:      result.Resumed,
	})
}

type eventRequest struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

type eventResponse struct {
	domain.TransitionResult
	View *domain.ViewNode `json:"view,omitempty"`
}

func (s *Server) processEvent(w http.ResponseWriter, r *http.Request) {
	ownerKey := chi.URLParam(r, "ownerKey")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Event == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("event is required"))
		return
	}

	result, err := s.orchestrator.ProcessInput(r.Context(), ownerKey, req.Event, req.Payload)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, eventResponse{
		TransitionResult: result.TransitionResult,
		View:             result.View,
	})
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	ownerKey := chi.URLParam(r, "ownerKey")
	conv, err := s.orchestrator.Store().FindActiveByOwner(r.Context(), ownerKey)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

func (s *Server) finishConversation(w http.ResponseWriter, r *http.Request) {
	s.terminate(w, r, s.orchestrator.Finish)
}

func (s *Server) cancelConversation(w http.ResponseWriter, r *http.Request) {
	s.terminate(w, r, s.orchestrator.Cancel)
}

func (s *Server) terminate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ownerKey string) (*domain.Conversation, error)) {
	ownerKey := chi.URLParam(r, "ownerKey")
	conv, err := op(r.Context(), ownerKey)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

// writeMappedError translates engine errors to HTTP status codes.
func (s *Server) writeMappedError(w http.ResponseWriter, err error) {
	var guardErr *entity.GuardError
	var valErr *entity.ValidationError
	var entityAggr *entity.AggregateError
	var defErr *domain.DefinitionError
	var aggrErr *domain.AggregateError

	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrConversationInactive), errors.Is(err, domain.ErrEmptyHistory):
		s.writeError(w, http.StatusConflict, err)
	case errors.As(err, &guardErr), errors.As(err, &valErr), errors.As(err, &entityAggr),
		errors.As(err, &defErr), errors.As(err, &aggrErr):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.logger.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
