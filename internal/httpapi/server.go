// Package httpapi exposes the chat pipeline over HTTP: the chat endpoint,
// session lifecycle, the websocket map-command feed and the operational
// endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/808vita/sdg-6-water-agents/internal/config"
	"github.com/808vita/sdg-6-water-agents/internal/observability"
	"github.com/808vita/sdg-6-water-agents/internal/protocol"
	"github.com/808vita/sdg-6-water-agents/internal/session"
)

const maxChatBodyBytes = 1 << 20

// TurnHandler runs one conversational turn. The orchestrator implements it;
// tests substitute fakes.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID string, req protocol.ChatRequest) (protocol.ChatReply, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	turns    TurnHandler
	metrics  *observability.Metrics
	hub      *Hub
}

func New(cfg config.Config, sessions *session.Manager, turns TurnHandler, metrics *observability.Metrics, hub *Hub) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		turns:    turns,
		metrics:  metrics,
		hub:      hub,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:  []string{"Accept", "Content-Type", "X-Session-Id"},
		ExposedHeaders:  []string{"X-Session-Id"},
		AllowOriginFunc: s.allowOrigin,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Post("/v1/session", s.handleCreateSession)
	r.Post("/v1/session/{id}/end", s.handleEndSession)
	r.Get("/v1/map/ws", s.handleMapWS)

	return r
}

func (s *Server) allowOrigin(r *http.Request, origin string) bool {
	if s.cfg.AllowAnyOrigin {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

// handleChat is the request boundary of the pipeline. Invalid payloads are
// rejected before any model call; pipeline failures come back as a plain
// error object so the map client never sees a half-formed reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return
	}

	req, err := protocol.ParseChatRequest(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = strings.TrimSpace(r.Header.Get("X-Session-Id"))
	}
	if sessionID == "" {
		sess := s.sessions.Create()
		sessionID = sess.ID
		s.setActiveSessionsGauge()
	} else if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", "unknown or ended session")
		return
	}

	// Echo the session before running the turn: the user turn is persisted
	// under it even when the pipeline fails.
	w.Header().Set("X-Session-Id", sessionID)

	reply, err := s.turns.HandleTurn(r.Context(), sessionID, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}

	_ = s.sessions.RecordTurn(sessionID)
	respondJSON(w, http.StatusOK, map[string]any{"data": reply})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.setActiveSessionsGauge()
	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id":        sess.ID,
		"status":            sess.Status,
		"started_at":        sess.StartedAt,
		"inactivity_ttl_ms": s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	_ = s.turns.ClearSession(r.Context(), id)
	s.setActiveSessionsGauge()
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) setActiveSessionsGauge() {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
