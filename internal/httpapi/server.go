// Package httpapi exposes the call engine over HTTP and WebSocket.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/config"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/ivr"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
	"github.com/saranya-muthuraj/ivrsim/internal/observability"
)

type Server struct {
	cfg      config.Config
	engine   *ivr.Engine
	store    call.Store
	dir      directory.Directory
	upgrader websocket.Upgrader
}

func New(cfg config.Config, engine *ivr.Engine, store call.Store, dir directory.Directory) *Server {
	return &Server{
		cfg:    cfg,
		engine: engine,
		store:  store,
		dir:    dir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may drive a call channel
				// unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
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
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/ivr/start", s.handleStart)
	r.Post("/ivr/dtmf", s.handleDTMF)
	r.Post("/ivr/voice", s.handleVoice)
	r.Post("/ivr/end", s.handleEnd)
	r.Get("/ivr/ws", s.handleCallWS)

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	active, _ := s.store.ActiveCount(ctx)
	completed, _ := s.store.EndedCount(ctx)
	reservations, _ := s.dir.ReservationCount(ctx)
	accounts, _ := s.dir.LoyaltyAccountCount(ctx)
	history, _ := s.dir.CallRecordCount(ctx)
	respondJSON(w, http.StatusOK, map[string]any{
		"service":          "airline-ivr-simulator",
		"store_mode":       s.storeMode(),
		"active_calls":     active,
		"completed_calls":  completed,
		"reservations":     reservations,
		"loyalty_accounts": accounts,
		"call_history":     history,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.storeMode(),
	})
}

type startRequest struct {
	CallerNumber string `json:"caller_number"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.CallerNumber) == "" {
		req.CallerNumber = "anonymous"
	}
	resp, err := s.engine.StartCall(r.Context(), req.CallerNumber)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

type dtmfRequest struct {
	CallID      string `json:"call_id"`
	Digit       string `json:"digit"`
	CurrentMenu string `json:"current_menu"`
}

func (s *Server) handleDTMF(w http.ResponseWriter, r *http.Request) {
	var req dtmfRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.CallID == "" || req.Digit == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "call_id and digit are required")
		return
	}
	resp, err := s.engine.Keypress(r.Context(), req.CallID, req.Digit, menu.ID(req.CurrentMenu))
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

type voiceRequest struct {
	CallID      string `json:"call_id"`
	Text        string `json:"text"`
	CurrentMenu string `json:"current_menu"`
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.CallID == "" || strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "call_id and text are required")
		return
	}
	resp, err := s.engine.Voice(r.Context(), req.CallID, req.Text, menu.ID(req.CurrentMenu))
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

type endRequest struct {
	CallID string `json:"call_id"`
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.CallID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "call_id is required")
		return
	}
	resp, err := s.engine.Hangup(r.Context(), req.CallID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, call.ErrNotFound):
		respondError(w, http.StatusNotFound, "call_not_found", err.Error())
	case errors.Is(err, call.ErrEnded):
		respondError(w, http.StatusConflict, "call_already_ended", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) storeMode() string {
	dbURL := s.cfg.DatabaseURL
	switch {
	case dbURL == "":
		return "in-memory"
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return "postgres"
	default:
		return "sqlite"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
