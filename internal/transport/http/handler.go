package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/andreluis2005/cognira/internal/app"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
)

const maxBodyBytes = 1 << 20

// Handler exposes the practice use cases as JSON routes. It is a thin
// pass-through: the client owns progress and session history.
type Handler struct {
	service *app.PracticeService
	logger  *slog.Logger
}

func NewHandler(service *app.PracticeService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the JSON API, the websocket stream and the health check.
func RegisterRoutes(mux *http.ServeMux, h *Handler, ws *WSHandler) {
	mux.HandleFunc("POST /api/session", h.startSession)
	mux.HandleFunc("POST /api/answer", h.answer)
	mux.HandleFunc("POST /api/progress/validate", h.validateProgress)
	mux.HandleFunc("GET /api/topics", h.topics)
	mux.HandleFunc("GET /api/progress/default", h.defaultProgress)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if ws != nil {
		mux.HandleFunc("GET /ws", ws.ServeWS)
	}
}

// POST /api/session
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	var in app.StartInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.Start(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/answer
func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	var in app.AnswerInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.Answer(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

type validateRequestBody struct {
	Progress domain.UserProgress `json:"progress"`
}

type validateResponse struct {
	Valid      bool               `json:"valid"`
	Errors     []string           `json:"errors"`
	Violations []engine.Violation `json:"violations"`
}

// POST /api/progress/validate
func (h *Handler) validateProgress(w http.ResponseWriter, r *http.Request) {
	var in validateRequestBody
	if !h.decode(w, r, &in) {
		return
	}
	verdict := h.service.Validate(in.Progress)
	respondJSON(w, http.StatusOK, validateResponse{
		Valid:      verdict.Valid,
		Errors:     verdict.Strings(),
		Violations: verdict.Errors,
	})
}

// GET /api/topics
func (h *Handler) topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.Topics(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

// GET /api/progress/default
func (h *Handler) defaultProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.DefaultProgress(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// decode validates the body against the request schema and unmarshals it into dst.
// It writes a 400 and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable request body"})
		return false
	}
	if err := validateRequest(raw); err != nil {
		h.logger.Debug("rejected request body", "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request: %v", err)})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps use-case errors to status codes. Anything unexpected is logged.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionIDRequired),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrTopicNotFound):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrQuestionNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
