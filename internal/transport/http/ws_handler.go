package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/andreluis2005/cognira/internal/app"
	"github.com/andreluis2005/cognira/internal/domain"
	"github.com/andreluis2005/cognira/internal/engine"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// WSHandler streams a practice session over a websocket. The server holds the
// session for the lifetime of the connection only.
type WSHandler struct {
	service  *app.PracticeService
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// a peer silent for pongWait is dropped; pings go out every pingInterval
	pingInterval time.Duration
	pongWait     time.Duration
}

func NewWSHandler(service *app.PracticeService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service:      service,
		logger:       logger,
		pingInterval: pingInterval,
		pongWait:     pongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Progress *domain.UserProgress `json:"progress"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type questionPayload struct {
	SessionID      string                `json:"sessionId"`
	Question       domain.ClientQuestion `json:"question"`
	Index          int                   `json:"index"`
	TotalQuestions int                   `json:"totalQuestions"`
}

type feedbackPayload struct {
	QuestionID      string              `json:"questionId"`
	IsCorrect       bool                `json:"isCorrect"`
	Explanation     string              `json:"explanation"`
	CorrectOptionID string              `json:"correctOptionId"`
	UpdatedProgress domain.UserProgress `json:"updatedProgress"`
	SessionSummary  app.SessionSummary  `json:"sessionSummary"`
}

type completePayload struct {
	SessionID      string               `json:"sessionId"`
	Progress       domain.UserProgress  `json:"progress"`
	ReadinessScore int                  `json:"readinessScore"`
	Band           engine.ReadinessBand `json:"band"`
	Answered       int                  `json:"answered"`
	Correct        int                  `json:"correct"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the practice use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	targetID := r.URL.Query().Get("targetId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	extend := func() error { return conn.SetReadDeadline(time.Now().Add(h.pongWait)) }
	_ = extend()
	conn.SetPongHandler(func(string) error { return extend() })

	session := h.service.NewPracticeSession(mode, targetID)
	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		// unblocks the reader when the peer is gone
		defer conn.Close()
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Warn("ws write error", "error", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		emit("error", errorPayload{Message: err.Error()})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		_ = extend()
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := validateRequest(inbound.Payload); err != nil {
					fail(err)
					continue
				}
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					emit("error", errorPayload{Message: "invalid start payload"})
					continue
				}
			}
			var progress domain.UserProgress
			if payload.Progress != nil {
				progress = *payload.Progress
			} else if progress, err = h.service.DefaultProgress(r.Context(), ""); err != nil {
				fail(err)
				continue
			}
			out, err := session.Start(r.Context(), progress)
			if err != nil {
				fail(err)
				continue
			}
			emit("question", questionPayload{
				SessionID:      out.SessionID,
				Question:       out.FirstQuestion,
				Index:          0,
				TotalQuestions: out.TotalQuestions,
			})
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			out, err := session.Answer(r.Context(), payload.QuestionID, payload.OptionID)
			if err != nil {
				fail(err)
				continue
			}
			emit("feedback", feedbackPayload{
				QuestionID:      payload.QuestionID,
				IsCorrect:       out.IsCorrect,
				Explanation:     out.Explanation,
				CorrectOptionID: out.CorrectOptionID,
				UpdatedProgress: out.UpdatedProgress,
				SessionSummary:  out.SessionSummary,
			})
			if out.NextQuestion != nil {
				emit("question", questionPayload{
					SessionID:      session.ID(),
					Question:       *out.NextQuestion,
					Index:          out.SessionSummary.TotalSolved,
					TotalQuestions: out.TotalQuestions,
				})
				continue
			}
			emit("complete", summarize(session))
		default:
			emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(send)
	<-writerDone
}

func summarize(session *app.PracticeSession) completePayload {
	progress := session.Progress()
	history := session.History()
	correct := 0
	for _, h := range history {
		if h.IsCorrect {
			correct++
		}
	}
	return completePayload{
		SessionID:      session.ID(),
		Progress:       progress,
		ReadinessScore: progress.ReadinessScore,
		Band:           engine.BandFor(progress.ReadinessScore),
		Answered:       len(history),
		Correct:        correct,
	}
}
