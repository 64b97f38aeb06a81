package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/message"
)

const maxBodyBytes = 1 << 20

// Dispatcher is the event router behind the HTTP surface.
type Dispatcher interface {
	Dispatch(ctx context.Context, req message.Request) (any, error)
	HandleEvent(ctx context.Context, ev message.Event) error
}

type MessageHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(dispatcher Dispatcher, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Message answers one extension request, e.g. {"action":"getSessionStatus"}.
func (h *MessageHandler) Message(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, message.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req, err := message.Decode(body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to handle message",
			zap.String("action", req.Action()),
			zap.Error(err),
		)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Event applies one platform event, e.g. {"type":"tabActivated",...}.
func (h *MessageHandler) Event(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read event body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, message.ErrorResponse{Error: "Invalid request body"})
		return
	}

	ev, err := message.DecodeEvent(body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.dispatcher.HandleEvent(r.Context(), ev); err != nil {
		h.logger.Error("Failed to handle event",
			zap.String("type", ev.EventType()),
			zap.Error(err),
		)
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, message.OK)
}

// Health reports liveness.
func (h *MessageHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

func (h *MessageHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, message.ErrUnknownAction):
		writeJSON(w, http.StatusBadRequest, message.UnknownActionResponse)
	case errors.Is(err, message.ErrUnknownEvent), errors.Is(err, message.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, message.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, message.ErrorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
