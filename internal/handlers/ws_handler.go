package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"interview/internal/hub"
	"interview/internal/models"
	"interview/internal/session_management"
	"interview/internal/store"
	"interview/internal/utils"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type WSHandler struct {
	manager *session_management.InterviewManager
	hub     *hub.Hub
	logger  *zap.Logger
}

func NewWSHandler(manager *session_management.InterviewManager, h *hub.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{manager: manager, hub: h, logger: logger}
}

// ServeWS subscribes a candidate or observer to a session's live events.
// The first frame is a snapshot so a reconnecting client catches up before
// the stream resumes.
func (handler *WSHandler) ServeWS(writer http.ResponseWriter, request *http.Request) {
	sessionID := request.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "sessionId query parameter is required")
		return
	}

	snapshot, err := handler.manager.GetSnapshot(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			utils.WriteError(writer, http.StatusNotFound, "not_found", "Session not found")
			return
		}
		handler.logger.Error("snapshot load failed", zap.String("sessionId", sessionID), zap.Error(err))
		utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Failed to load session")
		return
	}

	conn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		return
	}

	// Catch-up frame goes out before the pumps own the connection.
	if err := conn.WriteJSON(models.SessionEvent{
		Type:      models.EventSnapshot,
		SessionID: sessionID,
		Payload:   snapshot,
	}); err != nil {
		conn.Close()
		return
	}

	handler.hub.Subscribe(sessionID, conn)
	handler.logger.Info("websocket subscribed", zap.String("sessionId", sessionID))
}
