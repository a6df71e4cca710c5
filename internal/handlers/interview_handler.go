package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"interview/internal/models"
	"interview/internal/session_management"
	"interview/internal/store"
	"interview/internal/utils"
)

type InterviewHandler struct {
	manager   *session_management.InterviewManager
	jwtSecret []byte
	logger    *zap.Logger
}

func NewInterviewHandler(manager *session_management.InterviewManager, jwtSecret []byte, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{manager: manager, jwtSecret: jwtSecret, logger: logger}
}

// CheckHandler tells a returning client whether a session is in flight and,
// if so, where it stands.
func (handler *InterviewHandler) CheckHandler(writer http.ResponseWriter, request *http.Request) {
	candidateID := request.URL.Query().Get("candidateId")
	if candidateID == "" {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "candidateId query parameter is required")
		return
	}

	resp, err := handler.manager.CheckSession(candidateID)
	if err != nil {
		handler.logger.Error("session check failed", zap.String("candidateId", candidateID), zap.Error(err))
		utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Failed to check session")
		return
	}

	utils.WriteJSON(writer, http.StatusOK, resp)
}

type startRequest struct {
	CandidateID string `json:"candidateId"`
}

func (handler *InterviewHandler) StartHandler(writer http.ResponseWriter, request *http.Request) {
	var req startRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil || req.CandidateID == "" {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "candidateId is required")
		return
	}

	result, err := handler.manager.StartSession(request.Context(), req.CandidateID)
	if err != nil {
		handler.writeManagerError(writer, err, "start")
		return
	}

	token, err := utils.GenerateSessionToken(result.SessionID, req.CandidateID, handler.jwtSecret)
	if err != nil {
		handler.logger.Error("session token generation failed", zap.Error(err))
	} else {
		result.SessionToken = token
	}

	utils.WriteJSON(writer, http.StatusOK, result)
}

type answerRequest struct {
	SessionID      string `json:"sessionId"`
	QuestionNumber int    `json:"questionNumber"` // 1-based; 0 targets the active question
	Answer         string `json:"answer"`
	TimeTaken      int    `json:"timeTaken"` // seconds, advisory
}

func (handler *InterviewHandler) AnswerHandler(writer http.ResponseWriter, request *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	sessionID := req.SessionID
	if claims, err := utils.VerifyToken(request, handler.jwtSecret); err == nil {
		if id, err := utils.SessionIDFromClaims(claims); err == nil {
			// A valid bearer token is authoritative over the body.
			sessionID = id
		}
	}
	if sessionID == "" {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "sessionId or a session token is required")
		return
	}

	result, err := handler.manager.SubmitAnswer(request.Context(), sessionID, req.QuestionNumber-1, req.Answer, req.TimeTaken, models.ReasonManual)
	if err != nil {
		handler.writeManagerError(writer, err, "answer")
		return
	}

	utils.WriteJSON(writer, http.StatusOK, result)
}

func (handler *InterviewHandler) writeManagerError(writer http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrCandidateNotFound), errors.Is(err, store.ErrSessionNotFound):
		utils.WriteError(writer, http.StatusNotFound, "not_found", "Session not found")
	case errors.Is(err, session_management.ErrInfoNotConfirmed):
		utils.WriteError(writer, http.StatusConflict, "info_not_confirmed", "Candidate info must be confirmed before starting")
	case errors.Is(err, session_management.ErrInvalidState):
		utils.WriteError(writer, http.StatusConflict, "invalid_state", "Operation not valid for the current session state")
	case errors.Is(err, session_management.ErrEmptyAnswer):
		utils.WriteError(writer, http.StatusBadRequest, "empty_answer", "Answer text is required")
	case errors.Is(err, session_management.ErrOracleUnavailable):
		utils.WriteError(writer, http.StatusBadGateway, "oracle_unavailable", "Question service unavailable, please retry")
	default:
		handler.logger.Error("interview operation failed", zap.String("op", op), zap.Error(err))
		utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Unexpected failure")
	}
}
