package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"interview/internal/models"
	"interview/internal/resume"
	"interview/internal/session_management"
	"interview/internal/store"
	"interview/internal/utils"
)

const maxResumeSize = 5 << 20 // 5MB

type CandidateHandler struct {
	manager *session_management.InterviewManager
	logger  *zap.Logger
}

func NewCandidateHandler(manager *session_management.InterviewManager, logger *zap.Logger) *CandidateHandler {
	return &CandidateHandler{manager: manager, logger: logger}
}

// UploadHandler accepts a multipart resume, extracts candidate fields and
// registers the candidate with their not-yet-started session.
func (handler *CandidateHandler) UploadHandler(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxResumeSize)
	if err := request.ParseMultipartForm(maxResumeSize); err != nil {
		utils.WriteError(writer, http.StatusBadRequest, "file_too_large", "Resume must be a multipart upload under 5MB")
		return
	}

	file, header, err := request.FormFile("resume")
	if err != nil {
		utils.WriteError(writer, http.StatusBadRequest, "missing_file", "Form field 'resume' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "Could not read uploaded file")
		return
	}

	parsed, err := resume.Extract(header.Filename, data)
	if err != nil {
		if errors.Is(err, resume.ErrUnsupportedFormat) {
			utils.WriteError(writer, http.StatusBadRequest, "unsupported_format", "Only PDF and DOCX resumes are supported")
			return
		}
		handler.logger.Warn("resume extraction failed",
			zap.String("filename", header.Filename), zap.Error(err))
		utils.WriteError(writer, http.StatusUnprocessableEntity, "parse_failure", "Could not extract text from the resume")
		return
	}

	candidate, err := handler.manager.RegisterCandidate(parsed.Name, parsed.Email, parsed.Phone, parsed.Text)
	if err != nil {
		handler.logger.Error("candidate registration failed", zap.Error(err))
		utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Failed to register candidate")
		return
	}

	utils.WriteJSON(writer, http.StatusCreated, models.UploadResp{
		CandidateID: candidate.ID,
		Name:        candidate.Name,
		Email:       candidate.Email,
		Phone:       candidate.Phone,
	})
}

type infoRequest struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// InfoHandler confirms or corrects the fields parsed from the resume.
func (handler *CandidateHandler) InfoHandler(writer http.ResponseWriter, request *http.Request) {
	var req infoRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil || req.CandidateID == "" {
		utils.WriteError(writer, http.StatusBadRequest, "bad_request", "candidateId is required")
		return
	}

	candidate, err := handler.manager.ConfirmInfo(req.CandidateID, req.Name, req.Email, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCandidateNotFound), errors.Is(err, store.ErrSessionNotFound):
			utils.WriteError(writer, http.StatusNotFound, "not_found", "Candidate not found")
		case errors.Is(err, session_management.ErrInvalidState):
			utils.WriteError(writer, http.StatusConflict, "invalid_state", "Interview already started")
		default:
			handler.logger.Error("info confirmation failed", zap.Error(err))
			utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Failed to update candidate")
		}
		return
	}

	utils.WriteJSON(writer, http.StatusOK, candidate)
}

// CandidatesHandler lists every candidate for the interviewer dashboard,
// best total score first.
func (handler *CandidateHandler) CandidatesHandler(writer http.ResponseWriter, request *http.Request) {
	candidates, err := handler.manager.ListCandidates()
	if err != nil {
		handler.logger.Error("candidate listing failed", zap.Error(err))
		utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Failed to list candidates")
		return
	}

	utils.WriteJSON(writer, http.StatusOK, map[string]interface{}{
		"total": len(candidates),
		"items": candidates,
	})
}

// CandidateDetailHandler returns one candidate with their full session,
// slot-by-slot.
func (handler *CandidateHandler) CandidateDetailHandler(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "id")

	candidate, session, err := handler.manager.CandidateDetail(id)
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			utils.WriteError(writer, http.StatusNotFound, "not_found", "Candidate not found")
			return
		}
		handler.logger.Error("candidate detail failed", zap.String("id", id), zap.Error(err))
		utils.WriteError(writer, http.StatusInternalServerError, "internal_error", "Failed to load candidate")
		return
	}

	utils.WriteJSON(writer, http.StatusOK, map[string]interface{}{
		"candidate": candidate,
		"session":   session,
	})
}
