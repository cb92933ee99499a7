// Package api provides HTTP handlers for SpecPipe conversation endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

func (s *Server) startConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.startConversationHandler: processing start request", "method", r.Method, "path", r.URL.Path)

	var req models.StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.startConversationHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := req.Validate(); err != nil {
		slog.Warn("Server.startConversationHandler: validation failed", "error", err)
		writeErrorResponse(w, err)
		return
	}

	result, err := s.engine.Start(r.Context(), models.Specialist(req.Specialist), req.InitialRequirements)
	if err != nil {
		slog.Error("Server.startConversationHandler: failed to start conversation", "error", err)
		writeErrorResponse(w, err)
		return
	}

	slog.Info("Server.startConversationHandler: conversation started", "sessionID", result.SessionID)
	writeJSONResponse(w, http.StatusCreated, models.Success(result))
}

func (s *Server) submitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	sessionID := r.PathValue("id")
	slog.Debug("Server.submitAnswerHandler: processing answer", "sessionID", sessionID)

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.submitAnswerHandler: failed to decode JSON", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := req.Validate(); err != nil {
		slog.Warn("Server.submitAnswerHandler: validation failed", "error", err, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}

	result, err := s.engine.SubmitAnswer(r.Context(), sessionID, req.Answer)
	if err != nil {
		slog.Warn("Server.submitAnswerHandler: submit failed", "error", err, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}

	slog.Info("Server.submitAnswerHandler: answer processed", "sessionID", sessionID, "status", result.Status)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) getStatusHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.getStatusHandler: fetching status", "sessionID", sessionID)

	sess, err := s.engine.GetStatus(r.Context(), sessionID)
	if err != nil {
		slog.Warn("Server.getStatusHandler: lookup failed", "error", err, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"session_id":       sess.ID,
		"specialist":       sess.Specialist,
		"status":           sess.Status,
		"pending_question": sess.PendingQuestion,
		"turns":            sess.TurnCount(),
		"created_at":       sess.CreatedAt,
		"last_activity_at": sess.LastActivityAt,
	}))
}

func (s *Server) deleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.deleteConversationHandler: deleting session", "sessionID", sessionID)

	// Deletion is idempotent: an absent id is a success, never an error.
	s.engine.Delete(r.Context(), sessionID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Conversation deleted", nil))
}

func (s *Server) getDocumentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.getDocumentHandler: fetching document", "sessionID", sessionID)

	sess, err := s.engine.GetStatus(r.Context(), sessionID)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	if sess.Status != models.StatusComplete || sess.Document == nil {
		slog.Warn("Server.getDocumentHandler: document not composed", "sessionID", sessionID, "status", sess.Status)
		writeErrorResponse(w, models.ErrInvalidState)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(sess.Document))
}

func (s *Server) exportPDFHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	slog.Debug("Server.exportPDFHandler: rendering PDF", "sessionID", sessionID)

	pdfBytes, err := s.engine.ExportPDF(r.Context(), sessionID)
	if err != nil {
		slog.Error("Server.exportPDFHandler: export failed", "error", err, "sessionID", sessionID)
		writeErrorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="srs.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfBytes); err != nil {
		slog.Error("Server.exportPDFHandler: failed to write PDF response", "error", err, "sessionID", sessionID)
	}
}
