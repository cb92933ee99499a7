// Package api provides speech endpoint handlers for SpecPipe.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

// maxAudioUploadBytes caps transcription uploads (25 MB, the upstream
// transcription model's file limit).
const maxAudioUploadBytes = 25 << 20

func (s *Server) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.transcribeHandler: processing transcription request")

	if s.transcriber == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Transcription is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		slog.Warn("Server.transcribeHandler: failed to parse multipart form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid multipart form"))
		return
	}

	language := r.FormValue("language")
	if language == "" {
		language = "en-US"
	}

	file, _, err := r.FormFile("audio_file")
	if err != nil {
		slog.Warn("Server.transcribeHandler: missing audio file", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing audio_file upload"))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Server.transcribeHandler: failed to read audio upload", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read audio upload"))
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio, language)
	if err != nil {
		slog.Error("Server.transcribeHandler: transcription failed", "error", err, "language", language)
		writeErrorResponse(w, err)
		return
	}

	slog.Info("Server.transcribeHandler: transcription complete", "language", language, "textLen", len(text))
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"transcription": text}))
}

func (s *Server) speechHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.speechHandler: processing synthesis request")

	if s.synthesizer == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Speech synthesis is not configured"))
		return
	}

	var req models.SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.speechHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Text is required"))
		return
	}
	if req.Language == "" {
		req.Language = "en-US"
	}

	audio, err := s.synthesizer.Synthesize(r.Context(), req.Text, req.Language)
	if err != nil {
		slog.Error("Server.speechHandler: synthesis failed", "error", err, "language", req.Language)
		writeErrorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Error("Server.speechHandler: failed to write audio response", "error", err)
	}
}
