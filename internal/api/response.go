// Package api provides HTTP response utilities for SpecPipe.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal the response to JSON first to catch encoding errors before writing headers
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// statusForError maps the typed error taxonomy to HTTP status codes.
// Structural/validation errors are client errors; gateway problems surface
// as upstream failures so transport-level retry policies can distinguish them.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidAnswer),
		errors.Is(err, models.ErrInvalidSpecialist),
		errors.Is(err, models.ErrInvalidRequirements),
		errors.Is(err, models.ErrAnswerTooLong),
		errors.Is(err, models.ErrRequirementsTooLong),
		errors.Is(err, models.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrGatewayTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrGatewayUnavailable),
		errors.Is(err, models.ErrMalformedResponse),
		errors.Is(err, models.ErrCompositionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse maps a typed error to its HTTP status and writes it.
func writeErrorResponse(w http.ResponseWriter, err error) {
	writeJSONResponse(w, statusForError(err), models.Error(err.Error()))
}
