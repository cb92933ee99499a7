// Package api exposes SpecPipe's conversation engine over a thin HTTP
// adapter. Handlers only decode, validate, delegate to the engine, and map
// typed errors to status codes; all orchestration semantics live in
// internal/flow.
package api

import (
	"log/slog"
	"net/http"

	"github.com/BTreeMap/SpecPipe/internal/flow"
	"github.com/BTreeMap/SpecPipe/internal/models"
	"github.com/BTreeMap/SpecPipe/internal/speech"
)

// Server wires the orchestration engine and the speech collaborators to
// HTTP endpoints.
type Server struct {
	engine      *flow.Engine
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
}

// NewServer creates an API server. The speech collaborators may be nil, in
// which case the corresponding endpoints report the feature as unavailable.
func NewServer(engine *flow.Engine, transcriber speech.Transcriber, synthesizer speech.Synthesizer) *Server {
	return &Server{
		engine:      engine,
		transcriber: transcriber,
		synthesizer: synthesizer,
	}
}

// Handler returns the route table for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("POST /conversations", s.startConversationHandler)
	mux.HandleFunc("GET /conversations/{id}", s.getStatusHandler)
	mux.HandleFunc("POST /conversations/{id}/answer", s.submitAnswerHandler)
	mux.HandleFunc("DELETE /conversations/{id}", s.deleteConversationHandler)
	mux.HandleFunc("GET /conversations/{id}/document", s.getDocumentHandler)
	mux.HandleFunc("GET /conversations/{id}/document/pdf", s.exportPDFHandler)
	mux.HandleFunc("POST /transcribe", s.transcribeHandler)
	mux.HandleFunc("POST /speech", s.speechHandler)
	return mux
}

// ListenAndServe starts the HTTP server on the given address and blocks.
func (s *Server) ListenAndServe(addr string) error {
	slog.Info("Server.ListenAndServe: starting API server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("SpecPipe API is running", nil))
}
