package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/genai"
	"github.com/BTreeMap/SpecPipe/internal/models"
	"github.com/BTreeMap/SpecPipe/internal/store"
)

// DefaultMaxTurns is the hard ceiling on question/answer rounds. It forces
// composition even when the model never emits the completion marker, so a
// non-convergent model cannot produce an unbounded dialogue.
const DefaultMaxTurns = 8

// Renderer is the export collaborator contract: it turns a composed document
// into PDF bytes. Its failures are never core-logic failures.
type Renderer interface {
	Render(doc *models.SRSDocument) ([]byte, error)
}

// StepResult is the outcome of a successful Start or SubmitAnswer: either
// the next question to answer, or the final composed document.
type StepResult struct {
	SessionID string               `json:"session_id"`
	Status    models.SessionStatus `json:"status"`
	Question  string               `json:"question,omitempty"`
	Document  *models.SRSDocument  `json:"document,omitempty"`
}

// Engine drives the Q&A loop. Sessions are mutated only through Start and
// SubmitAnswer, always under the store's per-session lock, so operations on
// one session are serialized while independent sessions proceed concurrently.
type Engine struct {
	store    store.Store
	gateway  genai.ClientInterface
	renderer Renderer
	maxTurns int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxTurns overrides the turn ceiling.
func WithMaxTurns(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// WithRenderer injects the PDF export collaborator.
func WithRenderer(r Renderer) EngineOption {
	return func(e *Engine) {
		e.renderer = r
	}
}

// NewEngine creates an orchestration engine over the given store and gateway.
func NewEngine(st store.Store, gateway genai.ClientInterface, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    st,
		gateway:  gateway,
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(e)
	}
	slog.Debug("flow.NewEngine: engine created", "maxTurns", e.maxTurns, "hasRenderer", e.renderer != nil)
	return e
}

// Start creates a session and produces its first question. If the first
// question cannot be generated the empty session is discarded rather than
// left stranded in ACTIVE with no way to re-advance it.
func (e *Engine) Start(ctx context.Context, specialist models.Specialist, initialRequirements string) (*StepResult, error) {
	trimmed := strings.TrimSpace(initialRequirements)
	if trimmed == "" {
		return nil, models.ErrInvalidRequirements
	}
	if len(trimmed) > models.MaxInitialRequirementsLength {
		return nil, models.ErrRequirementsTooLong
	}

	created, err := e.store.Create(specialist, trimmed)
	if err != nil {
		return nil, err
	}

	sess, release, err := e.store.Acquire(created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire freshly created session: %w", err)
	}
	defer release()

	result, err := e.advance(ctx, sess)
	if err != nil {
		slog.Warn("flow.Start: first question generation failed, discarding session", "sessionID", created.ID, "error", err)
		e.store.Delete(created.ID)
		return nil, err
	}

	slog.Info("flow.Start: conversation started", "sessionID", created.ID, "specialist", specialist)
	return result, nil
}

// SubmitAnswer records the answer to the pending question and advances the
// loop. Valid only while the session is AWAITING_ANSWER. If the subsequent
// advance fails, the submission is rolled back in full: status, pending
// question, and history are restored to their pre-call values so the caller
// can retry the same submission against an unchanged transcript.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, answer string) (*StepResult, error) {
	req := models.SubmitAnswerRequest{Answer: answer}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, release, err := e.store.Acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if sess.Status != models.StatusAwaitingAnswer {
		slog.Warn("flow.SubmitAnswer: invalid state", "sessionID", sessionID, "status", sess.Status)
		return nil, fmt.Errorf("cannot submit answer while %s: %w", sess.Status, models.ErrInvalidState)
	}

	prevStatus := sess.Status
	prevPending := sess.PendingQuestion
	prevActivity := sess.LastActivityAt
	prevLen := len(sess.History)

	now := time.Now()
	sess.History = append(sess.History, models.QAPair{
		Question:   sess.PendingQuestion,
		Answer:     strings.TrimSpace(answer),
		AskedAt:    prevActivity,
		AnsweredAt: now,
	})
	sess.PendingQuestion = ""
	sess.Status = models.StatusActive
	sess.LastActivityAt = now

	result, err := e.advance(ctx, sess)
	if err != nil {
		sess.History = sess.History[:prevLen]
		sess.Status = prevStatus
		sess.PendingQuestion = prevPending
		sess.LastActivityAt = prevActivity
		slog.Warn("flow.SubmitAnswer: advance failed, submission rolled back", "sessionID", sessionID, "error", err)
		return nil, err
	}

	slog.Info("flow.SubmitAnswer: turn recorded", "sessionID", sessionID, "turns", len(sess.History), "status", sess.Status)
	return result, nil
}

// GetStatus returns a read-only snapshot of the session.
func (e *Engine) GetStatus(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	return e.store.Get(sessionID)
}

// Delete removes the session. Idempotent: deleting an absent id succeeds.
func (e *Engine) Delete(ctx context.Context, sessionID string) {
	e.store.Delete(sessionID)
}

// ExportPDF renders the session's composed document to PDF bytes. Valid only
// once the session is COMPLETE.
func (e *Engine) ExportPDF(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusComplete || sess.Document == nil {
		return nil, fmt.Errorf("document not composed yet: %w", models.ErrInvalidState)
	}
	if e.renderer == nil {
		return nil, fmt.Errorf("%w: no renderer configured", models.ErrExportFailed)
	}
	return e.renderer.Render(sess.Document)
}

// advance drives the loop from ACTIVE: it either produces the next question
// (moving to AWAITING_ANSWER) or composes the final document (moving to
// COMPLETE). The caller holds the session lock. No session field is mutated
// until a gateway response has been successfully parsed, which is what makes
// a failed advance safely retryable.
func (e *Engine) advance(ctx context.Context, sess *models.ConversationSession) (*StepResult, error) {
	if sess.Status != models.StatusActive {
		return nil, fmt.Errorf("advance requires ACTIVE, session is %s: %w", sess.Status, models.ErrInvalidState)
	}

	if sess.TurnCount() >= e.maxTurns {
		slog.Info("flow.advance: turn ceiling reached, forcing composition", "sessionID", sess.ID, "turns", sess.TurnCount(), "maxTurns", e.maxTurns)
		return e.compose(ctx, sess)
	}

	systemPrompt, userPrompt := BuildQuestionPrompt(sess.Specialist, sess.InitialRequirements, sess.History)
	raw, err := e.gateway.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	reply := ParseReply(raw)
	switch reply.Kind {
	case ReplyCompletion:
		slog.Info("flow.advance: completion signal received", "sessionID", sess.ID, "turns", sess.TurnCount())
		return e.compose(ctx, sess)
	case ReplyQuestion:
		sess.PendingQuestion = reply.Question
		sess.Status = models.StatusAwaitingAnswer
		sess.LastActivityAt = time.Now()
		slog.Debug("flow.advance: next question generated", "sessionID", sess.ID, "questionLen", len(reply.Question))
		return &StepResult{
			SessionID: sess.ID,
			Status:    sess.Status,
			Question:  reply.Question,
		}, nil
	default:
		slog.Warn("flow.advance: unparseable gateway response", "sessionID", sess.ID, "responseLen", len(raw))
		return nil, fmt.Errorf("question generation: %w", models.ErrMalformedResponse)
	}
}

// compose runs the one-shot SRS synthesis at the transition into COMPLETE.
// On a parse failure it retries once with a stricter formatting instruction;
// on repeated failure the session is left untouched in ACTIVE so the client
// can retry rather than receive a corrupt document.
func (e *Engine) compose(ctx context.Context, sess *models.ConversationSession) (*StepResult, error) {
	systemPrompt, userPrompt := BuildSynthesisPrompt(sess.Specialist, sess.InitialRequirements, sess.History, false)
	raw, err := e.gateway.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	doc, parseErr := ParseDocument(raw, time.Now())
	if parseErr != nil {
		slog.Warn("flow.compose: first synthesis unparseable, retrying with strict formatting", "sessionID", sess.ID, "error", parseErr)
		systemPrompt, userPrompt = BuildSynthesisPrompt(sess.Specialist, sess.InitialRequirements, sess.History, true)
		raw, err = e.gateway.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			return nil, err
		}
		doc, parseErr = ParseDocument(raw, time.Now())
		if parseErr != nil {
			slog.Error("flow.compose: synthesis unparseable after strict retry", "sessionID", sess.ID, "error", parseErr)
			return nil, fmt.Errorf("%w: %v", models.ErrCompositionFailed, parseErr)
		}
	}

	sess.Document = doc
	sess.Status = models.StatusComplete
	sess.PendingQuestion = ""
	sess.LastActivityAt = time.Now()

	slog.Info("flow.compose: document composed", "sessionID", sess.ID, "turns", sess.TurnCount(), "documentLen", len(doc.PlainText))
	return &StepResult{
		SessionID: sess.ID,
		Status:    sess.Status,
		Document:  doc,
	}, nil
}
