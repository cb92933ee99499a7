// Package models defines the core data structures for SpecPipe.
//
// It includes the conversation session model, the specialist enumeration,
// the error taxonomy, and API request/response types shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Specialist selects which domain-specific concerns the dialogue probes.
type Specialist string

const (
	// SpecialistAIML focuses on data pipelines and model lifecycle concerns.
	SpecialistAIML Specialist = "AI/ML Specialist"
	// SpecialistAndroid focuses on Android platform and Play Store compliance concerns.
	SpecialistAndroid Specialist = "Android Specialist"
	// SpecialistIOS focuses on iOS platform and App Store compliance concerns.
	SpecialistIOS Specialist = "iOS Specialist"
	// SpecialistFullStackWeb focuses on browser, API, and hosting concerns.
	SpecialistFullStackWeb Specialist = "Full Stack Web Specialist"
	// SpecialistGameDev focuses on engine, target platform, and monetization concerns.
	SpecialistGameDev Specialist = "Game Development Specialist"
	// SpecialistDataScience focuses on data sources and reproducibility concerns.
	SpecialistDataScience Specialist = "Data Science Specialist"
)

// AllSpecialists lists every supported specialist, in presentation order.
var AllSpecialists = []Specialist{
	SpecialistAIML,
	SpecialistAndroid,
	SpecialistIOS,
	SpecialistFullStackWeb,
	SpecialistGameDev,
	SpecialistDataScience,
}

// IsValidSpecialist checks if the given specialist is in the fixed set.
func IsValidSpecialist(s Specialist) bool {
	switch s {
	case SpecialistAIML, SpecialistAndroid, SpecialistIOS,
		SpecialistFullStackWeb, SpecialistGameDev, SpecialistDataScience:
		return true
	default:
		return false
	}
}

// SessionStatus represents the lifecycle state of a conversation session.
type SessionStatus string

const (
	// StatusActive indicates no question is outstanding; the session is ready to advance.
	StatusActive SessionStatus = "ACTIVE"
	// StatusAwaitingAnswer indicates a generated question is waiting for the client's answer.
	StatusAwaitingAnswer SessionStatus = "AWAITING_ANSWER"
	// StatusComplete indicates the transcript is finalized and the document composed. Terminal.
	StatusComplete SessionStatus = "COMPLETE"
	// StatusExpired indicates the session was removed by the idle-expiry sweep. Terminal.
	StatusExpired SessionStatus = "EXPIRED"
)

// Validation constants for input validation
const (
	// MaxInitialRequirementsLength caps the free-form project description.
	MaxInitialRequirementsLength = 16384
	// MaxAnswerLength caps a single answer submission.
	MaxAnswerLength = 8192
)

// Error variables for better error handling and testability
var (
	ErrNotFound            = errors.New("session not found")
	ErrInvalidState        = errors.New("operation not valid for current session status")
	ErrInvalidAnswer       = errors.New("answer is empty or malformed")
	ErrInvalidSpecialist   = errors.New("unrecognized specialist")
	ErrInvalidRequirements = errors.New("initial requirements cannot be empty")
	ErrAnswerTooLong       = errors.New("answer exceeds maximum length")
	ErrRequirementsTooLong = errors.New("initial requirements exceed maximum length")
	ErrGatewayTimeout      = errors.New("llm gateway call timed out")
	ErrGatewayUnavailable  = errors.New("llm gateway unavailable")
	ErrMalformedResponse   = errors.New("llm response did not match the expected grammar")
	ErrCompositionFailed   = errors.New("srs composition could not be parsed after retry")
	ErrExportFailed        = errors.New("pdf export failed")
	ErrUnsupportedLanguage = errors.New("unsupported language code")
)

// QAPair is one completed question/answer turn of the transcript.
// Insertion order is semantically meaningful: the history is replayed in
// order into every subsequent prompt.
type QAPair struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AskedAt    time.Time `json:"asked_at"`
	AnsweredAt time.Time `json:"answered_at"`
}

// ConversationSession is the unit of mutable state for one dialogue.
//
// ID, Specialist, and InitialRequirements are immutable after creation.
// History is append-only; it grows by exactly one pair per successful
// answer submission and is never reordered. Document is set exactly once,
// on the transition into StatusComplete.
type ConversationSession struct {
	ID                  string        `json:"id"`
	Specialist          Specialist    `json:"specialist"`
	InitialRequirements string        `json:"initial_requirements"`
	History             []QAPair      `json:"history"`
	Status              SessionStatus `json:"status"`
	PendingQuestion     string        `json:"pending_question,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	LastActivityAt      time.Time     `json:"last_activity_at"`
	Document            *SRSDocument  `json:"document,omitempty"`
}

// TurnCount returns the number of completed question/answer rounds.
func (s *ConversationSession) TurnCount() int {
	return len(s.History)
}

// Clone returns a deep copy safe to hand to readers while the original
// keeps being mutated under the store's per-session lock.
func (s *ConversationSession) Clone() *ConversationSession {
	dup := *s
	dup.History = make([]QAPair, len(s.History))
	copy(dup.History, s.History)
	if s.Document != nil {
		doc := *s.Document
		dup.Document = &doc
	}
	return &dup
}

// StartConversationRequest is the payload for starting a new dialogue.
type StartConversationRequest struct {
	Specialist          string `json:"specialist"`
	InitialRequirements string `json:"initial_requirements"`
}

// Validate performs structural validation on a StartConversationRequest.
func (r *StartConversationRequest) Validate() error {
	if !IsValidSpecialist(Specialist(r.Specialist)) {
		return ErrInvalidSpecialist
	}
	if strings.TrimSpace(r.InitialRequirements) == "" {
		return ErrInvalidRequirements
	}
	if len(r.InitialRequirements) > MaxInitialRequirementsLength {
		return ErrRequirementsTooLong
	}
	return nil
}

// SubmitAnswerRequest is the payload for answering the pending question.
type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

// Validate performs structural validation on a SubmitAnswerRequest.
func (r *SubmitAnswerRequest) Validate() error {
	if strings.TrimSpace(r.Answer) == "" {
		return ErrInvalidAnswer
	}
	if len(r.Answer) > MaxAnswerLength {
		return ErrAnswerTooLong
	}
	return nil
}

// SpeechRequest is the payload for text-to-speech synthesis.
type SpeechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
