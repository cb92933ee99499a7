// Package flow implements the conversation orchestration engine: the Q&A
// loop state machine, the prompt builder, the reply parser, and the SRS
// composer. All mutable session state lives in the store; this package only
// drives it.
package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

// CompletionMarker is the structured token the model is instructed to emit
// when it has gathered enough information. Termination is decided by exact
// token match, never by pattern-matching prose; the turn ceiling backs it up.
const CompletionMarker = "REQUIREMENTS_GATHERING_COMPLETE"

// Transcript condensation thresholds. Prompts replay the full transcript
// verbatim until it grows past these bounds; older turns are then folded
// into a condensed context block. Turns are compressed, never dropped.
const (
	// MaxVerbatimTurns is the number of most recent turns always replayed in full.
	MaxVerbatimTurns = 24
	// MaxTranscriptBytes bounds the rendered transcript before condensation kicks in.
	MaxTranscriptBytes = 12288
	// condensedAnswerLimit caps each condensed answer excerpt.
	condensedAnswerLimit = 280
)

// specialistFocusAreas maps each specialist to the concern areas its
// questions must probe.
var specialistFocusAreas = map[models.Specialist][]string{
	models.SpecialistAIML: {
		"training data sources, volume, and quality",
		"data pipeline and feature engineering needs",
		"model lifecycle: training cadence, evaluation metrics, and rollback",
		"inference latency, throughput, and serving constraints",
		"fairness, privacy, and regulatory constraints on data use",
	},
	models.SpecialistAndroid: {
		"minimum SDK level and target device classes",
		"Google Play Store compliance and release process",
		"offline behavior and local storage",
		"push notifications and background work limits",
		"permissions, privacy disclosures, and battery impact",
	},
	models.SpecialistIOS: {
		"minimum iOS version and supported devices",
		"App Store review guidelines and release process",
		"offline behavior and on-device storage",
		"push notifications and background execution limits",
		"privacy manifests, entitlements, and data collection disclosures",
	},
	models.SpecialistFullStackWeb: {
		"target browsers and responsive/mobile support",
		"public API surface and third-party integrations",
		"authentication and user account model",
		"hosting, deployment, and scaling expectations",
		"accessibility and internationalization needs",
	},
	models.SpecialistGameDev: {
		"game engine and target platforms",
		"core gameplay loop and progression",
		"multiplayer, leaderboards, or other online features",
		"art style, audio, and asset pipeline",
		"monetization model and store requirements",
	},
	models.SpecialistDataScience: {
		"data sources, formats, and refresh cadence",
		"analysis outputs: dashboards, reports, or models",
		"statistical methods and accuracy expectations",
		"reproducibility and versioning of analyses",
		"who consumes the results and how",
	},
}

// BuildQuestionPrompt assembles the prompt pair for generating the next
// question. It is a pure function of the session's immutable inputs and its
// ordered history; the same inputs always produce the same prompt text.
func BuildQuestionPrompt(specialist models.Specialist, initialRequirements string, history []models.QAPair) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	fmt.Fprintf(&sys, "You are an expert %s acting as a project manager gathering requirements for a formal Software Requirements Specification (SRS).\n\n", specialist)
	sys.WriteString("Pay particular attention to these concern areas:\n")
	for _, area := range specialistFocusAreas[specialist] {
		sys.WriteString("- " + area + "\n")
	}
	sys.WriteString("\nRULES:\n")
	sys.WriteString("- Ask exactly ONE clear, concise, open-ended follow-up question per reply.\n")
	sys.WriteString("- Cover functional requirements, target users, constraints, and potential features across the dialogue.\n")
	sys.WriteString("- Do not repeat a question that was already answered.\n")
	sys.WriteString("- Return ONLY the question text. No numbering, salutations, or markdown.\n")
	fmt.Fprintf(&sys, "- When you have gathered enough information to write a comprehensive SRS, reply with exactly this single line and nothing else:\n%s\n", CompletionMarker)

	var usr strings.Builder
	usr.WriteString("The user provided this initial project description:\n")
	usr.WriteString(strings.TrimSpace(initialRequirements))
	usr.WriteString("\n\n")
	usr.WriteString(renderTranscript(history))
	if len(history) == 0 {
		usr.WriteString("No questions have been asked yet. Ask your first question now.")
	} else {
		fmt.Fprintf(&usr, "Ask your next single question now, or reply with %s if you have enough information.", CompletionMarker)
	}

	return sys.String(), usr.String()
}

// renderTranscript encodes the ordered Q&A history for prompt inclusion.
// Once the history exceeds the verbatim bounds, older turns are condensed
// into compact single-line excerpts so prompt size stays bounded while every
// turn remains represented.
func renderTranscript(history []models.QAPair) string {
	if len(history) == 0 {
		return ""
	}

	full := renderTurnsVerbatim(history)
	if len(history) <= MaxVerbatimTurns && len(full) <= MaxTranscriptBytes {
		return "--- CONVERSATION TRANSCRIPT ---\n" + full + "--- END OF TRANSCRIPT ---\n\n"
	}

	split := len(history) - MaxVerbatimTurns
	if split < 1 {
		split = 1
	}
	older, recent := history[:split], history[split:]

	var b strings.Builder
	b.WriteString("--- EARLIER TURNS (condensed) ---\n")
	for i, qa := range older {
		fmt.Fprintf(&b, "%d. Q: %s | A: %s\n", i+1, condense(qa.Question), condense(qa.Answer))
	}
	b.WriteString("--- RECENT TURNS ---\n")
	b.WriteString(renderTurnsVerbatim(recent))
	b.WriteString("--- END OF TRANSCRIPT ---\n\n")
	return b.String()
}

func renderTurnsVerbatim(history []models.QAPair) string {
	var b strings.Builder
	for _, qa := range history {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", strings.TrimSpace(qa.Question), strings.TrimSpace(qa.Answer))
	}
	return b.String()
}

// condense collapses whitespace and caps the excerpt length. An elided tail
// is marked so the model knows the text was shortened.
func condense(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > condensedAnswerLimit {
		return s[:condensedAnswerLimit] + "…"
	}
	return s
}

// BuildSynthesisPrompt assembles the prompt pair for composing the final SRS
// from the full transcript. The strict variant repeats the formatting
// contract more forcefully; the composer uses it for its single retry after
// an unparseable first attempt.
func BuildSynthesisPrompt(specialist models.Specialist, initialRequirements string, history []models.QAPair, strict bool) (systemPrompt, userPrompt string) {
	var sys strings.Builder
	fmt.Fprintf(&sys, "As an expert %s, your task is to create a formal Software Requirements Specification (SRS) document from a completed Q&A session.\n\n", specialist)
	sys.WriteString("The user's responses may be informal, but your output must be professional. Infer details and structure the information logically into exactly these sections:\n\n")
	for i, title := range models.SectionTitles {
		fmt.Fprintf(&sys, "%d. %s\n", i+1, title)
	}
	sys.WriteString("\nSection content guidance:\n")
	sys.WriteString("1. INTRODUCTION: purpose of the document, scope of the project, target audience.\n")
	sys.WriteString("2. OVERALL DESCRIPTION: product perspective, product functions, user characteristics, constraints, assumptions and dependencies.\n")
	sys.WriteString("3. SYSTEM FEATURES: break the requirements into specific, detailed features, each with a description and functional requirements.\n")
	sys.WriteString("4. NON-FUNCTIONAL REQUIREMENTS: performance, security, usability, reliability.\n")
	sys.WriteString("5. APPENDICES: definitions, acronyms, or abbreviations inferred from context.\n")
	sys.WriteString("\nFORMATTING RULES (VERY IMPORTANT):\n")
	sys.WriteString("- DO NOT USE MARKDOWN. The output must be plain text.\n")
	sys.WriteString("- Use hyphens (-) for lists.\n")
	sys.WriteString("- Every section header must be on its own line, numbered and in all caps, e.g. \"1. INTRODUCTION\".\n")
	sys.WriteString("- Include all five sections, in order, even if a section is brief.\n")
	if strict {
		sys.WriteString("\nYour previous output could not be parsed. Follow the formatting rules EXACTLY this time: all five numbered all-caps headers, each on its own line, nothing before the first header.\n")
	}

	var usr strings.Builder
	usr.WriteString("Initial project description:\n")
	usr.WriteString(strings.TrimSpace(initialRequirements))
	usr.WriteString("\n\n")
	usr.WriteString(renderTranscript(history))
	usr.WriteString("Based on the ENTIRE conversation, generate the complete SRS document now.")

	return sys.String(), usr.String()
}
