package flow

import (
	"regexp"
	"strings"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

// ReplyKind classifies a raw gateway response. The state machine branches on
// this typed result, never on raw text, so the parsing contract stays
// isolated from the loop controller.
type ReplyKind int

const (
	// ReplyQuestion carries the single next question to ask.
	ReplyQuestion ReplyKind = iota
	// ReplyCompletion signals the model considers gathering complete.
	ReplyCompletion
	// ReplyUnparseable means the response matched neither shape.
	ReplyUnparseable
)

// Reply is the typed result of parsing a question-generation response.
type Reply struct {
	Kind     ReplyKind
	Question string
}

// leadingDecoration strips list numbering or bullet prefixes the model
// sometimes adds despite instructions, e.g. "1. ", "- ", "Q: ".
var leadingDecoration = regexp.MustCompile(`^(\d+[.)]\s*|[-*]\s+|[Qq]:\s*)`)

// cleanupText removes markdown clutter from model output. Mirrors the
// document cleanup the rest of the pipeline applies: asterisks and hashes
// are never meaningful in the expected plain-text grammar.
func cleanupText(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "#", "")
	return s
}

// ParseReply classifies a raw question-generation response. The completion
// signal is an exact-token match on its own line; anything else non-empty is
// taken as the next question.
func ParseReply(raw string) Reply {
	cleaned := strings.TrimSpace(cleanupText(raw))
	if cleaned == "" {
		return Reply{Kind: ReplyUnparseable}
	}

	for _, line := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(line) == CompletionMarker {
			return Reply{Kind: ReplyCompletion}
		}
	}

	question := strings.TrimSpace(leadingDecoration.ReplaceAllString(cleaned, ""))
	if question == "" {
		return Reply{Kind: ReplyUnparseable}
	}
	return Reply{Kind: ReplyQuestion, Question: question}
}

// sectionHeader matches a numbered all-caps SRS section header line,
// e.g. "1. INTRODUCTION" or "4) NON-FUNCTIONAL REQUIREMENTS".
var sectionHeader = regexp.MustCompile(`^\s*(?:\d+[.)]\s*)?([A-Z][A-Z &/-]+[A-Z])\s*$`)

// ParseDocument splits a raw synthesis response into the five fixed SRS
// sections. All five headers must be present and in order; a missing header
// is a parse failure the composer handles with its single strict retry.
func ParseDocument(raw string, composedAt time.Time) (*models.SRSDocument, error) {
	cleaned := strings.TrimSpace(cleanupText(raw))
	if cleaned == "" {
		return nil, models.ErrMalformedResponse
	}

	bodies := make([]string, len(models.SectionTitles))
	current := -1
	var buf strings.Builder

	flush := func() {
		if current >= 0 {
			bodies[current] = strings.TrimSpace(buf.String())
			buf.Reset()
		}
	}

	for _, line := range strings.Split(cleaned, "\n") {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[1])
			if idx := sectionIndex(title); idx == current+1 {
				flush()
				current = idx
				continue
			}
		}
		if current >= 0 {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()

	if current != len(models.SectionTitles)-1 {
		return nil, models.ErrMalformedResponse
	}

	return &models.SRSDocument{
		Introduction:              bodies[0],
		OverallDescription:        bodies[1],
		SystemFeatures:            bodies[2],
		NonFunctionalRequirements: bodies[3],
		Appendices:                bodies[4],
		PlainText:                 cleaned,
		ComposedAt:                composedAt,
	}, nil
}

func sectionIndex(title string) int {
	for i, t := range models.SectionTitles {
		if title == t {
			return i
		}
	}
	return -1
}
