package flow

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

func TestParseReplyQuestion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "What is the expected daily user volume?", "What is the expected daily user volume?"},
		{"surrounding whitespace", "  \nWhat platforms must be supported?\n", "What platforms must be supported?"},
		{"numbered", "1. What is the data refresh cadence?", "What is the data refresh cadence?"},
		{"bulleted", "- Which browsers are in scope?", "Which browsers are in scope?"},
		{"q prefix", "Q: Who are the target users?", "Who are the target users?"},
		{"markdown clutter", "**What** is the #1 priority feature?", "What is the 1 priority feature?"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := ParseReply(tc.raw)
			if reply.Kind != ReplyQuestion {
				t.Fatalf("expected ReplyQuestion, got %v", reply.Kind)
			}
			if reply.Question != tc.want {
				t.Errorf("expected %q, got %q", tc.want, reply.Question)
			}
		})
	}
}

func TestParseReplyCompletion(t *testing.T) {
	cases := []string{
		CompletionMarker,
		"  " + CompletionMarker + "  ",
		"Thank you for the details.\n" + CompletionMarker,
		"**" + CompletionMarker + "**",
	}
	for _, raw := range cases {
		if reply := ParseReply(raw); reply.Kind != ReplyCompletion {
			t.Errorf("expected ReplyCompletion for %q, got %v", raw, reply.Kind)
		}
	}
}

func TestParseReplyMarkerMustBeExactToken(t *testing.T) {
	// The marker embedded in prose is not a termination signal.
	raw := "I will reply with " + CompletionMarker + " when I am done. What is the budget?"
	reply := ParseReply(raw)
	if reply.Kind != ReplyQuestion {
		t.Errorf("expected inline marker mention to parse as a question, got %v", reply.Kind)
	}
}

func TestParseReplyUnparseable(t *testing.T) {
	for _, raw := range []string{"", "   \n\t", "***", "# #"} {
		if reply := ParseReply(raw); reply.Kind != ReplyUnparseable {
			t.Errorf("expected ReplyUnparseable for %q, got %v", raw, reply.Kind)
		}
	}
}

func TestParseDocumentFiveSections(t *testing.T) {
	raw := `1. INTRODUCTION
- Purpose: define the system.

2. OVERALL DESCRIPTION
- Product perspective: standalone.

3. SYSTEM FEATURES
- Feature A: search.
- Feature B: checkout.

4. NON-FUNCTIONAL REQUIREMENTS
- Performance: p95 under 300ms.

5. APPENDICES
- None.`

	composedAt := time.Now()
	doc, err := ParseDocument(raw, composedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(doc.Introduction, "Purpose: define the system.") {
		t.Errorf("introduction body wrong: %q", doc.Introduction)
	}
	if !strings.Contains(doc.SystemFeatures, "Feature B: checkout.") {
		t.Errorf("system features body wrong: %q", doc.SystemFeatures)
	}
	if !strings.Contains(doc.Appendices, "None.") {
		t.Errorf("appendices body wrong: %q", doc.Appendices)
	}
	if !doc.ComposedAt.Equal(composedAt) {
		t.Error("composedAt not carried through")
	}
	if doc.PlainText == "" {
		t.Error("expected plain text to be retained")
	}
}

func TestParseDocumentStripsMarkdown(t *testing.T) {
	raw := `# 1. INTRODUCTION
**Purpose**: define the system.

2. OVERALL DESCRIPTION
body

3. SYSTEM FEATURES
body

4. NON-FUNCTIONAL REQUIREMENTS
body

5. APPENDICES
body`

	doc, err := ParseDocument(raw, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.ContainsAny(doc.PlainText, "*#") {
		t.Error("markdown characters survived cleanup")
	}
	if !strings.Contains(doc.Introduction, "Purpose: define the system.") {
		t.Errorf("introduction body wrong: %q", doc.Introduction)
	}
}

func TestParseDocumentUnnumberedHeaders(t *testing.T) {
	raw := `INTRODUCTION
a

OVERALL DESCRIPTION
b

SYSTEM FEATURES
c

NON-FUNCTIONAL REQUIREMENTS
d

APPENDICES
e`

	doc, err := ParseDocument(raw, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.OverallDescription != "b" || doc.NonFunctionalRequirements != "d" {
		t.Errorf("bodies misassigned: %+v", doc)
	}
}

func TestParseDocumentMissingSectionFails(t *testing.T) {
	raw := `1. INTRODUCTION
a

2. OVERALL DESCRIPTION
b

3. SYSTEM FEATURES
c

5. APPENDICES
e`

	if _, err := ParseDocument(raw, time.Now()); !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseDocumentOutOfOrderFails(t *testing.T) {
	raw := `2. OVERALL DESCRIPTION
b

1. INTRODUCTION
a

3. SYSTEM FEATURES
c

4. NON-FUNCTIONAL REQUIREMENTS
d

5. APPENDICES
e`

	if _, err := ParseDocument(raw, time.Now()); !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseDocumentEmptyFails(t *testing.T) {
	if _, err := ParseDocument("   ", time.Now()); !errors.Is(err, models.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}
