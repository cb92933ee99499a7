// Package speech defines the speech-to-text and text-to-speech collaborator
// interfaces. Transcription and synthesis are independent of session state:
// their failures never touch the conversation store.
package speech

import (
	"context"
	"fmt"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

// SupportedLanguages maps the fixed set of accepted locale codes to the
// ISO 639-1 language tags the audio models expect.
var SupportedLanguages = map[string]string{
	"en-US": "en",
	"hi-IN": "hi",
	"ta-IN": "ta",
	"ml-IN": "ml",
}

// ValidateLanguage checks a locale code against the fixed supported set and
// returns the base language tag.
func ValidateLanguage(code string) (string, error) {
	lang, ok := SupportedLanguages[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, code)
	}
	return lang, nil
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error)
}

// Synthesizer converts text into spoken audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}
