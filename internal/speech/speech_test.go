package speech

import (
	"errors"
	"testing"

	"github.com/BTreeMap/SpecPipe/internal/models"
)

func TestValidateLanguage(t *testing.T) {
	cases := map[string]string{
		"en-US": "en",
		"hi-IN": "hi",
		"ta-IN": "ta",
		"ml-IN": "ml",
	}
	for code, want := range cases {
		got, err := ValidateLanguage(code)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", code, err)
			continue
		}
		if got != want {
			t.Errorf("%s: expected %q, got %q", code, want, got)
		}
	}
}

func TestValidateLanguageRejectsUnknownCodes(t *testing.T) {
	for _, code := range []string{"", "fr-FR", "en", "EN-US"} {
		if _, err := ValidateLanguage(code); !errors.Is(err, models.ErrUnsupportedLanguage) {
			t.Errorf("%q: expected ErrUnsupportedLanguage, got %v", code, err)
		}
	}
}
