package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/BTreeMap/SpecPipe/internal/speech"
	"github.com/openai/openai-go"
)

// Transcribe converts recorded audio to text via the transcription endpoint.
// The language code must be one of the fixed supported locales.
func (c *Client) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	lang, err := speech.ValidateLanguage(languageCode)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Debug("genai.Transcribe: transcribing audio", "bytes", len(audio), "language", lang)

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
		Model:    openai.AudioModelWhisper1,
		Language: openai.String(lang),
	})
	if err != nil {
		return "", mapGatewayError(err)
	}

	slog.Info("genai.Transcribe: transcription complete", "textLen", len(resp.Text), "language", lang)
	return resp.Text, nil
}

// Synthesize converts text to spoken MP3 audio via the speech endpoint.
func (c *Client) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	if _, err := speech.ValidateLanguage(languageCode); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("text to synthesize is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Debug("genai.Synthesize: synthesizing speech", "textLen", len(text))

	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoiceAlloy,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	slog.Info("genai.Synthesize: synthesis complete", "bytes", len(audio))
	return audio, nil
}
