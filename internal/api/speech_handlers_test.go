package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/SpecPipe/internal/flow"
	"github.com/BTreeMap/SpecPipe/internal/models"
	"github.com/BTreeMap/SpecPipe/internal/speech"
	"github.com/BTreeMap/SpecPipe/internal/store"
	"github.com/BTreeMap/SpecPipe/internal/testutil"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, languageCode string) (string, error) {
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	return f.audio, f.err
}

func newSpeechTestServer(tr speech.Transcriber, sy speech.Synthesizer) *Server {
	engine := flow.NewEngine(store.NewInMemoryStore(), &testutil.StubGateway{
		GenerateFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "unused", nil
		},
	})
	return NewServer(engine, tr, sy)
}

func multipartAudioRequest(t *testing.T, language string, audio []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			t.Fatalf("failed to write language field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("audio_file", "question.wav")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(audio); err != nil {
		t.Fatalf("failed to write audio: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestTranscribeEndpoint(t *testing.T) {
	s := newSpeechTestServer(&fakeTranscriber{text: "build a recommendation engine"}, nil)

	rr := doRequest(t, s, multipartAudioRequest(t, "en-US", []byte("fake wav bytes")))
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "transcribe")

	resp := testutil.AssertJSONResponse(t, rr, "ok")
	result := resp["result"].(map[string]interface{})
	if result["transcription"] != "build a recommendation engine" {
		t.Errorf("unexpected transcription: %v", result["transcription"])
	}
}

func TestTranscribeEndpointWithoutTranscriber(t *testing.T) {
	s := newSpeechTestServer(nil, nil)
	rr := doRequest(t, s, multipartAudioRequest(t, "en-US", []byte("fake wav bytes")))
	testutil.AssertHTTPStatus(t, http.StatusServiceUnavailable, rr.Code, "transcribe unconfigured")
}

func TestTranscribeEndpointMissingFile(t *testing.T) {
	s := newSpeechTestServer(&fakeTranscriber{text: "ignored"}, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	writer.WriteField("language", "en-US")
	writer.Close()

	req := httptest.NewRequest("POST", "/transcribe", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := doRequest(t, s, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "missing audio file")
}

func TestTranscribeEndpointUnsupportedLanguage(t *testing.T) {
	s := newSpeechTestServer(&fakeTranscriber{err: models.ErrUnsupportedLanguage}, nil)
	rr := doRequest(t, s, multipartAudioRequest(t, "fr-FR", []byte("fake wav bytes")))
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "unsupported language")
}

func TestSpeechEndpoint(t *testing.T) {
	s := newSpeechTestServer(nil, &fakeSynthesizer{audio: []byte("mp3 bytes")})

	req := testutil.CreateHTTPRequest(t, "POST", "/speech", models.SpeechRequest{Text: "What is the budget?", Language: "en-US"})
	rr := doRequest(t, s, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "speech synthesis")
	if ct := rr.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("expected audio/mpeg, got %q", ct)
	}
	if rr.Body.String() != "mp3 bytes" {
		t.Errorf("unexpected audio body: %q", rr.Body.String())
	}
}

func TestSpeechEndpointValidation(t *testing.T) {
	s := newSpeechTestServer(nil, &fakeSynthesizer{audio: []byte("mp3 bytes")})

	req := testutil.CreateHTTPRequest(t, "POST", "/speech", models.SpeechRequest{Text: "  ", Language: "en-US"})
	rr := doRequest(t, s, req)
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "blank text")

	withoutSynth := newSpeechTestServer(nil, nil)
	req = testutil.CreateHTTPRequest(t, "POST", "/speech", models.SpeechRequest{Text: "hello", Language: "en-US"})
	rr = doRequest(t, withoutSynth, req)
	testutil.AssertHTTPStatus(t, http.StatusServiceUnavailable, rr.Code, "speech unconfigured")
}
