// Package testutil provides common test utilities and helpers for SpecPipe tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// StubGateway is a scriptable LLM gateway for tests. It satisfies the
// engine's gateway contract and delegates every call to GenerateFunc while
// counting invocations.
type StubGateway struct {
	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	mu    sync.Mutex
	calls int
}

// Generate delegates to GenerateFunc.
func (g *StubGateway) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return g.GenerateFunc(ctx, systemPrompt, userPrompt)
}

// Calls reports how many times Generate was invoked.
func (g *StubGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// CannedSRS returns a minimal well-formed synthesis response containing all
// five SRS sections in order.
func CannedSRS() string {
	return `1. INTRODUCTION
- Purpose: describe the system under specification.
- Scope: the features discussed in the dialogue.

2. OVERALL DESCRIPTION
- Product perspective: standalone service.
- User characteristics: technical and non-technical users.

3. SYSTEM FEATURES
- Feature: core workflow.
  Functional requirements: the system shall support the described workflow.

4. NON-FUNCTIONAL REQUIREMENTS
- Performance: responses within acceptable latency.
- Security: user data is protected.

5. APPENDICES
- None.`
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, url, nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}
