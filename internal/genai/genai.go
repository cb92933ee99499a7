// Package genai provides the LLM gateway for SpecPipe using the OpenAI API.
//
// The gateway is the single non-deterministic external dependency of the
// orchestration engine: it takes a prompt and returns free-form text, and it
// may time out, be unavailable, or return content that does not conform to
// the expected grammar. Error mapping to the typed taxonomy happens here so
// the engine never inspects transport errors.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BTreeMap/SpecPipe/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultTimeout bounds every gateway call. The external call is otherwise
// unbounded, and the engine's retry-safety contract depends on calls failing
// in bounded time.
const DefaultTimeout = 60 * time.Second

// ClientInterface is the narrow contract the orchestration engine consumes.
// Tests inject stubs; production injects *Client.
type ClientInterface interface {
	// Generate sends the prompt pair and returns the model's raw text.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// completionService defines the minimal interface for chat completions.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client wraps the OpenAI chat completion and audio services.
type Client struct {
	client  openai.Client
	chat    completionService
	model   openai.ChatModel
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = openai.ChatModel(model)
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient initializes a GenAI client using the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	c := &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   openai.ChatModelGPT4o,
		timeout: DefaultTimeout,
	}
	c.chat = &c.client.Chat.Completions
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("genai.NewClient: client initialized", "model", c.model, "timeout", c.timeout)
	return c, nil
}

// Generate sends the prompt pair to the chat completion endpoint and returns
// the raw response text. Errors are mapped to the typed gateway taxonomy:
// deadline expiry becomes ErrGatewayTimeout, everything else
// ErrGatewayUnavailable. An empty choice list is ErrMalformedResponse.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	slog.Debug("genai.Generate: calling chat completion", "model", c.model, "systemLen", len(systemPrompt), "userLen", len(userPrompt))

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", mapGatewayError(err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.Generate: no choices returned", "model", c.model)
		return "", fmt.Errorf("no choices returned: %w", models.ErrMalformedResponse)
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("genai.Generate: completion received", "responseLen", len(content))
	return content, nil
}

// mapGatewayError converts transport/API errors to the typed taxonomy.
func mapGatewayError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("genai: gateway call timed out", "error", err)
		return fmt.Errorf("%w: %v", models.ErrGatewayTimeout, err)
	}
	slog.Warn("genai: gateway call failed", "error", err)
	return fmt.Errorf("%w: %v", models.ErrGatewayUnavailable, err)
}
