package complete

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alonsovb/sermonkit/internal/apierr"
)

// Default OpenAI completion configuration.
const (
	// defaultOpenAIModel is the correction model. gpt-4-turbo keeps
	// Spanish orthography corrections reliable without reasoning-model
	// latency.
	defaultOpenAIModel = "gpt-4-turbo"

	// defaultTemperature is low: correction must be conservative, not
	// creative.
	defaultTemperature float32 = 0.3

	defaultMaxOutputTokens = 4096

	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly; tests inject mocks.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Completer     = (*OpenAICompleter)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// OpenAICompleter implements Completer against OpenAI's chat completion
// API, with exponential-backoff retries for transient errors.
type OpenAICompleter struct {
	client      chatCompleter
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// OpenAIOption configures an OpenAICompleter.
type OpenAIOption func(*OpenAICompleter)

// WithModel sets the completion model.
func WithModel(model string) OpenAIOption {
	return func(c *OpenAICompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature. The unit corrector
// uses a lower value than the chunk corrector.
func WithTemperature(t float32) OpenAIOption {
	return func(c *OpenAICompleter) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithMaxOutputTokens sets the response token cap.
func WithMaxOutputTokens(n int) OpenAIOption {
	return func(c *OpenAICompleter) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) OpenAIOption {
	return func(c *OpenAICompleter) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) OpenAIOption {
	return func(c *OpenAICompleter) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) OpenAIOption {
	return func(c *OpenAICompleter) {
		c.client = cc
	}
}

// NewOpenAICompleter creates an OpenAICompleter with the given client.
func NewOpenAICompleter(client *openai.Client, opts ...OpenAIOption) *OpenAICompleter {
	c := &OpenAICompleter{
		client:      client,
		model:       defaultOpenAIModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxOutputTokens,
		maxRetries:  defaultMaxRetries,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the instruction pair and returns the model response.
// Transient errors (rate limits, timeouts, 5xx) are retried with
// exponential backoff; everything else fails immediately.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}, isRetryable)
}

// classifyOpenAIError maps OpenAI API errors to apierr sentinels.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusForbidden, http.StatusPaymentRequired:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}

// isRetryable reports whether a classified error is transient.
// Shared by the OpenAI and DeepSeek adapters.
func isRetryable(err error) bool {
	if apierr.IsRetryable(err) {
		return true
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrQuotaExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return httpErr.status >= 500
	}

	return false
}
