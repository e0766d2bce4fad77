package complete

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alonsovb/sermonkit/internal/apierr"
)

// DeepSeek API configuration.
const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com"

	// deepseek-chat is enough for conservative correction work; the
	// reasoner model adds latency without better orthography.
	defaultDeepSeekModel           = "deepseek-chat"
	defaultDeepSeekMaxOutputTokens = 8000

	defaultDeepSeekMaxRetries  = 3
	defaultDeepSeekBaseDelay   = 1 * time.Second
	defaultDeepSeekMaxDelay    = 30 * time.Second
	defaultDeepSeekHTTPTimeout = 5 * time.Minute

	// maxResponseSize guards against malformed responses (10MB).
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Completer = (*DeepSeekCompleter)(nil)

// DeepSeekCompleter implements Completer against DeepSeek's chat
// completion API. DeepSeek exposes an OpenAI-compatible endpoint but is
// called over plain HTTP here so the two providers fail independently.
type DeepSeekCompleter struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	httpTimeout time.Duration
	httpClient  httpDoer
}

// DeepSeekOption configures a DeepSeekCompleter.
type DeepSeekOption func(*DeepSeekCompleter)

// WithDeepSeekModel sets the completion model.
func WithDeepSeekModel(model string) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDeepSeekTemperature sets the sampling temperature.
func WithDeepSeekTemperature(t float64) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithDeepSeekMaxRetries sets the maximum number of retry attempts.
func WithDeepSeekMaxRetries(n int) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithDeepSeekRetryDelays sets the base and max backoff delays.
func WithDeepSeekRetryDelays(base, max time.Duration) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithDeepSeekBaseURL sets a custom base URL (for testing or proxies).
func WithDeepSeekBaseURL(url string) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// withDeepSeekHTTPClient sets a custom HTTP client (for testing).
func withDeepSeekHTTPClient(client httpDoer) DeepSeekOption {
	return func(c *DeepSeekCompleter) {
		c.httpClient = client
	}
}

// NewDeepSeekCompleter creates a DeepSeekCompleter.
// Returns ErrEmptyAPIKey if apiKey is empty.
func NewDeepSeekCompleter(apiKey string, opts ...DeepSeekOption) (*DeepSeekCompleter, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	c := &DeepSeekCompleter{
		apiKey:      apiKey,
		baseURL:     defaultDeepSeekBaseURL,
		model:       defaultDeepSeekModel,
		temperature: float64(defaultTemperature),
		maxTokens:   defaultDeepSeekMaxOutputTokens,
		maxRetries:  defaultDeepSeekMaxRetries,
		baseDelay:   defaultDeepSeekBaseDelay,
		maxDelay:    defaultDeepSeekMaxDelay,
		httpTimeout: defaultDeepSeekHTTPTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.httpTimeout}
	}
	return c, nil
}

// Complete sends the instruction pair and returns the model response,
// retrying transient failures with exponential backoff.
func (c *DeepSeekCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	req := deepSeekRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []deepSeekMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := c.callAPI(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}, isRetryable)
}

// deepSeekRequest is a DeepSeek chat completion request.
type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature"`
}

// deepSeekMessage is a message in the conversation.
type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// deepSeekResponse is a DeepSeek chat completion response.
type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// httpStatusError carries the HTTP status of a failed API call so the
// retry predicate can distinguish 5xx from 4xx.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("deepseek API returned status %d: %s", e.status, e.body)
}

// callAPI performs a single chat completion request.
func (c *DeepSeekCompleter) callAPI(ctx context.Context, req deepSeekRequest) (*deepSeekResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
		}
		return nil, fmt.Errorf("deepseek request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyDeepSeekStatus(resp.StatusCode, string(body))
	}

	var out deepSeekResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// classifyDeepSeekStatus maps HTTP statuses to apierr sentinels.
func classifyDeepSeekStatus(status int, body string) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", body, apierr.ErrRateLimit)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", body, apierr.ErrAuthFailed)
	case http.StatusPaymentRequired, http.StatusForbidden:
		return fmt.Errorf("%s: %w", body, apierr.ErrQuotaExceeded)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", body, apierr.ErrTimeout)
	}
	return &httpStatusError{status: status, body: body}
}
