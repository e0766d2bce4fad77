// Package transcribe converts sermon audio into time-coded text with
// OpenAI's Whisper API. Long recordings are transcribed per segment and
// merged back with each segment's timestamps shifted by its offset in
// the source recording.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/alonsovb/sermonkit/internal/apierr"
	"github.com/alonsovb/sermonkit/internal/audio"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// Parallelism configuration.
const (
	// MaxRecommendedParallel is the recommended upper limit for concurrent API requests.
	// Higher values may trigger rate limiting.
	MaxRecommendedParallel = 10
)

// Default transcription configuration.
const (
	// defaultLanguage pins Whisper to Spanish; sermons in this pipeline
	// are always Spanish and auto-detection occasionally drifts on
	// biblical vocabulary.
	defaultLanguage = "es"

	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Transcriber converts one audio file to time-coded text. Timestamps
// in the result are local to the given file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (transcript.Result, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly; tests inject mocks.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*WhisperTranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// WhisperTranscriber transcribes audio using OpenAI's Whisper API with
// verbose JSON output so segment timestamps survive. Transient errors
// are retried with exponential backoff.
type WhisperTranscriber struct {
	client     audioTranscriber
	model      string
	language   string
	prompt     string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// TranscriberOption configures a WhisperTranscriber.
type TranscriberOption func(*WhisperTranscriber)

// WithModel sets the transcription model.
func WithModel(model string) TranscriberOption {
	return func(t *WhisperTranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLanguage sets the expected audio language (ISO 639-1 code).
func WithLanguage(code string) TranscriberOption {
	return func(t *WhisperTranscriber) {
		if code != "" {
			t.language = code
		}
	}
}

// WithPrompt provides domain context to improve recognition of
// biblical names and vocabulary.
func WithPrompt(prompt string) TranscriberOption {
	return func(t *WhisperTranscriber) {
		t.prompt = prompt
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *WhisperTranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *WhisperTranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// withAudioTranscriber sets a custom transcription client (for testing).
func withAudioTranscriber(at audioTranscriber) TranscriberOption {
	return func(t *WhisperTranscriber) {
		t.client = at
	}
}

// NewWhisperTranscriber creates a WhisperTranscriber with the given client.
func NewWhisperTranscriber(client *openai.Client, opts ...TranscriberOption) *WhisperTranscriber {
	t := &WhisperTranscriber{
		client:     client,
		model:      openai.Whisper1,
		language:   defaultLanguage,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe transcribes one audio file. Segment timestamps are local
// to the file; TranscribeSegments shifts them when merging.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (transcript.Result, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Language: t.language,
		Prompt:   t.prompt,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
	}

	resp, err := apierr.RetryWithBackoff(ctx, cfg, func() (openai.AudioResponse, error) {
		r, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, classifyError(err)
		}
		return r, nil
	}, isRetryableError)
	if err != nil {
		return transcript.Result{}, err
	}

	segments := make([]transcript.TimeSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, transcript.TimeSegment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}

	return transcript.Result{
		Text:      resp.Text,
		Segments:  segments,
		Duration:  resp.Duration,
		AudioFile: audioPath,
	}, nil
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
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

// isRetryableError reports whether a classified error is transient.
func isRetryableError(err error) bool {
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

	return false
}

// TranscribeSegments transcribes every audio segment and merges the
// partial results in segment order, shifting each segment's timestamps
// by its offset in the source recording. If any segment fails the whole
// operation is aborted. maxParallel limits concurrent API requests.
// progress, when non-nil, is called after each completed segment.
func TranscribeSegments(
	ctx context.Context,
	segments []audio.Segment,
	t Transcriber,
	maxParallel int,
	progress func(current, total int),
) (transcript.Result, error) {
	if len(segments) == 0 {
		return transcript.Result{}, ErrNoSegments
	}
	if maxParallel < 1 {
		maxParallel = 1
	}

	partials := make([]transcript.Result, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, seg := range segments {
		i := i
		seg := seg
		g.Go(func() error {
			res, err := t.Transcribe(gctx, seg.Path)
			if err != nil {
				return fmt.Errorf("segment %d (%s): %w", seg.Index+1, filepath.Base(seg.Path), err)
			}
			partials[i] = res
			if progress != nil {
				progress(seg.Index+1, len(segments))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return transcript.Result{}, err
	}

	return mergeResults(segments, partials), nil
}

// mergeResults combines per-segment results into one, offsetting every
// timestamp by its segment's position in the source recording.
func mergeResults(segments []audio.Segment, partials []transcript.Result) transcript.Result {
	merged := transcript.Result{
		ProcessingDate: time.Now().Format(time.RFC3339),
		TotalChunks:    len(segments),
	}

	for i, partial := range partials {
		offset := segments[i].Offset.Seconds()
		for _, ts := range partial.Segments {
			merged.Segments = append(merged.Segments, transcript.TimeSegment{
				Start: ts.Start + offset,
				End:   ts.End + offset,
				Text:  ts.Text,
			})
		}
		if merged.Text != "" {
			merged.Text += " "
		}
		merged.Text += partial.Text
	}

	if n := len(merged.Segments); n > 0 {
		merged.Duration = merged.Segments[n-1].End
	}

	return merged
}
