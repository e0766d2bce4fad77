package correct

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alonsovb/sermonkit/internal/complete"
	"github.com/alonsovb/sermonkit/internal/prompt"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// Chunk correction parameters.
const (
	// maxChunkAttempts bounds completion calls per chunk: one initial
	// attempt plus two retries.
	maxChunkAttempts = 3

	// defaultRetryDelay is the fixed pause between attempts on the same
	// chunk, to avoid hammering the completion API.
	defaultRetryDelay = 2 * time.Second

	// Lead-in detection: the first leadWindow bytes of each chunk body
	// are compared, and a shared prefix shorter than leadFloor is not
	// treated as duplication.
	leadWindow = 50
	leadFloor  = 20
)

// Result is the output of a document correction run.
type Result struct {
	Text     string         // reassembled corrected document
	Outcomes []ChunkOutcome // per-chunk outcomes, in document order
	Failed   []int          // 1-based indices of chunks that kept their original text
	Stats    Stats
}

// ChunkCorrector corrects a transcript document chunk by chunk.
//
// Each chunk is corrected independently: attempt the completion call,
// verify integrity, retry on failure, and after maxChunkAttempts keep
// the original text. Chunks share no state during correction, so they
// may run concurrently; only reassembly observes them together.
type ChunkCorrector struct {
	completer  complete.Completer
	chunkSize  int
	tolerance  float64
	retryDelay time.Duration
	parallel   int
	onProgress func(current, total int)
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a ChunkCorrector.
type Option func(*ChunkCorrector)

// WithChunkSize sets the target chunk size in bytes.
func WithChunkSize(n int) Option {
	return func(c *ChunkCorrector) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithTolerance sets the integrity length tolerance.
func WithTolerance(t float64) Option {
	return func(c *ChunkCorrector) {
		if t > 0 {
			c.tolerance = t
		}
	}
}

// WithRetryDelay sets the pause between attempts on one chunk.
func WithRetryDelay(d time.Duration) Option {
	return func(c *ChunkCorrector) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithParallel sets how many chunks are corrected concurrently.
// The default of 1 preserves strictly sequential calls.
func WithParallel(n int) Option {
	return func(c *ChunkCorrector) {
		if n > 0 {
			c.parallel = n
		}
	}
}

// WithProgress sets a per-chunk completion callback.
func WithProgress(fn func(current, total int)) Option {
	return func(c *ChunkCorrector) {
		c.onProgress = fn
	}
}

// withSleep sets a custom sleep function (for testing).
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *ChunkCorrector) {
		c.sleep = fn
	}
}

// NewChunkCorrector creates a ChunkCorrector using the given completer.
func NewChunkCorrector(completer complete.Completer, opts ...Option) *ChunkCorrector {
	c := &ChunkCorrector{
		completer:  completer,
		chunkSize:  transcript.DefaultChunkSize,
		tolerance:  DefaultTolerance,
		retryDelay: defaultRetryDelay,
		parallel:   1,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CorrectDocument corrects doc and reassembles the result.
//
// The run never fails because of a bad correction: untrusted chunks
// keep their original text and are listed in Result.Failed. Only a
// canceled context aborts the run.
func (c *ChunkCorrector) CorrectDocument(ctx context.Context, doc transcript.Document) (*Result, error) {
	chunks := transcript.Segment(doc, c.chunkSize)
	if len(chunks) == 0 {
		return &Result{
			Text:  doc.String(),
			Stats: Stats{OriginalChars: len(doc.String()), CorrectedChars: len(doc.String())},
		}, nil
	}

	outcomes := make([]ChunkOutcome, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, chunk := range chunks {
		chunk := chunk
		i := i
		g.Go(func() error {
			out, err := c.correctChunk(gctx, chunk)
			if err != nil {
				return err
			}
			outcomes[i] = out
			if c.onProgress != nil {
				c.onProgress(chunk.Index, chunk.Total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Outcomes: outcomes}
	for _, out := range outcomes {
		if !out.Corrected {
			res.Failed = append(res.Failed, out.Index)
		}
	}

	res.Text = reassemble(doc.Header, outcomes)
	res.Stats = Stats{
		OriginalChars:  len(doc.String()),
		CorrectedChars: len(res.Text),
	}
	return res, nil
}

// correctChunk runs the attempt/verify/retry loop for one chunk.
// Only context cancellation is returned as an error; all other
// failures degrade to the original text.
func (c *ChunkCorrector) correctChunk(ctx context.Context, chunk transcript.Chunk) (ChunkOutcome, error) {
	original := chunk.Text()
	attempts := 0

	for attempts < maxChunkAttempts {
		if attempts > 0 {
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return ChunkOutcome{}, err
			}
		}
		attempts++

		corrected, err := c.completer.Complete(ctx,
			prompt.ChunkCorrectionName.System(),
			prompt.ChunkCorrectionName.User()+original)
		if err != nil {
			if ctx.Err() != nil {
				return ChunkOutcome{}, ctx.Err()
			}
			continue
		}

		if VerifyIntegrity(original, corrected, c.tolerance) {
			return ChunkOutcome{
				Index:     chunk.Index,
				Text:      corrected,
				Corrected: true,
				Attempts:  attempts,
			}, nil
		}
	}

	return ChunkOutcome{
		Index:    chunk.Index,
		Text:     original,
		Attempts: attempts,
	}, nil
}

// reassemble stitches corrected chunks back into one document.
//
// The first chunk is kept whole (its header plus content become the
// base). Every later chunk has its header stripped again, since the
// completion API reliably echoes the header it was given, and then a
// shared lead-in phrase, when one is detected across chunk bodies, is
// removed from all chunks but the first so the opening formula appears
// only once.
func reassemble(header string, outcomes []ChunkOutcome) string {
	if len(outcomes) == 0 {
		return ""
	}

	bodies := make([]string, len(outcomes))
	for i, out := range outcomes {
		bodies[i] = stripHeader(out.Text, header)
	}

	lead := transcript.CommonLeadPrefix(trimmedLeft(bodies), leadWindow, leadFloor)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(bodies[0])
	for _, body := range bodies[1:] {
		if lead != "" {
			body = stripLead(body, lead)
		}
		appendJoined(&b, body)
	}
	return b.String()
}

// stripHeader removes the re-emitted header from a corrected chunk.
// Detection mirrors segmentation: prefer the separator line; when the
// correction dropped the separator, drop as many lines as the original
// header had.
func stripHeader(text, header string) string {
	if header == "" {
		return text
	}
	if h, body := transcript.SplitHeader(text); h != "" && looksLikeHeader(h, header) {
		return body
	}
	return dropLines(text, transcript.HeaderLineCount(header))
}

// looksLikeHeader reports whether detected shares its first line with
// the known document header, guarding against SplitHeader's fallback
// eating real content on chunks where the model dropped the header
// entirely.
func looksLikeHeader(detected, header string) bool {
	dFirst, _, _ := strings.Cut(detected, "\n")
	hFirst, _, _ := strings.Cut(header, "\n")
	return strings.TrimSpace(dFirst) == strings.TrimSpace(hFirst)
}

// dropLines removes the first n lines from text.
func dropLines(text string, n int) string {
	for ; n > 0; n-- {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return ""
		}
		text = text[i+1:]
	}
	return text
}

// trimmedLeft returns copies of texts with leading whitespace removed,
// so lead-in comparison is not defeated by blank lines after headers.
func trimmedLeft(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.TrimLeft(t, " \t\n")
	}
	return out
}

// stripLead removes the duplicated lead-in from a chunk body,
// preserving the body's leading whitespace.
func stripLead(body, lead string) string {
	ws := body[:len(body)-len(strings.TrimLeft(body, " \t\n"))]
	rest := body[len(ws):]
	if strings.HasPrefix(rest, lead) {
		return ws + rest[len(lead):]
	}
	return body
}

// appendJoined concatenates body onto b, inserting a single space when
// neither side provides separating whitespace.
func appendJoined(b *strings.Builder, body string) {
	if body == "" {
		return
	}
	s := b.String()
	if len(s) > 0 && !endsWithSpace(s) && !startsWithSpace(body) {
		b.WriteByte(' ')
	}
	b.WriteString(body)
}

func endsWithSpace(s string) bool {
	c := s[len(s)-1]
	return c == ' ' || c == '\t' || c == '\n'
}

func startsWithSpace(s string) bool {
	c := s[0]
	return c == ' ' || c == '\t' || c == '\n'
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FormatFailed renders failed chunk indices for warnings.
func FormatFailed(indices []int) string {
	if len(indices) == 0 {
		return ""
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	return strings.Join(parts, ", ")
}
