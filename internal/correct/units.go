package correct

import (
	"context"
	"strings"

	"github.com/alonsovb/sermonkit/internal/complete"
	"github.com/alonsovb/sermonkit/internal/prompt"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

// Unit correction parameters.
const (
	// DefaultUnitSize is the maximum unit size in bytes. Sentence-sized
	// units give the model less room to "improve" prose than paragraph
	// chunks.
	DefaultUnitSize = 400

	// minUnitSize: units below this are passed through untouched.
	minUnitSize = 10

	// unitTolerance is the per-unit length gate. A correction outside
	// it is discarded immediately; there is no retry at this
	// granularity.
	unitTolerance = 0.20
)

// UnitResult is the output of a unit-level correction run.
type UnitResult struct {
	Text         string // rejoined corrected document
	Units        int    // total units processed
	ChangedUnits int    // units where a correction was accepted
	FailedUnits  []int  // 1-based units that kept their original text after a failed call or gate
	Stats        Stats
}

// UnitCorrector corrects a document sentence unit by sentence unit.
// It is the conservative alternative to ChunkCorrector: a stricter
// prompt, one completion call per unit, and an immediate fallback to
// the original on any doubt.
type UnitCorrector struct {
	completer  complete.Completer
	unitSize   int
	onProgress func(current, total int)
}

// UnitOption configures a UnitCorrector.
type UnitOption func(*UnitCorrector)

// WithUnitSize sets the maximum unit size in bytes.
func WithUnitSize(n int) UnitOption {
	return func(c *UnitCorrector) {
		if n > 0 {
			c.unitSize = n
		}
	}
}

// WithUnitProgress sets a per-unit completion callback.
func WithUnitProgress(fn func(current, total int)) UnitOption {
	return func(c *UnitCorrector) {
		c.onProgress = fn
	}
}

// NewUnitCorrector creates a UnitCorrector using the given completer.
func NewUnitCorrector(completer complete.Completer, opts ...UnitOption) *UnitCorrector {
	c := &UnitCorrector{
		completer: completer,
		unitSize:  DefaultUnitSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CorrectDocument corrects doc unit by unit and rejoins the result.
// The header is the first unit; the body is split into sentence-sized
// units. Like the chunk path, nothing short of context cancellation
// aborts the run.
func (c *UnitCorrector) CorrectDocument(ctx context.Context, doc transcript.Document) (*UnitResult, error) {
	units := SplitUnits(doc.Body, c.unitSize)
	if doc.Header != "" {
		units = append([]string{doc.Header}, units...)
	}

	res := &UnitResult{Units: len(units)}
	corrected := make([]string, len(units))

	for i, unit := range units {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		corrected[i] = c.correctUnit(ctx, unit, i+1, res)
		if c.onProgress != nil {
			c.onProgress(i+1, len(units))
		}
	}

	res.Text = rejoinUnits(corrected)
	res.Stats = Stats{
		OriginalChars:  len(doc.String()),
		CorrectedChars: len(res.Text),
	}
	return res, nil
}

// correctUnit corrects a single unit, falling back to the original on
// a failed call or a length-gate violation.
func (c *UnitCorrector) correctUnit(ctx context.Context, unit string, index int, res *UnitResult) string {
	if len(unit) < minUnitSize {
		return unit
	}

	out, err := c.completer.Complete(ctx,
		prompt.UnitCorrectionName.System(),
		prompt.UnitCorrectionName.User()+unit)
	if err != nil {
		res.FailedUnits = append(res.FailedUnits, index)
		return unit
	}

	delta := float64(len(out)) - float64(len(unit))
	if delta < 0 {
		delta = -delta
	}
	if delta > float64(len(unit))*unitTolerance {
		res.FailedUnits = append(res.FailedUnits, index)
		return unit
	}

	if out != unit {
		res.ChangedUnits++
	}
	return out
}

// SplitUnits divides body text into sentence-sized units of at most
// maxSize bytes.
//
// Sentences end at '.', '?' or '!' followed by a space; terminal
// punctuation followed by a line break does not split, so paragraph
// breaks stay inside their unit and survive as rejoin hints.
// Consecutive sentences are packed into one unit while they fit.
func SplitUnits(body string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultUnitSize
	}

	fragments := splitSentences(body)

	var units []string
	var current strings.Builder
	for _, frag := range fragments {
		if current.Len() > 0 && current.Len()+1+len(frag) > maxSize {
			units = append(units, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(frag)
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}
	return units
}

// splitSentences cuts text after sentence-terminal punctuation
// followed by a space. Fragments are trimmed of surrounding spaces but
// keep internal line breaks.
func splitSentences(text string) []string {
	var fragments []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if isTerminal(text[i]) && text[i+1] == ' ' {
			if frag := strings.Trim(text[start:i+1], " \n"); frag != "" {
				fragments = append(fragments, frag)
			}
			start = i + 1
		}
	}
	if frag := strings.Trim(text[start:], " \n"); frag != "" {
		fragments = append(fragments, frag)
	}
	return fragments
}

func isTerminal(c byte) bool {
	return c == '.' || c == '?' || c == '!'
}

// rejoinUnits concatenates units preserving original adjacency: no
// space is inserted across an existing line break, a single space
// otherwise.
func rejoinUnits(units []string) string {
	var b strings.Builder
	for _, u := range units {
		if u == "" {
			continue
		}
		s := b.String()
		if len(s) > 0 && !strings.HasSuffix(s, "\n") && !strings.HasPrefix(u, "\n") {
			b.WriteByte(' ')
		}
		b.WriteString(u)
	}
	return b.String()
}
