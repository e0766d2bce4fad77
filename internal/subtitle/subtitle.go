// Package subtitle renders aligned key ideas as subtitle files.
package subtitle

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/alonsovb/sermonkit/internal/ideas"
)

// Errors returned by Format.
var (
	ErrUnknownStyle      = errors.New("unknown subtitle style")
	ErrNoIdeas           = errors.New("no ideas to format")
	ErrMissingTimestamps = errors.New("ideas are missing timestamps")
)

// Style name constants.
const (
	SRT   = "srt"
	VTT   = "vtt"
	Plain = "plain"
)

// Style represents a validated subtitle style. Zero value is invalid.
type Style struct {
	name string
}

// Pre-parsed styles for use in code.
var (
	SRTStyle   = Style{name: SRT}
	VTTStyle   = Style{name: VTT}
	PlainStyle = Style{name: Plain}
)

// ParseStyle validates and parses a subtitle style string.
// "txt" is accepted as an alias for the plain style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case SRT:
		return SRTStyle, nil
	case VTT:
		return VTTStyle, nil
	case Plain, "txt":
		return PlainStyle, nil
	}
	return Style{}, fmt.Errorf("style %q: %w", s, ErrUnknownStyle)
}

// String returns the style name. Empty for the zero value.
func (s Style) String() string { return s.name }

// Ext returns the file extension for this style, without the dot.
func (s Style) Ext() string {
	if s.name == Plain {
		return "txt"
	}
	return s.name
}

// Format renders ideas as subtitle content in the given style.
//
// Ideas are emitted in timestamp order regardless of input order; the
// sort is stable so ties keep their extraction order. Every idea must
// already carry timestamps.
func Format(list []ideas.KeyIdea, style Style) (string, error) {
	if style.name == "" {
		return "", ErrUnknownStyle
	}
	if len(list) == 0 {
		return "", ErrNoIdeas
	}
	for _, idea := range list {
		if !idea.HasTimestamps() {
			return "", fmt.Errorf("idea %q: %w", idea.Text, ErrMissingTimestamps)
		}
	}

	sorted := make([]ideas.KeyIdea, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start() < sorted[j].Start()
	})

	var b strings.Builder
	switch style.name {
	case SRT:
		writeCues(&b, sorted, ',')
	case VTT:
		b.WriteString("WEBVTT\n\n")
		writeCues(&b, sorted, '.')
	case Plain:
		for _, idea := range sorted {
			b.WriteString(idea.Text)
			b.WriteString("\n\n")
		}
	}
	return b.String(), nil
}

// writeCues emits numbered cues in SRT layout; only the millisecond
// separator differs between SRT and VTT.
func writeCues(b *strings.Builder, list []ideas.KeyIdea, msSep byte) {
	for i, idea := range list {
		fmt.Fprintf(b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(idea.Start(), msSep),
			FormatTimestamp(idea.End(), msSep),
			idea.Text)
	}
}

// FormatTimestamp renders seconds as HH:MM:SS followed by msSep and
// three millisecond digits. Negative inputs clamp to zero.
func FormatTimestamp(seconds float64, msSep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	ms := int(math.Round((seconds - float64(total)) * 1000))
	if ms >= 1000 {
		total++
		ms -= 1000
	}
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, msSep, ms)
}
