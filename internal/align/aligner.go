// Package align assigns timestamps to key ideas by locating each
// idea's quote in the time-coded transcript segments.
package align

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/alonsovb/sermonkit/internal/ideas"
	"github.com/alonsovb/sermonkit/internal/transcript"
)

const (
	// fuzzyThreshold is the minimum word-overlap score for a fuzzy
	// match. The comparison is strict: a score of exactly 0.7 is
	// rejected.
	fuzzyThreshold = 0.7

	// fallbackSpan is the assumed idea length in seconds when the
	// timestamp comes from relative position instead of a segment.
	fallbackSpan = 10

	// defaultDuration stands in for an unknown total duration so the
	// positional fallback still yields usable timestamps.
	defaultDuration = 2000

	// notFoundText marks the matched-segment field of positional
	// fallbacks. Downstream tooling keys on this literal.
	notFoundText = "No encontrado"
)

// Align enriches each idea with timestamps and returns the enriched
// copies along with warnings for every low-confidence placement.
//
// Matching is containment-first: the earliest segment whose text
// literally contains the idea's quote wins with full confidence. When
// no segment contains the quote, the best word-overlap segment is used
// if its score clears the threshold; the overlap score divides by the
// idea's word count only, so a long segment sharing every idea word
// scores the same as an exact-length one. Ideas that match nothing
// fall back to a position-derived timestamp with zero confidence.
//
// Align never fails: every idea comes back with timestamps.
func Align(list []ideas.KeyIdea, segments []transcript.TimeSegment, totalDuration float64) ([]ideas.KeyIdea, []string) {
	if totalDuration <= 0 {
		totalDuration = defaultDuration
	}

	out := make([]ideas.KeyIdea, len(list))
	copy(out, list)

	var warnings []string
	for i := range out {
		if w := alignIdea(&out[i], i, segments, totalDuration); w != "" {
			warnings = append(warnings, w)
		}
	}
	return out, warnings
}

// alignIdea enriches one idea in place and returns a warning for
// low-confidence placements, or "" when the placement is trustworthy.
func alignIdea(idea *ideas.KeyIdea, index int, segments []transcript.TimeSegment, totalDuration float64) string {
	text := strings.TrimSpace(idea.Text)
	if text == "" {
		return fmt.Sprintf("idea %d has no text, skipped", index+1)
	}

	if seg, ok := findContaining(text, segments); ok {
		setMatch(idea, seg, 1.0)
		return ""
	}

	best, score := bestOverlap(text, segments)
	if score > fuzzyThreshold {
		setMatch(idea, best, score)
		return ""
	}

	start := idea.RelativePosition * totalDuration
	end := min(totalDuration, start+fallbackSpan)
	idea.TimestampStart = &start
	idea.TimestampEnd = &end
	idea.SegmentText = notFoundText
	conf := 0.0
	idea.MatchConfidence = &conf

	return fallbackWarning(index, text, best, score, start)
}

// findContaining returns the earliest segment whose text contains the
// idea text.
func findContaining(text string, segments []transcript.TimeSegment) (transcript.TimeSegment, bool) {
	for _, seg := range segments {
		if strings.Contains(strings.TrimSpace(seg.Text), text) {
			return seg, true
		}
	}
	return transcript.TimeSegment{}, false
}

// bestOverlap returns the segment with the highest word-overlap score
// against the idea text. Ties keep the earliest segment.
func bestOverlap(text string, segments []transcript.TimeSegment) (transcript.TimeSegment, float64) {
	ideaWords := wordSet(text)
	denom := max(1, len(ideaWords))

	var best transcript.TimeSegment
	bestScore := 0.0
	for _, seg := range segments {
		segText := strings.TrimSpace(seg.Text)
		if segText == "" {
			continue
		}
		common := 0
		for w := range wordSet(segText) {
			if _, ok := ideaWords[w]; ok {
				common++
			}
		}
		if score := float64(common) / float64(denom); score > bestScore {
			bestScore = score
			best = seg
		}
	}
	return best, bestScore
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func setMatch(idea *ideas.KeyIdea, seg transcript.TimeSegment, confidence float64) {
	idea.TimestampStart = &seg.Start
	idea.TimestampEnd = &seg.End
	idea.SegmentText = seg.Text
	idea.MatchConfidence = &confidence
}

// fallbackWarning describes why an idea got a positional timestamp.
// The Jaro-Winkler similarity against the nearest candidate is
// included as a diagnostic; it plays no part in the match decision.
func fallbackWarning(index int, text string, best transcript.TimeSegment, score, start float64) string {
	if strings.TrimSpace(best.Text) == "" {
		return fmt.Sprintf("idea %d: no candidate segment, positional fallback at %.1fs", index+1, start)
	}
	jw := matchr.JaroWinkler(strings.ToLower(text), strings.ToLower(best.Text), false)
	return fmt.Sprintf("idea %d: best overlap %.2f below threshold (jaro-winkler %.2f), positional fallback at %.1fs",
		index+1, score, jw, start)
}
