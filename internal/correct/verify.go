// Package correct implements the transcription correction subsystem:
// chunk-level orchestration with integrity verification and retry, and
// a finer-grained sentence-unit strategy. Both delegate the actual
// correction to a completion API and degrade to the original text when
// a correction cannot be trusted.
package correct

import (
	"strings"
)

// Integrity check parameters.
const (
	// DefaultTolerance is the allowed relative length drift between an
	// original chunk and its correction. Correction fixes spelling and
	// grammar; it must never summarize or expand.
	DefaultTolerance = 0.20

	// maxSignaturePhrases caps how many phrases are sampled per check.
	maxSignaturePhrases = 10

	// phraseWindow is the signature-phrase width in words.
	phraseWindow = 3

	// minPhraseLen skips windows too short to be distinctive.
	minPhraseLen = 15

	// minRetention is the fraction of sampled phrases that must survive
	// verbatim for the correction to be trusted.
	minRetention = 0.70
)

// VerifyIntegrity reports whether corrected is a trustworthy
// correction of original.
//
// Two heuristics must both pass: the relative length delta stays
// within tolerance, and at least 70% of sampled signature phrases
// (overlapping 3-word windows longer than 15 characters) survive
// verbatim, case-insensitively. The second catches silent truncation
// or paraphrasing that happens to preserve length.
//
// tolerance <= 0 selects DefaultTolerance.
func VerifyIntegrity(original, corrected string, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if len(original) == 0 {
		return len(corrected) == 0
	}

	delta := float64(len(corrected)) - float64(len(original))
	if delta < 0 {
		delta = -delta
	}
	if delta/float64(len(original)) > tolerance {
		return false
	}

	phrases := signaturePhrases(original)
	if len(phrases) == 0 {
		return true
	}

	lowered := strings.ToLower(corrected)
	found := 0
	for _, p := range phrases {
		if strings.Contains(lowered, strings.ToLower(p)) {
			found++
		}
	}
	return float64(found)/float64(len(phrases)) >= minRetention
}

// signaturePhrases samples up to maxSignaturePhrases overlapping
// 3-word windows longer than minPhraseLen characters, spread evenly
// across the text so truncation anywhere in the chunk is caught.
func signaturePhrases(text string) []string {
	words := strings.Fields(text)
	if len(words) < phraseWindow {
		return nil
	}

	var candidates []string
	for i := 0; i+phraseWindow <= len(words); i++ {
		p := strings.Join(words[i:i+phraseWindow], " ")
		if len(p) > minPhraseLen {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) <= maxSignaturePhrases {
		return candidates
	}

	sampled := make([]string, 0, maxSignaturePhrases)
	step := float64(len(candidates)) / float64(maxSignaturePhrases)
	for i := 0; i < maxSignaturePhrases; i++ {
		sampled = append(sampled, candidates[int(float64(i)*step)])
	}
	return sampled
}
