// Package ideas extracts and manages the key ideas of a sermon: seven
// short verbatim quotes arranged in a three-act narrative (problem,
// challenge, resolution). Ideas are persisted as JSON, reviewable
// through an editable text format, and enriched with timestamps by the
// aligner.
package ideas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Narrative structure expectations. These are soft: violations are
// reported as warnings and never block processing.
const (
	ExpectedCount = 7
	ActCount      = 3
)

// expectedPerAct is the expected idea distribution across acts 1..3.
var expectedPerAct = [ActCount + 1]int{0, 2, 2, 3}

// Idea duration bounds in seconds, used for clip extraction when no
// aligned segment supplies real timing.
const (
	minIdeaDuration = 5
	maxIdeaDuration = 10
	wordsPerSecond  = 3
)

// KeyIdea is one extracted quote. JSON field names are Spanish and
// fixed: idea files circulate between runs and hand edits, so the wire
// format is the contract.
//
// The timestamp fields are absent until the aligner runs; pointer
// fields distinguish "not aligned yet" from a legitimate zero start.
type KeyIdea struct {
	Act               int     `json:"acto"`
	Order             int     `json:"orden"`
	Text              string  `json:"texto"`
	BiblicalReference string  `json:"referencia_biblica"`
	Context           string  `json:"contexto"`
	Duration          float64 `json:"duracion_aproximada"`
	RelativePosition  float64 `json:"posicion_relativa"`

	TimestampStart  *float64 `json:"timestamp_start,omitempty"`
	TimestampEnd    *float64 `json:"timestamp_end,omitempty"`
	SegmentText     string   `json:"segment_text,omitempty"`
	MatchConfidence *float64 `json:"match_confidence,omitempty"`
}

// HasTimestamps reports whether the aligner has run on this idea.
func (k KeyIdea) HasTimestamps() bool {
	return k.TimestampStart != nil && k.TimestampEnd != nil
}

// Start returns the aligned start time, or 0 when not aligned.
func (k KeyIdea) Start() float64 {
	if k.TimestampStart == nil {
		return 0
	}
	return *k.TimestampStart
}

// End returns the aligned end time, or 0 when not aligned.
func (k KeyIdea) End() float64 {
	if k.TimestampEnd == nil {
		return 0
	}
	return *k.TimestampEnd
}

// Confidence returns the alignment confidence, or 0 when not aligned.
func (k KeyIdea) Confidence() float64 {
	if k.MatchConfidence == nil {
		return 0
	}
	return *k.MatchConfidence
}

// Load reads an idea file.
func Load(path string) ([]KeyIdea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ideas file: %w", err)
	}
	var ideas []KeyIdea
	if err := json.Unmarshal(data, &ideas); err != nil {
		return nil, fmt.Errorf("parse ideas file %s: %w", path, err)
	}
	return ideas, nil
}

// Save writes ideas as pretty-printed JSON, creating parent
// directories as needed.
func Save(ideas []KeyIdea, path string) error {
	data, err := json.MarshalIndent(ideas, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ideas: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create ideas directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write ideas file: %w", err)
	}
	return nil
}

// Validate checks the soft narrative expectations and returns one
// warning string per violation. An empty slice means the ideas match
// the expected shape.
func Validate(ideas []KeyIdea) []string {
	var warnings []string

	if len(ideas) != ExpectedCount {
		warnings = append(warnings,
			fmt.Sprintf("expected %d ideas, got %d", ExpectedCount, len(ideas)))
	}

	var perAct [ActCount + 1]int
	for _, idea := range ideas {
		if idea.Act >= 1 && idea.Act <= ActCount {
			perAct[idea.Act]++
		} else {
			warnings = append(warnings,
				fmt.Sprintf("idea %q has invalid act %d", truncate(idea.Text, 40), idea.Act))
		}
	}
	for act := 1; act <= ActCount; act++ {
		if perAct[act] != expectedPerAct[act] {
			warnings = append(warnings,
				fmt.Sprintf("act %d has %d ideas, expected %d", act, perAct[act], expectedPerAct[act]))
			break
		}
	}

	return warnings
}

// Derive fills in the computed fields on every idea: approximate clip
// duration from the word count, and relative position from the idea's
// slot in the overall list.
func Derive(ideas []KeyIdea) {
	for i := range ideas {
		ideas[i].Duration = approxDuration(ideas[i].Text)
		ideas[i].RelativePosition = (float64(i) + 0.5) / float64(len(ideas))
	}
}

// approxDuration estimates speaking time for a quote, clamped to the
// clip duration bounds.
func approxDuration(text string) float64 {
	d := float64(len(strings.Fields(text))) / wordsPerSecond
	if d < minIdeaDuration {
		return minIdeaDuration
	}
	if d > maxIdeaDuration {
		return maxIdeaDuration
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
