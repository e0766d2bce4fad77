package correct

import (
	"fmt"

	"github.com/alonsovb/sermonkit/internal/format"
)

// ChunkOutcome records how one chunk's correction ended. The explicit
// Corrected flag keeps degraded results distinguishable from verified
// ones at every call site.
type ChunkOutcome struct {
	Index     int    // 1-based chunk index
	Text      string // corrected text, or the original when Corrected is false
	Corrected bool   // true only if the correction passed integrity checks
	Attempts  int    // completion calls spent on this chunk
}

// Stats aggregates character counts for a correction run.
type Stats struct {
	OriginalChars  int
	CorrectedChars int
}

// Delta returns the signed character-count change.
func (s Stats) Delta() int {
	return s.CorrectedChars - s.OriginalChars
}

// PercentChange returns the relative change in percent.
// Zero original length reports 0.
func (s Stats) PercentChange() float64 {
	if s.OriginalChars == 0 {
		return 0
	}
	return float64(s.Delta()) / float64(s.OriginalChars) * 100
}

// String renders the stats for progress output.
func (s Stats) String() string {
	return fmt.Sprintf("original: %d chars, corrected: %d chars, delta: %+d (%s)",
		s.OriginalChars, s.CorrectedChars, s.Delta(), format.Percent(s.PercentChange()))
}
