package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimeSegment is a time-coded span of transcript text as produced by
// the speech API. Segments are immutable once produced and arrive in
// non-decreasing start order.
type TimeSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the structured output of a transcription run: the full
// text plus its time-coded segments and processing metadata.
type Result struct {
	Text           string        `json:"text"`
	Segments       []TimeSegment `json:"segments"`
	Duration       float64       `json:"duration,omitempty"`
	AudioFile      string        `json:"audio_file,omitempty"`
	VideoFilename  string        `json:"video_filename,omitempty"`
	ProcessingDate string        `json:"processing_date,omitempty"`
	TotalChunks    int           `json:"total_chunks,omitempty"`
}

// LoadResult reads a transcription result from a JSON file.
func LoadResult(path string) (Result, error) {
	var r Result
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified input file
	if err != nil {
		return r, fmt.Errorf("cannot read transcription file: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("cannot parse transcription file %s: %w", path, err)
	}
	return r, nil
}

// SaveResult writes a transcription result as pretty-printed UTF-8 JSON.
func SaveResult(path string, r Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode transcription result: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { // #nosec G306 -- transcript data, not secrets
		return fmt.Errorf("cannot write transcription file: %w", err)
	}
	return nil
}

// PlainText renders the result as the reviewable text document the
// correction core later consumes: a metadata header closed by an '='
// separator line, then the spoken text.
func (r Result) PlainText() string {
	title := r.VideoFilename
	if title == "" {
		title = "Sermón"
	}
	date := r.ProcessingDate
	if date == "" {
		date = time.Now().Format(time.RFC3339)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TRANSCRIPCIÓN: %s\n", title)
	fmt.Fprintf(&b, "Fecha de procesamiento: %s\n", date)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(r.Text))
	b.WriteString("\n")
	return b.String()
}
