package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alonsovb/sermonkit/internal/complete"
	"github.com/alonsovb/sermonkit/internal/prompt"
)

// ErrNoIdeas indicates the completion API returned nothing usable.
var ErrNoIdeas = errors.New("no ideas extracted")

// Extractor pulls key ideas out of a corrected transcript via the
// completion API.
type Extractor struct {
	completer complete.Completer
}

// NewExtractor creates an Extractor using the given completer.
func NewExtractor(completer complete.Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract asks the completion API for the seven key ideas of the
// transcript and post-processes the response: recover the JSON array
// from surrounding prose, check the narrative shape, and fill in the
// derived fields.
//
// Shape violations come back as warnings, not errors; only an empty or
// unparseable response fails.
func (e *Extractor) Extract(ctx context.Context, transcript string) ([]KeyIdea, []string, error) {
	raw, err := e.completer.Complete(ctx,
		prompt.IdeaExtractionName.System(),
		prompt.IdeaExtractionName.User()+transcript)
	if err != nil {
		return nil, nil, fmt.Errorf("idea extraction call: %w", err)
	}

	ideas, err := parseResponse(raw)
	if err != nil {
		return nil, nil, err
	}
	if len(ideas) == 0 {
		return nil, nil, ErrNoIdeas
	}

	warnings := Validate(ideas)
	Derive(ideas)
	return ideas, warnings, nil
}

// parseResponse recovers the idea array from a completion response.
// The model is instructed to answer with bare JSON but occasionally
// wraps it in prose or a code fence; recovery tries the bracketed
// span first, then a line scan.
func parseResponse(raw string) ([]KeyIdea, error) {
	if span, ok := bracketSpan(raw); ok {
		var ideas []KeyIdea
		if err := json.Unmarshal([]byte(span), &ideas); err == nil {
			return ideas, nil
		}
	}

	var ideas []KeyIdea
	if err := json.Unmarshal([]byte(scanJSONLines(raw)), &ideas); err != nil {
		return nil, fmt.Errorf("completion response is not an idea array: %w", err)
	}
	return ideas, nil
}

// bracketSpan returns the substring from the first '[' to the last ']'.
func bracketSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// scanJSONLines collects the lines between one that opens the array
// and one that closes it, dropping prose around them.
func scanJSONLines(s string) string {
	var kept []string
	inside := false
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			inside = true
		}
		if inside {
			kept = append(kept, line)
		}
		if strings.HasSuffix(trimmed, "]") {
			inside = false
		}
	}
	return strings.Join(kept, "\n")
}
