// Package complete abstracts the text-completion service the pipeline
// delegates correction and extraction to. The core treats the service
// as a stateless, single-shot function; any vendor failure surfaces as
// an error the caller degrades around, never a fatal condition.
package complete

import (
	"context"
	"errors"
)

// Completer is the single contract the correction and extraction code
// depends on.
type Completer interface {
	// Complete sends a system instruction and a user prompt and returns
	// the model's text response.
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrEmptyAPIKey indicates that the API key was not provided.
var ErrEmptyAPIKey = errors.New("API key is required")

// ErrEmptyResponse indicates the API returned no choices.
var ErrEmptyResponse = errors.New("empty response from completion API")
