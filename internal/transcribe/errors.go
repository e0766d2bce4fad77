package transcribe

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrNoSegments indicates there are no audio segments to transcribe.
var ErrNoSegments = errors.New("no audio segments to transcribe")
