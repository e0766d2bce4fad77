package transcribe

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// NewTestTranscriber creates a WhisperTranscriber with a mock transcription client.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *WhisperTranscriber {
	merged := append([]TranscriberOption{withAudioTranscriber(client)}, opts...)
	return NewWhisperTranscriber(nil, merged...)
}

// Function exports for unit testing internal logic.
var (
	ClassifyError    = classifyError
	IsRetryableError = isRetryableError
	MergeResults     = mergeResults
)
