// Package speech defines the port for speech-to-text providers.
package speech

import "context"

// Result is the outcome of one transcription call.
type Result struct {
	Text string
	// Confidence is provider-reported; nil when the provider does not score.
	Confidence *float64
}

// Transcriber converts WAV audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, prompt string) (Result, error)
}
