package stt

import "time"

// Result is the outcome of one Transcribe call.
type Result struct {
	// Text is the full recognized transcript.
	Text string

	// Confidence is the provider's overall confidence in Text on a 0 to 100
	// scale. Providers that report per-word or per-segment confidence
	// aggregate it; providers without confidence reporting use a fixed
	// conservative value.
	Confidence int

	// Duration is the audio length as reported by the provider, if known.
	Duration time.Duration

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int
}
