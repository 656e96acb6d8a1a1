// Package stt defines the Provider interface for batch speech-to-text
// backends.
//
// An STT provider wraps a remote recognition service (e.g., AssemblyAI or an
// OpenAI-compatible Whisper endpoint) and exposes a uniform batch interface:
// one recorded voice note in, one Result out. Job-based providers hide their
// submit/poll cycle behind Transcribe; the supplied context bounds the whole
// operation including polling.
//
// Implementations must be safe for concurrent use — concurrent pipeline runs
// share one Provider instance.
package stt

import "context"

// Audio is one recorded voice note ready for recognition.
type Audio struct {
	// Data is the encoded audio bytes (typically WAV after normalization).
	Data []byte

	// MIMEType is the declared content type of Data.
	MIMEType string
}

// Config carries recognition hints for a Transcribe call.
type Config struct {
	// Language is the BCP-47 language tag for recognition (e.g., "en").
	// An empty string lets the provider auto-detect, if supported.
	Language string

	// Vocabulary is a list of domain phrases to boost in recognition, such as
	// material grades, safety terms, and equipment names. Providers without a
	// boost API may ignore it.
	Vocabulary []string
}

// Provider is the abstraction over any batch STT backend.
//
// Transcribe must respect ctx cancellation and deadline, including during any
// internal upload/poll cycle. The returned Result is non-nil exactly when the
// error is nil.
type Provider interface {
	Transcribe(ctx context.Context, audio Audio, cfg Config) (*Result, error)
}
