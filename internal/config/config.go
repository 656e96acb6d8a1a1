// Package config provides the configuration schema, loader, and provider
// registry for the SiteVoice transcription pipeline.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for SiteVoice.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ProvidersConfig declares which provider implementation to use for each
// external call the pipeline makes. Each entry selects a named provider
// registered in the [Registry].
type ProvidersConfig struct {
	Recognition RecognitionConfig `yaml:"recognition"`

	// LLM backs classification and context-aware disambiguation. When
	// unset, both stages run on their deterministic fallbacks.
	LLM ProviderEntry `yaml:"llm"`
}

// RecognitionConfig declares the speech-to-text engine chain. Primary is
// required; Fallback is optional and takes over when the primary's circuit
// opens or its call fails.
type RecognitionConfig struct {
	Primary  ProviderEntry `yaml:"primary"`
	Fallback ProviderEntry `yaml:"fallback"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "assemblyai", "whisper", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o-mini", "whisper-1").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// PipelineConfig tunes the correction stages.
type PipelineConfig struct {
	// Language is the expected speech language code (e.g., "en").
	// Empty enables provider-side language detection where supported.
	Language string `yaml:"language"`

	// Vocabulary lists extra site-specific terms boosted during
	// recognition, merged with the built-in construction vocabulary.
	Vocabulary []string `yaml:"vocabulary"`

	// PhoneticPass toggles the phonetic near-miss tier. Defaults to on.
	PhoneticPass *bool `yaml:"phonetic_pass"`

	// MaxConcurrency bounds how many submissions are processed in
	// parallel in batch mode. Zero means a sensible default.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// PhoneticEnabled resolves the PhoneticPass pointer with its default.
func (p PipelineConfig) PhoneticEnabled() bool {
	return p.PhoneticPass == nil || *p.PhoneticPass
}

// RateLimitConfig bounds how many submissions each caller may start per
// window. Zero Requests disables limiting.
type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	PeriodSeconds int `yaml:"period_seconds"`

	// MaxKeys bounds the number of distinct callers tracked at once.
	// Zero means a built-in default.
	MaxKeys int `yaml:"max_keys"`
}
