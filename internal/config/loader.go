package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"assemblyai", "whisper"},
	"llm": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	expandProviderEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandProviderEnv resolves ${VAR} references in provider credentials and
// endpoints, so config files can reference secrets without embedding them.
func expandProviderEnv(cfg *Config) {
	for _, e := range []*ProviderEntry{
		&cfg.Providers.Recognition.Primary,
		&cfg.Providers.Recognition.Fallback,
		&cfg.Providers.LLM,
	} {
		e.APIKey = os.ExpandEnv(e.APIKey)
		e.BaseURL = os.ExpandEnv(e.BaseURL)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Providers.Recognition.Primary.Name == "" {
		errs = append(errs, errors.New("providers.recognition.primary.name is required"))
	}

	validateProviderName("stt", cfg.Providers.Recognition.Primary.Name)
	validateProviderName("stt", cfg.Providers.Recognition.Fallback.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)

	if cfg.Providers.Recognition.Fallback.Name == "" {
		slog.Warn("no fallback recognition provider configured; a primary outage fails submissions outright")
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; classification and disambiguation will run degraded")
	}

	if cfg.Pipeline.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_concurrency %d must not be negative", cfg.Pipeline.MaxConcurrency))
	}

	if cfg.RateLimit.Requests < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.requests %d must not be negative", cfg.RateLimit.Requests))
	}
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.PeriodSeconds <= 0 {
		errs = append(errs, errors.New("rate_limit.period_seconds is required when rate_limit.requests is set"))
	}
	if cfg.RateLimit.MaxKeys < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_keys %d must not be negative", cfg.RateLimit.MaxKeys))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
