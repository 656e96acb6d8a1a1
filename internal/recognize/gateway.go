// Package recognize implements the recognition gateway: a fallback group of
// speech-to-text providers with a construction vocabulary boost.
//
// The gateway is the one pipeline stage with no deterministic substitute. If
// every provider fails the submission fails, so the gateway wraps each
// provider in a circuit breaker and reports which engine produced the
// transcript for provenance.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/siteproof/sitevoice/internal/observe"
	"github.com/siteproof/sitevoice/internal/resilience"
	"github.com/siteproof/sitevoice/pkg/provider/stt"
)

// ErrRecognitionFailed is returned when every configured provider has been
// exhausted. It is the only terminal pipeline error; callers present
// UserMessage instead of the wrapped provider details.
var ErrRecognitionFailed = errors.New("speech recognition failed")

// UserMessage is the generic text shown to end users on ErrRecognitionFailed.
// Provider error text never reaches users.
const UserMessage = "Could not process the voice note. Please try again."

// Transcript is the gateway's output: recognized text plus provenance.
type Transcript struct {
	// Text is the recognized transcript.
	Text string

	// Confidence is the winning provider's confidence, 0 to 100.
	Confidence int

	// Engine is the name of the provider that produced Text.
	Engine string

	// Duration is the audio length as reported by the provider.
	Duration time.Duration

	// WordCount is the number of words in Text.
	WordCount int
}

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway)

// WithLanguage sets the recognition language passed to providers.
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(g *Gateway) {
		g.language = lang
	}
}

// WithVocabulary overrides the boost list sent to providers. Defaults to
// ConstructionVocabulary.
func WithVocabulary(vocab []string) Option {
	return func(g *Gateway) {
		g.vocabulary = vocab
	}
}

// WithBreakerConfig tunes the per-provider circuit breakers.
func WithBreakerConfig(cfg resilience.BreakerConfig) Option {
	return func(g *Gateway) {
		g.breakerCfg = cfg
	}
}

// WithMetrics attaches metric instruments. Every provider attempt, including
// failed ones that fall through to the next engine, is counted per engine.
// Defaults to no recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// Gateway routes recognition requests across a primary provider and its
// fallbacks. It is safe for concurrent use once constructed.
type Gateway struct {
	group      *resilience.FallbackGroup[stt.Provider]
	language   string
	vocabulary []string
	breakerCfg resilience.BreakerConfig
	metrics    *observe.Metrics
}

// New creates a Gateway with primary as the first engine tried. Further
// engines are added with AddFallback. primaryName labels the engine in logs
// and provenance.
func New(primaryName string, primary stt.Provider, opts ...Option) *Gateway {
	g := &Gateway{
		language:   "en",
		vocabulary: ConstructionVocabulary,
	}
	for _, o := range opts {
		o(g)
	}
	g.group = resilience.NewFallbackGroup(primaryName, g.instrument(primaryName, primary), g.breakerCfg)
	return g
}

// AddFallback registers a fallback engine tried after all earlier entries.
// Not safe to call concurrently with Recognize.
func (g *Gateway) AddFallback(name string, p stt.Provider) {
	g.group.AddFallback(name, g.instrument(name, p))
}

// instrument wraps p so each Transcribe call increments the provider request
// and error counters under the engine's name.
func (g *Gateway) instrument(name string, p stt.Provider) stt.Provider {
	if g.metrics == nil {
		return p
	}
	return &countedProvider{name: name, inner: p, metrics: g.metrics}
}

type countedProvider struct {
	name    string
	inner   stt.Provider
	metrics *observe.Metrics
}

func (c *countedProvider) Transcribe(ctx context.Context, audio stt.Audio, cfg stt.Config) (*stt.Result, error) {
	res, err := c.inner.Transcribe(ctx, audio, cfg)
	if err != nil {
		c.metrics.RecordProviderRequest(ctx, c.name, "stt", "error")
		c.metrics.RecordProviderError(ctx, c.name, "stt")
		return nil, err
	}
	c.metrics.RecordProviderRequest(ctx, c.name, "stt", "ok")
	return res, nil
}

// Recognize runs the audio through the provider chain and returns the first
// successful transcript. On total failure the returned error wraps
// ErrRecognitionFailed.
func (g *Gateway) Recognize(ctx context.Context, audio stt.Audio) (*Transcript, error) {
	cfg := stt.Config{
		Language:   g.language,
		Vocabulary: g.vocabulary,
	}

	start := time.Now()
	res, engine, err := resilience.ExecuteWithResult(g.group, func(p stt.Provider) (*stt.Result, error) {
		return p.Transcribe(ctx, audio, cfg)
	})
	if err != nil {
		slog.Error("all recognition engines exhausted",
			"engines", g.group.Names(),
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	slog.Info("transcript recognized",
		"engine", engine,
		"confidence", res.Confidence,
		"words", res.WordCount,
		"elapsed", time.Since(start))

	return &Transcript{
		Text:       res.Text,
		Confidence: res.Confidence,
		Engine:     engine,
		Duration:   res.Duration,
		WordCount:  res.WordCount,
	}, nil
}
