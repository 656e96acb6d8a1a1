// Package classify determines the work context of a corrected transcript.
//
// The [Classifier] asks an [llm.Provider] to categorize the transcript into
// one of the fixed [ContextType] values, with a keyword-rule fallback when
// the model is unavailable or returns an unparseable response. Classify never
// fails: a degraded result with reduced confidence is always produced, and
// downstream stages route more conservatively on low confidence instead of
// aborting.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siteproof/sitevoice/pkg/provider/llm"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 300

	// degradedPenalty is subtracted from the fallback confidence when the
	// primary classifier errored, with degradedFloor as the minimum.
	degradedPenalty = 20
	degradedFloor   = 30
)

const systemPrompt = `You are a construction context analyzer for Irish construction sites.

Analyze transcriptions and classify them into one of these contexts:

1. MATERIAL_ORDER: Discussions about ordering, quantities, costs, materials, suppliers
   - Key indicators: "order", "need", "cost", quantities with units, material names

2. TIME_TRACKING: Work hours, schedules, deadlines, timing discussions
   - Key indicators: times, "hours", "start", "finish", "deadline", "schedule"

3. SAFETY_REPORT: Safety incidents, PPE, hazards, compliance, equipment issues
   - Key indicators: "safety", "accident", "PPE", "hazard", "incident", "injury"

4. PROGRESS_UPDATE: Work completion, status updates, milestone progress
   - Key indicators: "finished", "complete", "progress", "done", "ready"

5. GENERAL: Mixed conversations or unclear context

Return JSON with:
{
  "contextType": "MATERIAL_ORDER|TIME_TRACKING|SAFETY_REPORT|PROGRESS_UPDATE|GENERAL",
  "confidence": 85,
  "keyIndicators": ["specific words/phrases that indicate this context"],
  "reasoning": "Brief explanation of why this context was chosen",
  "alternativeContexts": [
    {"contextType": "SECONDARY_CONTEXT", "confidence": 25}
  ]
}

Focus on Irish construction terminology and be conservative with confidence scores.`

// llmResponse is the expected JSON structure returned by the model.
type llmResponse struct {
	ContextType   string   `json:"contextType"`
	Confidence    int      `json:"confidence"`
	KeyIndicators []string `json:"keyIndicators"`
	Reasoning     string   `json:"reasoning"`
	Alternatives  []struct {
		ContextType string `json:"contextType"`
		Confidence  int    `json:"confidence"`
	} `json:"alternativeContexts"`
}

// Option is a functional option for configuring a [Classifier].
type Option func(*Classifier)

// WithTemperature sets the sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(c *Classifier) {
		c.temperature = temp
	}
}

// Classifier categorizes transcripts by work context. It is safe for
// concurrent use.
type Classifier struct {
	llm         llm.Provider
	temperature float64
}

// New returns a new [Classifier] backed by the given [llm.Provider]. A nil
// provider is allowed; every call then uses the keyword fallback.
func New(provider llm.Provider, opts ...Option) *Classifier {
	c := &Classifier{
		llm:         provider,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify determines the context of transcript. It never returns an error:
// when the model is unavailable or unparseable the keyword fallback result is
// returned with Degraded set and confidence reduced by degradedPenalty (floor
// degradedFloor).
func (c *Classifier) Classify(ctx context.Context, transcript string) Classification {
	if strings.TrimSpace(transcript) == "" {
		return Classification{Context: General, Confidence: 0}
	}
	if c.llm == nil {
		return degrade(classifyByKeywords(transcript))
	}

	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt: fmt.Sprintf(
			"Analyze this Irish construction site transcription and determine the conversation context:\n\n%q",
			transcript),
		Temperature:  c.temperature,
		MaxTokens:    defaultMaxTokens,
		JSONResponse: true,
	})
	if err != nil {
		slog.Warn("context classifier unavailable, using keyword fallback", "error", err)
		return degrade(classifyByKeywords(transcript))
	}

	cls, parseErr := parseResponse(resp.Content)
	if parseErr != nil {
		slog.Warn("context classifier response unparseable, using keyword fallback", "error", parseErr)
		return degrade(classifyByKeywords(transcript))
	}
	return cls
}

// degrade marks a fallback classification and reduces its confidence.
func degrade(cls Classification) Classification {
	cls.Degraded = true
	cls.Confidence -= degradedPenalty
	if cls.Confidence < degradedFloor {
		cls.Confidence = degradedFloor
	}
	return cls
}

// parseResponse unmarshals the model output. Markdown code fences are
// stripped first; unknown context types collapse to General.
func parseResponse(content string) (Classification, error) {
	var r llmResponse
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &r); err != nil {
		return Classification{}, fmt.Errorf("classify: parse response: %w", err)
	}

	cls := Classification{
		Context:       validContext(r.ContextType),
		Confidence:    clamp(r.Confidence),
		KeyIndicators: r.KeyIndicators,
		Reasoning:     r.Reasoning,
	}
	if cls.Confidence == 0 {
		cls.Confidence = 50
	}
	for _, alt := range r.Alternatives {
		cls.Alternatives = append(cls.Alternatives, Alternative{
			Context:    validContext(alt.ContextType),
			Confidence: clamp(alt.Confidence),
		})
	}
	return cls, nil
}

func validContext(s string) ContextType {
	ct := ContextType(s)
	if !ct.Valid() {
		return General
	}
	return ct
}

func clamp(conf int) int {
	if conf < 0 {
		return 0
	}
	if conf > 100 {
		return 100
	}
	return conf
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
