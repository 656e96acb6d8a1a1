package disambiguate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/siteproof/sitevoice/internal/classify"
	"github.com/siteproof/sitevoice/pkg/provider/llm"
)

const (
	contextualMaxTokens = 800

	// applyThreshold is the minimum model confidence for a context-aware
	// proposal to be applied to the transcript. Anything lower, or anything
	// the model itself flags, is carried forward for human review only.
	applyThreshold = 75
)

const contextualPromptTemplate = `You are an Irish construction terminology disambiguation expert.

Context: %s
Focus: %s
Number interpretation: %s

Your task is to disambiguate ambiguous terms in construction transcriptions.

Key rules:
1. Incomplete times like "at 8": material orders suggest delivery times ("at 8:00" or "at 8:30"); time tracking suggests full clock format
2. Construction terms: "engine protection" means "edge protection", "ground forest lab" means "ground floor slab", "safe farming" means "safe working"
3. Numbers without units in material contexts need unit specification
4. Do NOT change currency symbols or monetary amounts; those are reviewed separately
5. Be conservative. Only suggest changes you are confident about, and set requiresHumanReview true whenever a change could alter the meaning of quantities, times, or costs

Return JSON:
{
  "changes": [
    {
      "original": "exact text to replace",
      "suggested": "improved text",
      "confidence": 85,
      "reasoning": "brief explanation",
      "requiresHumanReview": false
    }
  ]
}`

// contextHints tailors the prompt per detected context.
type contextHints struct {
	focus   string
	numbers string
}

func hintsFor(ct classify.ContextType) contextHints {
	switch ct {
	case classify.MaterialOrder:
		return contextHints{
			focus:   "quantities, costs, specifications, delivery details",
			numbers: "likely quantities or prices, require units for clarity",
		}
	case classify.TimeTracking:
		return contextHints{
			focus:   "work hours, schedules, deadlines, time formats",
			numbers: "likely times or durations, standardize format",
		}
	case classify.SafetyReport:
		return contextHints{
			focus:   "equipment names, incident details, compliance codes",
			numbers: "likely counts or severity levels",
		}
	case classify.ProgressUpdate:
		return contextHints{
			focus:   "completion status, milestones, remaining work",
			numbers: "likely percentages or quantities",
		}
	default:
		return contextHints{
			focus:   "general construction terminology",
			numbers: "context unclear, be conservative",
		}
	}
}

// contextualResponse is the expected JSON shape from the model.
type contextualResponse struct {
	Changes []struct {
		Original            string `json:"original"`
		Suggested           string `json:"suggested"`
		Confidence          int    `json:"confidence"`
		Reasoning           string `json:"reasoning"`
		RequiresHumanReview bool   `json:"requiresHumanReview"`
	} `json:"changes"`
}

// contextualPass asks the model for context-specific corrections. Proposals
// are returned unapplied; the orchestrator decides which to apply. A non-nil
// error means the tier is unavailable (network, parse failure) and the
// pipeline continues degraded.
func contextualPass(ctx context.Context, provider llm.Provider, text string, cls classify.Classification) ([]Change, error) {
	hints := hintsFor(cls.Context)

	resp, err := provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(contextualPromptTemplate, cls.Context, hints.focus, hints.numbers),
		Prompt: fmt.Sprintf(
			"Transcription (%s context):\n%q\n\nDisambiguate ambiguous terms considering the Irish construction context and provide specific replacements.",
			cls.Context, text),
		Temperature:  0.1,
		MaxTokens:    contextualMaxTokens,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("disambiguate: contextual tier: %w", err)
	}

	var r contextualResponse
	if err := json.Unmarshal([]byte(stripMarkdown(resp.Content)), &r); err != nil {
		return nil, fmt.Errorf("disambiguate: parse contextual response: %w", err)
	}

	var changes []Change
	for _, c := range r.Changes {
		if c.Original == "" || c.Original == c.Suggested {
			continue
		}
		conf := c.Confidence
		if conf <= 0 {
			conf = 70
		}
		changes = append(changes, Change{
			Original:       c.Original,
			Corrected:      c.Suggested,
			Confidence:     conf,
			Method:         MethodLLM,
			Reason:         c.Reasoning,
			RequiresReview: c.RequiresHumanReview || conf < applyThreshold,
		})
	}
	return changes, nil
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
