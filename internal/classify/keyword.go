package classify

import (
	"math"
	"strings"
)

// keywordRule scores one context type by keyword hits. The score is the hit
// ratio scaled by baseConfidence, so a context with many generic keywords
// needs proportionally more hits to win.
type keywordRule struct {
	context        ContextType
	keywords       []string
	baseConfidence float64
}

var keywordRules = []keywordRule{
	{
		context: MaterialOrder,
		keywords: []string{
			"order", "need", "cost", "price", "cubic", "tonnes", "blocks",
			"concrete", "rebar", "deliver", "supplier",
		},
		baseConfidence: 75,
	},
	{
		context: TimeTracking,
		keywords: []string{
			"hours", "time", "start", "finish", "deadline", "schedule",
			"morning", "afternoon", "o'clock",
		},
		baseConfidence: 70,
	},
	{
		context: SafetyReport,
		keywords: []string{
			"safety", "accident", "ppe", "hazard", "incident", "injury",
			"helmet", "harness", "inspection",
		},
		baseConfidence: 80,
	},
	{
		context: ProgressUpdate,
		keywords: []string{
			"finished", "complete", "done", "ready", "progress", "status",
			"milestone", "update",
		},
		baseConfidence: 65,
	},
}

// generalConfidence is the floor a keyword rule must beat; below it the
// transcript stays GENERAL.
const generalConfidence = 40

// classifyByKeywords is the rule-based fallback used when the LLM classifier
// is unavailable. It never fails.
func classifyByKeywords(transcript string) Classification {
	text := strings.ToLower(transcript)

	best := Classification{
		Context:    General,
		Confidence: generalConfidence,
	}

	for _, rule := range keywordRules {
		var matched []string
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, kw)
			}
		}
		score := float64(len(matched)) / float64(len(rule.keywords)) * rule.baseConfidence
		if score > float64(best.Confidence) {
			best = Classification{
				Context:       rule.context,
				Confidence:    int(math.Round(score)),
				KeyIndicators: matched,
			}
		}
	}
	return best
}
