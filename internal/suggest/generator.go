package suggest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	poundSymbolRE = regexp.MustCompile(`£(\d+(?:,\d{3})*(?:\.\d+)?)`)
	poundWordRE   = regexp.MustCompile(`(?i)\b(\d+(?:,\d{3})*(?:\.\d+)?)\s*pounds?\b`)
	poundsTermRE  = regexp.MustCompile(`(?i)pounds?`)
)

// currencyCriticalThreshold is the single-item amount at which a wrong
// currency suggestion becomes critical.
const currencyCriticalThreshold = 1000

type unitRule struct {
	re      *regexp.Regexp
	convert func(num string) string
	reason  string
	risk    Risk
}

var unitRules = []unitRule{
	{
		re:      regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:feet|ft)\b`),
		convert: func(num string) string { return fmt.Sprintf("%.1f metres", parseAmount(num)*0.3048) },
		reason:  "Convert feet to metres",
		risk:    RiskHigh,
	},
	{
		re:      regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:yards?|yds?)\b`),
		convert: func(num string) string { return fmt.Sprintf("%.1f metres", parseAmount(num)*0.9144) },
		reason:  "Convert yards to metres",
		risk:    RiskHigh,
	},
	{
		re:      regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*inch(?:es)?\b`),
		convert: func(num string) string { return fmt.Sprintf("%.0fmm", parseAmount(num)*25.4) },
		reason:  "Convert inches to millimetres",
		risk:    RiskLow,
	},
	{
		re:      regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*mil\b`),
		convert: func(num string) string { return num + "mm" },
		reason:  "Standardise millimetre abbreviation",
		risk:    RiskLow,
	},
}

type safetyRule struct {
	re        *regexp.Regexp
	suggested string
	reason    string
	risk      Risk
}

var safetyRules = []safetyRule{
	{
		re:        regexp.MustCompile(`(?i)\bppe\b`),
		suggested: "PPE (Personal Protective Equipment)",
		reason:    "Clarify safety equipment abbreviation",
		risk:      RiskHigh,
	},
	{
		re:        regexp.MustCompile(`(?i)\bhard hat\b`),
		suggested: "safety helmet",
		reason:    "Use standard safety equipment terminology",
		risk:      RiskMedium,
	},
	{
		re:        regexp.MustCompile(`(?i)\bsafety boots\b`),
		suggested: "safety footwear",
		reason:    "Standardise safety equipment terms",
		risk:      RiskMedium,
	},
}

// Generate scans text for currency, unit and safety ambiguities and returns
// the suggestions ordered by position in the text. The transcript is never
// modified; every suggestion waits for a human decision or risk routing.
func Generate(text string) []Suggestion {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []Suggestion
	out = append(out, currencySuggestions(text)...)
	out = append(out, unitSuggestions(text)...)
	out = append(out, safetySuggestions(text)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// currencySuggestions flags pound amounts for conversion to euros. The
// suggested replacement swaps the symbol or term only; the numeric amount is
// carried over verbatim. Currency changes always require review.
func currencySuggestions(text string) []Suggestion {
	var out []Suggestion
	n := 0

	for _, m := range poundSymbolRE.FindAllStringSubmatchIndex(text, -1) {
		matched := text[m[0]:m[1]]
		amount := text[m[2]:m[3]]
		value := parseAmount(amount)

		s, err := New(text, Suggestion{
			ID:             fmt.Sprintf("currency-%d", n),
			Type:           TypeCurrency,
			Original:       matched,
			Suggested:      "€" + amount,
			Position:       m[0],
			Confidence:     ConfidenceHigh,
			BusinessRisk:   currencyRisk(value),
			RequiresReview: true,
			EstimatedValue: value,
			Reason:         "Local currency is euro, not pounds sterling",
		})
		if err != nil {
			continue
		}
		out = append(out, s)
		n++
	}

	for _, m := range poundWordRE.FindAllStringSubmatchIndex(text, -1) {
		matched := text[m[0]:m[1]]
		amount := text[m[2]:m[3]]
		value := parseAmount(amount)

		s, err := New(text, Suggestion{
			ID:             fmt.Sprintf("currency-%d", n),
			Type:           TypeCurrency,
			Original:       matched,
			Suggested:      poundsTermRE.ReplaceAllString(matched, "euros"),
			Position:       m[0],
			Confidence:     ConfidenceHigh,
			BusinessRisk:   currencyRisk(value),
			RequiresReview: true,
			EstimatedValue: value,
			Reason:         "Local currency terminology is euros",
		})
		if err != nil {
			continue
		}
		out = append(out, s)
		n++
	}

	return out
}

func currencyRisk(value float64) Risk {
	if value >= currencyCriticalThreshold {
		return RiskCritical
	}
	return RiskHigh
}

func unitSuggestions(text string) []Suggestion {
	var out []Suggestion
	n := 0

	for _, rule := range unitRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			matched := text[m[0]:m[1]]
			num := text[m[2]:m[3]]

			s, err := New(text, Suggestion{
				ID:             fmt.Sprintf("units-%d", n),
				Type:           TypeUnits,
				Original:       matched,
				Suggested:      rule.convert(num),
				Position:       m[0],
				Confidence:     ConfidenceHigh,
				BusinessRisk:   rule.risk,
				RequiresReview: rule.risk == RiskHigh,
				Reason:         rule.reason,
			})
			if err != nil {
				continue
			}
			out = append(out, s)
			n++
		}
	}

	return out
}

// safetySuggestions proposes canonical safety terminology. Safety
// suggestions always require review regardless of confidence.
func safetySuggestions(text string) []Suggestion {
	var out []Suggestion
	n := 0

	for _, rule := range safetyRules {
		for _, m := range rule.re.FindAllStringIndex(text, -1) {
			matched := text[m[0]:m[1]]

			s, err := New(text, Suggestion{
				ID:             fmt.Sprintf("safety-%d", n),
				Type:           TypeSafety,
				Original:       matched,
				Suggested:      rule.suggested,
				Position:       m[0],
				Confidence:     ConfidenceMedium,
				BusinessRisk:   rule.risk,
				RequiresReview: true,
				Reason:         rule.reason,
			})
			if err != nil {
				continue
			}
			out = append(out, s)
			n++
		}
	}

	return out
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
