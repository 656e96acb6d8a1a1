// Package suggest scans a corrected transcript for known ambiguity classes
// (currency, imperial units, imprecise safety vocabulary) and emits typed
// suggestions carrying a business-risk classification. It runs independently
// of the classifier and disambiguator and never modifies the transcript
// itself; suggestions are resolved later by a human decision.
package suggest

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies the ambiguity class a suggestion addresses.
type Type string

const (
	TypeCurrency    Type = "currency"
	TypeUnits       Type = "units"
	TypeSafety      Type = "safety"
	TypeTerminology Type = "terminology"
	TypeTime        Type = "time"
)

// Valid reports whether t is a known suggestion type.
func (t Type) Valid() bool {
	switch t {
	case TypeCurrency, TypeUnits, TypeSafety, TypeTerminology, TypeTime:
		return true
	}
	return false
}

// Confidence grades how sure the generator is about a suggestion.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Risk grades the real-world cost of a suggestion being wrong if applied
// without review.
type Risk string

const (
	RiskLow      Risk = "LOW"
	RiskMedium   Risk = "MEDIUM"
	RiskHigh     Risk = "HIGH"
	RiskCritical Risk = "CRITICAL"
)

// Weight returns the ordinal score used for risk aggregation.
func (r Risk) Weight() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 3
	case RiskHigh:
		return 7
	case RiskCritical:
		return 10
	}
	return 0
}

// contextWindow is the number of bytes of surrounding text captured on each
// side of a match so a reviewer can judge it without the full transcript.
const contextWindow = 50

// ErrInvalidSuggestion is returned by [New] when the suggestion does not
// reference its source text correctly.
var ErrInvalidSuggestion = errors.New("suggest: invalid suggestion")

// Suggestion is a single proposed replacement. Values are immutable once
// constructed; Position anchors Original in the transcript the suggestion
// was generated from, which disambiguates duplicate occurrences of the same
// substring.
type Suggestion struct {
	ID             string
	Type           Type
	Original       string
	Suggested      string
	Position       int
	Confidence     Confidence
	BusinessRisk   Risk
	RequiresReview bool
	// EstimatedValue is the monetary amount at stake, set for currency
	// suggestions only.
	EstimatedValue float64
	ContextBefore  string
	ContextAfter   string
	Reason         string
}

// New validates s against the transcript it was generated from and fills in
// the review context windows. Original must occur verbatim at Position.
func New(text string, s Suggestion) (Suggestion, error) {
	if !s.Type.Valid() {
		return Suggestion{}, fmt.Errorf("%w: unknown type %q", ErrInvalidSuggestion, s.Type)
	}
	if s.Original == "" {
		return Suggestion{}, fmt.Errorf("%w: empty original", ErrInvalidSuggestion)
	}
	end := s.Position + len(s.Original)
	if s.Position < 0 || end > len(text) || text[s.Position:end] != s.Original {
		return Suggestion{}, fmt.Errorf("%w: %q not found at position %d",
			ErrInvalidSuggestion, s.Original, s.Position)
	}

	start := s.Position - contextWindow
	if start < 0 {
		start = 0
	}
	stop := end + contextWindow
	if stop > len(text) {
		stop = len(text)
	}
	s.ContextBefore = strings.TrimSpace(text[start:s.Position])
	s.ContextAfter = strings.TrimSpace(text[end:stop])
	return s, nil
}
