package disambiguate

import (
	"math"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticThreshold is the minimum Jaro-Winkler score for a word with a
	// Double Metaphone code overlap to be proposed as a known term.
	phoneticThreshold = 0.90

	// minPhoneticLen skips short tokens; two and three letter words produce
	// too many spurious code collisions.
	minPhoneticLen = 5
)

// canonicalTerms are the site vocabulary words the phonetic pass corrects
// toward. Multi-word mishearings are handled by the deterministic rules;
// this pass catches single-word near misses the recognizer invents.
var canonicalTerms = []string{
	"formwork", "shuttering", "rebar", "reinforcement", "scaffold",
	"telehandler", "excavator", "aggregate", "membrane", "lintel",
	"plasterboard", "insulation", "precast", "screed", "ballast",
}

// phoneticPass scans text for words that sound like a canonical construction
// term but are spelled differently, and proposes them as pending changes.
// Nothing is auto-applied: a phonetic hit is a guess about intent, so every
// proposal carries RequiresReview.
func phoneticPass(text string) []Change {
	var changes []Change

	canonical := make(map[string]struct{}, len(canonicalTerms))
	for _, t := range canonicalTerms {
		canonical[t] = struct{}{}
	}

	offset := 0
	for _, word := range strings.Fields(text) {
		pos := strings.Index(text[offset:], word) + offset
		offset = pos + len(word)

		trimmed := strings.Trim(word, ".,;:!?\"'()")
		lower := strings.ToLower(trimmed)
		if len(lower) < minPhoneticLen {
			continue
		}
		if _, ok := canonical[lower]; ok {
			continue
		}

		term, score := bestPhoneticMatch(lower)
		if term == "" {
			continue
		}

		changes = append(changes, Change{
			Original:       trimmed,
			Corrected:      term,
			Position:       pos + strings.Index(word, trimmed),
			Confidence:     int(math.Round(score * 100)),
			Method:         MethodPhonetic,
			Reason:         "sounds like known term " + quoteTerm(term),
			RequiresReview: true,
		})
	}
	return changes
}

// bestPhoneticMatch returns the canonical term most similar to word, or the
// empty string when nothing clears the threshold. A candidate must share a
// Double Metaphone code with word and beat phoneticThreshold on Jaro-Winkler.
func bestPhoneticMatch(word string) (string, float64) {
	wp, ws := matchr.DoubleMetaphone(word)

	var (
		best      string
		bestScore float64
	)
	for _, term := range canonicalTerms {
		tp, ts := matchr.DoubleMetaphone(term)
		if !codesOverlap(wp, ws, tp, ts) {
			continue
		}
		if score := matchr.JaroWinkler(word, term, false); score >= phoneticThreshold && score > bestScore {
			best, bestScore = term, score
		}
	}
	return best, bestScore
}

// codesOverlap reports whether any non-empty code is shared.
func codesOverlap(a1, a2, b1, b2 string) bool {
	for _, a := range []string{a1, a2} {
		if a == "" {
			continue
		}
		if a == b1 || a == b2 {
			return true
		}
	}
	return false
}

func quoteTerm(term string) string {
	return `"` + term + `"`
}
