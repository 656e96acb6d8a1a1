// Package review applies a human reviewer's accept/reject/edit decisions to
// a suggestion set, reconstructing the final transcript. Application is a
// pure function of its inputs: the same transcript, suggestions and
// decisions always produce the same result.
package review

import (
	"sort"

	"github.com/siteproof/sitevoice/internal/suggest"
)

// Action is a reviewer's verdict on a single suggestion.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionEdit   Action = "edit"
)

// Decision records one verdict. EditedText is meaningful only when Action is
// [ActionEdit].
type Decision struct {
	SuggestionID string
	Action       Action
	EditedText   string
}

// Change describes one span that was applied or kept during application.
type Change struct {
	SuggestionID string
	Original     string
	Replacement  string
}

// Outcome is the result of applying decisions to a transcript.
type Outcome struct {
	Final    string
	Applied  []Change
	Rejected []Change
}

// Apply replaces accepted suggestion spans in original and returns the final
// transcript. Replacements are anchored on the positions captured at
// generation time against the original text, applied from the highest
// position downward so earlier offsets never shift. A suggestion with no
// decision is rejected; overlapping accepted spans keep only the first one
// applied. Rejecting everything reproduces original exactly.
func Apply(original string, suggestions []suggest.Suggestion, decisions map[string]Decision) Outcome {
	sorted := append([]suggest.Suggestion(nil), suggestions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position > sorted[j].Position })

	out := Outcome{Final: original}
	type span struct{ start, end int }
	var taken []span

	for _, s := range sorted {
		end := s.Position + len(s.Original)
		kept := Change{SuggestionID: s.ID, Original: s.Original, Replacement: s.Original}

		if s.Position < 0 || end > len(original) || original[s.Position:end] != s.Original {
			out.Rejected = append(out.Rejected, kept)
			continue
		}

		d, ok := decisions[s.ID]
		if !ok || d.Action == ActionReject {
			out.Rejected = append(out.Rejected, kept)
			continue
		}

		replacement := s.Suggested
		if d.Action == ActionEdit {
			replacement = d.EditedText
		}

		overlaps := false
		for _, t := range taken {
			if s.Position < t.end && end > t.start {
				overlaps = true
				break
			}
		}
		if overlaps {
			out.Rejected = append(out.Rejected, kept)
			continue
		}

		out.Final = out.Final[:s.Position] + replacement + out.Final[end:]
		taken = append(taken, span{s.Position, end})
		out.Applied = append(out.Applied, Change{
			SuggestionID: s.ID,
			Original:     s.Original,
			Replacement:  replacement,
		})
	}

	return out
}
