// Package disambiguate corrects ambiguous transcript fragments in three
// tiers: deterministic pattern rewrites (always run, auto-applied), a
// phonetic near-miss pass against known site terminology (pending proposals
// only), and a context-aware language-model tier steered by the detected
// work context (auto-applied above a confidence threshold, pending below).
//
// Overlap policy: the deterministic tier wins. A phonetic or model proposal
// whose target text no longer exists after deterministic rewriting is
// discarded rather than applied to a stale span.
package disambiguate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/siteproof/sitevoice/internal/classify"
	"github.com/siteproof/sitevoice/pkg/provider/llm"
)

// Option is a functional option for configuring a [Disambiguator].
type Option func(*Disambiguator)

// WithPhoneticPass toggles the phonetic near-miss tier. Enabled by default.
func WithPhoneticPass(enabled bool) Option {
	return func(d *Disambiguator) {
		d.phonetic = enabled
	}
}

// Disambiguator runs the correction tiers over a transcript. It is safe for
// concurrent use.
type Disambiguator struct {
	llm      llm.Provider
	phonetic bool
}

// New returns a [Disambiguator] backed by the given [llm.Provider]. A nil
// provider disables the context-aware tier; results are then marked Degraded.
func New(provider llm.Provider, opts ...Option) *Disambiguator {
	d := &Disambiguator{
		llm:      provider,
		phonetic: true,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Disambiguate corrects transcript using the classification to steer the
// context-aware tier. It never returns an error: when the model tier fails
// the deterministic result is returned with Degraded set.
func (d *Disambiguator) Disambiguate(ctx context.Context, transcript string, cls classify.Classification) Result {
	result := Result{Original: transcript}
	if strings.TrimSpace(transcript) == "" {
		return result
	}

	corrected, applied := applyPatterns(transcript)
	result.Changes = applied

	if d.phonetic {
		result.Changes = append(result.Changes, phoneticPass(corrected)...)
	}

	if d.llm == nil {
		result.Corrected = corrected
		result.Degraded = true
		return result
	}

	proposals, err := contextualPass(ctx, d.llm, corrected, cls)
	if err != nil {
		slog.Warn("context-aware disambiguation unavailable, returning deterministic result", "error", err)
		result.Corrected = corrected
		result.Degraded = true
		return result
	}

	corrected, merged := mergeProposals(corrected, proposals)
	result.Corrected = corrected
	result.Changes = append(result.Changes, merged...)
	return result
}

// mergeProposals applies eligible model proposals to text and returns the
// updated text plus the proposals that survived. A proposal is applied when
// it does not require review; it is kept as pending when it does. Proposals
// whose Original cannot be found in the current text are dropped entirely;
// that span was already rewritten by an earlier tier and the earlier tier's
// result stands.
func mergeProposals(text string, proposals []Change) (string, []Change) {
	var kept []Change
	for _, p := range proposals {
		pos := strings.Index(text, p.Original)
		if pos < 0 {
			slog.Debug("discarding stale proposal",
				"original", p.Original, "suggested", p.Corrected)
			continue
		}
		p.Position = pos

		if p.RequiresReview {
			kept = append(kept, p)
			continue
		}

		text = strings.ReplaceAll(text, p.Original, p.Corrected)
		p.Applied = true
		kept = append(kept, p)
	}
	return text, kept
}
