package disambiguate

// Correction methods, recorded on every Change for audit.
const (
	// MethodPattern marks a deterministic regex rewrite.
	MethodPattern = "pattern"

	// MethodPhonetic marks a near-miss match against known terminology.
	MethodPhonetic = "phonetic"

	// MethodLLM marks a context-aware model proposal.
	MethodLLM = "llm"
)

// Change is one correction, either already applied to the transcript or
// carried forward as a pending proposal for human review.
type Change struct {
	// Original is the text as it appeared before the change.
	Original string

	// Corrected is the replacement text.
	Corrected string

	// Position is the byte offset of Original in the text the change was
	// evaluated against. For pending changes this is the offset in the
	// corrected transcript.
	Position int

	// Confidence is 0 to 100.
	Confidence int

	// Method is one of MethodPattern, MethodPhonetic, MethodLLM.
	Method string

	// Reason is a short human-readable rationale.
	Reason string

	// RequiresReview marks proposals that must not be auto-applied.
	RequiresReview bool

	// Applied is true when the change is already reflected in the corrected
	// transcript.
	Applied bool
}

// Result is the disambiguator's output for one transcript.
type Result struct {
	// Original is the input transcript.
	Original string

	// Corrected is the transcript with all applied changes in place.
	Corrected string

	// Changes lists applied changes followed by pending proposals, in the
	// order they were produced.
	Changes []Change

	// Degraded is true when the context-aware tier was unavailable and only
	// deterministic corrections ran.
	Degraded bool
}

// Pending returns the changes awaiting human review.
func (r Result) Pending() []Change {
	var out []Change
	for _, c := range r.Changes {
		if !c.Applied {
			out = append(out, c)
		}
	}
	return out
}
