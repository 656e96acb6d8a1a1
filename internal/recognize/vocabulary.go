package recognize

// ConstructionVocabulary is the boost list supplied to recognition providers
// to bias decoding toward site terminology. Grouped by the error classes the
// list exists to prevent: misheard time references, safety phrases, material
// grades, and equipment names.
var ConstructionVocabulary = []string{
	// Time references
	"at thirty", "at 8:30", "nine thirty", "ten fifteen", "half past", "quarter past",

	// Safety terms
	"safe working", "PPE", "hazard", "scaffold", "hard hat", "safety harness",
	"high visibility", "method statement", "risk assessment",

	// Materials
	"804 stone", "6F2 aggregate", "DPC", "damp proof course", "formwork", "rebar",
	"reinforcement", "shuttering", "precast", "aggregate",

	// Concrete specifications
	"C25/30", "C30/37", "C35/45", "ready-mix", "cubic metres", "concrete strength",
	"slump test", "vibrator", "poker", "trowel",

	// Equipment
	"pump truck", "concrete mixer", "excavator", "dumper", "telehandler",
	"generator", "compressor", "crane", "hoist",

	// Structural and finishing terms
	"block work", "cavity wall", "lintel", "joist", "purlin", "soffit",
	"fascia", "membrane", "insulation", "plasterboard",
}
