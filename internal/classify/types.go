package classify

// ContextType is a fixed category describing what kind of construction
// communication a transcript represents. It steers how the disambiguator
// interprets bare numbers and ambiguous fragments.
type ContextType string

const (
	// MaterialOrder covers ordering, quantities, costs, and suppliers.
	// Numbers likely represent quantities, costs, or specifications.
	MaterialOrder ContextType = "MATERIAL_ORDER"

	// TimeTracking covers work hours, schedules, and deadlines. Numbers
	// likely represent times or hours worked.
	TimeTracking ContextType = "TIME_TRACKING"

	// SafetyReport covers incidents, PPE, hazards, and compliance.
	SafetyReport ContextType = "SAFETY_REPORT"

	// ProgressUpdate covers completion status and milestone progress.
	ProgressUpdate ContextType = "PROGRESS_UPDATE"

	// General is used when no clear primary context emerges.
	General ContextType = "GENERAL"
)

// Valid reports whether ct is one of the defined context types.
func (ct ContextType) Valid() bool {
	switch ct {
	case MaterialOrder, TimeTracking, SafetyReport, ProgressUpdate, General:
		return true
	}
	return false
}

// Alternative is a secondary context candidate with its own confidence.
type Alternative struct {
	Context    ContextType
	Confidence int
}

// Classification is the classifier's verdict for one transcript.
type Classification struct {
	// Context is the detected context type.
	Context ContextType

	// Confidence is 0 to 100. Degraded classifications are capped lower.
	Confidence int

	// KeyIndicators are the words or phrases that drove the decision.
	KeyIndicators []string

	// Alternatives lists secondary context candidates, strongest first.
	Alternatives []Alternative

	// Reasoning is a brief model-supplied explanation. Empty for the
	// keyword fallback.
	Reasoning string

	// Degraded is true when the primary classifier was unavailable and the
	// keyword fallback produced this result.
	Degraded bool
}
