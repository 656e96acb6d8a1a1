// Package risk aggregates per-suggestion business risk into a single
// assessment and routing decision for a transcript. Assessments are derived
// values, recomputed fresh whenever the suggestion set changes.
package risk

import (
	"github.com/siteproof/sitevoice/internal/suggest"
)

// Route classifies where a transcript goes next. Routes are a flat
// classification recomputed per transcript, not a state machine.
type Route string

const (
	RouteAutoApprove  Route = "AUTO_APPROVE"
	RouteManualReview Route = "MANUAL_REVIEW"
	RouteUrgentReview Route = "URGENT_REVIEW"
)

const (
	// exposureCriticalThreshold escalates overall impact to CRITICAL when
	// the summed financial exposure crosses it, even if no single
	// suggestion is critical on its own. Twice the single-item threshold.
	exposureCriticalThreshold = 2000
	// exposureHighThreshold raises overall impact to at least HIGH.
	exposureHighThreshold = 1000
	// exposureUrgentCeiling forces urgent review regardless of anything
	// else in the assessment.
	exposureUrgentCeiling = 10000
	// urgentScoreThreshold forces urgent review on sheer suggestion
	// volume and severity.
	urgentScoreThreshold = 80

	// quickApprovalSeconds is the review estimate when nothing is flagged.
	quickApprovalSeconds = 10
	// minReviewSeconds is the floor once any review is required.
	minReviewSeconds = 30
	// secondsPerHighRiskItem scales the estimate with flagged items.
	secondsPerHighRiskItem = 15
)

// Assessment summarizes the risk carried by one transcript's suggestion set.
type Assessment struct {
	TotalRiskScore         int
	BusinessImpact         suggest.Risk
	RequiresReview         bool
	EstimatedReviewSeconds int
	// TotalExposure is the summed monetary value of all currency
	// suggestions, in local currency units.
	TotalExposure float64
	Routing       Route
}

// Assess aggregates suggestions into a single assessment and routing
// decision. An empty suggestion set is low impact and auto-approved.
func Assess(suggestions []suggest.Suggestion) Assessment {
	a := Assessment{
		BusinessImpact:         suggest.RiskLow,
		EstimatedReviewSeconds: quickApprovalSeconds,
		Routing:                RouteAutoApprove,
	}

	anyFlagged := false
	safetyEscalation := false
	highRiskCount := 0

	for _, s := range suggestions {
		a.TotalRiskScore += s.BusinessRisk.Weight()
		a.TotalExposure += s.EstimatedValue

		if s.BusinessRisk.Weight() > a.BusinessImpact.Weight() {
			a.BusinessImpact = s.BusinessRisk
		}
		if s.RequiresReview {
			anyFlagged = true
		}
		if s.BusinessRisk == suggest.RiskHigh || s.BusinessRisk == suggest.RiskCritical {
			highRiskCount++
			if s.Type == suggest.TypeSafety {
				safetyEscalation = true
			}
		}
	}

	// Exposure compounds: many sub-critical amounts can still add up to a
	// critical total.
	if a.TotalExposure >= exposureCriticalThreshold {
		a.BusinessImpact = suggest.RiskCritical
	} else if a.TotalExposure > exposureHighThreshold && a.BusinessImpact.Weight() < suggest.RiskHigh.Weight() {
		a.BusinessImpact = suggest.RiskHigh
	}

	a.RequiresReview = anyFlagged ||
		a.BusinessImpact == suggest.RiskHigh ||
		a.BusinessImpact == suggest.RiskCritical

	if a.RequiresReview {
		a.EstimatedReviewSeconds = minReviewSeconds
		if scaled := highRiskCount * secondsPerHighRiskItem; scaled > a.EstimatedReviewSeconds {
			a.EstimatedReviewSeconds = scaled
		}
	}

	switch {
	case safetyEscalation,
		a.TotalExposure >= exposureUrgentCeiling,
		a.TotalRiskScore >= urgentScoreThreshold:
		a.Routing = RouteUrgentReview
	case a.RequiresReview:
		a.Routing = RouteManualReview
	}

	return a
}
