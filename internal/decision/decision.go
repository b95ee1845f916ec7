// Package decision turns the two confidence signals, validation outcome, and
// required-field presence into the final automation decision and terminal
// status for a document.
package decision

import (
	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Validation summarizes field validation for the decision: hard failures
// block auto-approval; warnings alone still allow the review track.
type Validation struct {
	Passed   bool
	Warnings []string
	Errors   []string
}

// WarningsOnly reports whether validation produced warnings but no errors.
func (v Validation) WarningsOnly() bool {
	return len(v.Errors) == 0 && len(v.Warnings) > 0
}

// Clean reports a validation with neither errors nor warnings. Only clean
// validations qualify for auto-approval.
func (v Validation) Clean() bool {
	return v.Passed && len(v.Warnings) == 0
}

// Decision tier thresholds.
const (
	autoTextConfidence   = 0.9
	autoDataConfidence   = 0.9
	reviewTextConfidence = 0.8
	reviewDataConfidence = 0.7
	manualTextConfidence = 0.6
	manualDataConfidence = 0.5
)

// Data confidence outweighs text confidence: getting the numbers right
// matters more than raw extraction quality.
const (
	textWeight = 0.4
	dataWeight = 0.6
)

// Engine computes decisions. Stateless and safe for concurrent use.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Decide maps the inputs onto a decision tier. The tiers are ordered: for a
// fixed data confidence and validation state, raising text confidence can
// only move the outcome to a more favorable tier. Auto-approval demands a
// clean validation; warnings route to the review track even at high
// confidence.
func (e *Engine) Decide(textConfidence, dataConfidence float64, validation Validation, hasRequiredFields bool) invoice.Decision {
	switch {
	case textConfidence >= autoTextConfidence &&
		dataConfidence >= autoDataConfidence &&
		validation.Clean() &&
		hasRequiredFields:
		return invoice.DecisionAutoApprove
	case textConfidence >= reviewTextConfidence &&
		dataConfidence >= reviewDataConfidence &&
		(validation.Passed || validation.WarningsOnly()):
		return invoice.DecisionReviewRecommended
	case textConfidence >= manualTextConfidence &&
		dataConfidence >= manualDataConfidence:
		return invoice.DecisionManualReview
	default:
		return invoice.DecisionManualProcessing
	}
}

// OverallConfidence blends the two confidence signals.
func (e *Engine) OverallConfidence(textConfidence, dataConfidence float64) float64 {
	return invoice.Clamp01(textWeight*textConfidence + dataWeight*dataConfidence)
}

// StatusFor maps a decision onto its terminal processing status.
func (e *Engine) StatusFor(d invoice.Decision) invoice.ProcessingStatus {
	switch d {
	case invoice.DecisionAutoApprove:
		return invoice.StatusReadyForAutoProcessing
	case invoice.DecisionReviewRecommended:
		return invoice.StatusReadyForReview
	case invoice.DecisionManualReview:
		return invoice.StatusRequiresManualReview
	default:
		return invoice.StatusRequiresManualProcess
	}
}

// Evaluate is the full decision step: tier, status, and blended confidence.
func (e *Engine) Evaluate(textConfidence, dataConfidence float64, validation Validation, hasRequiredFields bool) (invoice.Decision, invoice.ProcessingStatus, float64) {
	d := e.Decide(textConfidence, dataConfidence, validation, hasRequiredFields)
	overall := e.OverallConfidence(textConfidence, dataConfidence)

	log.Debug().
		Float64("text_confidence", textConfidence).
		Float64("data_confidence", dataConfidence).
		Bool("validation_passed", validation.Passed).
		Bool("has_required_fields", hasRequiredFields).
		Str("decision", string(d)).
		Msg("processing decision made")

	return d, e.StatusFor(d), overall
}
