package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invopilot/invopilot/pkg/invoice"
)

func passed() Validation {
	return Validation{Passed: true}
}

func warned() Validation {
	return Validation{Passed: true, Warnings: []string{"subtotal mismatch"}}
}

func errored() Validation {
	return Validation{Passed: false, Errors: []string{"total not positive"}}
}

func TestDecideTiers(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name     string
		text     float64
		data     float64
		val      Validation
		required bool
		expected invoice.Decision
	}{
		{"auto approve", 0.95, 0.95, passed(), true, invoice.DecisionAutoApprove},
		{"auto boundary", 0.9, 0.9, passed(), true, invoice.DecisionAutoApprove},
		{"missing required blocks auto", 0.95, 0.95, passed(), false, invoice.DecisionReviewRecommended},
		{"warnings block auto", 0.95, 0.95, warned(), true, invoice.DecisionReviewRecommended},
		{"review tier", 0.85, 0.75, passed(), true, invoice.DecisionReviewRecommended},
		{"review boundary", 0.8, 0.7, warned(), true, invoice.DecisionReviewRecommended},
		{"errors push past review", 0.85, 0.75, errored(), true, invoice.DecisionManualReview},
		{"manual review tier", 0.65, 0.55, passed(), true, invoice.DecisionManualReview},
		{"manual review boundary", 0.6, 0.5, errored(), false, invoice.DecisionManualReview},
		{"manual processing", 0.4, 0.3, passed(), true, invoice.DecisionManualProcessing},
		{"low data sinks it", 0.95, 0.4, passed(), true, invoice.DecisionManualProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Decide(tt.text, tt.data, tt.val, tt.required))
		})
	}
}

func TestDecideMonotonicInTextConfidence(t *testing.T) {
	e := NewEngine()

	rank := map[invoice.Decision]int{
		invoice.DecisionManualProcessing:  0,
		invoice.DecisionManualReview:      1,
		invoice.DecisionReviewRecommended: 2,
		invoice.DecisionAutoApprove:       3,
	}

	prev := -1
	for text := 0.0; text <= 1.0; text += 0.05 {
		d := e.Decide(text, 0.95, passed(), true)
		assert.GreaterOrEqual(t, rank[d], prev, "text confidence %.2f regressed the tier", text)
		prev = rank[d]
	}
}

func TestOverallConfidenceWeighting(t *testing.T) {
	e := NewEngine()

	// 0.4*text + 0.6*data
	assert.InDelta(t, 0.76, e.OverallConfidence(0.7, 0.8), 1e-9)
	assert.InDelta(t, 0.0, e.OverallConfidence(0, 0), 1e-9)
	assert.InDelta(t, 1.0, e.OverallConfidence(1, 1), 1e-9)
	// Data confidence moves the blend more than text confidence.
	assert.Greater(t, e.OverallConfidence(0.5, 1.0), e.OverallConfidence(1.0, 0.5))
}

func TestStatusForMapping(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, invoice.StatusReadyForAutoProcessing, e.StatusFor(invoice.DecisionAutoApprove))
	assert.Equal(t, invoice.StatusReadyForReview, e.StatusFor(invoice.DecisionReviewRecommended))
	assert.Equal(t, invoice.StatusRequiresManualReview, e.StatusFor(invoice.DecisionManualReview))
	assert.Equal(t, invoice.StatusRequiresManualProcess, e.StatusFor(invoice.DecisionManualProcessing))
}

func TestEvaluate(t *testing.T) {
	e := NewEngine()

	d, status, overall := e.Evaluate(0.95, 0.92, passed(), true)

	assert.Equal(t, invoice.DecisionAutoApprove, d)
	assert.Equal(t, invoice.StatusReadyForAutoProcessing, status)
	assert.InDelta(t, 0.932, overall, 1e-9)
}

func TestValidationWarningsOnly(t *testing.T) {
	assert.False(t, passed().WarningsOnly())
	assert.True(t, warned().WarningsOnly())
	assert.False(t, errored().WarningsOnly())
	assert.False(t, Validation{Errors: []string{"e"}, Warnings: []string{"w"}}.WarningsOnly())
}
