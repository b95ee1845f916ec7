package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invopilot/invopilot/pkg/invoice"
)

const richInvoiceText = `ACME Corp Inc.
Invoice No: INV-2024-001
Invoice Date: 03/15/2024
Due Date: 04/14/2024
Bill To: Northwind Traders
Payment terms: net 30

Description        Qty    Price     Amount
Widget assembly     10    50.00     500.00
Support contract     1   250.00     250.00
Handling fee         1    10.00      10.00
Freight              1    40.00      40.00

Subtotal: $800.00
Tax (VAT 8%): $64.00
Total amount due: $864.00
Remit payment to billing@acme.example`

func TestScoreEmptyText(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 0.0, s.Score(""))
	assert.Equal(t, 0.0, s.Score("   \n  "))
}

func TestScoreOrdersByRichness(t *testing.T) {
	s := NewScorer()

	poor := s.Score("a b c")
	medium := s.Score("Invoice total 100.00 due on 03/15/2024")
	rich := s.Score(richInvoiceText)

	assert.Greater(t, medium, poor)
	assert.Greater(t, rich, medium)
	assert.LessOrEqual(t, rich, 1.0)
}

func TestAdjustConfidenceBounds(t *testing.T) {
	s := NewScorer()

	// Perfect quality leaves confidence untouched.
	assert.InDelta(t, 0.8, s.AdjustConfidence(0.8, 1.0), 1e-9)
	// Zero quality halves it.
	assert.InDelta(t, 0.4, s.AdjustConfidence(0.8, 0.0), 1e-9)
	// Never exceeds raw, never leaves [0,1].
	assert.LessOrEqual(t, s.AdjustConfidence(1.0, 1.0), 1.0)
	assert.GreaterOrEqual(t, s.AdjustConfidence(0.0, 1.0), 0.0)
}

func TestAdjustConfidenceMonotonicInQuality(t *testing.T) {
	s := NewScorer()
	prev := -1.0
	for q := 0.0; q <= 1.0; q += 0.1 {
		adjusted := s.AdjustConfidence(0.7, q)
		assert.Greater(t, adjusted, prev)
		prev = adjusted
	}
}

func TestRecommendThresholds(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, invoice.RecommendAutoProcess, s.Recommend(0.95, 0.9))
	assert.Equal(t, invoice.RecommendReviewRecommended, s.Recommend(0.8, 0.7))
	assert.Equal(t, invoice.RecommendManualReview, s.Recommend(0.6, 0.5))
	assert.Equal(t, invoice.RecommendManualProcessing, s.Recommend(0.4, 0.3))

	// Boundary values land in the higher tier.
	assert.Equal(t, invoice.RecommendAutoProcess, s.Recommend(0.9, 0.9))
	assert.Equal(t, invoice.RecommendReviewRecommended, s.Recommend(0.7, 0.7))
	assert.Equal(t, invoice.RecommendManualReview, s.Recommend(0.5, 0.5))
}

func TestEnhanceCarriesDiagnostics(t *testing.T) {
	s := NewScorer()
	outcome := invoice.ExtractionOutcome{
		MethodName: "layout_text",
		Text:       richInvoiceText,
		Confidence: 0.9,
		Successful: true,
	}

	enhanced := s.Enhance(outcome, []string{"layout_text", "generic_text"})

	assert.Equal(t, richInvoiceText, enhanced.FinalText)
	assert.Equal(t, "layout_text", enhanced.PrimaryMethod)
	assert.Equal(t, []string{"layout_text", "generic_text"}, enhanced.AttemptedMethods)
	assert.True(t, enhanced.HasInvoiceKeyword)
	assert.True(t, enhanced.HasAmountPattern)
	assert.True(t, enhanced.HasDatePattern)
	assert.Greater(t, enhanced.WordCount, 30)
	// Adjusted confidence never exceeds the raw confidence.
	assert.LessOrEqual(t, enhanced.FinalConfidence, outcome.Confidence)
	assert.Greater(t, enhanced.QualityScore, 0.8)
}
