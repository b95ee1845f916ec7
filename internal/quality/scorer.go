// Package quality scores extracted text plausibility and blends it with raw
// extractor confidence into the adjusted confidence the decision engine uses.
package quality

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/extractor"
	"github.com/invopilot/invopilot/pkg/invoice"
)

// maxSignalBoost is the heuristic's maximum reachable reward (length 0.2 +
// keywords 0.2 + currency 0.05 + date 0.03 + tabular 0.05 + multiline 0.02).
const maxSignalBoost = 0.55

// Recommendation thresholds over (adjustedConfidence+qualityScore)/2.
const (
	autoProcessThreshold  = 0.9
	reviewThreshold       = 0.7
	manualReviewThreshold = 0.5
)

// Scorer computes text quality scores. Stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the heuristic quality of extracted text in [0,1]. It reuses
// the extractor signal heuristic so confidence rewards and quality scoring
// can never drift apart.
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}
	signals := extractor.AnalyzeText(text)
	return invoice.Clamp01(signals.ConfidenceBoost() / maxSignalBoost)
}

// AdjustConfidence dampens raw extractor confidence by text quality. Quality
// can pull confidence down to half of raw but never lifts it above raw.
func (s *Scorer) AdjustConfidence(rawConfidence, qualityScore float64) float64 {
	return invoice.Clamp01(rawConfidence * (0.5 + 0.5*qualityScore))
}

// Recommend maps the blended score onto a processing recommendation.
func (s *Scorer) Recommend(adjustedConfidence, qualityScore float64) invoice.Recommendation {
	blended := (adjustedConfidence + qualityScore) / 2
	switch {
	case blended >= autoProcessThreshold:
		return invoice.RecommendAutoProcess
	case blended >= reviewThreshold:
		return invoice.RecommendReviewRecommended
	case blended >= manualReviewThreshold:
		return invoice.RecommendManualReview
	default:
		return invoice.RecommendManualProcessing
	}
}

// Enhance collapses a winning extraction outcome into the enhanced result
// handed downstream: quality-adjusted confidence, recommendation, and the
// structural flags review tooling displays.
func (s *Scorer) Enhance(outcome invoice.ExtractionOutcome, attempted []string) invoice.EnhancedExtractionResult {
	signals := extractor.AnalyzeText(outcome.Text)
	qualityScore := s.Score(outcome.Text)
	adjusted := s.AdjustConfidence(outcome.Confidence, qualityScore)

	result := invoice.EnhancedExtractionResult{
		FinalText:         outcome.Text,
		FinalConfidence:   adjusted,
		QualityScore:      qualityScore,
		Recommendation:    s.Recommend(adjusted, qualityScore),
		PrimaryMethod:     outcome.MethodName,
		AttemptedMethods:  attempted,
		WordCount:         signals.WordCount,
		HasInvoiceKeyword: signals.HasInvoiceKeywords,
		HasAmountPattern:  signals.HasAmountPattern,
		HasDatePattern:    signals.HasDatePattern,
	}

	log.Debug().
		Str("method", outcome.MethodName).
		Float64("raw_confidence", outcome.Confidence).
		Float64("quality_score", qualityScore).
		Float64("adjusted_confidence", adjusted).
		Str("recommendation", string(result.Recommendation)).
		Msg("extraction quality scored")

	return result
}
