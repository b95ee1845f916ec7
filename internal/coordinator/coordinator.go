// Package coordinator selects and executes the extraction strategy for a
// classified document: which methods run, in what order, with what fallbacks,
// and how competing results collapse into one.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/extractor"
	"github.com/invopilot/invopilot/pkg/invoice"
)

// Strategy identifies one extraction plan. Selected once per document.
type Strategy string

const (
	StrategyLayoutPrimary      Strategy = "layout_primary"
	StrategyOCRPrimary         Strategy = "ocr_primary"
	StrategyMultiMethodDigital Strategy = "multi_method_digital"
	StrategyMultiMethodHybrid  Strategy = "multi_method_hybrid"
	StrategyFallbackChain      Strategy = "fallback_chain"
)

// MethodCombined names the synthetic outcome built by merging two methods'
// texts in the hybrid strategy.
const MethodCombined = "combined"

// Minimum word counts for a result to count as having content. OCR output is
// noisier, so its floor is higher.
const (
	minWordsText = 10
	minWordsOCR  = 20
)

// ErrAllMethodsFailed is returned when every method in the chosen strategy
// failed to produce usable text.
var ErrAllMethodsFailed = errors.New("all extraction methods failed")

// Config holds the coordinator settings.
type Config struct {
	MinConfidence  float64       `json:"min_confidence"`
	EnableFallback bool          `json:"enable_fallback"`
	Parallel       bool          `json:"parallel"`
	BranchTimeout  time.Duration `json:"branch_timeout"`
}

// DefaultConfig returns the coordinator defaults.
func DefaultConfig() *Config {
	return &Config{
		MinConfidence:  0.7,
		EnableFallback: true,
		Parallel:       true,
		BranchTimeout:  5 * time.Minute,
	}
}

// Result is the coordinator's collapsed output: one winning outcome plus the
// diagnostics of what was attempted. AttemptedMethods is informational only;
// it never feeds back into the confidence.
type Result struct {
	Outcome          invoice.ExtractionOutcome
	Strategy         Strategy
	AttemptedMethods []string
	LowConfidence    bool
}

// Coordinator runs extraction strategies over the three injected methods.
type Coordinator struct {
	cfg     *Config
	layout  extractor.Method
	generic extractor.Method
	ocr     extractor.Method
}

// New creates a Coordinator from its capabilities.
func New(cfg *Config, layout, generic, ocr extractor.Method) *Coordinator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Coordinator{cfg: cfg, layout: layout, generic: generic, ocr: ocr}
}

// SelectStrategy maps a classification onto a strategy. Digital documents
// always get the multi-method treatment: preserving table structure matters
// more than raw coverage, so layout extraction is always attempted.
func SelectStrategy(analysis invoice.PDFAnalysis) Strategy {
	switch analysis.Type {
	case invoice.PDFTypeDigital:
		return StrategyMultiMethodDigital
	case invoice.PDFTypeHybrid:
		return StrategyMultiMethodHybrid
	case invoice.PDFTypeScanned:
		return StrategyOCRPrimary
	default:
		return StrategyFallbackChain
	}
}

// Extract runs the strategy selected for the analysis and collapses the
// branches into a single result.
func (c *Coordinator) Extract(ctx context.Context, analysis invoice.PDFAnalysis, content []byte) (Result, error) {
	strategy := SelectStrategy(analysis)

	log.Info().
		Str("filename", analysis.Filename).
		Str("strategy", string(strategy)).
		Str("pdf_type", string(analysis.Type)).
		Msg("extraction strategy selected")

	switch strategy {
	case StrategyMultiMethodDigital:
		return c.multiMethodDigital(ctx, content, analysis.Filename)
	case StrategyMultiMethodHybrid:
		return c.multiMethodHybrid(ctx, content, analysis.Filename)
	case StrategyOCRPrimary:
		return c.ocrPrimary(ctx, content, analysis.Filename)
	case StrategyLayoutPrimary:
		return c.layoutPrimary(ctx, content, analysis.Filename)
	default:
		return c.fallbackChain(ctx, content, analysis.Filename)
	}
}

// branchResult carries one branch's outcome across the join.
type branchResult struct {
	outcome invoice.ExtractionOutcome
	err     error
}

// runBranch executes one method under the branch timeout. A branch that
// times out is abandoned: its goroutine eventually writes into the buffered
// channel and exits, and the stale result is never read.
func (c *Coordinator) runBranch(ctx context.Context, method extractor.Method, content []byte, filename string) branchResult {
	branchCtx, cancel := context.WithTimeout(ctx, c.cfg.BranchTimeout)
	defer cancel()

	resultCh := make(chan branchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- branchResult{
					outcome: invoice.ExtractionOutcome{MethodName: method.Name()},
					err:     &invoice.ExtractionMethodError{Method: method.Name(), Message: fmt.Sprintf("panic: %v", r)},
				}
			}
		}()
		outcome, err := method.Extract(branchCtx, content, filename)
		resultCh <- branchResult{outcome: outcome, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			log.Warn().Err(res.err).Str("method", method.Name()).Str("filename", filename).Msg("extraction branch failed")
		}
		return res
	case <-branchCtx.Done():
		err := &invoice.ExtractionTimeoutError{Method: method.Name(), Timeout: c.cfg.BranchTimeout.String()}
		log.Warn().Err(err).Str("filename", filename).Msg("extraction branch timed out")
		return branchResult{outcome: invoice.ExtractionOutcome{MethodName: method.Name()}, err: err}
	}
}

// runPair executes two methods, concurrently when parallel mode is on. The
// sequential path short-circuits: if the first result already clears the
// minimum confidence, the second method never runs.
func (c *Coordinator) runPair(ctx context.Context, first, second extractor.Method, raw []byte, filename string) (branchResult, branchResult, bool) {
	if c.cfg.Parallel {
		firstCh := make(chan branchResult, 1)
		go func() { firstCh <- c.runBranch(ctx, first, raw, filename) }()
		secondRes := c.runBranch(ctx, second, raw, filename)
		firstRes := <-firstCh
		return firstRes, secondRes, false
	}

	firstRes := c.runBranch(ctx, first, raw, filename)
	if firstRes.outcome.Successful && firstRes.outcome.Confidence >= c.cfg.MinConfidence {
		return firstRes, branchResult{}, true
	}
	secondRes := c.runBranch(ctx, second, raw, filename)
	return firstRes, secondRes, false
}

// multiMethodDigital runs layout and generic extraction, preferring layout,
// then generic, then the better of the two marked low-confidence, then OCR.
func (c *Coordinator) multiMethodDigital(ctx context.Context, content []byte, filename string) (Result, error) {
	result := Result{Strategy: StrategyMultiMethodDigital}

	layoutRes, genericRes, skipped := c.runPair(ctx, c.layout, c.generic, content, filename)
	result.AttemptedMethods = append(result.AttemptedMethods, c.layout.Name())
	if !skipped {
		result.AttemptedMethods = append(result.AttemptedMethods, c.generic.Name())
	}

	if layoutRes.outcome.Successful && layoutRes.outcome.Confidence >= c.cfg.MinConfidence {
		result.Outcome = layoutRes.outcome
		return result, nil
	}
	if genericRes.outcome.Successful && genericRes.outcome.Confidence >= c.cfg.MinConfidence {
		result.Outcome = genericRes.outcome
		return result, nil
	}

	// Neither cleared the bar; take the better of whatever succeeded.
	best := layoutRes.outcome
	if genericRes.outcome.Successful && genericRes.outcome.Confidence > best.Confidence {
		best = genericRes.outcome
	}
	if best.Successful {
		result.Outcome = best
		result.LowConfidence = true
		return result, nil
	}

	if c.cfg.EnableFallback {
		ocrRes := c.runBranch(ctx, c.ocr, content, filename)
		result.AttemptedMethods = append(result.AttemptedMethods, c.ocr.Name())
		if ocrRes.outcome.Successful {
			result.Outcome = ocrRes.outcome
			result.LowConfidence = ocrRes.outcome.Confidence < c.cfg.MinConfidence
			return result, nil
		}
	}

	result.Outcome = invoice.ExtractionOutcome{MethodName: c.layout.Name()}
	return result, ErrAllMethodsFailed
}

// multiMethodHybrid runs generic and OCR and combines the texts: one side
// empty takes the other; a 1.5x length advantage wins outright; otherwise
// both texts are kept under a labeled separator.
func (c *Coordinator) multiMethodHybrid(ctx context.Context, content []byte, filename string) (Result, error) {
	result := Result{Strategy: StrategyMultiMethodHybrid}

	var genericRes, ocrRes branchResult
	if c.cfg.Parallel {
		genericCh := make(chan branchResult, 1)
		go func() { genericCh <- c.runBranch(ctx, c.generic, content, filename) }()
		ocrRes = c.runBranch(ctx, c.ocr, content, filename)
		genericRes = <-genericCh
	} else {
		genericRes = c.runBranch(ctx, c.generic, content, filename)
		ocrRes = c.runBranch(ctx, c.ocr, content, filename)
	}
	result.AttemptedMethods = []string{c.generic.Name(), c.ocr.Name()}

	genericText := ""
	if genericRes.outcome.Successful {
		genericText = genericRes.outcome.Text
	}
	ocrText := ""
	if ocrRes.outcome.Successful {
		ocrText = ocrRes.outcome.Text
	}

	switch {
	case genericText == "" && ocrText == "":
		result.Outcome = invoice.ExtractionOutcome{MethodName: MethodCombined}
		return result, ErrAllMethodsFailed
	case ocrText == "":
		result.Outcome = genericRes.outcome
		return result, nil
	case genericText == "":
		result.Outcome = ocrRes.outcome
		return result, nil
	}

	combinedConfidence := combineConfidences(genericRes.outcome.Confidence, ocrRes.outcome.Confidence)

	var text, method string
	switch {
	case float64(len(genericText)) >= 1.5*float64(len(ocrText)):
		text, method = genericText, genericRes.outcome.MethodName
	case float64(len(ocrText)) >= 1.5*float64(len(genericText)):
		text, method = ocrText, ocrRes.outcome.MethodName
	default:
		text = genericText + "\n\n--- OCR EXTRACTION ---\n\n" + ocrText
		method = MethodCombined
	}

	result.Outcome = invoice.ExtractionOutcome{
		MethodName: method,
		Text:       text,
		Confidence: combinedConfidence,
		WordCount:  len(strings.Fields(text)),
		CharCount:  len(text),
		Successful: true,
	}
	return result, nil
}

// combineConfidences weights the stronger branch at 0.7 and the average of
// both at 0.3.
func combineConfidences(a, b float64) float64 {
	max := a
	if b > max {
		max = b
	}
	avg := (a + b) / 2
	return invoice.Clamp01(0.7*max + 0.3*avg)
}

// ocrPrimary runs OCR for scanned documents, falling back to generic text
// extraction in case a thin text layer exists after all.
func (c *Coordinator) ocrPrimary(ctx context.Context, content []byte, filename string) (Result, error) {
	result := Result{Strategy: StrategyOCRPrimary}

	ocrRes := c.runBranch(ctx, c.ocr, content, filename)
	result.AttemptedMethods = append(result.AttemptedMethods, c.ocr.Name())
	if ocrRes.outcome.Successful && ocrRes.outcome.WordCount >= minWordsOCR {
		result.Outcome = ocrRes.outcome
		result.LowConfidence = ocrRes.outcome.Confidence < c.cfg.MinConfidence
		return result, nil
	}

	if c.cfg.EnableFallback {
		genericRes := c.runBranch(ctx, c.generic, content, filename)
		result.AttemptedMethods = append(result.AttemptedMethods, c.generic.Name())
		if genericRes.outcome.Successful && genericRes.outcome.WordCount >= minWordsText {
			result.Outcome = genericRes.outcome
			result.LowConfidence = true
			return result, nil
		}
	}

	// A short OCR result is still better than nothing.
	if ocrRes.outcome.Successful && ocrRes.outcome.WordCount > 0 {
		result.Outcome = ocrRes.outcome
		result.LowConfidence = true
		return result, nil
	}

	result.Outcome = invoice.ExtractionOutcome{MethodName: c.ocr.Name()}
	return result, ErrAllMethodsFailed
}

// layoutPrimary runs layout extraction alone, with the generic extractor as
// its fallback. Not reachable from SelectStrategy's defaults but kept as an
// explicitly selectable strategy.
func (c *Coordinator) layoutPrimary(ctx context.Context, content []byte, filename string) (Result, error) {
	result := Result{Strategy: StrategyLayoutPrimary}

	layoutRes := c.runBranch(ctx, c.layout, content, filename)
	result.AttemptedMethods = append(result.AttemptedMethods, c.layout.Name())
	if layoutRes.outcome.Successful && layoutRes.outcome.Confidence >= c.cfg.MinConfidence {
		result.Outcome = layoutRes.outcome
		return result, nil
	}

	if c.cfg.EnableFallback {
		genericRes := c.runBranch(ctx, c.generic, content, filename)
		result.AttemptedMethods = append(result.AttemptedMethods, c.generic.Name())
		if genericRes.outcome.Successful {
			result.Outcome = genericRes.outcome
			result.LowConfidence = genericRes.outcome.Confidence < c.cfg.MinConfidence
			return result, nil
		}
	}

	if layoutRes.outcome.Successful {
		result.Outcome = layoutRes.outcome
		result.LowConfidence = true
		return result, nil
	}

	result.Outcome = invoice.ExtractionOutcome{MethodName: c.layout.Name()}
	return result, ErrAllMethodsFailed
}

// fallbackChain tries generic then OCR, accepting the first result with
// minimum content. Used when classification couldn't settle on a type.
func (c *Coordinator) fallbackChain(ctx context.Context, content []byte, filename string) (Result, error) {
	result := Result{Strategy: StrategyFallbackChain}

	genericRes := c.runBranch(ctx, c.generic, content, filename)
	result.AttemptedMethods = append(result.AttemptedMethods, c.generic.Name())
	if genericRes.outcome.Successful && genericRes.outcome.WordCount >= minWordsText {
		result.Outcome = genericRes.outcome
		return result, nil
	}

	ocrRes := c.runBranch(ctx, c.ocr, content, filename)
	result.AttemptedMethods = append(result.AttemptedMethods, c.ocr.Name())
	if ocrRes.outcome.Successful && ocrRes.outcome.WordCount >= minWordsOCR {
		result.Outcome = ocrRes.outcome
		return result, nil
	}

	result.Outcome = invoice.ExtractionOutcome{MethodName: c.generic.Name()}
	return result, ErrAllMethodsFailed
}
