package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Recognizer turns a page image into text. The OCR engine binding lives
// behind this interface so extraction logic is testable without Tesseract.
type Recognizer interface {
	// Recognize returns the page text and a confidence in [0,1].
	Recognize(ctx context.Context, pageImage []byte) (string, float64, error)
}

// ImageOCRExtractor renders PDF pages to bitmaps, preprocesses them, and
// recognizes each page with a per-page timeout. Page confidences are
// combined as a word-count-weighted average.
type ImageOCRExtractor struct {
	cfg        *Config
	renderer   Renderer
	recognizer Recognizer
}

// NewImageOCRExtractor wires an OCR extractor from its capabilities.
func NewImageOCRExtractor(cfg *Config, renderer Renderer, recognizer Recognizer) *ImageOCRExtractor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ImageOCRExtractor{cfg: cfg, renderer: renderer, recognizer: recognizer}
}

// Name implements Method.
func (o *ImageOCRExtractor) Name() string { return MethodImageOCR }

// Extract implements Method.
func (o *ImageOCRExtractor) Extract(ctx context.Context, content []byte, filename string) (invoice.ExtractionOutcome, error) {
	pages, err := o.renderer.RenderPages(ctx, content, o.cfg.OCRRenderDPI)
	if err != nil {
		return failedOutcome(MethodImageOCR), &invoice.ExtractionMethodError{Method: MethodImageOCR, Message: fmt.Sprintf("render failed: %v", err)}
	}

	pageTimeout := time.Duration(o.cfg.OCRTimeoutSeconds) * time.Second

	var builder strings.Builder
	weightedConfidence := 0.0
	totalWords := 0
	recognizedPages := 0

	for i, page := range pages {
		text, confidence, err := o.recognizePage(ctx, page, pageTimeout)
		if err != nil {
			log.Warn().Err(err).Str("filename", filename).Int("page", i+1).Msg("page OCR failed, continuing")
			continue
		}
		words := len(strings.Fields(text))
		if builder.Len() > 0 {
			builder.WriteString("\n\f\n")
		}
		builder.WriteString(text)
		weightedConfidence += confidence * float64(words)
		totalWords += words
		recognizedPages++
	}

	if recognizedPages == 0 || builder.Len() == 0 {
		return failedOutcome(MethodImageOCR), &invoice.ExtractionMethodError{Method: MethodImageOCR, Message: "no page produced text"}
	}

	confidence := 0.0
	if totalWords > 0 {
		confidence = weightedConfidence / float64(totalWords)
	}

	text := CorrectOCRText(Cleanup(builder.String(), false))
	return invoice.ExtractionOutcome{
		MethodName: MethodImageOCR,
		Text:       text,
		Confidence: invoice.Clamp01(confidence),
		WordCount:  len(strings.Fields(text)),
		CharCount:  len(text),
		Successful: true,
	}, nil
}

// recognizePage preprocesses and recognizes one page under its own timeout.
// A page that times out is abandoned; its goroutine finishes into a buffered
// channel nobody reads.
func (o *ImageOCRExtractor) recognizePage(ctx context.Context, page []byte, timeout time.Duration) (string, float64, error) {
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type pageResult struct {
		text       string
		confidence float64
		err        error
	}
	resultCh := make(chan pageResult, 1)

	go func() {
		processed := Preprocess(page)
		text, confidence, err := o.recognizer.Recognize(pageCtx, processed)
		resultCh <- pageResult{text: text, confidence: confidence, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.text, res.confidence, res.err
	case <-pageCtx.Done():
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return "", 0, &invoice.ExtractionTimeoutError{Method: MethodImageOCR, Timeout: timeout.String()}
		}
		return "", 0, pageCtx.Err()
	}
}
