// Package extractor provides the interchangeable text-extraction methods the
// coordinator runs against invoice PDFs: layout-preserving digital
// extraction, best-effort digital extraction, and render-to-image OCR.
package extractor

import (
	"context"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Method names reported in extraction outcomes and diagnostics.
const (
	MethodLayoutText  = "layout_text"
	MethodGenericText = "generic_text"
	MethodImageOCR    = "image_ocr"
)

// Method is one text-extraction technique. Implementations return an outcome
// even on failure (Successful=false, zero confidence) so the coordinator can
// keep diagnostics for branches that produced nothing.
type Method interface {
	Name() string
	Extract(ctx context.Context, content []byte, filename string) (invoice.ExtractionOutcome, error)
}

// Config holds the extraction settings the methods consume. Values are
// loaded by the caller; this package only reads them.
type Config struct {
	OCRRenderDPI      int    `json:"ocr_render_dpi"`
	OCRTimeoutSeconds int    `json:"ocr_timeout_seconds"`
	OCRLanguage       string `json:"ocr_language"`
	MaxPages          int    `json:"max_pages"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OCRRenderDPI:      300,
		OCRTimeoutSeconds: 120,
		OCRLanguage:       "eng",
		MaxPages:          50,
	}
}

func failedOutcome(method string) invoice.ExtractionOutcome {
	return invoice.ExtractionOutcome{MethodName: method, Successful: false}
}
