//go:build !ocr

package extractor

import (
	"context"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// TesseractRecognizer is the fallback used when the binary is built without
// the ocr tag. It reports OCR as unavailable instead of failing at startup.
type TesseractRecognizer struct {
	Language string
}

// NewTesseractRecognizer creates the fallback recognizer.
func NewTesseractRecognizer(language string) *TesseractRecognizer {
	if language == "" {
		language = "eng"
	}
	return &TesseractRecognizer{Language: language}
}

// Recognize implements Recognizer.
func (t *TesseractRecognizer) Recognize(ctx context.Context, pageImage []byte) (string, float64, error) {
	return "", 0, &invoice.ExtractionMethodError{
		Method:  MethodImageOCR,
		Message: "OCR requires a build with the ocr tag and Tesseract installed (apt install tesseract-ocr)",
	}
}
