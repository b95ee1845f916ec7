//go:build ocr

package extractor

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// TesseractRecognizer recognizes page images with Tesseract via gosseract.
type TesseractRecognizer struct {
	Language             string
	PageSegmentationMode gosseract.PageSegMode
}

// NewTesseractRecognizer creates a recognizer with the given language
// (e.g. "eng", "eng+deu").
func NewTesseractRecognizer(language string) *TesseractRecognizer {
	if language == "" {
		language = "eng"
	}
	return &TesseractRecognizer{
		Language:             language,
		PageSegmentationMode: gosseract.PSM_AUTO,
	}
}

// Recognize implements Recognizer.
func (t *TesseractRecognizer) Recognize(ctx context.Context, pageImage []byte) (string, float64, error) {
	if len(pageImage) == 0 {
		return "", 0, &invoice.ExtractionMethodError{Method: MethodImageOCR, Message: "empty page image"}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return "", 0, fmt.Errorf("failed to set OCR language %q: %w", t.Language, err)
	}
	if err := client.SetPageSegMode(t.PageSegmentationMode); err != nil {
		return "", 0, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(pageImage); err != nil {
		return "", 0, fmt.Errorf("failed to set OCR image data: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("OCR recognition failed: %w", err)
	}

	// Tesseract reports per-word confidence on a 0-100 scale; average it.
	confidence := 0.5
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		sum := 0.0
		for _, box := range boxes {
			sum += box.Confidence
		}
		confidence = sum / float64(len(boxes)) / 100.0
	}

	return text, invoice.Clamp01(confidence), nil
}
