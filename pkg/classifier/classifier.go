// Package classifier inspects raw PDF bytes and decides how a document's
// content is represented, so the coordinator can pick an extraction strategy.
package classifier

import (
	"bytes"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Words-per-page density thresholds mapped to text coverage.
const (
	densityFull   = 100 // coverage 1.0
	densityHigh   = 30  // coverage 0.8
	densityMedium = 10  // coverage 0.5
)

// Coverage thresholds for the type decision.
const (
	digitalCoverage = 0.8
	hybridCoverage  = 0.3
)

// Recommended method names, matched by the coordinator's strategy selection.
const (
	MethodLayoutText = "layout_text"
	MethodMulti      = "multi_method"
	MethodImageOCR   = "image_ocr"
	MethodManual     = "manual"
)

// Classifier analyzes PDF bytes. It is stateless and safe for concurrent use.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Analyze validates and classifies a document. Malformed input is reported
// as PDFTypeCorrupted with zero confidence rather than returned as an error,
// so a bad document never aborts the pipeline.
func (c *Classifier) Analyze(content []byte, filename string) invoice.PDFAnalysis {
	analysis := invoice.PDFAnalysis{
		Filename:      filename,
		FileSizeBytes: int64(len(content)),
	}

	pageTexts, err := readTextLayer(content)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("PDF failed validation")
		analysis.Type = invoice.PDFTypeCorrupted
		analysis.RecommendedMethod = MethodManual
		analysis.DetectionConfidence = 0.0
		return analysis
	}

	analysis.IsValidPDF = true
	analysis.PageCount = len(pageTexts)

	totalWords := 0
	for _, text := range pageTexts {
		totalWords += len(strings.Fields(text))
	}
	analysis.HasTextLayer = totalWords > 0
	analysis.TextCoverage = coverageFromDensity(totalWords, len(pageTexts))

	analysis.Type = classify(analysis.HasTextLayer, analysis.TextCoverage)
	analysis.RecommendedMethod = recommendMethod(analysis.Type)
	analysis.EstimatedProcessing = estimateProcessing(analysis.FileSizeBytes, analysis.Type)
	analysis.DetectionConfidence = detectionConfidence(analysis.Type, analysis.TextCoverage)

	log.Debug().
		Str("filename", filename).
		Str("pdf_type", string(analysis.Type)).
		Float64("coverage", analysis.TextCoverage).
		Int("pages", analysis.PageCount).
		Msg("PDF classified")

	return analysis
}

// readTextLayer parses the PDF and returns the embedded text per page. The
// pdf library panics on some malformed files, so parsing is fenced off.
func readTextLayer(content []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &invoice.InvalidDocumentError{Message: "PDF parser panic: unreadable structure"}
		}
	}()

	if len(content) < 4 || !bytes.HasPrefix(content, []byte("%PDF")) {
		return nil, &invoice.InvalidDocumentError{Message: "missing %PDF header"}
	}

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &invoice.InvalidDocumentError{Message: "unparseable PDF: " + err.Error()}
	}
	if doc.NumPage() == 0 {
		return nil, &invoice.InvalidDocumentError{Message: "PDF has zero pages"}
	}

	pages = make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// coverageFromDensity maps words-per-page density onto fixed coverage bands.
func coverageFromDensity(totalWords, pageCount int) float64 {
	if pageCount == 0 || totalWords == 0 {
		return 0.0
	}
	wordsPerPage := totalWords / pageCount
	switch {
	case wordsPerPage >= densityFull:
		return 1.0
	case wordsPerPage >= densityHigh:
		return 0.8
	case wordsPerPage >= densityMedium:
		return 0.5
	default:
		return 0.2
	}
}

func classify(hasTextLayer bool, coverage float64) invoice.PDFType {
	if !hasTextLayer {
		return invoice.PDFTypeScanned
	}
	switch {
	case coverage >= digitalCoverage:
		return invoice.PDFTypeDigital
	case coverage >= hybridCoverage:
		return invoice.PDFTypeHybrid
	default:
		return invoice.PDFTypeScanned
	}
}

func recommendMethod(t invoice.PDFType) string {
	switch t {
	case invoice.PDFTypeDigital:
		return MethodLayoutText
	case invoice.PDFTypeHybrid:
		return MethodMulti
	case invoice.PDFTypeScanned:
		return MethodImageOCR
	default:
		return MethodManual
	}
}

// estimateProcessing is a rough budget based on file size, with a larger
// multiplier for OCR since rendering and recognition dominate.
func estimateProcessing(sizeBytes int64, t invoice.PDFType) time.Duration {
	perMB := time.Duration(0)
	switch t {
	case invoice.PDFTypeDigital:
		perMB = 500 * time.Millisecond
	case invoice.PDFTypeHybrid:
		perMB = 4 * time.Second
	case invoice.PDFTypeScanned:
		perMB = 10 * time.Second
	default:
		return 0
	}
	megabytes := float64(sizeBytes) / (1024 * 1024)
	if megabytes < 0.1 {
		megabytes = 0.1
	}
	return time.Duration(float64(perMB) * megabytes)
}

// detectionConfidence starts at 0.7 and moves ±0.1 depending on how cleanly
// the measured coverage sits inside the assigned type's band.
func detectionConfidence(t invoice.PDFType, coverage float64) float64 {
	if t == invoice.PDFTypeCorrupted {
		return 0.0
	}
	confidence := 0.7
	switch t {
	case invoice.PDFTypeDigital:
		if coverage >= 1.0 {
			confidence += 0.1
		} else if coverage < digitalCoverage+0.05 {
			confidence -= 0.1
		}
	case invoice.PDFTypeHybrid:
		// Solidly mid-band coverage is a confident hybrid call.
		if coverage >= 0.4 && coverage <= 0.7 {
			confidence += 0.1
		} else {
			confidence -= 0.1
		}
	case invoice.PDFTypeScanned:
		if coverage <= 0.2 {
			confidence += 0.1
		} else {
			confidence -= 0.1
		}
	}
	return invoice.Clamp01(confidence)
}
