package extractor

import (
	"regexp"
	"strings"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// invoiceKeywords are the domain terms whose presence makes extracted text
// look like an invoice rather than noise.
var invoiceKeywords = []string{
	"invoice", "rechnung", "facture", "factura", "fattura",
	"total", "subtotal", "amount due", "balance due", "tax",
	"vat", "due date", "payment", "bill to", "ship to",
	"purchase order", "remit", "net 30",
}

var (
	reCurrency = regexp.MustCompile(`[$€£¥]\s?\d|(?i)\b(usd|eur|gbp|cad|aud|chf)\b`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|\b\d+\.\d{2}\b`)
	reDate     = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b|(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`)
)

// accountingHints mark PDF producer metadata from invoicing software.
var accountingHints = []string{
	"quickbooks", "xero", "freshbooks", "sage", "zoho", "netsuite",
	"sap", "wave", "invoice", "billing", "rechnung", "factur",
}

// TextSignals is the structural breakdown of extracted text shared by the
// extractor confidence calculation and the quality scorer. One heuristic,
// two consumers.
type TextSignals struct {
	CharCount          int
	WordCount          int
	LineCount          int
	KeywordHits        int
	HasInvoiceKeywords bool
	HasAmountPattern   bool
	HasCurrencyPattern bool
	HasDatePattern     bool
	TabularLineCount   int
	HasTabularLayout   bool
}

// AnalyzeText computes the signal breakdown for a piece of extracted text.
func AnalyzeText(text string) TextSignals {
	s := TextSignals{
		CharCount: len(text),
		WordCount: len(strings.Fields(text)),
	}

	lower := strings.ToLower(text)
	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			s.KeywordHits++
		}
	}
	s.HasInvoiceKeywords = s.KeywordHits > 0
	s.HasAmountPattern = reAmount.MatchString(text)
	s.HasCurrencyPattern = reCurrency.MatchString(text)
	s.HasDatePattern = reDate.MatchString(text)

	lines := strings.Split(text, "\n")
	s.LineCount = len(lines)
	for _, line := range lines {
		if len(strings.Fields(line)) >= 3 {
			s.TabularLineCount++
		}
	}
	// Three or more multi-column lines suggest an invoice table survived
	// extraction with its structure intact.
	s.HasTabularLayout = s.TabularLineCount >= 3

	return s
}

// ConfidenceBoost converts text signals into the additive confidence reward
// applied on top of an extractor's base confidence.
func (s TextSignals) ConfidenceBoost() float64 {
	boost := 0.0

	switch {
	case s.CharCount > 500:
		boost += 0.2
	case s.CharCount > 100:
		boost += 0.1
	}

	keywordBoost := float64(s.KeywordHits) * 0.02
	if keywordBoost > 0.2 {
		keywordBoost = 0.2
	}
	boost += keywordBoost

	if s.HasCurrencyPattern {
		boost += 0.05
	}
	if s.HasDatePattern {
		boost += 0.03
	}
	if s.HasTabularLayout {
		boost += 0.05
	}
	if s.LineCount > 10 {
		boost += 0.02
	}

	return boost
}

// MetadataBoost rewards PDF document-info hints (creator, producer, title)
// that point at accounting software or invoice content. Capped at 0.15.
func MetadataBoost(fields ...string) float64 {
	boost := 0.0
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, hint := range accountingHints {
			if strings.Contains(lower, hint) {
				boost += 0.08
				break
			}
		}
	}
	if boost > 0.15 {
		boost = 0.15
	}
	return boost
}

// textConfidence is the shared confidence calculation for the digital text
// extractors: a flat base for having produced anything, plus signal rewards,
// clamped to [0,1].
func textConfidence(text string, metadataBoost float64) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}
	const base = 0.3
	signals := AnalyzeText(text)
	return invoice.Clamp01(base + signals.ConfidenceBoost() + metadataBoost)
}
