package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleInvoiceText = `ACME Corp Inc.
Invoice No: INV-2024-001
Invoice Date: 03/15/2024
Due Date: 04/14/2024

Description        Qty    Price     Amount
Widget assembly     10    50.00     500.00
Support contract     1   250.00     250.00

Subtotal: $750.00
Tax (8%): $60.00
Total: $810.00`

func TestAnalyzeTextSignals(t *testing.T) {
	s := AnalyzeText(sampleInvoiceText)

	assert.True(t, s.HasInvoiceKeywords)
	assert.True(t, s.HasAmountPattern)
	assert.True(t, s.HasCurrencyPattern)
	assert.True(t, s.HasDatePattern)
	assert.True(t, s.HasTabularLayout)
	assert.Greater(t, s.KeywordHits, 2)
	assert.Greater(t, s.WordCount, 20)
}

func TestAnalyzeTextEmpty(t *testing.T) {
	s := AnalyzeText("")

	assert.False(t, s.HasInvoiceKeywords)
	assert.False(t, s.HasAmountPattern)
	assert.False(t, s.HasCurrencyPattern)
	assert.False(t, s.HasDatePattern)
	assert.Equal(t, 0, s.WordCount)
	assert.Equal(t, 0.0, s.ConfidenceBoost())
}

func TestConfidenceBoostKeywordCap(t *testing.T) {
	// Every keyword present: the keyword reward must cap at 0.2.
	text := strings.Join(invoiceKeywords, " ")
	s := AnalyzeText(text)

	withoutKeywords := s
	withoutKeywords.KeywordHits = 0
	diff := s.ConfidenceBoost() - withoutKeywords.ConfidenceBoost()
	assert.InDelta(t, 0.2, diff, 1e-9)
}

func TestConfidenceBoostLengthBands(t *testing.T) {
	short := TextSignals{CharCount: 50}
	medium := TextSignals{CharCount: 200}
	long := TextSignals{CharCount: 1000}

	assert.Equal(t, 0.0, short.ConfidenceBoost())
	assert.InDelta(t, 0.1, medium.ConfidenceBoost(), 1e-9)
	assert.InDelta(t, 0.2, long.ConfidenceBoost(), 1e-9)
}

func TestTextConfidenceBounds(t *testing.T) {
	assert.Equal(t, 0.0, textConfidence("", 0))
	assert.Equal(t, 0.0, textConfidence("   \n\t ", 0))

	// A bare word gets only the base.
	assert.InDelta(t, 0.3, textConfidence("hello", 0), 1e-9)

	// A rich invoice with metadata hints saturates at 1.0, never above.
	rich := sampleInvoiceText + "\n" + strings.Join(invoiceKeywords, " ") +
		strings.Repeat("\nline item detail row", 30)
	assert.Equal(t, 1.0, textConfidence(rich, 0.15))
}

func TestMetadataBoost(t *testing.T) {
	assert.Equal(t, 0.0, MetadataBoost("Microsoft Word", "some title"))
	assert.InDelta(t, 0.08, MetadataBoost("QuickBooks Online", "report"), 1e-9)
	// Multiple hinting fields cap at 0.15.
	assert.InDelta(t, 0.15, MetadataBoost("QuickBooks", "Xero Export", "Invoice 42"), 1e-9)
	// A field with several hints counts once.
	assert.InDelta(t, 0.08, MetadataBoost("QuickBooks invoice billing"), 1e-9)
}
