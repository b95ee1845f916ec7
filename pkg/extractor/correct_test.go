package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectOCRTextDigitTokens(t *testing.T) {
	// Letter lookalikes inside numeric tokens become digits.
	assert.Equal(t, "1,146.48", CorrectOCRText("l,146.48"))
	assert.Equal(t, "100.00", CorrectOCRText("1o0.0O"))
	assert.Equal(t, "Total: 810.00", CorrectOCRText("Total: 8lO.00"))
}

func TestCorrectOCRTextWordTokens(t *testing.T) {
	// Digit lookalikes inside words become letters.
	assert.Equal(t, "Invoice", CorrectOCRText("Inv0ice"))
	assert.Equal(t, "Total", CorrectOCRText("T0tal"))
}

func TestCorrectOCRTextLeavesCleanTextAlone(t *testing.T) {
	clean := "Invoice INV-2024-001 Total: $810.00 due 2024-04-14"
	assert.Equal(t, clean, CorrectOCRText(clean))
}

func TestCorrectOCRTextIdempotent(t *testing.T) {
	noisy := "Inv0ice l,146.48 rn T0tal 8lO.00"
	once := CorrectOCRText(noisy)
	assert.Equal(t, once, CorrectOCRText(once))
}

func TestCleanupCollapsesNoise(t *testing.T) {
	raw := "Line one   with   runs\t\t\r\nLine two   \n\n\n\n\nLine three"
	cleaned := Cleanup(raw, false)

	assert.Equal(t, "Line one with runs\nLine two\n\nLine three", cleaned)
}

func TestCleanupPreservesLayout(t *testing.T) {
	raw := "Widget     10     50.00    500.00\r\nSupport     1    250.00    250.00"
	cleaned := Cleanup(raw, true)

	// Column alignment spaces survive; only line endings are normalized.
	assert.Equal(t, "Widget     10     50.00    500.00\nSupport     1    250.00    250.00", cleaned)
}

func TestCleanupStripsNonPrintable(t *testing.T) {
	raw := "Total\x00: \x0b810.00"
	assert.Equal(t, "Total: 810.00", Cleanup(raw, false))
}
