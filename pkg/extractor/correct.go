package extractor

import (
	"regexp"
	"strings"
)

// OCR confusion repair. All substitutions are token-anchored: a confusion is
// only repaired when the surrounding token makes the intent unambiguous, so
// in-word occurrences ("corn", "clock") are never touched.
var (
	// tokens that are digits except for stray l/o/O glyphs, e.g. "1,l46.48"
	reDigitishToken = regexp.MustCompile(`\b[0-9loO.,]*[0-9][0-9loO.,]*\b`)
	// alphabetic tokens with stray 0/1 glyphs, e.g. "Tota1", "Inv0ice"
	reWordishToken = regexp.MustCompile(`\b[A-Za-z01]+\b`)
	// whole-word glyph splits
	reLoneRN = regexp.MustCompile(`\brn\b`)
	reLoneCL = regexp.MustCompile(`\bcl\b`)
)

// CorrectOCRText repairs the common Tesseract character confusions:
// l↔1 and o↔0 resolved by token context, rn→m and cl→d for standalone words.
func CorrectOCRText(text string) string {
	text = reDigitishToken.ReplaceAllStringFunc(text, func(token string) string {
		token = strings.ReplaceAll(token, "l", "1")
		token = strings.ReplaceAll(token, "o", "0")
		token = strings.ReplaceAll(token, "O", "0")
		return token
	})

	text = reWordishToken.ReplaceAllStringFunc(text, func(token string) string {
		letters := 0
		digits := 0
		for _, r := range token {
			switch {
			case r == '0' || r == '1':
				digits++
			default:
				letters++
			}
		}
		// Repair only when letters clearly dominate; "10" or "R2" style
		// tokens stay as they are.
		if digits == 0 || letters < 2 || letters <= digits {
			return token
		}
		token = strings.ReplaceAll(token, "1", "l")
		token = strings.ReplaceAll(token, "0", "o")
		return token
	})

	text = reLoneRN.ReplaceAllString(text, "m")
	text = reLoneCL.ReplaceAllString(text, "d")

	return text
}
