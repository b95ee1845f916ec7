package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// GenericTextExtractor is the best-effort digital extractor: it pulls the
// embedded text layer page by page and applies cleanup that trades exact
// layout for readable text.
type GenericTextExtractor struct {
	MaxPages int
}

// NewGenericTextExtractor creates a generic extractor with the given page cap.
func NewGenericTextExtractor(maxPages int) *GenericTextExtractor {
	return &GenericTextExtractor{MaxPages: maxPages}
}

// Name implements Method.
func (g *GenericTextExtractor) Name() string { return MethodGenericText }

// Extract implements Method.
func (g *GenericTextExtractor) Extract(ctx context.Context, content []byte, filename string) (invoice.ExtractionOutcome, error) {
	doc, err := openPDF(content)
	if err != nil {
		return failedOutcome(MethodGenericText), &invoice.ExtractionMethodError{Method: MethodGenericText, Message: err.Error()}
	}

	var builder strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if g.MaxPages > 0 && i > g.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return failedOutcome(MethodGenericText), err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug().Err(err).Str("filename", filename).Int("page", i).Msg("page text extraction failed, continuing")
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n\n")
	}

	text := Cleanup(builder.String(), false)
	if text == "" {
		return failedOutcome(MethodGenericText), &invoice.ExtractionMethodError{Method: MethodGenericText, Message: "no extractable text"}
	}

	confidence := textConfidence(text, MetadataBoost(docInfoStrings(doc)...))
	return invoice.ExtractionOutcome{
		MethodName: MethodGenericText,
		Text:       text,
		Confidence: confidence,
		WordCount:  len(strings.Fields(text)),
		CharCount:  len(text),
		Successful: true,
	}, nil
}

var (
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
	reTrailingSpace = regexp.MustCompile(`[ \t]+\n`)
	reSpaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
)

// Cleanup normalizes extracted text. In layout mode only line endings and
// non-printable characters are touched: collapsing internal runs of spaces
// would destroy the column alignment the pattern engine depends on.
func Cleanup(text string, preserveLayout bool) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = stripNonPrintable(text)

	if !preserveLayout {
		text = reTrailingSpace.ReplaceAllString(text, "\n")
		text = reSpaceRuns.ReplaceAllString(text, " ")
		text = reBlankRuns.ReplaceAllString(text, "\n\n")
	}

	return strings.TrimSpace(text)
}

func stripNonPrintable(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, text)
}
