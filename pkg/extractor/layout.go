package extractor

import (
	"context"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Row grouping tolerance in points. Text fragments whose baselines sit
// within this distance are treated as the same visual line.
const rowTolerance = 2.0

// LayoutTextExtractor reconstructs the page's visual layout from positioned
// text fragments. Column gaps become runs of spaces, so multi-column invoice
// tables keep the whitespace structure the regex patterns anchor on.
type LayoutTextExtractor struct {
	MaxPages int
}

// NewLayoutTextExtractor creates a layout-preserving extractor.
func NewLayoutTextExtractor(maxPages int) *LayoutTextExtractor {
	return &LayoutTextExtractor{MaxPages: maxPages}
}

// Name implements Method.
func (l *LayoutTextExtractor) Name() string { return MethodLayoutText }

// Extract implements Method.
func (l *LayoutTextExtractor) Extract(ctx context.Context, content []byte, filename string) (invoice.ExtractionOutcome, error) {
	doc, err := openPDF(content)
	if err != nil {
		return failedOutcome(MethodLayoutText), &invoice.ExtractionMethodError{Method: MethodLayoutText, Message: err.Error()}
	}

	var builder strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if l.MaxPages > 0 && i > l.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return failedOutcome(MethodLayoutText), err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := assemblePage(page)
		if err != nil {
			log.Debug().Err(err).Str("filename", filename).Int("page", i).Msg("layout assembly failed, continuing")
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n\n")
	}

	text := Cleanup(builder.String(), true)
	if text == "" {
		return failedOutcome(MethodLayoutText), &invoice.ExtractionMethodError{Method: MethodLayoutText, Message: "no extractable text"}
	}

	confidence := textConfidence(text, MetadataBoost(docInfoStrings(doc)...))
	return invoice.ExtractionOutcome{
		MethodName: MethodLayoutText,
		Text:       text,
		Confidence: confidence,
		WordCount:  len(strings.Fields(text)),
		CharCount:  len(text),
		Successful: true,
	}, nil
}

// assemblePage orders a page's text fragments into rows by baseline and
// reinserts horizontal gaps as space runs.
func assemblePage(page pdf.Page) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &invoice.InvalidDocumentError{Message: "PDF content stream panic"}
		}
	}()

	fragments := page.Content().Text
	if len(fragments) == 0 {
		return "", nil
	}

	rows := groupRows(fragments)

	var builder strings.Builder
	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
		builder.WriteString(renderRow(row))
		builder.WriteByte('\n')
	}
	return builder.String(), nil
}

// groupRows buckets fragments by baseline Y and returns rows top-to-bottom
// (PDF coordinates grow upward).
func groupRows(fragments []pdf.Text) [][]pdf.Text {
	sorted := make([]pdf.Text, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]pdf.Text
	var current []pdf.Text
	currentY := 0.0
	for _, frag := range sorted {
		if len(current) == 0 || currentY-frag.Y <= rowTolerance {
			if len(current) == 0 {
				currentY = frag.Y
			}
			current = append(current, frag)
			continue
		}
		rows = append(rows, current)
		current = []pdf.Text{frag}
		currentY = frag.Y
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}
	return rows
}

// renderRow joins one row's fragments, converting horizontal gaps into space
// runs sized by an approximate character width so columns stay aligned.
func renderRow(row []pdf.Text) string {
	var builder strings.Builder
	cursor := row[0].X
	for _, frag := range row {
		charWidth := frag.FontSize * 0.5
		if charWidth <= 0 {
			charWidth = 5.0
		}
		gap := frag.X - cursor
		if gap > charWidth {
			spaces := int(gap / charWidth)
			if spaces > 80 {
				spaces = 80
			}
			builder.WriteString(strings.Repeat(" ", spaces))
		}
		builder.WriteString(frag.S)
		cursor = frag.X + frag.W
	}
	return strings.TrimRight(builder.String(), " ")
}
