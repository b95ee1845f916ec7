// Package patterns extracts typed invoice fields from raw text by walking a
// prioritized, category-partitioned library of regex rules. Within a
// category the first validated match wins: priority order is a hard
// short-circuit, never a ranking among candidates.
package patterns

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Quality multiplier rewards applied on top of a pattern's confidence weight.
const (
	boundaryBonus      = 0.1
	lengthBonus        = 0.05
	highPriorityBonus  = 0.1 // priority <= 10
	midPriorityBonus   = 0.05
	highPriorityCutoff = 10
	midPriorityCutoff  = 50
	minReasonableLen   = 4
	maxReasonableLen   = 49
)

// dateCategories get date parsing applied to the captured value.
var dateCategories = map[invoice.PatternCategory]bool{
	invoice.CategoryInvoiceDate: true,
	invoice.CategoryDueDate:     true,
	invoice.CategoryDate:        true,
}

// fallbackDateLayouts are tried in order when a pattern declares no date
// format or its declared format fails.
var fallbackDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"02.01.2006",
	"01-02-2006",
	"2006-01-02",
}

// Engine matches the pattern library against extracted text. Safe for
// concurrent use; compiled programs are shared through the cache.
type Engine struct {
	repo  Repository
	cache *regexCache
}

// NewEngine creates an Engine over a pattern repository.
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo, cache: newRegexCache()}
}

// Invalidate drops all compiled patterns. Wire it to the external
// patterns-changed signal; never poll.
func (e *Engine) Invalidate() {
	e.cache.invalidate()
	log.Debug().Msg("pattern cache invalidated")
}

// CachedPatternCount reports how many compiled patterns the cache holds.
func (e *Engine) CachedPatternCount() int {
	return e.cache.size()
}

// ExtractField extracts one semantic field, trying the given categories as
// an ordered fallback list: the first category producing any validated match
// wins, and within a category the first matching pattern by priority wins.
func (e *Engine) ExtractField(ctx context.Context, text string, categories ...invoice.PatternCategory) invoice.FieldExtraction {
	for _, category := range categories {
		active, err := e.repo.FindActiveByCategory(ctx, category)
		if err != nil {
			log.Warn().Err(err).Str("category", string(category)).Msg("pattern lookup failed")
			continue
		}
		for i := range active {
			pattern := &active[i]
			if field, ok := e.tryPattern(pattern, text); ok {
				field.Category = categories[0]
				return field
			}
		}
	}
	return invoice.FieldExtraction{Category: categories[0], Confidence: 0}
}

// tryPattern applies a single pattern. Returns ok=false when the regex does
// not match, the value fails validation, or a date value cannot be parsed —
// all of which advance matching to the next pattern.
func (e *Engine) tryPattern(pattern *invoice.ExtractionPattern, text string) (invoice.FieldExtraction, bool) {
	compiled := e.cache.get(pattern)
	if compiled.compileErr != nil {
		log.Warn().
			Err(compiled.compileErr).
			Str("pattern_id", pattern.ID).
			Str("pattern_name", pattern.Name).
			Msg("pattern excluded: regex does not compile")
		return invoice.FieldExtraction{}, false
	}

	groups := compiled.matcher.FindStringSubmatchIndex(text)
	if groups == nil {
		return invoice.FieldExtraction{}, false
	}

	group := pattern.CaptureGroup
	if group <= 0 {
		group = 1
	}
	if 2*group+1 >= len(groups) || groups[2*group] < 0 {
		return invoice.FieldExtraction{}, false
	}
	value := strings.TrimSpace(text[groups[2*group]:groups[2*group+1]])
	if value == "" {
		return invoice.FieldExtraction{}, false
	}

	if compiled.validator != nil && !compiled.validator.MatchString(value) {
		return invoice.FieldExtraction{}, false
	}

	if dateCategories[pattern.Category] {
		parsed, ok := parseDate(value, pattern.DateFormat)
		if !ok {
			return invoice.FieldExtraction{}, false
		}
		value = parsed.Format("2006-01-02")
	}

	confidence := pattern.ConfidenceWeight * qualityMultiplier(pattern, text, groups[0], groups[1], value)

	return invoice.FieldExtraction{
		Value:       &value,
		Confidence:  invoice.Clamp01(confidence),
		PatternUsed: pattern.Name,
	}, true
}

// qualityMultiplier starts at 1.0 and rewards boundary-aligned matches,
// reasonable value lengths, and high-priority patterns.
func qualityMultiplier(pattern *invoice.ExtractionPattern, text string, matchStart, matchEnd int, value string) float64 {
	multiplier := 1.0

	if boundaryAligned(text, matchStart, matchEnd) {
		multiplier += boundaryBonus
	}
	if len(value) >= minReasonableLen && len(value) <= maxReasonableLen {
		multiplier += lengthBonus
	}
	switch {
	case pattern.Priority <= highPriorityCutoff:
		multiplier += highPriorityBonus
	case pattern.Priority <= midPriorityCutoff:
		multiplier += midPriorityBonus
	}

	return multiplier
}

// boundaryAligned reports whether the match neither starts nor ends inside a
// word.
func boundaryAligned(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		cur, _ := utf8.DecodeRuneInString(text[start:])
		if isWordRune(prev) && isWordRune(cur) {
			return false
		}
	}
	if end < len(text) {
		last, _ := utf8.DecodeLastRuneInString(text[:end])
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(last) && isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// parseDate parses a captured date value: the pattern's declared layout
// first, then the common fallback layouts.
func parseDate(value, declaredLayout string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if declaredLayout != "" {
		if t, err := time.Parse(declaredLayout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractInvoiceData runs field extraction for the full invoice field set.
// Fields are independent: one field finding nothing never blocks another.
func (e *Engine) ExtractInvoiceData(ctx context.Context, text string) *invoice.ExtractedInvoiceData {
	data := &invoice.ExtractedInvoiceData{
		InvoiceNumber:  e.ExtractField(ctx, text, invoice.CategoryInvoiceNumber),
		TotalAmount:    e.ExtractField(ctx, text, invoice.CategoryAmount),
		SubtotalAmount: e.ExtractField(ctx, text, invoice.CategorySubtotalAmount),
		TaxAmount:      e.ExtractField(ctx, text, invoice.CategoryTaxAmount),
		InvoiceDate:    e.ExtractField(ctx, text, invoice.CategoryInvoiceDate, invoice.CategoryDate),
		DueDate:        e.ExtractField(ctx, text, invoice.CategoryDueDate),
		VendorName:     e.ExtractField(ctx, text, invoice.CategoryVendor),
		Currency:       e.ExtractField(ctx, text, invoice.CategoryCurrency),
		Customer:       e.ExtractField(ctx, text, invoice.CategoryCustomer),
		Email:          e.ExtractField(ctx, text, invoice.CategoryEmail),
	}

	log.Debug().
		Int("extracted_fields", data.ExtractedFieldCount()).
		Bool("has_required", data.HasRequiredFields()).
		Msg("field extraction completed")

	return data
}
