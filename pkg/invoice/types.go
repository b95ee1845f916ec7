package invoice

import (
	"fmt"
	"time"
)

// PDFType classifies how a PDF's content is represented.
type PDFType string

const (
	PDFTypeDigital   PDFType = "digital"   // machine-readable text layer covers the document
	PDFTypeHybrid    PDFType = "hybrid"    // partial or unreliable text layer
	PDFTypeScanned   PDFType = "scanned"   // page images, no usable text layer
	PDFTypeCorrupted PDFType = "corrupted" // malformed header, zero pages, or unparseable
)

// PDFAnalysis is the classifier's verdict on a single document. It is built
// once per document and never mutated afterwards.
type PDFAnalysis struct {
	Filename            string        `json:"filename"`
	FileSizeBytes       int64         `json:"file_size_bytes"`
	IsValidPDF          bool          `json:"is_valid_pdf"`
	HasTextLayer        bool          `json:"has_text_layer"`
	TextCoverage        float64       `json:"text_coverage"` // [0,1]
	Type                PDFType       `json:"pdf_type"`
	PageCount           int           `json:"page_count"`
	RecommendedMethod   string        `json:"recommended_method"`
	EstimatedProcessing time.Duration `json:"estimated_processing"`
	DetectionConfidence float64       `json:"detection_confidence"` // [0,1]
}

// ExtractionOutcome is what a single extraction method invocation produced.
type ExtractionOutcome struct {
	MethodName string  `json:"method_name"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // [0,1]
	WordCount  int     `json:"word_count"`
	CharCount  int     `json:"char_count"`
	Successful bool    `json:"successful"`
}

// Recommendation is the quality scorer's processing recommendation.
type Recommendation string

const (
	RecommendAutoProcess       Recommendation = "auto_process"
	RecommendReviewRecommended Recommendation = "review_recommended"
	RecommendManualReview      Recommendation = "manual_review"
	RecommendManualProcessing  Recommendation = "manual_processing"
)

// EnhancedExtractionResult is the coordinator's collapsed result for one
// document: the winning text, its confidence after quality adjustment, and
// the structural diagnostics the scorer derived from it.
type EnhancedExtractionResult struct {
	FinalText         string         `json:"final_text"`
	FinalConfidence   float64        `json:"final_confidence"` // [0,1]
	QualityScore      float64        `json:"quality_score"`    // [0,1]
	Recommendation    Recommendation `json:"recommendation"`
	PrimaryMethod     string         `json:"primary_method"`
	AttemptedMethods  []string       `json:"attempted_methods"`
	WordCount         int            `json:"word_count"`
	HasInvoiceKeyword bool           `json:"has_invoice_keywords"`
	HasAmountPattern  bool           `json:"has_amount_patterns"`
	HasDatePattern    bool           `json:"has_date_patterns"`
}

// PatternCategory scopes an extraction pattern to one semantic field.
type PatternCategory string

const (
	CategoryAmount         PatternCategory = "AMOUNT"
	CategorySubtotalAmount PatternCategory = "SUBTOTAL_AMOUNT"
	CategoryTaxAmount      PatternCategory = "TAX_AMOUNT"
	CategoryInvoiceNumber  PatternCategory = "INVOICE_NUMBER"
	CategoryInvoiceDate    PatternCategory = "INVOICE_DATE"
	CategoryDueDate        PatternCategory = "DUE_DATE"
	CategoryDate           PatternCategory = "DATE"
	CategoryVendor         PatternCategory = "VENDOR"
	CategoryCustomer       PatternCategory = "CUSTOMER"
	CategoryEmail          PatternCategory = "EMAIL"
	CategoryCurrency       PatternCategory = "CURRENCY"
)

// PatternFlags control how a pattern's regex is compiled.
type PatternFlags struct {
	CaseInsensitive bool `json:"case_insensitive"`
	Multiline       bool `json:"multiline"`
	DotAll          bool `json:"dot_all"`
}

// ExtractionPattern is one prioritized regex rule from the externally
// persisted pattern library. Within a category, active patterns are tried in
// ascending priority order and the first validated match wins.
type ExtractionPattern struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         PatternCategory `json:"category"`
	Regex            string          `json:"regex"`
	CaptureGroup     int             `json:"capture_group"`     // defaults to 1
	ConfidenceWeight float64         `json:"confidence_weight"` // [0,1]
	Priority         int             `json:"priority"`          // lower = tried first
	Flags            PatternFlags    `json:"flags"`
	DateFormat       string          `json:"date_format,omitempty"`
	ValidationRegex  string          `json:"validation_regex,omitempty"`
	IsActive         bool            `json:"is_active"`
}

// Validate checks that the pattern carries the fields matching needs.
func (p *ExtractionPattern) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("pattern ID cannot be empty")
	}
	if p.Regex == "" {
		return fmt.Errorf("pattern %s has no regex", p.ID)
	}
	if p.ConfidenceWeight < 0 || p.ConfidenceWeight > 1 {
		return fmt.Errorf("pattern %s confidence weight %.2f out of range", p.ID, p.ConfidenceWeight)
	}
	return nil
}

// FieldExtraction is the result of extracting one semantic field. A nil
// Value means no pattern produced a validated match; fields fail
// independently of each other.
type FieldExtraction struct {
	Category    PatternCategory `json:"category"`
	Value       *string         `json:"value"`
	Confidence  float64         `json:"confidence"` // [0,1]
	PatternUsed string          `json:"pattern_used,omitempty"`
}

// Found reports whether the field produced a value.
func (f FieldExtraction) Found() bool { return f.Value != nil }

// ExtractedInvoiceData aggregates the per-field extractions for one document.
type ExtractedInvoiceData struct {
	InvoiceNumber  FieldExtraction `json:"invoice_number"`
	TotalAmount    FieldExtraction `json:"total_amount"`
	SubtotalAmount FieldExtraction `json:"subtotal_amount"`
	TaxAmount      FieldExtraction `json:"tax_amount"`
	InvoiceDate    FieldExtraction `json:"invoice_date"`
	DueDate        FieldExtraction `json:"due_date"`
	VendorName     FieldExtraction `json:"vendor_name"`
	Currency       FieldExtraction `json:"currency"`
	Customer       FieldExtraction `json:"customer"`
	Email          FieldExtraction `json:"email"`
}

// Fields returns every field extraction in a fixed order.
func (d *ExtractedInvoiceData) Fields() []FieldExtraction {
	return []FieldExtraction{
		d.InvoiceNumber, d.TotalAmount, d.SubtotalAmount, d.TaxAmount,
		d.InvoiceDate, d.DueDate, d.VendorName, d.Currency, d.Customer, d.Email,
	}
}

// ExtractedFieldCount counts the fields that produced values.
func (d *ExtractedInvoiceData) ExtractedFieldCount() int {
	count := 0
	for _, f := range d.Fields() {
		if f.Found() {
			count++
		}
	}
	return count
}

// HasRequiredFields reports whether the minimum field set for automated
// handling is present: invoice number, total amount, and at least one of
// invoice date or due date.
func (d *ExtractedInvoiceData) HasRequiredFields() bool {
	return d.InvoiceNumber.Found() &&
		d.TotalAmount.Found() &&
		(d.InvoiceDate.Found() || d.DueDate.Found())
}

// AverageConfidence averages confidence over the fields that produced values.
// Returns 0 when nothing was extracted.
func (d *ExtractedInvoiceData) AverageConfidence() float64 {
	sum, count := 0.0, 0
	for _, f := range d.Fields() {
		if f.Found() {
			sum += f.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Decision is the final automation decision for a document.
type Decision string

const (
	DecisionAutoApprove       Decision = "auto_approve"
	DecisionReviewRecommended Decision = "review_recommended"
	DecisionManualReview      Decision = "manual_review"
	DecisionManualProcessing  Decision = "manual_processing"
)

// ProcessingStatus is the terminal status handed to the persistence layer.
type ProcessingStatus string

const (
	StatusReadyForAutoProcessing  ProcessingStatus = "ready_for_auto_processing"
	StatusReadyForReview          ProcessingStatus = "ready_for_review"
	StatusRequiresManualReview    ProcessingStatus = "requires_manual_review"
	StatusRequiresManualProcess   ProcessingStatus = "requires_manual_processing"
	StatusTextExtractionFailed    ProcessingStatus = "text_extraction_failed"
	StatusDataExtractionFailed    ProcessingStatus = "data_extraction_failed"
	StatusProcessingError         ProcessingStatus = "processing_error"
)

// ProcessingResult is produced exactly once per document.
type ProcessingResult struct {
	DocumentID        string           `json:"document_id"`
	Status            ProcessingStatus `json:"status"`
	Decision          Decision         `json:"decision"`
	OverallConfidence float64          `json:"overall_confidence"` // [0,1]
	ProcessingTime    time.Duration    `json:"processing_time"`
	Message           string           `json:"message,omitempty"`
}

// Document is one ingested invoice document: the raw bytes plus the envelope
// metadata the ingestion source knows about.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Content      []byte    `json:"-"`
	EmailSubject string    `json:"email_subject,omitempty"`
	SenderEmail  string    `json:"sender_email,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// Validate checks that the document can enter the pipeline.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if d.Filename == "" {
		return fmt.Errorf("document filename cannot be empty")
	}
	return nil
}

// Clamp01 clamps v into [0,1]. Confidence and quality values always pass
// through this before leaving a component.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
