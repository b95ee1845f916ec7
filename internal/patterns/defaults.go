package patterns

import "github.com/invopilot/invopilot/pkg/invoice"

// DefaultPatterns is the built-in invoice pattern library: labeled captures
// at low priority values, looser catch-alls behind them.
func DefaultPatterns() []invoice.ExtractionPattern {
	ci := invoice.PatternFlags{CaseInsensitive: true}
	cim := invoice.PatternFlags{CaseInsensitive: true, Multiline: true}

	return []invoice.ExtractionPattern{
		{
			ID: "amount-total-labeled", Name: "total_amount_labeled",
			Category: invoice.CategoryAmount,
			Regex:    `\b(?:grand\s+total|total\s+due|amount\s+due|balance\s+due|total)\s*:?\s*(?:USD|EUR|GBP)?\s*[$€£]?\s*([0-9][0-9,]*\.\d{2})`,
			CaptureGroup: 1, ConfidenceWeight: 0.95, Priority: 10, Flags: ci,
			ValidationRegex: `^[0-9][0-9,]*\.\d{2}$`, IsActive: true,
		},
		{
			ID: "amount-currency-symbol", Name: "amount_after_currency_symbol",
			Category: invoice.CategoryAmount,
			Regex:    `[$€£]\s*([0-9][0-9,]*\.\d{2})`,
			CaptureGroup: 1, ConfidenceWeight: 0.6, Priority: 50, Flags: ci,
			ValidationRegex: `^[0-9][0-9,]*\.\d{2}$`, IsActive: true,
		},
		{
			ID: "subtotal-labeled", Name: "subtotal_labeled",
			Category: invoice.CategorySubtotalAmount,
			Regex:    `\bsub\s*-?\s*total\s*:?\s*[$€£]?\s*([0-9][0-9,]*\.\d{2})`,
			CaptureGroup: 1, ConfidenceWeight: 0.9, Priority: 10, Flags: ci,
			ValidationRegex: `^[0-9][0-9,]*\.\d{2}$`, IsActive: true,
		},
		{
			ID: "tax-labeled", Name: "tax_labeled",
			Category: invoice.CategoryTaxAmount,
			Regex:    `\b(?:sales\s+tax|tax|vat|gst)\s*(?:\([^)]{0,16}\))?\s*:?\s*[$€£]?\s*([0-9][0-9,]*\.\d{2})`,
			CaptureGroup: 1, ConfidenceWeight: 0.85, Priority: 10, Flags: ci,
			ValidationRegex: `^[0-9][0-9,]*\.\d{2}$`, IsActive: true,
		},
		{
			ID: "invnum-labeled", Name: "invoice_number_labeled",
			Category: invoice.CategoryInvoiceNumber,
			Regex:    `\binvoice\s*(?:no|number|num|#)?\.?\s*:?\s*#?\s*([A-Za-z0-9][A-Za-z0-9/-]{2,24})`,
			CaptureGroup: 1, ConfidenceWeight: 0.95, Priority: 10, Flags: ci,
			ValidationRegex: `^[A-Za-z0-9/-]+$`, IsActive: true,
		},
		{
			ID: "invnum-short", Name: "invoice_number_abbreviated",
			Category: invoice.CategoryInvoiceNumber,
			Regex:    `\binv\.?\s*(?:no\.?|#)?\s*:?\s*([A-Za-z0-9][A-Za-z0-9/-]{2,24})`,
			CaptureGroup: 1, ConfidenceWeight: 0.8, Priority: 30, Flags: ci,
			ValidationRegex: `^[A-Za-z0-9/-]+$`, IsActive: true,
		},
		{
			ID: "invdate-labeled-slash", Name: "invoice_date_labeled_slash",
			Category: invoice.CategoryInvoiceDate,
			Regex:    `\b(?:invoice\s+date|date\s+of\s+issue|issued?)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`,
			CaptureGroup: 1, ConfidenceWeight: 0.9, Priority: 10, Flags: ci,
			DateFormat: "01/02/2006", IsActive: true,
		},
		{
			ID: "invdate-labeled-month", Name: "invoice_date_labeled_month_name",
			Category: invoice.CategoryInvoiceDate,
			Regex:    `\b(?:invoice\s+date|date\s+of\s+issue|issued?)\s*:?\s*([A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`,
			CaptureGroup: 1, ConfidenceWeight: 0.9, Priority: 15, Flags: ci,
			DateFormat: "January 2, 2006", IsActive: true,
		},
		{
			ID: "duedate-labeled", Name: "due_date_labeled",
			Category: invoice.CategoryDueDate,
			Regex:    `\b(?:due\s+date|payment\s+due|due\s+by|due\s+on)\s*:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2})`,
			CaptureGroup: 1, ConfidenceWeight: 0.9, Priority: 10, Flags: ci,
			IsActive: true,
		},
		{
			ID: "date-iso", Name: "date_iso",
			Category: invoice.CategoryDate,
			Regex:    `\b(\d{4}-\d{2}-\d{2})\b`,
			CaptureGroup: 1, ConfidenceWeight: 0.7, Priority: 20,
			DateFormat: "2006-01-02", IsActive: true,
		},
		{
			ID: "date-slash", Name: "date_slash",
			Category: invoice.CategoryDate,
			Regex:    `\b(\d{1,2}/\d{1,2}/\d{4})\b`,
			CaptureGroup: 1, ConfidenceWeight: 0.6, Priority: 40,
			DateFormat: "01/02/2006", IsActive: true,
		},
		{
			ID: "vendor-company-suffix", Name: "vendor_company_suffix",
			Category: invoice.CategoryVendor,
			Regex:    `^\s*([A-Z][A-Za-z0-9 .,&'-]{1,50}(?:Inc|LLC|Ltd|GmbH|Corp|Co)\.?)\s*$`,
			CaptureGroup: 1, ConfidenceWeight: 0.8, Priority: 10, Flags: cim,
			IsActive: true,
		},
		{
			ID: "vendor-from-label", Name: "vendor_from_label",
			Category: invoice.CategoryVendor,
			Regex:    `\bfrom\s*:\s*([A-Z][A-Za-z0-9 .,&'-]{2,50})`,
			CaptureGroup: 1, ConfidenceWeight: 0.6, Priority: 30, Flags: ci,
			IsActive: true,
		},
		{
			ID: "customer-bill-to", Name: "customer_bill_to",
			Category: invoice.CategoryCustomer,
			Regex:    `\bbill(?:ed)?\s+to\s*:?\s*\n?\s*([A-Z][A-Za-z0-9 .,&'-]{2,50})`,
			CaptureGroup: 1, ConfidenceWeight: 0.75, Priority: 10, Flags: ci,
			IsActive: true,
		},
		{
			ID: "email-any", Name: "email_address",
			Category: invoice.CategoryEmail,
			Regex:    `([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`,
			CaptureGroup: 1, ConfidenceWeight: 0.95, Priority: 10,
			ValidationRegex: `^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`, IsActive: true,
		},
		{
			ID: "currency-code", Name: "currency_iso_code",
			Category: invoice.CategoryCurrency,
			Regex:    `\b(USD|EUR|GBP|CAD|AUD|CHF|JPY)\b`,
			CaptureGroup: 1, ConfidenceWeight: 0.9, Priority: 10, Flags: ci,
			IsActive: true,
		},
		{
			ID: "currency-symbol", Name: "currency_symbol",
			Category: invoice.CategoryCurrency,
			Regex:    `([$€£¥])\s*[0-9]`,
			CaptureGroup: 1, ConfidenceWeight: 0.5, Priority: 50,
			IsActive: true,
		},
	}
}
