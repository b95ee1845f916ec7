package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/invopilot/invopilot/internal/decision"
	"github.com/invopilot/invopilot/pkg/invoice"
)

// amountTolerance absorbs rounding in subtotal+tax vs total comparisons.
const amountTolerance = 0.011

// ValidateData runs cross-field consistency checks on extracted invoice
// data. Inconsistencies between fields that were all extracted are warnings;
// a value that cannot possibly be right is an error.
func ValidateData(data *invoice.ExtractedInvoiceData) decision.Validation {
	v := decision.Validation{Passed: true}

	total, totalOK := parseAmount(data.TotalAmount)
	subtotal, subtotalOK := parseAmount(data.SubtotalAmount)
	tax, taxOK := parseAmount(data.TaxAmount)

	if totalOK && total <= 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("total amount %.2f is not positive", total))
	}
	if subtotalOK && taxOK && totalOK {
		if math.Abs(subtotal+tax-total) > amountTolerance {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("subtotal %.2f + tax %.2f does not match total %.2f", subtotal, tax, total))
		}
	}
	if subtotalOK && totalOK && !taxOK && subtotal > total+amountTolerance {
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("subtotal %.2f exceeds total %.2f", subtotal, total))
	}

	invDate, invDateOK := parseDate(data.InvoiceDate)
	dueDate, dueDateOK := parseDate(data.DueDate)
	if invDateOK && dueDateOK && dueDate.Before(invDate) {
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("due date %s precedes invoice date %s",
				dueDate.Format("2006-01-02"), invDate.Format("2006-01-02")))
	}

	if !data.HasRequiredFields() {
		v.Warnings = append(v.Warnings, "required fields incomplete")
	}

	v.Passed = len(v.Errors) == 0
	return v
}

func parseAmount(f invoice.FieldExtraction) (float64, bool) {
	if !f.Found() {
		return 0, false
	}
	raw := strings.ReplaceAll(strings.TrimSpace(*f.Value), ",", "")
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

func parseDate(f invoice.FieldExtraction) (time.Time, bool) {
	if !f.Found() {
		return time.Time{}, false
	}
	// Date fields are normalized to ISO form at extraction time.
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*f.Value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
