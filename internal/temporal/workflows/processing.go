// Package workflows holds the Temporal workflow definitions. The workflow is
// pure orchestration: every classification, extraction, and decision happens
// inside activities so retries and timeouts apply per stage.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// InvoiceProcessingInput is the workflow input for one document.
type InvoiceProcessingInput struct {
	DocumentID   string    `json:"document_id"`
	Filename     string    `json:"filename"`
	Content      []byte    `json:"content"`
	EmailSubject string    `json:"email_subject,omitempty"`
	SenderEmail  string    `json:"sender_email,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// ExtractTextResult carries the coordinator's winning text out of the
// extraction activity.
type ExtractTextResult struct {
	Enhanced invoice.EnhancedExtractionResult `json:"enhanced"`
}

// DecideInput feeds the decision activity.
type DecideInput struct {
	DocumentID      string                        `json:"document_id"`
	TextConfidence  float64                       `json:"text_confidence"`
	Data            invoice.ExtractedInvoiceData  `json:"data"`
}

// DeliverInput hands the terminal result to the delivery activity. RawText
// travels even on partial failure so downstream review keeps the text.
type DeliverInput struct {
	Document invoice.Document             `json:"document"`
	Result   invoice.ProcessingResult     `json:"result"`
	Data     invoice.ExtractedInvoiceData `json:"data"`
	RawText  string                       `json:"raw_text"`
}

// Activity names for registration.
const (
	ClassifyDocumentActivityName = "ClassifyDocumentActivity"
	ExtractTextActivityName      = "ExtractTextActivity"
	ExtractFieldsActivityName    = "ExtractFieldsActivity"
	DecideActivityName           = "DecideActivity"
	DeliverResultActivityName    = "DeliverResultActivity"
)

// InvoiceProcessingWorkflow runs one document through classification, text
// extraction, field extraction, and decision. Stage failures collapse into a
// terminal failure status; the workflow itself only fails when delivery of
// that terminal result fails.
func InvoiceProcessingWorkflow(ctx workflow.Context, input InvoiceProcessingInput) (invoice.ProcessingResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting invoice processing", "documentID", input.DocumentID, "filename", input.Filename)

	started := workflow.Now(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			InitialInterval:        1 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			NonRetryableErrorTypes: []string{"InvalidDocumentError", "*invoice.InvalidDocumentError"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	doc := invoice.Document{
		ID:           input.DocumentID,
		Filename:     input.Filename,
		Content:      input.Content,
		EmailSubject: input.EmailSubject,
		SenderEmail:  input.SenderEmail,
		ReceivedAt:   input.ReceivedAt,
	}

	fail := func(status invoice.ProcessingStatus, message, rawText string, data invoice.ExtractedInvoiceData) (invoice.ProcessingResult, error) {
		result := invoice.ProcessingResult{
			DocumentID:     input.DocumentID,
			Status:         status,
			Decision:       invoice.DecisionManualProcessing,
			Message:        message,
			ProcessingTime: workflow.Now(ctx).Sub(started),
		}
		deliverErr := workflow.ExecuteActivity(ctx, DeliverResultActivityName, DeliverInput{
			Document: doc,
			Result:   result,
			Data:     data,
			RawText:  rawText,
		}).Get(ctx, nil)
		return result, deliverErr
	}

	// Stage 1: classification.
	var analysis invoice.PDFAnalysis
	if err := workflow.ExecuteActivity(ctx, ClassifyDocumentActivityName, input.Content, input.Filename).Get(ctx, &analysis); err != nil {
		logger.Error("Classification failed", "documentID", input.DocumentID, "error", err)
		return fail(invoice.StatusProcessingError, err.Error(), "", invoice.ExtractedInvoiceData{})
	}
	if analysis.Type == invoice.PDFTypeCorrupted {
		logger.Warn("Document is corrupted", "documentID", input.DocumentID)
		return fail(invoice.StatusTextExtractionFailed, "document is not a readable PDF", "", invoice.ExtractedInvoiceData{})
	}

	// Stage 2: text extraction.
	var extracted ExtractTextResult
	if err := workflow.ExecuteActivity(ctx, ExtractTextActivityName, analysis, input.Content).Get(ctx, &extracted); err != nil {
		logger.Error("Text extraction failed", "documentID", input.DocumentID, "error", err)
		return fail(invoice.StatusTextExtractionFailed, err.Error(), "", invoice.ExtractedInvoiceData{})
	}

	// Stage 3: field extraction.
	var data invoice.ExtractedInvoiceData
	if err := workflow.ExecuteActivity(ctx, ExtractFieldsActivityName, extracted.Enhanced.FinalText).Get(ctx, &data); err != nil {
		logger.Error("Field extraction failed", "documentID", input.DocumentID, "error", err)
		return fail(invoice.StatusDataExtractionFailed, err.Error(), extracted.Enhanced.FinalText, invoice.ExtractedInvoiceData{})
	}

	// Stage 4: decision.
	var result invoice.ProcessingResult
	decideInput := DecideInput{
		DocumentID:     input.DocumentID,
		TextConfidence: extracted.Enhanced.FinalConfidence,
		Data:           data,
	}
	if err := workflow.ExecuteActivity(ctx, DecideActivityName, decideInput).Get(ctx, &result); err != nil {
		logger.Error("Decision failed", "documentID", input.DocumentID, "error", err)
		return fail(invoice.StatusProcessingError, err.Error(), extracted.Enhanced.FinalText, data)
	}
	result.ProcessingTime = workflow.Now(ctx).Sub(started)

	// Stage 5: delivery.
	if err := workflow.ExecuteActivity(ctx, DeliverResultActivityName, DeliverInput{
		Document: doc,
		Result:   result,
		Data:     data,
		RawText:  extracted.Enhanced.FinalText,
	}).Get(ctx, nil); err != nil {
		return result, err
	}

	logger.Info("Invoice processing completed",
		"documentID", input.DocumentID,
		"status", string(result.Status),
		"confidence", result.OverallConfidence)
	return result, nil
}
