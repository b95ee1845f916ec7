// Package activities implements the per-stage Temporal activities. Each
// activity wraps one core component so stage retries and timeouts are
// handled by the workflow's retry policy.
package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/invopilot/invopilot/internal/coordinator"
	"github.com/invopilot/invopilot/internal/decision"
	"github.com/invopilot/invopilot/internal/patterns"
	"github.com/invopilot/invopilot/internal/pipeline"
	"github.com/invopilot/invopilot/internal/quality"
	"github.com/invopilot/invopilot/internal/temporal/workflows"
	"github.com/invopilot/invopilot/pkg/classifier"
	"github.com/invopilot/invopilot/pkg/invoice"
)

// Activities bundles the pipeline components behind the activity methods.
type Activities struct {
	Classifier *classifier.Classifier
	Coord      *coordinator.Coordinator
	Scorer     *quality.Scorer
	Engine     *patterns.Engine
	Decider    *decision.Engine
	Sink       pipeline.ResultSink
}

// ClassifyDocumentActivity analyzes the raw bytes and returns the PDF verdict.
func (a *Activities) ClassifyDocumentActivity(ctx context.Context, content []byte, filename string) (invoice.PDFAnalysis, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Classifying document", "filename", filename, "contentSize", len(content))

	analysis := a.Classifier.Analyze(content, filename)

	logger.Info("Document classified",
		"filename", filename,
		"pdfType", string(analysis.Type),
		"textCoverage", analysis.TextCoverage)
	return analysis, nil
}

// ExtractTextActivity runs the extraction coordinator and quality scorer.
func (a *Activities) ExtractTextActivity(ctx context.Context, analysis invoice.PDFAnalysis, content []byte) (workflows.ExtractTextResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Extracting text", "filename", analysis.Filename, "pdfType", string(analysis.Type))

	result, err := a.Coord.Extract(ctx, analysis, content)
	if err != nil {
		return workflows.ExtractTextResult{}, fmt.Errorf("failed to extract text (attempted %v): %w", result.AttemptedMethods, err)
	}

	enhanced := a.Scorer.Enhance(result.Outcome, result.AttemptedMethods)
	logger.Info("Text extracted",
		"method", enhanced.PrimaryMethod,
		"confidence", enhanced.FinalConfidence,
		"wordCount", enhanced.WordCount)
	return workflows.ExtractTextResult{Enhanced: enhanced}, nil
}

// ExtractFieldsActivity pulls structured invoice fields from extracted text.
func (a *Activities) ExtractFieldsActivity(ctx context.Context, text string) (invoice.ExtractedInvoiceData, error) {
	logger := activity.GetLogger(ctx)

	data := a.Engine.ExtractInvoiceData(ctx, text)

	logger.Info("Fields extracted",
		"fieldCount", data.ExtractedFieldCount(),
		"hasRequired", data.HasRequiredFields())
	return *data, nil
}

// DecideActivity validates the extracted data and computes the terminal
// decision and status.
func (a *Activities) DecideActivity(ctx context.Context, input workflows.DecideInput) (invoice.ProcessingResult, error) {
	validation := pipeline.ValidateData(&input.Data)
	dec, status, overall := a.Decider.Evaluate(
		input.TextConfidence,
		input.Data.AverageConfidence(),
		validation,
		input.Data.HasRequiredFields(),
	)

	return invoice.ProcessingResult{
		DocumentID:        input.DocumentID,
		Status:            status,
		Decision:          dec,
		OverallConfidence: overall,
	}, nil
}

// DeliverResultActivity hands the terminal result to the configured sink.
func (a *Activities) DeliverResultActivity(ctx context.Context, input workflows.DeliverInput) error {
	if a.Sink == nil {
		return nil
	}
	logger := activity.GetLogger(ctx)
	logger.Info("Delivering result", "documentID", input.Result.DocumentID, "status", string(input.Result.Status))

	doc := input.Document
	data := input.Data
	return a.Sink.Deliver(ctx, &doc, input.Result, &data, input.RawText)
}
