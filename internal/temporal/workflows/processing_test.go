package workflows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/invopilot/invopilot/pkg/invoice"
)

func workflowInput() InvoiceProcessingInput {
	return InvoiceProcessingInput{
		DocumentID: "doc-1",
		Filename:   "invoice.pdf",
		Content:    []byte("%PDF fake"),
		ReceivedAt: time.Now(),
	}
}

func digitalAnalysis() invoice.PDFAnalysis {
	return invoice.PDFAnalysis{
		Filename:   "invoice.pdf",
		IsValidPDF: true,
		Type:       invoice.PDFTypeDigital,
	}
}

func TestInvoiceProcessingWorkflowHappyPath(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	enhanced := invoice.EnhancedExtractionResult{
		FinalText:       "Invoice INV-1 Total: $864.00",
		FinalConfidence: 0.92,
		PrimaryMethod:   "layout_text",
	}
	decided := invoice.ProcessingResult{
		DocumentID:        "doc-1",
		Status:            invoice.StatusReadyForAutoProcessing,
		Decision:          invoice.DecisionAutoApprove,
		OverallConfidence: 0.93,
	}

	env.OnActivity(ClassifyDocumentActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(digitalAnalysis(), nil)
	env.OnActivity(ExtractTextActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(ExtractTextResult{Enhanced: enhanced}, nil)
	env.OnActivity(ExtractFieldsActivityName, mock.Anything, mock.Anything).
		Return(invoice.ExtractedInvoiceData{}, nil)
	env.OnActivity(DecideActivityName, mock.Anything, mock.Anything).
		Return(decided, nil)
	env.OnActivity(DeliverResultActivityName, mock.Anything, mock.Anything).
		Return(nil)

	env.ExecuteWorkflow(InvoiceProcessingWorkflow, workflowInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result invoice.ProcessingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, invoice.StatusReadyForAutoProcessing, result.Status)
	assert.Equal(t, invoice.DecisionAutoApprove, result.Decision)
	env.AssertExpectations(t)
}

func TestInvoiceProcessingWorkflowCorruptedDocument(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	corrupted := invoice.PDFAnalysis{Filename: "bad.pdf", Type: invoice.PDFTypeCorrupted}

	env.OnActivity(ClassifyDocumentActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(corrupted, nil)
	env.OnActivity(DeliverResultActivityName, mock.Anything, mock.Anything).
		Return(nil)

	env.ExecuteWorkflow(InvoiceProcessingWorkflow, workflowInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result invoice.ProcessingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, invoice.StatusTextExtractionFailed, result.Status)
	assert.Equal(t, invoice.DecisionManualProcessing, result.Decision)

	// Extraction never runs for corrupted input; delivery still happens.
	env.AssertNotCalled(t, ExtractTextActivityName)
	env.AssertCalled(t, DeliverResultActivityName, mock.Anything, mock.Anything)
}

func TestInvoiceProcessingWorkflowExtractionFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.OnActivity(ClassifyDocumentActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(digitalAnalysis(), nil)
	env.OnActivity(ExtractTextActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(ExtractTextResult{}, errors.New("all extraction methods failed"))
	env.OnActivity(DeliverResultActivityName, mock.Anything, mock.Anything).
		Return(nil)

	env.ExecuteWorkflow(InvoiceProcessingWorkflow, workflowInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result invoice.ProcessingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, invoice.StatusTextExtractionFailed, result.Status)
	assert.Equal(t, invoice.DecisionManualProcessing, result.Decision)
	env.AssertNotCalled(t, ExtractFieldsActivityName)
}

func TestInvoiceProcessingWorkflowFieldFailureKeepsText(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	enhanced := invoice.EnhancedExtractionResult{FinalText: "salvaged text", FinalConfidence: 0.8}

	env.OnActivity(ClassifyDocumentActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(digitalAnalysis(), nil)
	env.OnActivity(ExtractTextActivityName, mock.Anything, mock.Anything, mock.Anything).
		Return(ExtractTextResult{Enhanced: enhanced}, nil)
	env.OnActivity(ExtractFieldsActivityName, mock.Anything, mock.Anything).
		Return(invoice.ExtractedInvoiceData{}, errors.New("field extraction blew up"))

	var delivered DeliverInput
	env.OnActivity(DeliverResultActivityName, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, args.Get(1).(interface {
				Get(...interface{}) error
			}).Get(&delivered))
		}).
		Return(nil)

	env.ExecuteWorkflow(InvoiceProcessingWorkflow, workflowInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result invoice.ProcessingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, invoice.StatusDataExtractionFailed, result.Status)

	// The raw text rides along with the failure result.
	assert.Equal(t, "salvaged text", delivered.RawText)
	assert.Equal(t, invoice.StatusDataExtractionFailed, delivered.Result.Status)
}
