package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopilot/invopilot/pkg/invoice"
)

func testDocument() *invoice.Document {
	return &invoice.Document{
		ID:         "doc-123",
		Filename:   "invoice.pdf",
		Content:    []byte("%PDF fake"),
		ReceivedAt: time.Now(),
	}
}

func TestDeliverWritesRecordAndText(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	total := "864.00"
	data := &invoice.ExtractedInvoiceData{
		TotalAmount: invoice.FieldExtraction{Value: &total, Confidence: 0.9},
	}
	result := invoice.ProcessingResult{
		DocumentID: "doc-123",
		Status:     invoice.StatusReadyForReview,
		Decision:   invoice.DecisionReviewRecommended,
	}

	require.NoError(t, store.Deliver(context.Background(), testDocument(), result, data, "Total: $864.00"))

	record, err := store.Load("doc-123")
	require.NoError(t, err)
	assert.Equal(t, "doc-123", record.Document.ID)
	assert.Equal(t, invoice.StatusReadyForReview, record.Result.Status)
	require.True(t, record.Data.TotalAmount.Found())
	assert.Equal(t, "864.00", *record.Data.TotalAmount.Value)
	assert.Equal(t, "doc-123.txt", record.TextFile)

	text, err := os.ReadFile(filepath.Join(dir, "doc-123.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Total: $864.00", string(text))
}

func TestDeliverWithoutTextSkipsTextFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	result := invoice.ProcessingResult{
		DocumentID: "doc-123",
		Status:     invoice.StatusTextExtractionFailed,
		Decision:   invoice.DecisionManualProcessing,
	}
	require.NoError(t, store.Deliver(context.Background(), testDocument(), result, &invoice.ExtractedInvoiceData{}, ""))

	record, err := store.Load("doc-123")
	require.NoError(t, err)
	assert.Empty(t, record.TextFile)
	_, err = os.Stat(filepath.Join(dir, "doc-123.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileStoreRejectsEmptyRoot(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
