// Package storage persists processing results. The file store writes one
// JSON record and one raw-text file per document under a results directory;
// downstream review tooling reads from there.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Record is the persisted shape for one processed document.
type Record struct {
	Document    documentMeta                 `json:"document"`
	Result      invoice.ProcessingResult     `json:"result"`
	Data        invoice.ExtractedInvoiceData `json:"data"`
	TextFile    string                       `json:"text_file,omitempty"`
	PersistedAt time.Time                    `json:"persisted_at"`
}

// documentMeta drops the raw bytes from the persisted document envelope.
type documentMeta struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	EmailSubject string    `json:"email_subject,omitempty"`
	SenderEmail  string    `json:"sender_email,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// FileStore implements result delivery onto the local filesystem.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates the results directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("results directory cannot be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating results directory %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Deliver writes <id>.json and, when text was extracted, <id>.txt. The text
// is written even for partial failures so review can work from it.
func (s *FileStore) Deliver(ctx context.Context, doc *invoice.Document, result invoice.ProcessingResult, data *invoice.ExtractedInvoiceData, rawText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := Record{
		Document: documentMeta{
			ID:           doc.ID,
			Filename:     doc.Filename,
			EmailSubject: doc.EmailSubject,
			SenderEmail:  doc.SenderEmail,
			ReceivedAt:   doc.ReceivedAt,
		},
		Result:      result,
		Data:        *data,
		PersistedAt: time.Now(),
	}

	if rawText != "" {
		textPath := filepath.Join(s.root, doc.ID+".txt")
		if err := os.WriteFile(textPath, []byte(rawText), 0644); err != nil {
			return fmt.Errorf("writing text for %s: %w", doc.ID, err)
		}
		record.TextFile = filepath.Base(textPath)
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record for %s: %w", doc.ID, err)
	}
	recordPath := filepath.Join(s.root, doc.ID+".json")
	if err := os.WriteFile(recordPath, payload, 0644); err != nil {
		return fmt.Errorf("writing record for %s: %w", doc.ID, err)
	}

	log.Debug().
		Str("document_id", doc.ID).
		Str("status", string(result.Status)).
		Str("path", recordPath).
		Msg("result persisted")
	return nil
}

// Load reads a persisted record back, mainly for tooling and tests.
func (s *FileStore) Load(documentID string) (*Record, error) {
	payload, err := os.ReadFile(filepath.Join(s.root, documentID+".json"))
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decoding record for %s: %w", documentID, err)
	}
	return &record, nil
}
