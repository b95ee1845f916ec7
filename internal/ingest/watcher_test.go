package ingest

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

func waitForDocument(t *testing.T, docCh <-chan *invoice.Document) *invoice.Document {
	t.Helper()
	select {
	case doc := <-docCh:
		require.NotNil(t, doc)
		return doc
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for document")
		return nil
	}
}

func TestWatcherInitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("%PDF existing"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultWatchConfig(dir)
	cfg.Debounce = 10 * time.Millisecond
	docCh, _, err := StartWatcher(ctx, cfg)
	require.NoError(t, err)

	doc := waitForDocument(t, docCh)
	assert.Equal(t, "existing.pdf", doc.Filename)
	assert.Equal(t, []byte("%PDF existing"), doc.Content)
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.ReceivedAt.IsZero())
}

func TestWatcherPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultWatchConfig(dir)
	cfg.InitialScan = false
	cfg.Debounce = 10 * time.Millisecond
	docCh, _, err := StartWatcher(ctx, cfg)
	require.NoError(t, err)

	// Give the watcher a beat to arm before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "incoming.PDF"), []byte("%PDF new"), 0o644))

	doc := waitForDocument(t, docCh)
	assert.Equal(t, "incoming.PDF", doc.Filename)
	assert.Equal(t, []byte("%PDF new"), doc.Content)
}

func TestWatcherIgnoresNonPDF(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultWatchConfig(dir)
	cfg.InitialScan = false
	cfg.Debounce = 10 * time.Millisecond
	docCh, _, err := StartWatcher(ctx, cfg)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0o644))

	select {
	case doc := <-docCh:
		t.Fatalf("unexpected document emitted: %s", doc.Filename)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherRequiresRoot(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

func TestWatcherSourcePassesThrough(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.pdf"), []byte("%PDF seed"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultWatchConfig(dir)
	cfg.Debounce = 10 * time.Millisecond
	source, err := NewWatcherSource(ctx, cfg)
	require.NoError(t, err)

	doc := waitForDocument(t, source.Documents())
	assert.Equal(t, "seed.pdf", doc.Filename)
}
