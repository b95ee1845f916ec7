package ingest

import (
	"context"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// Source supplies documents to process. The inbox watcher is the in-repo
// implementation; an email poller satisfying the same interface can replace
// it without touching the pipeline.
type Source interface {
	Documents() <-chan *invoice.Document
	Errors() <-chan error
}

// WatcherSource adapts the inbox watcher to the Source interface.
type WatcherSource struct {
	docs <-chan *invoice.Document
	errs <-chan error
}

var _ Source = (*WatcherSource)(nil)

// NewWatcherSource starts an inbox watcher and exposes it as a Source.
func NewWatcherSource(ctx context.Context, cfg WatchConfig) (*WatcherSource, error) {
	docs, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &WatcherSource{docs: docs, errs: errs}, nil
}

// Documents implements Source.
func (s *WatcherSource) Documents() <-chan *invoice.Document { return s.docs }

// Errors implements Source.
func (s *WatcherSource) Errors() <-chan error { return s.errs }
