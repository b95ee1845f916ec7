// Package ingest turns filesystem activity into pipeline documents. An inbox
// directory is watched for PDFs; each settled file is read once and emitted
// as an invoice.Document.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// WatchConfig configures an inbox watcher.
type WatchConfig struct {
	Root        string        `json:"root"`         // inbox directory, watched recursively
	InitialScan bool          `json:"initial_scan"` // emit files already present at startup
	Debounce    time.Duration `json:"debounce"`     // settle time for write bursts
}

// DefaultWatchConfig returns the inbox watcher defaults.
func DefaultWatchConfig(root string) WatchConfig {
	return WatchConfig{
		Root:        root,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}
}

// StartWatcher watches cfg.Root for PDF files and emits a document per
// settled file. Both channels close when ctx is cancelled.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan *invoice.Document, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, fmt.Errorf("inbox root cannot be empty")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}

	docCh := make(chan *invoice.Document, 64)
	errCh := make(chan error, 1)

	var initial []string
	walkErr := filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && isPDF(path) {
			initial = append(initial, path)
		}
		return nil
	})
	if walkErr != nil {
		_ = w.Close()
		return nil, nil, fmt.Errorf("walking inbox %s: %w", cfg.Root, walkErr)
	}

	go func() {
		defer close(docCh)
		defer close(errCh)
		defer w.Close()

		for _, path := range initial {
			emit(ctx, docCh, path)
		}

		var timer *time.Timer
		pending := map[string]struct{}{}
		flush := make(chan struct{}, 1)

		sendPending := func() {
			select {
			case flush <- struct{}{}:
			default:
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case <-flush:
				for path := range pending {
					delete(pending, path)
					emit(ctx, docCh, path)
				}

			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op.Has(fsnotify.Create) {
					if info, statErr := os.Stat(e.Name); statErr == nil && info.IsDir() {
						if addErr := w.Add(e.Name); addErr != nil {
							log.Warn().Err(addErr).Str("path", e.Name).Msg("could not watch new directory")
						}
						continue
					}
				}
				if !isPDF(e.Name) || !e.Op.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(cfg.Debounce, sendPending)
				} else {
					sendPending()
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("inbox watcher error")
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	log.Info().Str("root", cfg.Root).Bool("initial_scan", cfg.InitialScan).Msg("inbox watcher started")
	return docCh, errCh, nil
}

func emit(ctx context.Context, docCh chan<- *invoice.Document, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("skipping unreadable inbox file")
		return
	}
	doc := &invoice.Document{
		ID:         uuid.New().String(),
		Filename:   filepath.Base(path),
		Content:    content,
		ReceivedAt: time.Now(),
	}
	select {
	case docCh <- doc:
	case <-ctx.Done():
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
