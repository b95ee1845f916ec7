package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner lets tests stub the external commands page rendering shells out to.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()

	if err != nil {
		log.Debug().
			Str("cmd", name).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("exec failed")
	}
	return out.Bytes(), errb.Bytes(), err
}

// Renderer turns PDF pages into page images for OCR. Rendering is an
// external capability; the extraction core only consumes its output.
type Renderer interface {
	RenderPages(ctx context.Context, content []byte, dpi int) ([][]byte, error)
}

// PdftoppmRenderer renders pages with the poppler pdftoppm tool.
type PdftoppmRenderer struct {
	Binary   string
	MaxPages int
	runner   Runner
}

// NewPdftoppmRenderer creates a renderer using the real pdftoppm binary.
func NewPdftoppmRenderer(maxPages int) *PdftoppmRenderer {
	return &PdftoppmRenderer{Binary: "pdftoppm", MaxPages: maxPages, runner: execRunner{}}
}

// NewPdftoppmRendererWithRunner creates a renderer with a stubbed runner.
func NewPdftoppmRendererWithRunner(maxPages int, runner Runner) *PdftoppmRenderer {
	return &PdftoppmRenderer{Binary: "pdftoppm", MaxPages: maxPages, runner: runner}
}

// RenderPages writes the PDF to a temp dir, renders page-N.png files at the
// requested DPI, and returns them in page order.
func (r *PdftoppmRenderer) RenderPages(ctx context.Context, content []byte, dpi int) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "invopilot-render-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Warn().Err(err).Str("dir", tmpDir).Msg("failed to remove render temp dir")
		}
	}()

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, content, 0o600); err != nil {
		return nil, err
	}

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := r.runner.Run(ctx, r.Binary, "-r", fmt.Sprintf("%d", dpi), "-png", pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if r.MaxPages > 0 && len(matches) > r.MaxPages {
		matches = matches[:r.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no page images")
	}

	pages := make([][]byte, 0, len(matches))
	for _, path := range matches {
		img, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
