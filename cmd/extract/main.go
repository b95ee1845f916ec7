// Package main is a one-shot extraction tool: it runs a single PDF through
// the full pipeline in-process and prints the result as JSON. Useful for
// pattern tuning and inspecting what a document would produce without a
// Temporal cluster.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/internal/coordinator"
	"github.com/invopilot/invopilot/internal/decision"
	"github.com/invopilot/invopilot/internal/patterns"
	"github.com/invopilot/invopilot/internal/pipeline"
	"github.com/invopilot/invopilot/internal/quality"
	"github.com/invopilot/invopilot/pkg/classifier"
	"github.com/invopilot/invopilot/pkg/extractor"
	"github.com/invopilot/invopilot/pkg/invoice"
	"github.com/invopilot/invopilot/pkg/logging"
)

type stdoutSink struct {
	showText bool
}

type output struct {
	Result invoice.ProcessingResult     `json:"result"`
	Data   invoice.ExtractedInvoiceData `json:"data"`
	Text   string                       `json:"text,omitempty"`
}

func (s *stdoutSink) Deliver(ctx context.Context, doc *invoice.Document, result invoice.ProcessingResult, data *invoice.ExtractedInvoiceData, rawText string) error {
	out := output{Result: result, Data: *data}
	if s.showText {
		out.Text = rawText
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func main() {
	showText := flag.Bool("text", false, "include the extracted raw text in the output")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall processing timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <invoice.pdf>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = *logLevel
	logCfg.Format = "pretty"
	logCfg.OutputFile = ""
	if err := logging.SetupLogger(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(1)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read input file")
	}

	cfg := extractor.DefaultConfig()
	coord := coordinator.New(coordinator.DefaultConfig(),
		extractor.NewLayoutTextExtractor(cfg.MaxPages),
		extractor.NewGenericTextExtractor(cfg.MaxPages),
		extractor.NewImageOCRExtractor(cfg,
			extractor.NewPdftoppmRenderer(cfg.MaxPages),
			extractor.NewTesseractRecognizer(cfg.OCRLanguage)),
	)

	bus := pipeline.NewEventBus(16, 1)
	defer bus.Close()

	repo := patterns.NewDefaultRepository()
	engine := patterns.NewEngine(repo)
	pipeline.PublishPatternChanges(bus, repo)

	processor := pipeline.NewProcessor(
		classifier.New(),
		coord,
		quality.NewScorer(),
		engine,
		decision.NewEngine(),
		&stdoutSink{showText: *showText},
		bus,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	doc := &invoice.Document{
		ID:         uuid.New().String(),
		Filename:   filepath.Base(path),
		Content:    content,
		ReceivedAt: time.Now(),
	}

	result := processor.Process(ctx, doc)
	switch result.Status {
	case invoice.StatusTextExtractionFailed, invoice.StatusDataExtractionFailed, invoice.StatusProcessingError:
		os.Exit(1)
	}
}
