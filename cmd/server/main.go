// Package main runs the invoice processing worker: a Temporal worker hosting
// the processing workflow plus an inbox watcher that starts one workflow per
// arriving PDF.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/invopilot/invopilot/internal/coordinator"
	"github.com/invopilot/invopilot/internal/decision"
	"github.com/invopilot/invopilot/internal/ingest"
	"github.com/invopilot/invopilot/internal/patterns"
	"github.com/invopilot/invopilot/internal/pipeline"
	"github.com/invopilot/invopilot/internal/quality"
	"github.com/invopilot/invopilot/internal/storage"
	"github.com/invopilot/invopilot/internal/temporal/activities"
	"github.com/invopilot/invopilot/internal/temporal/workflows"
	"github.com/invopilot/invopilot/pkg/classifier"
	"github.com/invopilot/invopilot/pkg/extractor"
	"github.com/invopilot/invopilot/pkg/logging"
)

const taskQueue = "invoice-processing"

func main() {
	logCfg := logging.DefaultLogConfig()
	logCfg.Level = getEnv("LOG_LEVEL", logCfg.Level)
	logCfg.Format = getEnv("LOG_FORMAT", logCfg.Format)
	if err := logging.SetupLogger(logCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort: getEnv("TEMPORAL_HOST", "localhost:7233"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Temporal client")
	}
	defer temporalClient.Close()

	store, err := storage.NewFileStore(getEnv("RESULTS_DIR", "./data/results"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize result store")
	}

	extractorCfg := extractor.DefaultConfig()
	extractorCfg.OCRLanguage = getEnv("OCR_LANGUAGE", extractorCfg.OCRLanguage)
	extractorCfg.OCRRenderDPI = getEnvInt("OCR_RENDER_DPI", extractorCfg.OCRRenderDPI)

	coordCfg := coordinator.DefaultConfig()
	if timeout := getEnvInt("BRANCH_TIMEOUT_SECONDS", 0); timeout > 0 {
		coordCfg.BranchTimeout = time.Duration(timeout) * time.Second
	}

	coord := coordinator.New(coordCfg,
		extractor.NewLayoutTextExtractor(extractorCfg.MaxPages),
		extractor.NewGenericTextExtractor(extractorCfg.MaxPages),
		extractor.NewImageOCRExtractor(extractorCfg,
			extractor.NewPdftoppmRenderer(extractorCfg.MaxPages),
			extractor.NewTesseractRecognizer(extractorCfg.OCRLanguage)),
	)

	bus := pipeline.NewEventBus(256, 2)
	defer bus.Close()

	repo := patterns.NewDefaultRepository()
	engine := patterns.NewEngine(repo)
	pipeline.WirePatternInvalidation(bus, repo, engine)

	acts := &activities.Activities{
		Classifier: classifier.New(),
		Coord:      coord,
		Scorer:     quality.NewScorer(),
		Engine:     engine,
		Decider:    decision.NewEngine(),
		Sink:       store,
	}

	w := worker.New(temporalClient, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     10,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})
	w.RegisterWorkflow(workflows.InvoiceProcessingWorkflow)
	w.RegisterActivity(acts.ClassifyDocumentActivity)
	w.RegisterActivity(acts.ExtractTextActivity)
	w.RegisterActivity(acts.ExtractFieldsActivity)
	w.RegisterActivity(acts.DecideActivity)
	w.RegisterActivity(acts.DeliverResultActivity)

	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatal().Err(err).Msg("Worker stopped")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var source ingest.Source
	source, err = ingest.NewWatcherSource(ctx, ingest.DefaultWatchConfig(getEnv("INBOX_DIR", "./data/inbox")))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start inbox watcher")
	}

	go func() {
		for {
			select {
			case doc, ok := <-source.Documents():
				if !ok {
					return
				}
				input := workflows.InvoiceProcessingInput{
					DocumentID:   doc.ID,
					Filename:     doc.Filename,
					Content:      doc.Content,
					EmailSubject: doc.EmailSubject,
					SenderEmail:  doc.SenderEmail,
					ReceivedAt:   doc.ReceivedAt,
				}
				opts := client.StartWorkflowOptions{
					ID:        "invoice-" + doc.ID,
					TaskQueue: taskQueue,
				}
				if _, err := temporalClient.ExecuteWorkflow(ctx, opts, workflows.InvoiceProcessingWorkflow, input); err != nil {
					log.Error().Err(err).Str("document_id", doc.ID).Msg("Failed to start workflow")
					continue
				}
				log.Info().Str("document_id", doc.ID).Str("filename", doc.Filename).Msg("Workflow started")
			case err, ok := <-source.Errors():
				if !ok {
					return
				}
				log.Error().Err(err).Msg("Inbox watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
