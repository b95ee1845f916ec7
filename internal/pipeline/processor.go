// Package pipeline ties the extraction core together: classify, extract,
// score, pull fields, decide, deliver. One Processor handles many documents
// concurrently; all per-document state lives on the stack.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/internal/coordinator"
	"github.com/invopilot/invopilot/internal/decision"
	"github.com/invopilot/invopilot/internal/patterns"
	"github.com/invopilot/invopilot/internal/quality"
	"github.com/invopilot/invopilot/pkg/classifier"
	"github.com/invopilot/invopilot/pkg/invoice"
	"github.com/invopilot/invopilot/pkg/logging"
)

// ResultSink receives the terminal result for persistence. It always gets
// the raw extracted text, even on partial failure, so review tooling can
// work from the text when fields are missing.
type ResultSink interface {
	Deliver(ctx context.Context, doc *invoice.Document, result invoice.ProcessingResult, data *invoice.ExtractedInvoiceData, rawText string) error
}

// Processor runs the full per-document pipeline.
type Processor struct {
	classifier *classifier.Classifier
	coord      *coordinator.Coordinator
	scorer     *quality.Scorer
	engine     *patterns.Engine
	decider    *decision.Engine
	sink       ResultSink
	bus        *EventBus // optional
}

// NewProcessor wires a Processor. The event bus may be nil.
func NewProcessor(cls *classifier.Classifier, coord *coordinator.Coordinator, scorer *quality.Scorer, engine *patterns.Engine, decider *decision.Engine, sink ResultSink, bus *EventBus) *Processor {
	p := &Processor{
		classifier: cls,
		coord:      coord,
		scorer:     scorer,
		engine:     engine,
		decider:    decider,
		sink:       sink,
		bus:        bus,
	}
	if bus != nil {
		// Pattern edits arrive as events; the compiled cache dies with them.
		bus.Subscribe([]EventType{EventPatternsChanged}, func(ctx context.Context, event *Event) error {
			engine.Invalidate()
			return nil
		})
	}
	return p
}

// Process runs one document through the pipeline and returns its terminal
// result. Failures inside a stage degrade to a terminal failure status; no
// error or panic escapes to the caller's scheduler.
func (p *Processor) Process(ctx context.Context, doc *invoice.Document) (result invoice.ProcessingResult) {
	start := time.Now()
	result = invoice.ProcessingResult{DocumentID: doc.ID}

	defer func() {
		if r := recover(); r != nil {
			result.Status = invoice.StatusProcessingError
			result.Decision = invoice.DecisionManualProcessing
			result.Message = fmt.Sprintf("unexpected failure: %v", r)
			result.ProcessingTime = time.Since(start)
			logger := logging.GetPipelineLogger(doc.ID, "pipeline")
			logger.Error().Interface("panic", r).Msg("pipeline panic recovered")
			p.deliver(ctx, doc, result, nil, "")
		}
	}()

	p.publish(EventDocumentReceived, doc, nil)

	if err := doc.Validate(); err != nil {
		result.Status = invoice.StatusProcessingError
		result.Decision = invoice.DecisionManualProcessing
		result.Message = err.Error()
		result.ProcessingTime = time.Since(start)
		p.deliver(ctx, doc, result, nil, "")
		return result
	}

	// Stage 1: classification. Corrupted input is terminal but not an error.
	analysis := p.classifier.Analyze(doc.Content, doc.Filename)
	p.publish(EventDocumentClassified, doc, map[string]interface{}{"pdf_type": string(analysis.Type)})

	if analysis.Type == invoice.PDFTypeCorrupted {
		result.Status = invoice.StatusTextExtractionFailed
		result.Decision = invoice.DecisionManualProcessing
		result.Message = "document is not a readable PDF"
		result.ProcessingTime = time.Since(start)
		p.publish(EventProcessingFailed, doc, map[string]interface{}{"stage": "classification"})
		p.deliver(ctx, doc, result, nil, "")
		return result
	}

	// Stage 2: text extraction.
	coordResult, err := p.coord.Extract(ctx, analysis, doc.Content)
	if err != nil {
		result.Status = invoice.StatusTextExtractionFailed
		result.Decision = invoice.DecisionManualProcessing
		result.Message = fmt.Sprintf("text extraction failed (attempted: %v)", coordResult.AttemptedMethods)
		result.ProcessingTime = time.Since(start)
		p.publish(EventProcessingFailed, doc, map[string]interface{}{"stage": "extraction"})
		p.deliver(ctx, doc, result, nil, "")
		return result
	}

	enhanced := p.scorer.Enhance(coordResult.Outcome, coordResult.AttemptedMethods)
	p.publish(EventTextExtracted, doc, map[string]interface{}{
		"method":     enhanced.PrimaryMethod,
		"confidence": enhanced.FinalConfidence,
	})

	// Stage 3: field extraction. A panic here is a data-stage failure, not a
	// pipeline crash; the raw text still goes to the sink.
	data, fieldErr := p.extractFields(ctx, enhanced.FinalText)
	if fieldErr != nil {
		result.Status = invoice.StatusDataExtractionFailed
		result.Decision = invoice.DecisionManualProcessing
		result.Message = fieldErr.Error()
		result.ProcessingTime = time.Since(start)
		p.publish(EventProcessingFailed, doc, map[string]interface{}{"stage": "fields"})
		p.deliver(ctx, doc, result, nil, enhanced.FinalText)
		return result
	}
	p.publish(EventFieldsExtracted, doc, map[string]interface{}{"field_count": data.ExtractedFieldCount()})

	// Stage 4: decision.
	validation := ValidateData(data)
	dec, status, overall := p.decider.Evaluate(
		enhanced.FinalConfidence,
		data.AverageConfidence(),
		validation,
		data.HasRequiredFields(),
	)

	result.Status = status
	result.Decision = dec
	result.OverallConfidence = overall
	result.ProcessingTime = time.Since(start)
	p.publish(EventDecisionMade, doc, map[string]interface{}{
		"decision":   string(dec),
		"confidence": overall,
	})

	decisionLogger := logging.GetPipelineLogger(doc.ID, "decision")
	decisionLogger.Info().
		Str("filename", doc.Filename).
		Str("status", string(status)).
		Float64("confidence", overall).
		Dur("took", result.ProcessingTime).
		Msg("document processed")

	p.deliver(ctx, doc, result, data, enhanced.FinalText)
	return result
}

func (p *Processor) extractFields(ctx context.Context, text string) (data *invoice.ExtractedInvoiceData, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &invoice.ProcessingError{Stage: "field extraction", Message: fmt.Sprintf("%v", r)}
		}
	}()
	return p.engine.ExtractInvoiceData(ctx, text), nil
}

func (p *Processor) deliver(ctx context.Context, doc *invoice.Document, result invoice.ProcessingResult, data *invoice.ExtractedInvoiceData, rawText string) {
	if p.sink == nil {
		return
	}
	if data == nil {
		data = &invoice.ExtractedInvoiceData{}
	}
	if err := p.sink.Deliver(ctx, doc, result, data, rawText); err != nil {
		logger := logging.GetPipelineLogger(doc.ID, "delivery")
		logger.Error().Err(err).Msg("result delivery failed")
	}
}

func (p *Processor) publish(eventType EventType, doc *invoice.Document, metadata map[string]interface{}) {
	if p.bus == nil {
		return
	}
	event := NewEvent(eventType, doc)
	if metadata != nil {
		event.Metadata = metadata
	}
	if err := p.bus.Publish(event); err != nil {
		log.Debug().Err(err).Str("event_type", string(eventType)).Msg("event publish skipped")
	}
}
