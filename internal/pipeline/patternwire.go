package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/invopilot/invopilot/internal/patterns"
)

// PatternChangeNotifier is the write-side hook a pattern repository exposes.
type PatternChangeNotifier interface {
	OnChange(func())
}

// WirePatternInvalidation routes repository edits to the engine's compiled
// cache through the bus: every pattern write publishes EventPatternsChanged,
// and the engine drops its cache when the event arrives. Callers that run
// the stages directly, without a Processor, use this to get the same
// invalidation path the Processor wires for itself.
func WirePatternInvalidation(bus *EventBus, repo PatternChangeNotifier, engine *patterns.Engine) {
	bus.Subscribe([]EventType{EventPatternsChanged}, func(ctx context.Context, event *Event) error {
		engine.Invalidate()
		return nil
	})
	PublishPatternChanges(bus, repo)
}

// PublishPatternChanges forwards repository writes onto the bus as
// EventPatternsChanged events. Pair with a Processor, whose constructor
// already subscribes its engine to the event.
func PublishPatternChanges(bus *EventBus, repo PatternChangeNotifier) {
	repo.OnChange(func() {
		if err := bus.Publish(NewEvent(EventPatternsChanged, nil)); err != nil {
			log.Warn().Err(err).Msg("pattern change event dropped")
		}
	})
}
