package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventHandler is a function that handles pipeline events
type EventHandler func(ctx context.Context, event *Event) error

// handlerTimeout bounds a single handler invocation.
const handlerTimeout = 5 * time.Second

// Subscription represents an event subscription
type Subscription struct {
	ID         string
	EventTypes []EventType
	Handler    EventHandler
}

// EventBus manages pub/sub for pipeline events. Delivery is asynchronous;
// a full buffer drops the event rather than blocking publishers.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventBuffer   chan *Event
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup

	statsMu sync.RWMutex
	stats   EventBusStats
}

// EventBusStats tracks event bus statistics
type EventBusStats struct {
	EventsPublished   int64 `json:"events_published"`
	EventsDelivered   int64 `json:"events_delivered"`
	EventsFailed      int64 `json:"events_failed"`
	ActiveSubscribers int64 `json:"active_subscribers"`
}

// NewEventBus creates an event bus with the given buffer size and worker count.
func NewEventBus(bufferSize, workers int) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	eb := &EventBus{
		subscriptions: make(map[string]*Subscription),
		eventBuffer:   make(chan *Event, bufferSize),
		ctx:           ctx,
		cancel:        cancel,
	}

	for i := 0; i < workers; i++ {
		eb.wg.Add(1)
		go eb.worker(i)
	}

	log.Info().Int("buffer_size", bufferSize).Int("workers", workers).Msg("event bus started")
	return eb
}

// Publish queues an event for delivery to all matching subscribers.
func (eb *EventBus) Publish(event *Event) error {
	select {
	case eb.eventBuffer <- event:
		eb.statsMu.Lock()
		eb.stats.EventsPublished++
		eb.statsMu.Unlock()
		return nil
	case <-eb.ctx.Done():
		return fmt.Errorf("event bus is shutting down")
	default:
		log.Warn().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("event dropped due to full buffer")
		return fmt.Errorf("event buffer is full")
	}
}

// Subscribe registers a handler for the given event types.
func (eb *EventBus) Subscribe(eventTypes []EventType, handler EventHandler) *Subscription {
	sub := &Subscription{
		ID:         GenerateEventID(),
		EventTypes: eventTypes,
		Handler:    handler,
	}

	eb.mu.Lock()
	eb.subscriptions[sub.ID] = sub
	eb.mu.Unlock()

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers++
	eb.statsMu.Unlock()

	return sub
}

// Unsubscribe removes a subscription.
func (eb *EventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	_, exists := eb.subscriptions[subscriptionID]
	if !exists {
		eb.mu.Unlock()
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(eb.subscriptions, subscriptionID)
	eb.mu.Unlock()

	eb.statsMu.Lock()
	eb.stats.ActiveSubscribers--
	eb.statsMu.Unlock()
	return nil
}

// Close shuts down the event bus and waits for the workers to drain.
func (eb *EventBus) Close() {
	eb.cancel()
	eb.wg.Wait()
	log.Info().Msg("event bus shut down")
}

// GetStats returns current event bus statistics
func (eb *EventBus) GetStats() EventBusStats {
	eb.statsMu.RLock()
	defer eb.statsMu.RUnlock()
	return eb.stats
}

func (eb *EventBus) worker(workerID int) {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.eventBuffer:
			eb.deliver(event)
		case <-eb.ctx.Done():
			log.Debug().Int("worker_id", workerID).Msg("event bus worker stopping")
			return
		}
	}
}

func (eb *EventBus) deliver(event *Event) {
	eb.mu.RLock()
	var matching []*Subscription
	for _, sub := range eb.subscriptions {
		for _, t := range sub.EventTypes {
			if t == event.Type {
				matching = append(matching, sub)
				break
			}
		}
	}
	eb.mu.RUnlock()

	for _, sub := range matching {
		ctx, cancel := context.WithTimeout(eb.ctx, handlerTimeout)
		if err := sub.Handler(ctx, event); err != nil {
			eb.statsMu.Lock()
			eb.stats.EventsFailed++
			eb.statsMu.Unlock()
			log.Error().
				Err(err).
				Str("subscription_id", sub.ID).
				Str("event_id", event.ID).
				Msg("event handler failed")
		} else {
			eb.statsMu.Lock()
			eb.stats.EventsDelivered++
			eb.statsMu.Unlock()
		}
		cancel()
	}
}
