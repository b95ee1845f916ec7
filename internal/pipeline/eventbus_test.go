package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopilot/invopilot/pkg/invoice"
)

func TestEventBusBasicPubSub(t *testing.T) {
	eventBus := NewEventBus(100, 2)
	defer eventBus.Close()

	var receivedEvents int32
	var lastType atomic.Value

	handler := func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&receivedEvents, 1)
		lastType.Store(event.Type)
		return nil
	}

	sub := eventBus.Subscribe([]EventType{EventDocumentReceived}, handler)
	require.NotNil(t, sub)

	doc := &invoice.Document{
		ID:         "test-doc-001",
		Filename:   "invoice.pdf",
		ReceivedAt: time.Now(),
	}

	err := eventBus.Publish(NewEvent(EventDocumentReceived, doc))
	require.NoError(t, err)

	// Wait for asynchronous delivery
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&receivedEvents))
	assert.Equal(t, EventDocumentReceived, lastType.Load())

	stats := eventBus.GetStats()
	assert.Equal(t, int64(1), stats.EventsPublished)
	assert.Equal(t, int64(1), stats.EventsDelivered)
	assert.Equal(t, int64(1), stats.ActiveSubscribers)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eventBus := NewEventBus(100, 2)
	defer eventBus.Close()

	var subscriber1Events int32
	var subscriber2Events int32

	eventBus.Subscribe([]EventType{EventDecisionMade}, func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&subscriber1Events, 1)
		return nil
	})
	eventBus.Subscribe([]EventType{EventDecisionMade}, func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&subscriber2Events, 1)
		return nil
	})

	doc := &invoice.Document{ID: "multi-test-001", Filename: "multi.pdf"}
	err := eventBus.Publish(NewEvent(EventDecisionMade, doc))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&subscriber1Events))
	assert.Equal(t, int32(1), atomic.LoadInt32(&subscriber2Events))

	stats := eventBus.GetStats()
	assert.Equal(t, int64(2), stats.ActiveSubscribers)
}

func TestEventBusEventFiltering(t *testing.T) {
	eventBus := NewEventBus(100, 2)
	defer eventBus.Close()

	var classifiedEvents int32
	var failedEvents int32

	eventBus.Subscribe([]EventType{EventDocumentClassified}, func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&classifiedEvents, 1)
		return nil
	})
	eventBus.Subscribe([]EventType{EventProcessingFailed}, func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&failedEvents, 1)
		return nil
	})

	doc := &invoice.Document{ID: "filter-test-001", Filename: "filter.pdf"}
	require.NoError(t, eventBus.Publish(NewEvent(EventDocumentClassified, doc)))
	require.NoError(t, eventBus.Publish(NewEvent(EventProcessingFailed, doc)))
	require.NoError(t, eventBus.Publish(NewEvent(EventTextExtracted, doc)))

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&classifiedEvents))
	assert.Equal(t, int32(1), atomic.LoadInt32(&failedEvents))
}

func TestEventBusUnsubscribe(t *testing.T) {
	eventBus := NewEventBus(100, 1)
	defer eventBus.Close()

	var received int32
	sub := eventBus.Subscribe([]EventType{EventFieldsExtracted}, func(ctx context.Context, event *Event) error {
		atomic.AddInt32(&received, 1)
		return nil
	})

	require.NoError(t, eventBus.Unsubscribe(sub.ID))
	assert.Error(t, eventBus.Unsubscribe(sub.ID))

	doc := &invoice.Document{ID: "unsub-test-001", Filename: "unsub.pdf"}
	require.NoError(t, eventBus.Publish(NewEvent(EventFieldsExtracted, doc)))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&received))
}
