package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is anything the bus can carry. Payment outcomes are the main
// traffic: the payment module publishes them and enrollment provisions
// course access off the back of them, without either importing the other.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string { return e.Type }

func (e BaseEvent) EventID() string { return e.ID }

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

func (e BaseEvent) Payload() interface{} { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus is an in-process pub/sub fan-out. Subscriptions are expected
// at startup; publishing is safe from any goroutine afterwards.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (b *EventBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Info("event handler registered",
		"event_type", eventType,
		"total_handlers", len(b.handlers[eventType]))
}

// handlersFor snapshots the subscriber list so dispatch never holds the
// lock while handlers run.
func (b *EventBus) handlersFor(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[eventType]
}

// Publish dispatches asynchronously. A failing handler is logged, never
// propagated; a payment confirmation must not fail because provisioning
// hiccupped.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	handlers := b.handlersFor(event.EventType())
	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	b.logger.Info("dispatching event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(handler)
	}

	return nil
}

// PublishSync runs handlers inline and stops at the first failure, for
// callers that need the side effect to have happened before returning.
func (b *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers := b.handlersFor(event.EventType())
	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return nil
	}

	b.logger.Info("dispatching event synchronously",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}

	return nil
}
