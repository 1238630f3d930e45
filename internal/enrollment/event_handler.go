package enrollment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/course-enrollment/internal/core/events"
)

type EventHandler struct {
	service ServiceAPI
	logger  *slog.Logger
}

func NewEventHandler(service ServiceAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

// HandlePaymentConfirmed grants course access when a payment settles. This
// is the only path that flips the paid flag.
func (h *EventHandler) HandlePaymentConfirmed(ctx context.Context, event events.Event) error {
	confirmed, ok := event.(*events.PaymentConfirmedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment confirmed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentConfirmedEvent, got %T", event)
	}

	h.logger.Info("handling payment confirmed event",
		"reference", confirmed.Reference,
		"email", confirmed.Email,
		"course", confirmed.Course,
		"event_id", confirmed.EventID())

	if err := h.service.Grant(confirmed.Email, confirmed.Course, confirmed.Reference, confirmed.Amount); err != nil {
		h.logger.Error("failed to grant access for confirmed payment",
			"error", err,
			"reference", confirmed.Reference,
			"event_id", confirmed.EventID())
		return fmt.Errorf("access grant failed for reference %s: %w", confirmed.Reference, err)
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentConfirmed, h.HandlePaymentConfirmed)

	h.logger.Info("enrollment event handlers registered",
		"handlers", []string{events.EventTypePaymentConfirmed})
}
