package extraction

import (
	"context"
	"time"

	"github.com/ordervoice/voice-bridge/internal/observability"
	"github.com/rs/zerolog"
)

// Notifier delivers the two post-order SMS messages
type Notifier interface {
	NotifyCustomer(ctx context.Context, to string, order *Order) error
	NotifyOperator(ctx context.Context, caller string, order *Order) error
}

// Store persists a confirmed order
type Store interface {
	SaveOrder(ctx context.Context, caller string, order *Order) error
}

// Trigger is the end-of-call step: extract a structured order from the
// transcript and, only when confirmed, fan out to the notification and
// persistence collaborators. Each collaborator call is independently
// fallible; failures are logged, never retried, and never block the others.
type Trigger struct {
	extractor Extractor
	notifier  Notifier
	store     Store
	location  *time.Location
	logger    zerolog.Logger
}

// NewTrigger wires the extraction step. notifier and store may be nil when
// the corresponding collaborator is not configured.
func NewTrigger(extractor Extractor, notifier Notifier, store Store, location *time.Location) *Trigger {
	return &Trigger{
		extractor: extractor,
		notifier:  notifier,
		store:     store,
		location:  location,
		logger:    observability.GetLogger().With().Str("component", "extraction").Logger(),
	}
}

// Finalize runs once per call after the session closes
func (t *Trigger) Finalize(ctx context.Context, callerID, transcript string) {
	now := time.Now().In(t.location)
	order, err := t.extractor.Extract(ctx, transcript, callerID, now)
	if err != nil {
		observability.RecordExtraction(false)
		t.logger.Error().Err(err).Str("caller", callerID).Msg("Order extraction failed")
		return
	}
	observability.RecordExtraction(true)

	if !order.Confirmed {
		// Normal "no order" outcome, not an error.
		t.logger.Info().Str("caller", callerID).Msg("Order not confirmed, nothing to do")
		return
	}

	t.logger.Info().
		Str("caller", callerID).
		Str("name", order.Name).
		Strs("items", order.Items).
		Str("time", order.Time).
		Str("total", order.Total).
		Msg("Order confirmed")

	if t.notifier != nil {
		if err := t.notifier.NotifyCustomer(ctx, callerID, order); err != nil {
			observability.RecordNotification("customer", false)
			t.logger.Error().Err(err).Msg("Customer notification failed")
		} else {
			observability.RecordNotification("customer", true)
		}

		if err := t.notifier.NotifyOperator(ctx, callerID, order); err != nil {
			observability.RecordNotification("operator", false)
			t.logger.Error().Err(err).Msg("Operator notification failed")
		} else {
			observability.RecordNotification("operator", true)
		}
	}

	if t.store != nil {
		if err := t.store.SaveOrder(ctx, callerID, order); err != nil {
			observability.RecordPersistence(false)
			t.logger.Error().Err(err).Msg("Order persistence failed")
		} else {
			observability.RecordPersistence(true)
		}
	}
}
