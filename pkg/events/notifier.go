package events

import (
	"context"
	"time"

	"lodgebook/pkg/logger"
)

const (
	TopicReservationEvents = "reservation-events"
	TopicPaymentEvents     = "payment-events"
	TopicNotificationDLQ   = "notification-dlq"

	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCompleted = "reservation.completed"
	EventPaymentFailed        = "payment.failed"
	EventPaymentRefunded      = "payment.refunded"
)

// Publisher is the producer surface the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Notifier emits lifecycle events for the notification collaborator.
// Emission is fire-and-forget: publish failures are logged, never
// propagated, so a broker outage cannot fail a booking.
type Notifier struct {
	producer Publisher
	log      *logger.Logger
	source   string
	timeout  time.Duration
}

// NewNotifier builds a notifier; a nil producer yields a no-op notifier,
// which keeps services runnable without a broker.
func NewNotifier(producer Publisher, log *logger.Logger, source string) *Notifier {
	return &Notifier{
		producer: producer,
		log:      log,
		source:   source,
		timeout:  5 * time.Second,
	}
}

// Notify publishes asynchronously, keyed by entity id for ordering.
func (n *Notifier) Notify(eventType, key string, payload any) {
	if n == nil || n.producer == nil {
		return
	}

	msg := NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(n.source).
		Build()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.producer.Publish(ctx, msg); err != nil {
			n.log.Error("Failed to publish event",
				"event_type", eventType,
				"key", key,
				"error", err,
			)
		}
	}()
}
