package services

import (
	"context"
	"time"

	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
)

// EventPublisher is the slice of the Kafka producer the services need.
// Satisfied by *queue.KafkaProducer; tests substitute a recorder.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// publishEvent emits a domain event after a successful write. Publish
// failures are logged and never fail the request.
func publishEvent(ctx context.Context, producer EventPublisher, log *logger.Logger, eventType queue.EventType, key string, data map[string]string) {
	event := queue.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := producer.Publish(ctx, key, event); err != nil {
		log.WithError(err).WithField("event_type", string(eventType)).Error("Failed to publish event")
	}
}
