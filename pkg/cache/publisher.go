package cache

import (
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

// EventPublisher forwards economy events onto the Redis events channel so
// other services can subscribe. Publish failures are logged and swallowed;
// event delivery never fails the originating operation.
type EventPublisher struct{}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

func (p *EventPublisher) Publish(event models.Event) {
	if RedisClient == nil {
		return
	}
	if err := Publish(KeyEventsChannel, event); err != nil {
		logrus.WithError(err).WithField("event_type", event.Type).Warn("Failed to publish event to Redis")
	}
}
