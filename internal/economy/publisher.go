package economy

import (
	"time"

	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

// EventPublisher receives domain events as they happen. Implementations must
// not block; publish failures are the publisher's problem, never the caller's.
type EventPublisher interface {
	Publish(event models.Event)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(models.Event) {}

// MultiPublisher fans one event out to several publishers.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(event models.Event) {
	for _, p := range m {
		p.Publish(event)
	}
}

// LogPublisher writes events to the structured log. Useful in development
// and as a fallback sink.
type LogPublisher struct {
	Logger *logrus.Logger
}

func (p *LogPublisher) Publish(event models.Event) {
	if p.Logger == nil {
		return
	}
	p.Logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"data":       event.Data,
	}).Debug("Economy event")
}

func newEvent(eventType string, data map[string]interface{}) models.Event {
	return models.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
