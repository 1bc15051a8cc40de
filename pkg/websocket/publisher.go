package websocket

import (
	"time"

	"emberveil-engine/pkg/models"
)

// EventPublisher fans economy events out to WebSocket subscribers. Events
// carrying a market_id or region_id go to that channel's subscribers;
// everything else reaches tick subscribers as a generic economy event.
type EventPublisher struct {
	hub *WebSocketHub
}

func NewEventPublisher(hub *WebSocketHub) *EventPublisher {
	return &EventPublisher{hub: hub}
}

func (p *EventPublisher) Publish(event models.Event) {
	if p.hub == nil {
		return
	}

	payload := map[string]interface{}{
		"event_type": event.Type,
		"timestamp":  event.Timestamp.Format(time.RFC3339),
		"data":       event.Data,
	}

	if marketID, ok := event.Data["market_id"].(string); ok && marketID != "" {
		p.hub.BroadcastMarketUpdate(marketID, payload)
	}
	if regionID, ok := event.Data["region_id"].(string); ok && regionID != "" {
		p.hub.BroadcastRegionUpdate(regionID, payload)
	}
	if event.Type == models.EventEconomyTickProcessed {
		p.hub.BroadcastTickReport(payload)
	}
}
