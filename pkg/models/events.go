package models

import "time"

// Event types published on the economy event stream
const (
	EventResourceAmountChanged = "resource.amount_changed"
	EventResourceTransferred   = "resource.transferred"
	EventResourceDepletion     = "resource.depletion"
	EventResourceAbundance     = "resource.abundance"
	EventMarketPriceUpdated    = "market.price_updated"
	EventTradeExecuted         = "trade.executed"
	EventTradeRouteDisrupted   = "trade.route_disrupted"
	EventFutureCreated         = "future.created"
	EventFutureMatched         = "future.matched"
	EventFutureSettled         = "future.settled"
	EventFutureExpired         = "future.expired"
	EventEconomyTickProcessed  = "economy.tick_processed"
)

// Event is the envelope broadcast to subscribers when economy state changes.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}
