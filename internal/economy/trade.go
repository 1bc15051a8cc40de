package economy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

// TradeEvent records one successful shipment along a trade route.
type TradeEvent struct {
	TradeRouteID        string          `json:"trade_route_id"`
	OriginRegionID      string          `json:"origin_region_id"`
	DestinationRegionID string          `json:"destination_region_id"`
	ResourceID          string          `json:"resource_id"`
	Amount              decimal.Decimal `json:"amount"`
	Value               decimal.Decimal `json:"value"`
	Timestamp           time.Time       `json:"timestamp"`
}

// RouteRunResult aggregates one tick's worth of route processing.
type RouteRunResult struct {
	RoutesProcessed int
	Events          []TradeEvent
	// MarketVolumes accumulates shipment value per destination market,
	// consumed by the coordinator's tax computation.
	MarketVolumes map[string]decimal.Decimal
}

// TradeProcessor executes trade routes each tick, moving stock between
// regions and valuing shipments at the destination market.
type TradeProcessor struct {
	routes        TradeRouteRepository
	markets       MarketRepository
	store         *ResourceStore
	pricing       *PricingEngine
	publisher     EventPublisher
	logger        *logrus.Logger
	defaultVolume decimal.Decimal
}

func NewTradeProcessor(routes TradeRouteRepository, markets MarketRepository, store *ResourceStore, pricing *PricingEngine, publisher EventPublisher, logger *logrus.Logger, defaultVolume decimal.Decimal) *TradeProcessor {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if !defaultVolume.IsPositive() {
		defaultVolume = decimal.NewFromInt(10)
	}
	return &TradeProcessor{
		routes:        routes,
		markets:       markets,
		store:         store,
		pricing:       pricing,
		publisher:     publisher,
		logger:        logger,
		defaultVolume: defaultVolume,
	}
}

// ProcessRoutes runs every runnable route due on this tick. Routes are
// handled in repository id order so identical state yields identical event
// ordering. A single route's failure disrupts that route only and never
// aborts the batch.
func (p *TradeProcessor) ProcessRoutes(ctx context.Context, tickCount int) (RouteRunResult, error) {
	result := RouteRunResult{MarketVolumes: map[string]decimal.Decimal{}}

	routes, err := p.routes.ListRunnable(ctx)
	if err != nil {
		return result, err
	}

	for i := range routes {
		route := &routes[i]
		if route.Frequency > 1 && tickCount%route.Frequency != 0 {
			continue
		}
		if p.processRoute(ctx, route, &result) {
			result.RoutesProcessed++
		}
	}

	return result, nil
}

func (p *TradeProcessor) processRoute(ctx context.Context, route *models.TradeRoute, result *RouteRunResult) bool {
	resourceID := route.PrimaryResourceID()
	if resourceID == "" {
		p.logger.WithField("route_id", route.ID).Warn("Trade route has no resources assigned")
		return false
	}

	amount := route.TransferVolume
	if !amount.IsPositive() {
		amount = p.defaultVolume
	}

	// Bound the shipment by what the origin actually holds.
	source, err := p.store.Get(ctx, resourceID)
	if err != nil || source == nil {
		p.disrupt(ctx, route, "source resource unavailable")
		return false
	}
	if source.Amount.LessThan(amount) {
		amount = source.Amount
	}
	if !amount.IsPositive() {
		p.disrupt(ctx, route, "no stock at origin")
		return false
	}

	ok, message := p.store.Transfer(ctx, route.OriginRegionID, route.DestinationRegionID, resourceID, amount)
	if !ok {
		p.disrupt(ctx, route, message)
		return false
	}

	value := p.valueShipment(ctx, route.DestinationRegionID, resourceID, amount, result)

	route.Status = models.RouteStatusActive
	route.Volume = route.Volume.Add(amount)
	route.Profit = route.Profit.Add(value)
	if err := p.routes.Update(ctx, route); err != nil {
		p.logger.WithField("route_id", route.ID).WithError(err).Warn("Failed to update route totals")
	}

	event := TradeEvent{
		TradeRouteID:        route.ID,
		OriginRegionID:      route.OriginRegionID,
		DestinationRegionID: route.DestinationRegionID,
		ResourceID:          resourceID,
		Amount:              amount,
		Value:               value,
		Timestamp:           time.Now().UTC(),
	}
	result.Events = append(result.Events, event)

	p.publisher.Publish(newEvent(models.EventTradeExecuted, map[string]interface{}{
		"trade_route_id": route.ID,
		"origin":         route.OriginRegionID,
		"destination":    route.DestinationRegionID,
		"resource_id":    resourceID,
		"amount":         amount.String(),
		"value":          value.String(),
	}))

	return true
}

// valueShipment prices the shipment at the destination region's first active
// market and tracks the value against that market's tick volume.
func (p *TradeProcessor) valueShipment(ctx context.Context, regionID, resourceID string, amount decimal.Decimal, result *RouteRunResult) decimal.Decimal {
	markets, err := p.markets.ListByRegion(ctx, regionID)
	if err != nil {
		return decimal.Zero
	}
	for i := range markets {
		if !markets[i].IsActive {
			continue
		}
		price, details := p.pricing.CalculatePrice(ctx, resourceID, markets[i].ID, amount)
		if details.Status != "ok" {
			continue
		}
		result.MarketVolumes[markets[i].ID] = result.MarketVolumes[markets[i].ID].Add(price)
		return price
	}
	return decimal.Zero
}

// disrupt marks the route disrupted for this tick. Disrupted routes are
// still runnable next tick.
func (p *TradeProcessor) disrupt(ctx context.Context, route *models.TradeRoute, reason string) {
	route.Status = models.RouteStatusDisrupted
	if err := p.routes.Update(ctx, route); err != nil {
		p.logger.WithField("route_id", route.ID).WithError(err).Warn("Failed to mark route disrupted")
	}

	p.logger.WithFields(logrus.Fields{
		"route_id": route.ID,
		"reason":   reason,
	}).Info("Trade route disrupted")

	p.publisher.Publish(newEvent(models.EventTradeRouteDisrupted, map[string]interface{}{
		"trade_route_id": route.ID,
		"reason":         reason,
	}))
}
