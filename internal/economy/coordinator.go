package economy

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

const (
	// Net trade flow shifts a region's prices by 1% per unit of net flow,
	// capped at 10% either way.
	tradeFlowStep     = 0.01
	minFlowMultiplier = 0.9
	maxFlowMultiplier = 1.1

	defaultPriceIndex = 100.0
)

// TickReport is the aggregate result of one coordinator pass. Produced
// fresh each tick and discarded after serialization.
type TickReport struct {
	TickCount        int                        `json:"tick_count"`
	TradesProcessed  int                        `json:"trades_processed"`
	MarketsUpdated   int                        `json:"markets_updated"`
	TaxRevenue       map[string]decimal.Decimal `json:"tax_revenue"`    // market id -> revenue
	PriceIndices     map[string]float64         `json:"price_indices"`  // region id -> index
	GeneratedEvents  []TradeEvent               `json:"generated_events"`
	ModifierEvents   []RegionModifier           `json:"modifier_events"`
	FuturesProcessed ExpiryResult               `json:"futures_processed"`
	StartedAt        time.Time                  `json:"started_at"`
	DurationMs       int64                      `json:"duration_ms"`
}

// TickCoordinator orchestrates one simulation tick: trade routes, market
// repricing, tax and price-index aggregation, then futures expiry. Ticks
// are a critical section; concurrent callers serialize on the coordinator.
type TickCoordinator struct {
	mu sync.Mutex

	trades    *TradeProcessor
	pricing   *PricingEngine
	futures   *FuturesEngine
	markets   MarketRepository
	modifiers ModifierGenerator
	publisher EventPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

func NewTickCoordinator(trades *TradeProcessor, pricing *PricingEngine, futures *FuturesEngine, markets MarketRepository, modifiers ModifierGenerator, publisher EventPublisher, logger *logrus.Logger) *TickCoordinator {
	if modifiers == nil {
		modifiers = NopModifierGenerator{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &TickCoordinator{
		trades:    trades,
		pricing:   pricing,
		futures:   futures,
		markets:   markets,
		modifiers: modifiers,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the coordinator's time source. Intended for tests.
func (c *TickCoordinator) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// ProcessTick runs one full economy tick. Order is fixed: trades first so
// repricing sees the tick's flow, repricing before tax and index math,
// futures settlement last so it settles against post-trade prices. One
// region's failure is logged and skipped without dropping the others.
func (c *TickCoordinator) ProcessTick(ctx context.Context, tickCount int) TickReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := c.now()
	report := TickReport{
		TickCount:    tickCount,
		TaxRevenue:   map[string]decimal.Decimal{},
		PriceIndices: map[string]float64{},
		StartedAt:    started.UTC(),
	}

	// 1. Trade routes
	routeResult, err := c.trades.ProcessRoutes(ctx, tickCount)
	if err != nil {
		c.logger.WithField("tick", tickCount).WithError(err).Error("Trade route processing failed")
	}
	report.TradesProcessed = routeResult.RoutesProcessed
	report.GeneratedEvents = routeResult.Events

	// 2. Reprice every region: trade-flow pressure plus generated events
	regionIDs, err := c.markets.ListRegions(ctx)
	if err != nil {
		c.logger.WithField("tick", tickCount).WithError(err).Error("Failed to list market regions")
	}
	generated := c.modifiers.Generate(tickCount, regionIDs)
	report.ModifierEvents = generated
	regionModifiers := c.mergeModifiers(routeResult.Events, generated)

	for _, regionID := range regionIDs {
		modifiers := regionModifiers[regionID]
		if len(modifiers) == 0 {
			continue
		}
		updated, err := c.pricing.UpdateMarketConditions(ctx, regionID, modifiers)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"tick":      tickCount,
				"region_id": regionID,
			}).WithError(err).Error("Market condition update failed")
			continue
		}
		report.MarketsUpdated += len(updated)
	}

	// 3 & 4. Tax revenue and price index per region
	for _, regionID := range regionIDs {
		if err := c.aggregateRegion(ctx, regionID, routeResult.MarketVolumes, &report); err != nil {
			c.logger.WithFields(logrus.Fields{
				"tick":      tickCount,
				"region_id": regionID,
			}).WithError(err).Error("Region aggregation failed")
		}
	}

	// 5. Futures expiry
	report.FuturesProcessed = c.futures.ProcessExpiringFutures(ctx, c.now())

	report.DurationMs = c.now().Sub(started).Milliseconds()

	c.logger.WithFields(logrus.Fields{
		"tick":        tickCount,
		"trades":      report.TradesProcessed,
		"markets":     report.MarketsUpdated,
		"settled":     len(report.FuturesProcessed.Settled),
		"expired":     len(report.FuturesProcessed.Expired),
		"duration_ms": report.DurationMs,
	}).Info("Economy tick processed")

	c.publisher.Publish(newEvent(models.EventEconomyTickProcessed, map[string]interface{}{
		"tick":             tickCount,
		"trades_processed": report.TradesProcessed,
		"markets_updated":  report.MarketsUpdated,
	}))

	return report
}

// mergeModifiers folds net trade flow and generated events into per-region
// modifier maps. A region that net-imported a resource sees its price ease,
// a net exporter sees it rise, both within 10% of neutral.
func (c *TickCoordinator) mergeModifiers(events []TradeEvent, generated []RegionModifier) map[string]map[string]float64 {
	// net flow per region/resource: exports positive, imports negative
	netFlow := map[string]map[string]decimal.Decimal{}
	flowInto := func(regionID, resourceID string, amount decimal.Decimal) {
		if netFlow[regionID] == nil {
			netFlow[regionID] = map[string]decimal.Decimal{}
		}
		netFlow[regionID][resourceID] = netFlow[regionID][resourceID].Add(amount)
	}
	for _, ev := range events {
		flowInto(ev.OriginRegionID, ev.ResourceID, ev.Amount)
		flowInto(ev.DestinationRegionID, ev.ResourceID, ev.Amount.Neg())
	}

	merged := map[string]map[string]float64{}
	put := func(regionID, resourceID string, mult float64) {
		if merged[regionID] == nil {
			merged[regionID] = map[string]float64{}
		}
		if existing, ok := merged[regionID][resourceID]; ok {
			merged[regionID][resourceID] = existing * mult
		} else {
			merged[regionID][resourceID] = mult
		}
	}

	for regionID, flows := range netFlow {
		for resourceID, net := range flows {
			netFloat, _ := net.Float64()
			mult := 1.0 + netFloat*tradeFlowStep
			if mult < minFlowMultiplier {
				mult = minFlowMultiplier
			}
			if mult > maxFlowMultiplier {
				mult = maxFlowMultiplier
			}
			if mult != 1.0 {
				put(regionID, resourceID, mult)
			}
		}
	}

	for _, mod := range generated {
		resourceID := mod.ResourceID
		if resourceID == "" {
			resourceID = ModifierAllResources
		}
		put(mod.RegionID, resourceID, mod.Multiplier)
	}

	return merged
}

// aggregateRegion computes this tick's tax take per market and the region's
// volume-weighted price index.
func (c *TickCoordinator) aggregateRegion(ctx context.Context, regionID string, marketVolumes map[string]decimal.Decimal, report *TickReport) error {
	markets, err := c.markets.ListByRegion(ctx, regionID)
	if err != nil {
		return err
	}

	indexWeighted := 0.0
	indexVolume := 0.0
	for i := range markets {
		market := &markets[i]
		if !market.IsActive {
			continue
		}

		tickVolume := marketVolumes[market.ID]
		if tickVolume.IsPositive() {
			report.TaxRevenue[market.ID] = tickVolume.Mul(market.TaxRate)
			market.Volume = market.Volume.Add(tickVolume)
			if err := c.markets.Update(ctx, market); err != nil {
				c.logger.WithField("market_id", market.ID).WithError(err).Warn("Failed to update market volume")
			}
		}

		avgPrice, priced := c.averageMarketPrice(ctx, market)
		if !priced {
			continue
		}
		weight, _ := tickVolume.Float64()
		if weight <= 0 {
			weight = 1 // quiet markets still anchor the index
		}
		indexWeighted += avgPrice * weight
		indexVolume += weight
	}

	if indexVolume > 0 {
		report.PriceIndices[regionID] = indexWeighted / indexVolume
	} else {
		report.PriceIndices[regionID] = defaultPriceIndex
	}
	return nil
}

// averageMarketPrice averages current unit prices over the resources the
// market tracks.
func (c *TickCoordinator) averageMarketPrice(ctx context.Context, market *models.Market) (float64, bool) {
	if len(market.SupplyDemand) == 0 {
		return 0, false
	}
	resourceIDs := make([]string, 0, len(market.SupplyDemand))
	for resourceID := range market.SupplyDemand {
		resourceIDs = append(resourceIDs, resourceID)
	}
	// fixed summation order keeps the float index reproducible across runs
	sort.Strings(resourceIDs)

	sum := 0.0
	count := 0
	for _, resourceID := range resourceIDs {
		price, details := c.pricing.CalculatePrice(ctx, resourceID, market.ID, decimal.NewFromInt(1))
		if details.Status != "ok" {
			continue
		}
		f, _ := price.Float64()
		sum += f
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
