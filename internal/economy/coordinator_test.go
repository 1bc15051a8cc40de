package economy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberveil-engine/pkg/models"
)

type coordinatorFixture struct {
	coordinator *TickCoordinator
	resources   *fakeResourceRepo
	markets     *fakeMarketRepo
	routes      *fakeRouteRepo
	futures     *fakeFutureRepo
	publisher   *capturePublisher
}

// stubModifiers returns a fixed modifier list regardless of tick.
type stubModifiers struct {
	out []RegionModifier
}

func (s stubModifiers) Generate(int, []string) []RegionModifier { return s.out }

func newCoordinatorFixture(generator ModifierGenerator, routes []*models.TradeRoute, futures []*models.CommodityFuture) *coordinatorFixture {
	resources := newFakeResourceRepo(
		newTestResource("grain", "region-1", "food", 100, 10),
		newTestResource("grain-2", "region-2", "food", 50, 10),
	)
	markets := newFakeMarketRepo(
		newTestMarket("bazaar-1", "region-1", models.SupplyDemandMap{
			"grain": {Supply: 50, Demand: 50},
		}),
		newTestMarket("bazaar-2", "region-2", models.SupplyDemandMap{
			"grain": {Supply: 50, Demand: 50},
		}),
	)
	publisher := &capturePublisher{}
	logger := testLogger()

	store := NewResourceStore(resources, nil, logger)
	pricing := NewPricingEngine(resources, markets, nil, logger)
	routeRepo := newFakeRouteRepo(routes...)
	trades := NewTradeProcessor(routeRepo, markets, store, pricing, nil, logger, decimal.NewFromInt(10))
	futureRepo := newFakeFutureRepo(futures...)
	futuresEngine := NewFuturesEngine(futureRepo, resources, markets, pricing, nil, logger)
	futuresEngine.SetClock(func() time.Time { return testNow })

	coordinator := NewTickCoordinator(trades, pricing, futuresEngine, markets, generator, publisher, logger)
	coordinator.SetClock(func() time.Time { return testNow })

	return &coordinatorFixture{
		coordinator: coordinator,
		resources:   resources,
		markets:     markets,
		routes:      routeRepo,
		futures:     futureRepo,
		publisher:   publisher,
	}
}

func TestProcessTick_FullPass(t *testing.T) {
	route := newTestRoute("route-a", "region-1", "region-2", "grain")
	route.TransferVolume = decimal.NewFromInt(20)
	fix := newCoordinatorFixture(nil,
		[]*models.TradeRoute{route},
		[]*models.CommodityFuture{
			newTestFuture("matched-past", models.FutureStatusMatched, 5, 10, testNow.Add(-time.Hour)),
			newTestFuture("open-past", models.FutureStatusOpen, 5, 10, testNow.Add(-time.Hour)),
		},
	)
	// the futures fixture resource for settlement lives in region-1's market
	for _, fu := range []string{"matched-past", "open-past"} {
		stored, _ := fix.futures.Get(context.Background(), fu)
		stored.MarketID = "bazaar-1"
		require.NoError(t, fix.futures.Update(context.Background(), stored))
	}

	report := fix.coordinator.ProcessTick(context.Background(), 1)

	assert.Equal(t, 1, report.TickCount)
	assert.Equal(t, 1, report.TradesProcessed)
	require.Len(t, report.GeneratedEvents, 1)

	// tick volume 200 at bazaar-2 with 5% tax
	require.Contains(t, report.TaxRevenue, "bazaar-2")
	assert.True(t, report.TaxRevenue["bazaar-2"].Equal(decimal.NewFromInt(10)), "tax=%s", report.TaxRevenue["bazaar-2"])

	// both regions report an index
	assert.Contains(t, report.PriceIndices, "region-1")
	assert.Contains(t, report.PriceIndices, "region-2")

	// the matched contract settled, the unmatched one expired
	assert.Len(t, report.FuturesProcessed.Settled, 1)
	assert.Len(t, report.FuturesProcessed.Expired, 1)

	// market volume accumulated
	market, _ := fix.markets.Get(context.Background(), "bazaar-2")
	assert.True(t, market.Volume.Equal(decimal.NewFromInt(200)))

	assert.Contains(t, fix.publisher.typesSeen(), models.EventEconomyTickProcessed)
}

func TestProcessTick_TradeFlowShiftsMarketConditions(t *testing.T) {
	route := newTestRoute("route-a", "region-1", "region-2", "grain")
	route.TransferVolume = decimal.NewFromInt(20)
	fix := newCoordinatorFixture(nil, []*models.TradeRoute{route}, nil)

	fix.coordinator.ProcessTick(context.Background(), 1)

	// region-1 exported 20 units: multiplier clamps to 1.1, demand 50 -> 55
	origin, _ := fix.markets.Get(context.Background(), "bazaar-1")
	assert.InDelta(t, 55.0, origin.SupplyDemand["grain"].Demand, 1e-9)

	// region-2 imported: multiplier clamps to 0.9, demand 50 -> 45
	dest, _ := fix.markets.Get(context.Background(), "bazaar-2")
	assert.InDelta(t, 45.0, dest.SupplyDemand["grain"].Demand, 1e-9)
}

func TestProcessTick_GeneratedModifiersApplied(t *testing.T) {
	generator := stubModifiers{out: []RegionModifier{
		{RegionID: "region-1", Multiplier: 1.2, Event: "economic_growth"},
	}}
	fix := newCoordinatorFixture(generator, nil, nil)

	report := fix.coordinator.ProcessTick(context.Background(), 1)

	require.Len(t, report.ModifierEvents, 1)
	assert.Equal(t, "economic_growth", report.ModifierEvents[0].Event)
	assert.Equal(t, 1, report.MarketsUpdated)

	market, _ := fix.markets.Get(context.Background(), "bazaar-1")
	assert.InDelta(t, 60.0, market.SupplyDemand["grain"].Demand, 1e-9)

	untouched, _ := fix.markets.Get(context.Background(), "bazaar-2")
	assert.InDelta(t, 50.0, untouched.SupplyDemand["grain"].Demand, 1e-9)
}

func TestProcessTick_QuietTickStillReportsIndices(t *testing.T) {
	fix := newCoordinatorFixture(nil, nil, nil)

	report := fix.coordinator.ProcessTick(context.Background(), 7)

	assert.Zero(t, report.TradesProcessed)
	assert.Zero(t, report.MarketsUpdated)
	assert.Empty(t, report.TaxRevenue)
	// neutral markets price grain at its base value of 10
	assert.InDelta(t, 10.0, report.PriceIndices["region-1"], 1e-6)
	assert.InDelta(t, 10.0, report.PriceIndices["region-2"], 1e-6)
}

func TestProcessTick_SettlementSeesPostTradePrices(t *testing.T) {
	// settlement happens after repricing, so the exporter's demand bump
	// raises the settled price above the pre-tick quote
	route := newTestRoute("route-a", "region-1", "region-2", "grain")
	route.TransferVolume = decimal.NewFromInt(20)
	fix := newCoordinatorFixture(nil,
		[]*models.TradeRoute{route},
		[]*models.CommodityFuture{
			newTestFuture("f1", models.FutureStatusMatched, 10, 1, testNow.Add(-time.Hour)),
		},
	)
	stored, _ := fix.futures.Get(context.Background(), "f1")
	stored.MarketID = "bazaar-1"
	require.NoError(t, fix.futures.Update(context.Background(), stored))

	report := fix.coordinator.ProcessTick(context.Background(), 1)

	require.Len(t, report.FuturesProcessed.Settled, 1)
	settled := report.FuturesProcessed.Settled[0]
	// demand 55 / supply 45.45 -> ratio above the neutral band
	assert.True(t, settled.CurrentPrice.GreaterThan(decimal.NewFromInt(10)),
		"settled at %s, want post-trade price above strike", settled.CurrentPrice)
}

func TestProcessTick_ReportsDurationAndStart(t *testing.T) {
	fix := newCoordinatorFixture(nil, nil, nil)

	report := fix.coordinator.ProcessTick(context.Background(), 3)

	assert.Equal(t, testNow, report.StartedAt)
	assert.GreaterOrEqual(t, report.DurationMs, int64(0))
}

func TestAverageMarketPrice_Reproducible(t *testing.T) {
	resources := newFakeResourceRepo(
		newTestResource("grain", "region-1", "food", 100, 7),
		newTestResource("moonsilk", "region-1", "cloth", 40, 13),
		newTestResource("iron", "region-1", "ore", 250, 3),
		newTestResource("spice", "region-1", "luxury", 15, 29),
		newTestResource("timber", "region-1", "wood", 90, 11),
	)
	market := newTestMarket("bazaar-1", "region-1", models.SupplyDemandMap{
		"grain":    {Supply: 30, Demand: 70},
		"moonsilk": {Supply: 65, Demand: 35},
		"iron":     {Supply: 45, Demand: 80},
		"spice":    {Supply: 20, Demand: 90},
		"timber":   {Supply: 55, Demand: 40},
	})
	markets := newFakeMarketRepo(market)
	logger := testLogger()
	pricing := NewPricingEngine(resources, markets, nil, logger)
	coordinator := NewTickCoordinator(nil, pricing, nil, markets, nil, nil, logger)

	// the float average must not depend on map iteration order
	first, ok := coordinator.averageMarketPrice(context.Background(), market)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := coordinator.averageMarketPrice(context.Background(), market)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}
