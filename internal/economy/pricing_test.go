package economy

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberveil-engine/pkg/models"
)

func newPricingFixture(sd models.SupplyDemandMap) (*PricingEngine, *fakeResourceRepo, *fakeMarketRepo) {
	resources := newFakeResourceRepo(newTestResource("grain", "region-1", "food", 500, 100))
	markets := newFakeMarketRepo(newTestMarket("bazaar-1", "region-1", sd))
	engine := NewPricingEngine(resources, markets, nil, testLogger())
	return engine, resources, markets
}

func TestCalculatePrice_ScarcityClampsMultiplier(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{
		"grain": {Supply: 20, Demand: 80},
	})

	price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(1))

	require.Equal(t, "ok", details.Status)
	assert.Equal(t, 2.0, details.Multiplier)
	assert.True(t, price.Equal(decimal.NewFromInt(200)), "price=%s want=200", price)
}

func TestCalculatePrice_GlutDiscount(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{
		"grain": {Supply: 100, Demand: 40},
	})

	price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(1))

	require.Equal(t, "ok", details.Status)
	assert.InDelta(t, 0.88, details.Multiplier, 1e-9)
	assert.True(t, price.Equal(decimal.NewFromInt(88)), "price=%s want=88", price)
}

func TestCalculatePrice_NeutralBand(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{
		"grain": {Supply: 50, Demand: 50},
	})

	price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(3))

	require.Equal(t, "ok", details.Status)
	assert.Equal(t, 1.0, details.Multiplier)
	assert.True(t, price.Equal(decimal.NewFromInt(300)))
}

func TestCalculatePrice_MissingSupplyDemandEntryIsNeutral(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{})

	price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(1))

	require.Equal(t, "ok", details.Status)
	assert.Equal(t, 1.0, details.Multiplier)
	assert.True(t, price.Equal(decimal.NewFromInt(100)))
}

func TestCalculatePrice_DemandMonotonicity(t *testing.T) {
	prev := decimal.Zero
	for _, demand := range []float64{10, 30, 50, 70, 90} {
		engine, _, _ := newPricingFixture(models.SupplyDemandMap{
			"grain": {Supply: 50, Demand: demand},
		})
		price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(1))
		require.Equal(t, "ok", details.Status)
		assert.True(t, price.GreaterThanOrEqual(prev),
			"demand=%v price=%s shrank below %s", demand, price, prev)
		prev = price
	}
}

func TestCalculatePrice_SupplyMonotonicity(t *testing.T) {
	var prev decimal.Decimal
	first := true
	for _, supply := range []float64{10, 30, 50, 70, 90} {
		engine, _, _ := newPricingFixture(models.SupplyDemandMap{
			"grain": {Supply: supply, Demand: 50},
		})
		price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(1))
		require.Equal(t, "ok", details.Status)
		if !first {
			assert.True(t, price.LessThanOrEqual(prev),
				"supply=%v price=%s rose above %s", supply, price, prev)
		}
		prev = price
		first = false
	}
}

func TestCalculatePrice_MultiplierAlwaysWithinBounds(t *testing.T) {
	for _, sd := range []models.SupplyDemand{
		{Supply: 0, Demand: 100},
		{Supply: 1, Demand: 100},
		{Supply: 100, Demand: 0},
		{Supply: 100, Demand: 1},
		{Supply: 0, Demand: 0},
	} {
		engine, _, _ := newPricingFixture(models.SupplyDemandMap{"grain": sd})
		price, details := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(1))
		require.Equal(t, "ok", details.Status)
		assert.GreaterOrEqual(t, details.Multiplier, 0.5, "sd=%+v", sd)
		assert.LessOrEqual(t, details.Multiplier, 2.0, "sd=%+v", sd)
		assert.False(t, price.IsNegative())
	}
}

func TestCalculatePrice_MinimumPriceFloor(t *testing.T) {
	resources := newFakeResourceRepo(newTestResource("pebble", "region-1", "junk", 10, 1))
	markets := newFakeMarketRepo(newTestMarket("bazaar-1", "region-1", models.SupplyDemandMap{
		"pebble": {Supply: 100, Demand: 1},
	}))
	engine := NewPricingEngine(resources, markets, nil, testLogger())

	price, details := engine.CalculatePrice(context.Background(), "pebble", "bazaar-1", decimal.NewFromInt(1))

	require.Equal(t, "ok", details.Status)
	assert.True(t, price.Equal(decimal.NewFromInt(1)), "price=%s want floor of 1", price)
}

func TestCalculatePrice_NotFoundSentinel(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{})

	price, details := engine.CalculatePrice(context.Background(), "missing", "bazaar-1", decimal.NewFromInt(1))
	assert.True(t, price.IsZero())
	assert.Equal(t, "not_found", details.Status)

	price, details = engine.CalculatePrice(context.Background(), "grain", "missing-market", decimal.NewFromInt(1))
	assert.True(t, price.IsZero())
	assert.Equal(t, "not_found", details.Status)
}

func TestCalculatePrice_ReadsAreIdempotent(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{
		"grain": {Supply: 35, Demand: 72},
	})

	first, firstDetails := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(4))
	second, secondDetails := engine.CalculatePrice(context.Background(), "grain", "bazaar-1", decimal.NewFromInt(4))

	assert.True(t, first.Equal(second))
	assert.Equal(t, firstDetails, secondDetails)
}

func TestUpdateMarketConditions_AppliesAndClamps(t *testing.T) {
	engine, _, markets := newPricingFixture(models.SupplyDemandMap{
		"grain": {Supply: 40, Demand: 60},
	})

	updated, err := engine.UpdateMarketConditions(context.Background(), "region-1", map[string]float64{"grain": 2.0})
	require.NoError(t, err)
	require.Len(t, updated, 1)

	market, err := markets.Get(context.Background(), "bazaar-1")
	require.NoError(t, err)
	sd := market.SupplyDemand["grain"]
	assert.Equal(t, 100.0, sd.Demand) // 60*2 clamped
	assert.Equal(t, 20.0, sd.Supply)  // 40/2
}

func TestUpdateMarketConditions_WildcardHitsAllTrackedResources(t *testing.T) {
	engine, _, markets := newPricingFixture(models.SupplyDemandMap{
		"grain": {Supply: 50, Demand: 50},
		"iron":  {Supply: 50, Demand: 50},
	})

	_, err := engine.UpdateMarketConditions(context.Background(), "region-1", map[string]float64{
		ModifierAllResources: 1.1,
	})
	require.NoError(t, err)

	market, err := markets.Get(context.Background(), "bazaar-1")
	require.NoError(t, err)
	for _, id := range []string{"grain", "iron"} {
		assert.InDelta(t, 55.0, market.SupplyDemand[id].Demand, 1e-9, "resource %s", id)
	}
}

func TestUpdateMarketConditions_SkipsInactiveMarkets(t *testing.T) {
	inactive := newTestMarket("closed-1", "region-1", models.SupplyDemandMap{
		"grain": {Supply: 50, Demand: 50},
	})
	inactive.IsActive = false
	resources := newFakeResourceRepo(newTestResource("grain", "region-1", "food", 500, 100))
	markets := newFakeMarketRepo(inactive)
	engine := NewPricingEngine(resources, markets, nil, testLogger())

	updated, err := engine.UpdateMarketConditions(context.Background(), "region-1", map[string]float64{"grain": 2.0})
	require.NoError(t, err)
	assert.Empty(t, updated)

	market, _ := markets.Get(context.Background(), "closed-1")
	assert.Equal(t, 50.0, market.SupplyDemand["grain"].Demand)
}

func TestResourcePriceTrends(t *testing.T) {
	resources := newFakeResourceRepo(newTestResource("grain", "region-1", "food", 500, 100))
	markets := newFakeMarketRepo(
		newTestMarket("bazaar-1", "region-1", models.SupplyDemandMap{"grain": {Supply: 20, Demand: 80}}),
		newTestMarket("bazaar-2", "region-1", models.SupplyDemandMap{"grain": {Supply: 100, Demand: 40}}),
	)
	engine := NewPricingEngine(resources, markets, nil, testLogger())

	report, err := engine.ResourcePriceTrends(context.Background(), "grain", "region-1")
	require.NoError(t, err)
	require.Equal(t, "ok", report.Status)
	require.Len(t, report.Markets, 2)
	assert.True(t, report.MinPrice.Equal(decimal.NewFromInt(88)), "min=%s", report.MinPrice)
	assert.True(t, report.MaxPrice.Equal(decimal.NewFromInt(200)), "max=%s", report.MaxPrice)
	assert.True(t, report.AvgPrice.Equal(decimal.NewFromInt(144)), "avg=%s", report.AvgPrice)
}

func TestResourcePriceTrends_NoData(t *testing.T) {
	engine, _, _ := newPricingFixture(models.SupplyDemandMap{})

	report, err := engine.ResourcePriceTrends(context.Background(), "missing", "region-1")
	require.NoError(t, err)
	assert.Equal(t, "no_data", report.Status)
	assert.Empty(t, report.Markets)
}
