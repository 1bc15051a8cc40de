package economy

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberveil-engine/pkg/models"
)

func newShopFixture() *ShopPricer {
	resources := newFakeResourceRepo(newTestResource("grain", "region-1", "food", 500, 100))
	markets := newFakeMarketRepo(newTestMarket("bazaar-1", "region-1", models.SupplyDemandMap{
		"grain": {Supply: 50, Demand: 50},
	}))
	pricing := NewPricingEngine(resources, markets, nil, testLogger())
	return NewShopPricer(pricing, DefaultShopPricingConfig(), testLogger())
}

func neutralBuyer() BuyerProfile { return BuyerProfile{Level: 5, Charisma: 10, Reputation: 0} }

func TestSellPrice_MarksUpMarketPrice(t *testing.T) {
	pricer := newShopFixture()

	quote := pricer.SellPrice(context.Background(), "grain", "bazaar-1", "common", decimal.NewFromInt(1), neutralBuyer())

	require.Equal(t, "ok", quote.Status)
	assert.True(t, quote.MarketPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, quote.FinalPrice.Equal(decimal.NewFromInt(115)), "final=%s", quote.FinalPrice)
}

func TestBuyPrice_PaysFractionOfMarket(t *testing.T) {
	pricer := newShopFixture()

	quote := pricer.BuyPrice(context.Background(), "grain", "bazaar-1", "common", decimal.NewFromInt(1), neutralBuyer())

	require.Equal(t, "ok", quote.Status)
	assert.True(t, quote.FinalPrice.Equal(decimal.NewFromInt(60)), "final=%s", quote.FinalPrice)
	assert.True(t, quote.FinalPrice.LessThan(quote.MarketPrice))
}

func TestShopQuote_CharismaMovesBothSides(t *testing.T) {
	pricer := newShopFixture()
	charming := BuyerProfile{Level: 5, Charisma: 15, Reputation: 0}

	sell := pricer.SellPrice(context.Background(), "grain", "bazaar-1", "common", decimal.NewFromInt(1), charming)
	buy := pricer.BuyPrice(context.Background(), "grain", "bazaar-1", "common", decimal.NewFromInt(1), charming)

	// 5 points above 10 is a 10% swing
	assert.InDelta(t, 0.10, sell.CharismaBonus, 1e-9)
	assert.True(t, sell.FinalPrice.Equal(decimal.NewFromFloat(103.5)), "sell=%s", sell.FinalPrice)
	assert.True(t, buy.FinalPrice.Equal(decimal.NewFromInt(66)), "buy=%s", buy.FinalPrice)
}

func TestShopQuote_LowCharismaPenalty(t *testing.T) {
	pricer := newShopFixture()
	gruff := BuyerProfile{Level: 5, Charisma: 6, Reputation: 0}

	sell := pricer.SellPrice(context.Background(), "grain", "bazaar-1", "common", decimal.NewFromInt(1), gruff)
	assert.True(t, sell.FinalPrice.GreaterThan(decimal.NewFromInt(115)), "sell=%s", sell.FinalPrice)
}

func TestShopQuote_ReputationBonus(t *testing.T) {
	pricer := newShopFixture()
	famous := BuyerProfile{Level: 5, Charisma: 10, Reputation: 100}

	sell := pricer.SellPrice(context.Background(), "grain", "bazaar-1", "common", decimal.NewFromInt(1), famous)
	assert.InDelta(t, 0.10, sell.ReputationBonus, 1e-9)
	assert.True(t, sell.FinalPrice.Equal(decimal.NewFromFloat(103.5)))
}

func TestShopQuote_LevelFallbackWhenNoMarketData(t *testing.T) {
	pricer := newShopFixture()

	quote := pricer.SellPrice(context.Background(), "", "", "rare", decimal.NewFromInt(1), neutralBuyer())

	assert.Equal(t, "fallback", quote.Status)
	// level 5: base 35, rare x6 = 210, then 15% markup
	assert.True(t, quote.BasePrice.Equal(decimal.NewFromInt(210)), "base=%s", quote.BasePrice)
	assert.True(t, quote.FinalPrice.Equal(decimal.NewFromFloat(241.5)), "final=%s", quote.FinalPrice)
}

func TestShopQuote_NeverBelowOne(t *testing.T) {
	pricer := newShopFixture()
	broke := BuyerProfile{Level: 1, Charisma: 10, Reputation: 0}

	quote := pricer.BuyPrice(context.Background(), "", "", "common", decimal.NewFromFloat(0.01), broke)
	assert.True(t, quote.FinalPrice.GreaterThanOrEqual(decimal.NewFromInt(1)))
}
