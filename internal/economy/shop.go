package economy

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ShopPricingConfig tunes how shops quote against market price.
type ShopPricingConfig struct {
	// Fraction of market value a shop pays when buying from a player.
	BuyFromPlayerRatio float64
	// Markup over market value when selling to a player.
	SellMarkup float64
}

func DefaultShopPricingConfig() ShopPricingConfig {
	return ShopPricingConfig{
		BuyFromPlayerRatio: 0.6,
		SellMarkup:         1.15,
	}
}

// ShopQuote is one price quote with its adjustment trail.
type ShopQuote struct {
	Status          string          `json:"status"`
	ResourceID      string          `json:"resource_id,omitempty"`
	MarketID        string          `json:"market_id,omitempty"`
	MarketPrice     decimal.Decimal `json:"market_price"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CharismaBonus   float64         `json:"charisma_bonus"`
	ReputationBonus float64         `json:"reputation_bonus"`
	FinalPrice      decimal.Decimal `json:"final_price"`
}

// BuyerProfile captures the haggling-relevant traits of the player on the
// other side of the counter.
type BuyerProfile struct {
	Level      int `json:"level"`
	Charisma   int `json:"charisma"`
	Reputation int `json:"reputation"`
}

var rarityPriceMultipliers = map[string]float64{
	"common":    1.0,
	"uncommon":  2.5,
	"rare":      6.0,
	"epic":      15.0,
	"legendary": 40.0,
}

// ShopPricer quotes shop buy/sell prices on top of the market price, with
// charisma and reputation haggling adjustments and a level-scaled fallback
// when no market price exists.
type ShopPricer struct {
	pricing *PricingEngine
	config  ShopPricingConfig
	logger  *logrus.Logger
}

func NewShopPricer(pricing *PricingEngine, config ShopPricingConfig, logger *logrus.Logger) *ShopPricer {
	if config.BuyFromPlayerRatio <= 0 {
		config.BuyFromPlayerRatio = 0.6
	}
	if config.SellMarkup <= 0 {
		config.SellMarkup = 1.15
	}
	return &ShopPricer{pricing: pricing, config: config, logger: logger}
}

// SellPrice quotes what the shop charges the player for quantity units.
// Charisma and reputation lower the price.
func (p *ShopPricer) SellPrice(ctx context.Context, resourceID, marketID, rarity string, quantity decimal.Decimal, buyer BuyerProfile) ShopQuote {
	quote := p.baseQuote(ctx, resourceID, marketID, rarity, quantity, buyer)

	price := quote.BasePrice.Mul(decimal.NewFromFloat(p.config.SellMarkup))
	discount := quote.CharismaBonus + quote.ReputationBonus
	price = price.Mul(decimal.NewFromFloat(1 - discount))
	quote.FinalPrice = floorPrice(price)
	return quote
}

// BuyPrice quotes what the shop pays the player for quantity units.
// Charisma and reputation raise the offer.
func (p *ShopPricer) BuyPrice(ctx context.Context, resourceID, marketID, rarity string, quantity decimal.Decimal, buyer BuyerProfile) ShopQuote {
	quote := p.baseQuote(ctx, resourceID, marketID, rarity, quantity, buyer)

	price := quote.BasePrice.Mul(decimal.NewFromFloat(p.config.BuyFromPlayerRatio))
	bonus := quote.CharismaBonus + quote.ReputationBonus
	price = price.Mul(decimal.NewFromFloat(1 + bonus))
	quote.FinalPrice = floorPrice(price)
	return quote
}

func (p *ShopPricer) baseQuote(ctx context.Context, resourceID, marketID, rarity string, quantity decimal.Decimal, buyer BuyerProfile) ShopQuote {
	quote := ShopQuote{
		Status:     "ok",
		ResourceID: resourceID,
		MarketID:   marketID,
	}

	if resourceID != "" && marketID != "" {
		price, details := p.pricing.CalculatePrice(ctx, resourceID, marketID, quantity)
		if details.Status == "ok" {
			quote.MarketPrice = price
			quote.BasePrice = price
		}
	}
	if quote.BasePrice.IsZero() {
		quote.Status = "fallback"
		quote.BasePrice = levelBasedPrice(buyer.Level, rarity).Mul(quantity)
	}

	// 2% per charisma point above (or below) 10, 0.1% per reputation point
	quote.CharismaBonus = float64(buyer.Charisma-10) * 0.02
	quote.ReputationBonus = float64(buyer.Reputation) * 0.001
	return quote
}

// levelBasedPrice estimates a fair unit price from the buyer's level and
// the item's rarity when no market data exists.
func levelBasedPrice(level int, rarity string) decimal.Decimal {
	if level < 1 {
		level = 1
	}
	mult, ok := rarityPriceMultipliers[rarity]
	if !ok {
		mult = 1.0
	}
	base := float64(10 + level*5)
	return decimal.NewFromFloat(base * mult)
}

func floorPrice(price decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if price.LessThan(one) {
		return one
	}
	return price.Round(2)
}
