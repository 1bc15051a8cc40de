package economy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

const (
	// Supply/demand multiplier bounds applied to base value
	minPriceMultiplier = 0.5
	maxPriceMultiplier = 2.0

	// Floor for any positive-value trade
	minimumPrice = 1
)

// PriceDetails explains how a price was computed so callers can reproduce
// the number.
type PriceDetails struct {
	Status     string          `json:"status"`
	ResourceID string          `json:"resource_id,omitempty"`
	MarketID   string          `json:"market_id,omitempty"`
	BaseValue  decimal.Decimal `json:"base_value"`
	Supply     float64         `json:"supply"`
	Demand     float64         `json:"demand"`
	Ratio      float64         `json:"ratio"`
	Multiplier float64         `json:"multiplier"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// PricingEngine converts (resource, market, quantity) into a price and owns
// mutation of each market's supply/demand state.
type PricingEngine struct {
	resources ResourceRepository
	markets   MarketRepository
	publisher EventPublisher
	logger    *logrus.Logger
}

func NewPricingEngine(resources ResourceRepository, markets MarketRepository, publisher EventPublisher, logger *logrus.Logger) *PricingEngine {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &PricingEngine{
		resources: resources,
		markets:   markets,
		publisher: publisher,
		logger:    logger,
	}
}

// CalculatePrice prices quantity units of a resource at a market. Pricing is
// a read-only speculative query: a missing resource or market yields a zero
// price with a not_found status instead of an error.
func (e *PricingEngine) CalculatePrice(ctx context.Context, resourceID, marketID string, quantity decimal.Decimal) (decimal.Decimal, PriceDetails) {
	resource, err := e.resources.Get(ctx, resourceID)
	if err != nil || resource == nil {
		return decimal.Zero, PriceDetails{Status: "not_found", ResourceID: resourceID, MarketID: marketID}
	}
	market, err := e.markets.Get(ctx, marketID)
	if err != nil || market == nil {
		return decimal.Zero, PriceDetails{Status: "not_found", ResourceID: resourceID, MarketID: marketID}
	}

	supply, demand := 50.0, 50.0
	multiplier := 1.0
	ratio := 1.0
	if sd, ok := market.SupplyDemand[resourceID]; ok {
		sd = sd.Clamped()
		supply, demand = sd.Supply, sd.Demand
		ratio = demand / maxFloat(supply, 1)
		switch {
		case ratio > 1.2:
			multiplier = 1 + (ratio-1)*0.3
		case ratio < 0.8:
			multiplier = 1 - (1-ratio)*0.2
		}
		if multiplier < minPriceMultiplier {
			multiplier = minPriceMultiplier
		}
		if multiplier > maxPriceMultiplier {
			multiplier = maxPriceMultiplier
		}
	}

	unitPrice := resource.BaseValue.Mul(decimal.NewFromFloat(multiplier))
	total := unitPrice.Mul(quantity)
	if total.IsPositive() && total.LessThan(decimal.NewFromInt(minimumPrice)) {
		total = decimal.NewFromInt(minimumPrice)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}

	return total, PriceDetails{
		Status:     "ok",
		ResourceID: resourceID,
		MarketID:   marketID,
		BaseValue:  resource.BaseValue,
		Supply:     supply,
		Demand:     demand,
		Ratio:      ratio,
		Multiplier: multiplier,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: total,
	}
}

// ModifierAllResources keys a modifier that applies to every resource a
// market already tracks.
const ModifierAllResources = "*"

// UpdateMarketConditions applies per-resource demand multipliers to every
// market in a region and persists the clamped result. A multiplier above 1
// raises demand and drains supply; below 1 does the opposite. This is the
// only path that mutates supply/demand state.
func (e *PricingEngine) UpdateMarketConditions(ctx context.Context, regionID string, modifiers map[string]float64) ([]models.Market, error) {
	markets, err := e.markets.ListByRegion(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list markets for region %s: %w", regionID, err)
	}

	updated := make([]models.Market, 0, len(markets))
	for i := range markets {
		market := &markets[i]
		if !market.IsActive {
			continue
		}
		if market.SupplyDemand == nil {
			market.SupplyDemand = models.SupplyDemandMap{}
		}
		changed := false
		for resourceID, mult := range modifiers {
			if mult <= 0 {
				continue
			}
			targets := []string{resourceID}
			if resourceID == ModifierAllResources {
				targets = targets[:0]
				for id := range market.SupplyDemand {
					targets = append(targets, id)
				}
			}
			for _, id := range targets {
				sd, ok := market.SupplyDemand[id]
				if !ok {
					sd = models.SupplyDemand{Supply: 50, Demand: 50}
				}
				sd.Demand *= mult
				sd.Supply /= mult
				market.SupplyDemand[id] = sd.Clamped()
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := e.markets.Update(ctx, market); err != nil {
			e.logger.WithFields(logrus.Fields{
				"market_id": market.ID,
				"region_id": regionID,
			}).WithError(err).Warn("Failed to update market conditions")
			continue
		}
		updated = append(updated, *market)

		e.publisher.Publish(newEvent(models.EventMarketPriceUpdated, map[string]interface{}{
			"market_id": market.ID,
			"region_id": regionID,
			"modifiers": modifiers,
		}))
	}

	return updated, nil
}

// PriceTrend summarizes a resource's current price across one market.
type PriceTrend struct {
	MarketID   string          `json:"market_id"`
	MarketName string          `json:"market_name"`
	Price      decimal.Decimal `json:"price"`
	Multiplier float64         `json:"multiplier"`
	Supply     float64         `json:"supply"`
	Demand     float64         `json:"demand"`
}

// PriceTrendReport aggregates a resource's price across markets in scope.
type PriceTrendReport struct {
	Status     string          `json:"status"`
	ResourceID string          `json:"resource_id"`
	RegionID   string          `json:"region_id,omitempty"`
	MinPrice   decimal.Decimal `json:"min_price"`
	MaxPrice   decimal.Decimal `json:"max_price"`
	AvgPrice   decimal.Decimal `json:"avg_price"`
	Markets    []PriceTrend    `json:"markets"`
}

// ResourcePriceTrends reports current unit prices for a resource across all
// markets in a region, or everywhere when regionID is empty. Read-only.
func (e *PricingEngine) ResourcePriceTrends(ctx context.Context, resourceID, regionID string) (PriceTrendReport, error) {
	report := PriceTrendReport{Status: "no_data", ResourceID: resourceID, RegionID: regionID}

	var markets []models.Market
	var err error
	if regionID != "" {
		markets, err = e.markets.ListByRegion(ctx, regionID)
	} else {
		markets, err = e.markets.ListAll(ctx)
	}
	if err != nil {
		return report, fmt.Errorf("failed to list markets: %w", err)
	}

	sum := decimal.Zero
	for i := range markets {
		market := &markets[i]
		if !market.IsActive {
			continue
		}
		price, details := e.CalculatePrice(ctx, resourceID, market.ID, decimal.NewFromInt(1))
		if details.Status != "ok" {
			continue
		}
		trend := PriceTrend{
			MarketID:   market.ID,
			MarketName: market.Name,
			Price:      price,
			Multiplier: details.Multiplier,
			Supply:     details.Supply,
			Demand:     details.Demand,
		}
		if len(report.Markets) == 0 {
			report.MinPrice = price
			report.MaxPrice = price
		} else {
			if price.LessThan(report.MinPrice) {
				report.MinPrice = price
			}
			if price.GreaterThan(report.MaxPrice) {
				report.MaxPrice = price
			}
		}
		sum = sum.Add(price)
		report.Markets = append(report.Markets, trend)
	}

	if len(report.Markets) > 0 {
		report.Status = "ok"
		report.AvgPrice = sum.Div(decimal.NewFromInt(int64(len(report.Markets))))
	}
	return report, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
