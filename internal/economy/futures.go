package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

// Settlement is the outcome of resolving one matched contract against the
// current market price.
type Settlement struct {
	FutureID       string          `json:"future_id"`
	ResourceID     string          `json:"resource_id"`
	MarketID       string          `json:"market_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	StrikePrice    decimal.Decimal `json:"strike_price"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	ProfitLoss     decimal.Decimal `json:"profit_loss"`
	BuyerProfit    decimal.Decimal `json:"buyer_profit"`
	SellerProfit   decimal.Decimal `json:"seller_profit"`
	SettlementDate time.Time       `json:"settlement_date"`
	PriceDetails   PriceDetails    `json:"price_details"`
	Err            string          `json:"error,omitempty"`
}

// OK reports whether the settlement completed.
func (s Settlement) OK() bool { return s.Err == "" }

// ExpiryResult aggregates one batch of expiration processing.
type ExpiryResult struct {
	ProcessedCount int          `json:"processed_count"`
	Settled        []Settlement `json:"settled"`
	Expired        []string     `json:"expired"`
	Errors         []string     `json:"errors"`
}

// PriceForecast is one monthly bucket of the strike-price forecast.
type PriceForecast struct {
	Period             int             `json:"period"`
	ContractCount      int             `json:"contract_count"`
	ForecastPrice      decimal.Decimal `json:"forecast_price"`
	Confidence         int             `json:"confidence"`
	PriceRangeLow      decimal.Decimal `json:"price_range_low"`
	PriceRangeHigh     decimal.Decimal `json:"price_range_high"`
	ChangeVsCurrent    decimal.Decimal `json:"change_vs_current"`
	ChangeVsCurrentPct decimal.Decimal `json:"change_vs_current_pct"`
}

// ForecastReport covers all requested forecast periods for a resource.
type ForecastReport struct {
	Status     string          `json:"status"`
	ResourceID string          `json:"resource_id"`
	MarketID   string          `json:"market_id,omitempty"`
	SpotPrice  decimal.Decimal `json:"spot_price"`
	Direction  string          `json:"direction"`
	Periods    []PriceForecast `json:"periods"`
}

// FuturesEngine owns the CommodityFuture lifecycle: creation, buyer
// matching, settlement against current market price, batch expiry, and
// strike-price forecasting.
type FuturesEngine struct {
	futures   FutureRepository
	resources ResourceRepository
	markets   MarketRepository
	pricing   *PricingEngine
	publisher EventPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

func NewFuturesEngine(futures FutureRepository, resources ResourceRepository, markets MarketRepository, pricing *PricingEngine, publisher EventPublisher, logger *logrus.Logger) *FuturesEngine {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &FuturesEngine{
		futures:   futures,
		resources: resources,
		markets:   markets,
		pricing:   pricing,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the engine's time source. Intended for tests.
func (e *FuturesEngine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// CreateFuture validates and persists a new open contract.
func (e *FuturesEngine) CreateFuture(ctx context.Context, future *models.CommodityFuture) (*models.CommodityFuture, error) {
	if future.ResourceID == "" {
		return nil, &ValidationError{Field: "resource_id", Message: "resource_id is required"}
	}
	if future.MarketID == "" {
		return nil, &ValidationError{Field: "market_id", Message: "market_id is required"}
	}
	if future.SellerID == "" {
		return nil, &ValidationError{Field: "seller_id", Message: "seller_id is required"}
	}
	if !future.Quantity.IsPositive() {
		return nil, &ValidationError{Field: "quantity", Message: "quantity must be positive"}
	}
	if !future.StrikePrice.IsPositive() {
		return nil, &ValidationError{Field: "strike_price", Message: "strike_price must be positive"}
	}
	if future.ExpirationDate.IsZero() || !future.ExpirationDate.After(e.now()) {
		return nil, &ValidationError{Field: "expiration_date", Message: "expiration_date must be in the future"}
	}

	resource, err := e.resources.Get(ctx, future.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if resource == nil {
		return nil, &NotFoundError{Entity: "resource", ID: future.ResourceID}
	}
	market, err := e.markets.Get(ctx, future.MarketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load market: %w", err)
	}
	if market == nil {
		return nil, &NotFoundError{Entity: "market", ID: future.MarketID}
	}

	if future.ID == "" {
		future.ID = xid.New().String()
	}
	if future.ContractType == "" {
		future.ContractType = models.ContractTypeFuture
	}
	future.Status = models.FutureStatusOpen
	future.BuyerID = ""
	future.IsSettled = false
	future.SettlementDate = nil

	if err := e.futures.Create(ctx, future); err != nil {
		return nil, fmt.Errorf("failed to create future: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"future_id":   future.ID,
		"resource_id": future.ResourceID,
		"market_id":   future.MarketID,
		"strike":      future.StrikePrice.String(),
	}).Info("Commodity future created")

	e.publisher.Publish(newEvent(models.EventFutureCreated, map[string]interface{}{
		"future_id":   future.ID,
		"resource_id": future.ResourceID,
		"market_id":   future.MarketID,
	}))

	return future, nil
}

// MatchBuyer attaches a buyer to an open contract. Matching is attempted
// speculatively from batch contexts, so a contract that is missing, already
// matched, or otherwise ineligible yields (nil, nil) rather than an error.
func (e *FuturesEngine) MatchBuyer(ctx context.Context, futureID, buyerID string) (*models.CommodityFuture, error) {
	if buyerID == "" {
		return nil, nil
	}
	future, err := e.futures.Get(ctx, futureID)
	if err != nil {
		return nil, fmt.Errorf("failed to load future: %w", err)
	}
	if future == nil || future.Status != models.FutureStatusOpen || future.BuyerID != "" {
		return nil, nil
	}

	future.BuyerID = buyerID
	future.Status = models.FutureStatusMatched
	if err := e.futures.Update(ctx, future); err != nil {
		return nil, fmt.Errorf("failed to update future: %w", err)
	}

	e.publisher.Publish(newEvent(models.EventFutureMatched, map[string]interface{}{
		"future_id": future.ID,
		"buyer_id":  buyerID,
	}))

	return future, nil
}

// SettleFuture resolves a matched contract at the current market price.
// Failure to settle is reported inside the Settlement rather than as an
// error, since batch expiry probes settlement routinely.
func (e *FuturesEngine) SettleFuture(ctx context.Context, futureID string) Settlement {
	future, err := e.futures.Get(ctx, futureID)
	if err != nil {
		return Settlement{FutureID: futureID, Err: fmt.Sprintf("failed to load future: %v", err)}
	}
	if future == nil {
		return Settlement{FutureID: futureID, Err: "future not found"}
	}
	if future.Status != models.FutureStatusMatched || future.IsSettled {
		return Settlement{FutureID: futureID, Err: fmt.Sprintf("future not settleable in status %s", future.Status)}
	}

	currentPrice, details := e.pricing.CalculatePrice(ctx, future.ResourceID, future.MarketID, future.Quantity)
	if details.Status != "ok" {
		return Settlement{FutureID: futureID, Err: "current price unavailable"}
	}

	strikeTotal := future.StrikePrice.Mul(future.Quantity)
	profitLoss := currentPrice.Sub(strikeTotal)
	buyerProfit := decimal.Max(profitLoss, decimal.Zero)
	sellerProfit := decimal.Max(profitLoss.Neg(), decimal.Zero)

	settledAt := e.now().UTC()
	future.Status = models.FutureStatusSettled
	future.IsSettled = true
	future.SettlementDate = &settledAt
	if err := e.futures.Update(ctx, future); err != nil {
		return Settlement{FutureID: futureID, Err: fmt.Sprintf("failed to persist settlement: %v", err)}
	}

	settlement := Settlement{
		FutureID:       future.ID,
		ResourceID:     future.ResourceID,
		MarketID:       future.MarketID,
		Quantity:       future.Quantity,
		StrikePrice:    future.StrikePrice,
		CurrentPrice:   details.UnitPrice,
		ProfitLoss:     profitLoss,
		BuyerProfit:    buyerProfit,
		SellerProfit:   sellerProfit,
		SettlementDate: settledAt,
		PriceDetails:   details,
	}

	e.logger.WithFields(logrus.Fields{
		"future_id":   future.ID,
		"profit_loss": profitLoss.String(),
	}).Info("Future settled")

	e.publisher.Publish(newEvent(models.EventFutureSettled, map[string]interface{}{
		"future_id":     future.ID,
		"resource_id":   future.ResourceID,
		"profit_loss":   profitLoss.String(),
		"buyer_profit":  buyerProfit.String(),
		"seller_profit": sellerProfit.String(),
	}))

	return settlement
}

// ProcessExpiringFutures settles every matched contract at or past its
// expiration and expires the never-matched ones. One bad contract is
// recorded and skipped, never aborting the batch.
func (e *FuturesEngine) ProcessExpiringFutures(ctx context.Context, now time.Time) ExpiryResult {
	result := ExpiryResult{}

	expiring, err := e.futures.ListExpiring(ctx, now)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list expiring futures: %v", err))
		return result
	}

	for i := range expiring {
		future := &expiring[i]
		result.ProcessedCount++

		switch future.Status {
		case models.FutureStatusMatched:
			settlement := e.SettleFuture(ctx, future.ID)
			if settlement.OK() {
				result.Settled = append(result.Settled, settlement)
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("future %s: %s", future.ID, settlement.Err))
			}
		case models.FutureStatusOpen:
			future.Status = models.FutureStatusExpired
			if err := e.futures.Update(ctx, future); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("future %s: failed to expire: %v", future.ID, err))
				continue
			}
			result.Expired = append(result.Expired, future.ID)
			e.publisher.Publish(newEvent(models.EventFutureExpired, map[string]interface{}{
				"future_id": future.ID,
			}))
		default:
			// settled/expired/cancelled rows returned by a lagging query
			// are left alone
		}
	}

	if result.ProcessedCount > 0 {
		e.logger.WithFields(logrus.Fields{
			"processed": result.ProcessedCount,
			"settled":   len(result.Settled),
			"expired":   len(result.Expired),
			"errors":    len(result.Errors),
		}).Info("Expiring futures processed")
	}

	return result
}

// ForecastFuturePrices treats open contracts' strike prices as the market's
// collective guess at future spot price. Contracts are bucketed monthly by
// days until expiration; each bucket forecasts the quantity-weighted average
// strike with a confidence that grows with contract count.
func (e *FuturesEngine) ForecastFuturePrices(ctx context.Context, resourceID, marketID string, timePeriods int) (ForecastReport, error) {
	if timePeriods <= 0 {
		timePeriods = 3
	}
	report := ForecastReport{Status: "no_data", ResourceID: resourceID, MarketID: marketID, Direction: "stable"}

	contracts, err := e.futures.ListOpen(ctx, resourceID, marketID)
	if err != nil {
		return report, fmt.Errorf("failed to list open futures: %w", err)
	}

	spotMarket := marketID
	if spotMarket == "" && len(contracts) > 0 {
		spotMarket = contracts[0].MarketID
	}
	if spotMarket != "" {
		spot, details := e.pricing.CalculatePrice(ctx, resourceID, spotMarket, decimal.NewFromInt(1))
		if details.Status == "ok" {
			report.SpotPrice = spot
		}
	}

	type bucket struct {
		count    int
		weighted decimal.Decimal
		totalQty decimal.Decimal
		low      decimal.Decimal
		high     decimal.Decimal
	}
	buckets := make([]bucket, timePeriods)

	now := e.now()
	for i := range contracts {
		c := &contracts[i]
		days := int(c.ExpirationDate.Sub(now).Hours() / 24)
		if days < 0 {
			days = 0
		}
		period := days/30 + 1
		if period > timePeriods {
			period = timePeriods
		}
		b := &buckets[period-1]
		if b.count == 0 {
			b.low = c.StrikePrice
			b.high = c.StrikePrice
		} else {
			if c.StrikePrice.LessThan(b.low) {
				b.low = c.StrikePrice
			}
			if c.StrikePrice.GreaterThan(b.high) {
				b.high = c.StrikePrice
			}
		}
		b.count++
		b.weighted = b.weighted.Add(c.StrikePrice.Mul(c.Quantity))
		b.totalQty = b.totalQty.Add(c.Quantity)
	}

	var lastForecast decimal.Decimal
	haveForecast := false
	for i, b := range buckets {
		forecast := PriceForecast{Period: i + 1, ContractCount: b.count}
		if b.count > 0 && b.totalQty.IsPositive() {
			forecast.ForecastPrice = b.weighted.Div(b.totalQty)
			confidence := 40 + 5*b.count
			if confidence > 100 {
				confidence = 100
			}
			forecast.Confidence = confidence
			forecast.PriceRangeLow = b.low
			forecast.PriceRangeHigh = b.high
			if report.SpotPrice.IsPositive() {
				forecast.ChangeVsCurrent = forecast.ForecastPrice.Sub(report.SpotPrice)
				forecast.ChangeVsCurrentPct = forecast.ChangeVsCurrent.
					Div(report.SpotPrice).Mul(decimal.NewFromInt(100))
			}
			lastForecast = forecast.ForecastPrice
			haveForecast = true
		}
		report.Periods = append(report.Periods, forecast)
	}

	if haveForecast {
		report.Status = "ok"
		if report.SpotPrice.IsPositive() {
			switch {
			case lastForecast.GreaterThan(report.SpotPrice):
				report.Direction = "rising"
			case lastForecast.LessThan(report.SpotPrice):
				report.Direction = "falling"
			}
		}
	}

	return report, nil
}
