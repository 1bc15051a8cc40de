package api

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"emberveil-engine/internal/economy"
	"emberveil-engine/internal/scheduler"
	"emberveil-engine/pkg/cache"
	"emberveil-engine/pkg/config"
	"emberveil-engine/pkg/database"
	"emberveil-engine/pkg/models"
	"emberveil-engine/pkg/websocket"
)

// EconomyHandlers contains handlers backed by the economy engines
type EconomyHandlers struct {
	engines *economy.Engines
	runner  *scheduler.Runner
	hub     *websocket.WebSocketHub
	cfg     *config.Config
}

// NewEconomyHandlers creates new economy handlers
func NewEconomyHandlers(engines *economy.Engines, runner *scheduler.Runner, hub *websocket.WebSocketHub, cfg *config.Config) *EconomyHandlers {
	return &EconomyHandlers{
		engines: engines,
		runner:  runner,
		hub:     hub,
		cfg:     cfg,
	}
}

var globalWSHub *websocket.WebSocketHub
var globalEconomyHandlers *EconomyHandlers

// GetWebSocketHub returns the global WebSocket hub instance
func GetWebSocketHub() *websocket.WebSocketHub {
	if globalWSHub == nil {
		globalWSHub = websocket.NewHub()
	}
	return globalWSHub
}

// GetEconomyHandlers returns the global economy handlers instance
func GetEconomyHandlers() *EconomyHandlers {
	return globalEconomyHandlers
}

// SetEconomyHandlers sets the global economy handlers instance
func SetEconomyHandlers(handlers *EconomyHandlers) {
	globalEconomyHandlers = handlers
}

// respondEconomyError maps engine errors onto HTTP status codes
func respondEconomyError(c *gin.Context, err error) {
	var validationErr *economy.ValidationError
	var notFoundErr *economy.NotFoundError
	var stockErr *economy.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     stockErr.Error(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Resource Handlers

// CreateResource creates a new regional resource stock
func (h *EconomyHandlers) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	amount, baseValue, validationErrors := ValidateCreateResourceRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	resource := &models.Resource{
		ID:           req.ID,
		RegionID:     req.RegionID,
		ResourceType: req.ResourceType,
		Name:         req.Name,
		Amount:       amount,
		BaseValue:    baseValue,
		Rarity:       req.Rarity,
	}

	created, err := h.engines.Store.Create(c.Request.Context(), resource)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// GetResource returns a single resource stock
func (h *EconomyHandlers) GetResource(c *gin.Context) {
	resourceID := c.Param("resourceId")

	resource, err := h.engines.Store.Get(c.Request.Context(), resourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch resource"})
		return
	}
	if resource == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resource,
	})
}

// GetRegionResources returns all resource stocks held by a region
func (h *EconomyHandlers) GetRegionResources(c *gin.Context) {
	regionID := c.Param("regionId")

	resources, err := h.engines.Store.ListByRegion(c.Request.Context(), regionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch resources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resources,
	})
}

// AdjustResourceAmount applies a signed delta to a resource stock
func (h *EconomyHandlers) AdjustResourceAmount(c *gin.Context) {
	resourceID := c.Param("resourceId")

	var req AdjustAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	delta, validationErrors := ValidateAdjustAmountRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	resource, err := h.engines.Store.AdjustAmount(c.Request.Context(), resourceID, delta)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resource,
	})
}

// TransferResource moves stock of one resource between two regions
func (h *EconomyHandlers) TransferResource(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	amount, validationErrors := ValidateTransferRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	ok, message := h.engines.Store.Transfer(c.Request.Context(), req.SourceRegionID, req.DestinationRegionID, req.ResourceID, amount)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message":               message,
			"source_region_id":      req.SourceRegionID,
			"destination_region_id": req.DestinationRegionID,
			"resource_id":           req.ResourceID,
			"amount":                amount,
		},
	})
}

// DeleteResource removes a resource stock
func (h *EconomyHandlers) DeleteResource(c *gin.Context) {
	resourceID := c.Param("resourceId")

	if err := h.engines.Store.Delete(c.Request.Context(), resourceID); err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Resource deleted",
			"id":      resourceID,
		},
	})
}

// UpdateResource updates resource metadata. Stock levels change through
// adjust and transfer, not here.
func UpdateResource(c *gin.Context) {
	resourceID := c.Param("resourceId")

	var req UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	baseValue, validationErrors := ValidateUpdateResourceRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	var resource models.Resource
	if err := database.GetDB().Where("id = ?", resourceID).First(&resource).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}

	if req.Name != nil {
		resource.Name = *req.Name
	}
	if req.Rarity != nil {
		resource.Rarity = *req.Rarity
	}
	if req.BaseValue != nil {
		resource.BaseValue = baseValue
	}
	if req.IsTradeable != nil {
		resource.IsTradeable = *req.IsTradeable
	}

	if err := database.GetDB().Save(&resource).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update resource"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resource,
	})
}

// ApplyPopulationImpact scales a region's stocks after a population change
func (h *EconomyHandlers) ApplyPopulationImpact(c *gin.Context) {
	regionID := c.Param("regionId")

	var req PopulationImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if validationErrors := ValidatePopulationImpactRequest(&req); len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	resources, err := h.engines.Store.ApplyPopulationImpact(c.Request.Context(), regionID, req.PreviousPopulation, req.CurrentPopulation)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resources,
	})
}

// Market Handlers

// GetMarkets returns all active markets
func GetMarkets(c *gin.Context) {
	var markets []models.Market

	if err := database.GetDB().Where("is_active = ?", true).Find(&markets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
	})
}

// GetMarket returns a specific market
func GetMarket(c *gin.Context) {
	marketID := c.Param("marketId")

	var market models.Market
	if err := database.GetDB().Where("id = ?", marketID).First(&market).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Market not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    market,
	})
}

// CreateMarket creates a new market
func (h *EconomyHandlers) CreateMarket(c *gin.Context) {
	var req CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	taxRate, validationErrors := ValidateCreateMarketRequest(&req, h.cfg.Economy.DefaultTaxRate)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	market := models.Market{
		ID:           req.ID,
		RegionID:     req.RegionID,
		MarketType:   req.MarketType,
		Name:         req.Name,
		IsActive:     true,
		TaxRate:      taxRate,
		SupplyDemand: req.SupplyDemand,
	}
	if market.ID == "" {
		market.ID = generateID()
	}
	if market.Name == "" {
		market.Name = market.RegionID + " market"
	}
	if market.SupplyDemand == nil {
		market.SupplyDemand = models.SupplyDemandMap{}
	}

	if err := database.GetDB().Create(&market).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create market"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    market,
	})
}

// GetResourcePrice quotes the current supply and demand adjusted price for a
// resource in a market
func (h *EconomyHandlers) GetResourcePrice(c *gin.Context) {
	marketID := c.Param("marketId")
	resourceID := c.Param("resourceId")

	v := NewValidator()
	quantity := v.ValidateQuantity("quantity", c.Query("quantity"))
	if v.HasErrors() {
		SendValidationErrors(c, v.GetErrors())
		return
	}

	// Unit price quotes are cached; quantity quotes always hit the engine
	if quantity.Equal(decimal.NewFromInt(1)) {
		var cached economy.PriceDetails
		if err := cache.GetResourcePrice(marketID, resourceID, &cached); err == nil && cached.Status == "ok" {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    cached,
				"cached":  true,
			})
			return
		}
	}

	price, details := h.engines.Pricing.CalculatePrice(c.Request.Context(), resourceID, marketID, quantity)
	if details.Status == "not_found" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource or market not found"})
		return
	}

	if quantity.Equal(decimal.NewFromInt(1)) {
		cache.CacheResourcePrice(marketID, resourceID, details)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    details,
		"price":   price,
	})
}

// UpdateMarketConditions applies demand multipliers to every active market in
// a region and reprices them
func (h *EconomyHandlers) UpdateMarketConditions(c *gin.Context) {
	regionID := c.Param("regionId")

	var req MarketConditionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if validationErrors := ValidateMarketConditionsRequest(&req); len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	markets, err := h.engines.Pricing.UpdateMarketConditions(c.Request.Context(), regionID, req.Modifiers)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	// Cached quotes for the repriced resources are stale the moment the
	// supply and demand values change
	for i := range markets {
		for _, resourceID := range affectedResourceIDs(&markets[i], req.Modifiers) {
			cache.InvalidateResourcePrice(markets[i].ID, resourceID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
	})
}

// affectedResourceIDs resolves which resources' cached quotes a condition
// update touches for one market. A "*" modifier covers every resource the
// market tracks.
func affectedResourceIDs(market *models.Market, modifiers map[string]float64) []string {
	seen := make(map[string]bool, len(modifiers))
	for resourceID := range modifiers {
		if resourceID == "*" {
			for tracked := range market.SupplyDemand {
				seen[tracked] = true
			}
			continue
		}
		seen[resourceID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetPriceTrends reports min, max and average prices for a resource across
// the markets of one region or all regions
func (h *EconomyHandlers) GetPriceTrends(c *gin.Context) {
	resourceID := c.Param("resourceId")
	regionID := c.Query("region_id")

	report, err := h.engines.Pricing.ResourcePriceTrends(c.Request.Context(), resourceID, regionID)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// Trade Route Handlers

// GetTradeRoutes returns all trade routes
func GetTradeRoutes(c *gin.Context) {
	var routes []models.TradeRoute

	if err := database.GetDB().Order("id").Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trade routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    routes,
	})
}

// GetTradeRoute returns a specific trade route
func GetTradeRoute(c *gin.Context) {
	routeID := c.Param("routeId")

	var route models.TradeRoute
	if err := database.GetDB().Where("id = ?", routeID).First(&route).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trade route not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    route,
	})
}

// CreateTradeRoute creates a new trade route
func CreateTradeRoute(c *gin.Context) {
	var req CreateTradeRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	volume, validationErrors := ValidateCreateTradeRouteRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	frequency := req.Frequency
	if frequency == 0 {
		frequency = 1
	}

	route := models.TradeRoute{
		ID:                  req.ID,
		Name:                req.Name,
		OriginRegionID:      req.OriginRegionID,
		DestinationRegionID: req.DestinationRegionID,
		ResourceIDs:         req.ResourceIDs,
		Status:              models.RouteStatusActive,
		Frequency:           frequency,
		TransferVolume:      volume,
	}
	if route.ID == "" {
		route.ID = generateID()
	}
	if route.Name == "" {
		route.Name = route.OriginRegionID + "-" + route.DestinationRegionID
	}

	if err := database.GetDB().Create(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create trade route"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    route,
	})
}

// UpdateTradeRouteStatus changes a route between active, disrupted and closed
func UpdateTradeRouteStatus(c *gin.Context) {
	routeID := c.Param("routeId")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	status := models.RouteStatus(req.Status)
	if status != models.RouteStatusActive && status != models.RouteStatusDisrupted && status != models.RouteStatusClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of active, disrupted, closed"})
		return
	}

	var route models.TradeRoute
	if err := database.GetDB().Where("id = ?", routeID).First(&route).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trade route not found"})
		return
	}

	route.Status = status
	if err := database.GetDB().Save(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trade route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    route,
	})
}

// ProcessTradeRoutes runs every runnable route against the current tick
// without advancing the tick counter
func (h *EconomyHandlers) ProcessTradeRoutes(c *gin.Context) {
	result, err := h.engines.Trades.ProcessRoutes(c.Request.Context(), int(h.runner.TickCount()))
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Futures Handlers

// CreateFuture opens a new commodity futures contract
func (h *EconomyHandlers) CreateFuture(c *gin.Context) {
	var req CreateFutureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	quantity, strikePrice, premium, validationErrors := ValidateCreateFutureRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	expiration, err := time.Parse(time.RFC3339, req.ExpirationDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiration_date must be RFC3339"})
		return
	}

	future := &models.CommodityFuture{
		ResourceID:     req.ResourceID,
		MarketID:       req.MarketID,
		SellerID:       req.SellerID,
		ContractType:   req.ContractType,
		Quantity:       quantity,
		StrikePrice:    strikePrice,
		Premium:        premium,
		ExpirationDate: expiration,
	}

	created, err := h.engines.Futures.CreateFuture(c.Request.Context(), future)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// GetFuture returns a single futures contract
func GetFuture(c *gin.Context) {
	futureID := c.Param("futureId")

	var future models.CommodityFuture
	if err := database.GetDB().Where("id = ?", futureID).First(&future).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Future not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    future,
	})
}

// GetFutures returns futures contracts, optionally filtered by status
func GetFutures(c *gin.Context) {
	query := database.GetDB().Order("id")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var futures []models.CommodityFuture
	if err := query.Find(&futures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch futures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    futures,
	})
}

// GetOpenFutures returns open and matched contracts for a resource
func GetOpenFutures(c *gin.Context) {
	resourceID := c.Param("resourceId")
	marketID := c.Query("market_id")

	query := database.GetDB().
		Where("resource_id = ? AND status IN ?", resourceID, []string{"open", "matched"})
	if marketID != "" {
		query = query.Where("market_id = ?", marketID)
	}

	var futures []models.CommodityFuture
	if err := query.Order("id").Find(&futures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch futures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    futures,
	})
}

// MatchFuture records a buyer on an open contract
func (h *EconomyHandlers) MatchFuture(c *gin.Context) {
	futureID := c.Param("futureId")

	var req MatchFutureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	future, err := h.engines.Futures.MatchBuyer(c.Request.Context(), futureID, req.BuyerID)
	if err != nil {
		respondEconomyError(c, err)
		return
	}
	if future == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Future is not open for matching"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    future,
	})
}

// SettleFuture settles a matched contract at the current market price
func (h *EconomyHandlers) SettleFuture(c *gin.Context) {
	futureID := c.Param("futureId")

	settlement := h.engines.Futures.SettleFuture(c.Request.Context(), futureID)
	if !settlement.OK() {
		status := http.StatusBadRequest
		if settlement.Err == "future not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": settlement.Err})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settlement,
	})
}

// ProcessExpiringFutures settles or expires every contract at or past its
// expiration date
func (h *EconomyHandlers) ProcessExpiringFutures(c *gin.Context) {
	result := h.engines.Futures.ProcessExpiringFutures(c.Request.Context(), time.Now().UTC())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ForecastFuturePrices buckets open contracts into expiry periods and reports
// a forecast price per period
func (h *EconomyHandlers) ForecastFuturePrices(c *gin.Context) {
	resourceID := c.Param("resourceId")
	marketID := c.Query("market_id")

	v := NewValidator()
	periods := v.ValidatePeriods("periods", c.Query("periods"), h.cfg.Economy.ForecastPeriods)
	if v.HasErrors() {
		SendValidationErrors(c, v.GetErrors())
		return
	}

	report, err := h.engines.Futures.ForecastFuturePrices(c.Request.Context(), resourceID, marketID, periods)
	if err != nil {
		respondEconomyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// Shop Handlers

// GetShopListings returns the listings stocked by a market's shop
func (h *EconomyHandlers) GetShopListings(c *gin.Context) {
	marketID := c.Param("marketId")

	listings, err := h.engines.Listings.ListByMarket(c.Request.Context(), marketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listings,
	})
}

// ShopSellQuote quotes what a shop charges a player
func (h *EconomyHandlers) ShopSellQuote(c *gin.Context) {
	var req ShopQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	quantity, validationErrors := ValidateShopQuoteRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	buyer := economy.BuyerProfile{Level: req.Level, Charisma: req.Charisma, Reputation: req.Reputation}
	quote := h.engines.Shop.SellPrice(c.Request.Context(), req.ResourceID, req.MarketID, req.Rarity, quantity, buyer)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// ShopBuyQuote quotes what a shop pays a player
func (h *EconomyHandlers) ShopBuyQuote(c *gin.Context) {
	var req ShopQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	quantity, validationErrors := ValidateShopQuoteRequest(&req)
	if len(validationErrors) > 0 {
		SendValidationErrors(c, validationErrors)
		return
	}

	buyer := economy.BuyerProfile{Level: req.Level, Charisma: req.Charisma, Reputation: req.Reputation}
	quote := h.engines.Shop.BuyPrice(c.Request.Context(), req.ResourceID, req.MarketID, req.Rarity, quantity, buyer)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    quote,
	})
}

// Economy Tick Handlers

// ProcessTick runs one economy tick immediately
func (h *EconomyHandlers) ProcessTick(c *gin.Context) {
	report := h.runner.RunOnce(c.Request.Context())
	cache.CacheTickReport(report)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetLastTickReport returns the most recent tick report
func GetLastTickReport(c *gin.Context) {
	var report economy.TickReport
	if err := cache.GetTickReport(&report); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No tick report available"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// GetEconomyStatus reports entity counts and the current tick
func (h *EconomyHandlers) GetEconomyStatus(c *gin.Context) {
	var resourceCount, marketCount, routeCount, futureCount int64
	database.GetDB().Model(&models.Resource{}).Count(&resourceCount)
	database.GetDB().Model(&models.Market{}).Count(&marketCount)
	database.GetDB().Model(&models.TradeRoute{}).Count(&routeCount)
	database.GetDB().Model(&models.CommodityFuture{}).Count(&futureCount)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"resources":    resourceCount,
			"markets":      marketCount,
			"trade_routes": routeCount,
			"futures":      futureCount,
			"tick_count":   h.runner.TickCount(),
			"connections":  GetWebSocketHub().GetStats(),
		},
	})
}

// WebSocket Handler
func HandleWebSocket(c *gin.Context) {
	hub := GetWebSocketHub()
	hub.HandleWebSocket(c)
}

// Admin Handlers

// CheckDatabaseHealth checks database connectivity
func CheckDatabaseHealth(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// CheckRedisHealth checks Redis connectivity
func CheckRedisHealth(c *gin.Context) {
	if err := cache.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Helper functions

func generateID() string {
	return xid.New().String()
}

// GetMetrics returns system metrics
func GetMetrics(c *gin.Context) {
	var resourceCount, marketCount, routeCount, futureCount int64
	database.GetDB().Model(&models.Resource{}).Count(&resourceCount)
	database.GetDB().Model(&models.Market{}).Count(&marketCount)
	database.GetDB().Model(&models.TradeRoute{}).Count(&routeCount)
	database.GetDB().Model(&models.CommodityFuture{}).Count(&futureCount)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"resources":    resourceCount,
			"markets":      marketCount,
			"trade_routes": routeCount,
			"futures":      futureCount,
			"uptime":       time.Now().Format(time.RFC3339),
		},
	})
}
