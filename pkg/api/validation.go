package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"emberveil-engine/pkg/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, ", ")
}

// Validator provides validation utilities
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetErrors returns all validation errors
func (v *Validator) GetErrors() ValidationErrors {
	return v.errors
}

var (
	idRegex           = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	resourceTypeRegex = regexp.MustCompile(`^[a-z][a-z_]{1,31}$`)
)

var validRarities = map[string]bool{
	"common":    true,
	"uncommon":  true,
	"rare":      true,
	"epic":      true,
	"legendary": true,
}

// ValidateID validates identifiers used for resources, markets, regions and
// routes. IDs are lowercase slugs.
func (v *Validator) ValidateID(field, value string) {
	if value == "" {
		v.AddError(field, "is required")
		return
	}
	if !idRegex.MatchString(value) {
		v.AddError(field, "must be a lowercase slug (letters, digits, - or _)")
	}
}

// ValidateResourceType validates a resource type such as "grain" or "ore"
func (v *Validator) ValidateResourceType(field, value string) {
	if value == "" {
		v.AddError(field, "is required")
		return
	}
	if !resourceTypeRegex.MatchString(value) {
		v.AddError(field, "must be a lowercase type name")
	}
}

// ValidateRarity validates a rarity tier, empty defaults to common
func (v *Validator) ValidateRarity(field, value string) {
	if value == "" {
		return
	}
	if !validRarities[value] {
		v.AddError(field, "must be one of common, uncommon, rare, epic, legendary")
	}
}

// ValidateAmount validates a decimal amount string and returns the parsed value
func (v *Validator) ValidateAmount(field, value string, allowNegative bool) decimal.Decimal {
	if value == "" {
		v.AddError(field, "is required")
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		v.AddError(field, "must be a valid decimal number")
		return decimal.Zero
	}

	if !allowNegative && amount.IsNegative() {
		v.AddError(field, "must not be negative")
		return decimal.Zero
	}

	return amount
}

// ValidatePositiveAmount validates a decimal that must be strictly positive
func (v *Validator) ValidatePositiveAmount(field, value string) decimal.Decimal {
	if value == "" {
		v.AddError(field, "is required")
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		v.AddError(field, "must be a valid decimal number")
		return decimal.Zero
	}

	if !amount.IsPositive() {
		v.AddError(field, "must be greater than zero")
	}

	return amount
}

// ValidateQuantity validates an optional quantity string, defaulting to 1
func (v *Validator) ValidateQuantity(field, value string) decimal.Decimal {
	if value == "" {
		return decimal.NewFromInt(1)
	}

	quantity, err := decimal.NewFromString(value)
	if err != nil {
		v.AddError(field, "must be a valid decimal number")
		return decimal.NewFromInt(1)
	}

	if !quantity.IsPositive() {
		v.AddError(field, "must be greater than zero")
		return decimal.NewFromInt(1)
	}

	return quantity
}

// ValidatePeriods validates a forecast period count
func (v *Validator) ValidatePeriods(field, value string, defaultPeriods int) int {
	if value == "" {
		return defaultPeriods
	}

	periods, err := strconv.Atoi(value)
	if err != nil || periods < 1 {
		v.AddError(field, "must be a positive integer")
		return defaultPeriods
	}
	if periods > 12 {
		v.AddError(field, "must not exceed 12")
		return defaultPeriods
	}

	return periods
}

// ValidateLimit validates pagination limit
func (v *Validator) ValidateLimit(limitStr string) int {
	if limitStr == "" {
		return 50 // default limit
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		v.AddError("limit", "must be a positive integer")
		return 50
	}

	if limit > 1000 {
		v.AddError("limit", "must not exceed 1000")
		return 50
	}

	return limit
}

// ValidateOffset validates pagination offset
func (v *Validator) ValidateOffset(offsetStr string) int {
	if offsetStr == "" {
		return 0
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		v.AddError("offset", "must be a non-negative integer")
		return 0
	}

	return offset
}

// SendValidationErrors sends validation errors as HTTP response
func SendValidationErrors(c *gin.Context, errors ValidationErrors) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"details": errors,
	})
}

// CreateResourceRequest represents a resource creation request
type CreateResourceRequest struct {
	ID           string `json:"id"`
	RegionID     string `json:"region_id" binding:"required"`
	ResourceType string `json:"resource_type" binding:"required"`
	Name         string `json:"name"`
	Amount       string `json:"amount" binding:"required"`
	BaseValue    string `json:"base_value" binding:"required"`
	Rarity       string `json:"rarity"`
}

// ValidateCreateResourceRequest validates a resource creation request
func ValidateCreateResourceRequest(req *CreateResourceRequest) (decimal.Decimal, decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	if req.ID != "" {
		v.ValidateID("id", req.ID)
	}
	v.ValidateID("region_id", req.RegionID)
	v.ValidateResourceType("resource_type", req.ResourceType)
	v.ValidateRarity("rarity", req.Rarity)

	amount := v.ValidateAmount("amount", req.Amount, false)
	baseValue := v.ValidatePositiveAmount("base_value", req.BaseValue)

	return amount, baseValue, v.GetErrors()
}

// UpdateResourceRequest represents a resource metadata update request
type UpdateResourceRequest struct {
	Name        *string `json:"name"`
	Rarity      *string `json:"rarity"`
	BaseValue   *string `json:"base_value"`
	IsTradeable *bool   `json:"is_tradeable"`
}

// ValidateUpdateResourceRequest validates a resource metadata update request
func ValidateUpdateResourceRequest(req *UpdateResourceRequest) (decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	if req.Name == nil && req.Rarity == nil && req.BaseValue == nil && req.IsTradeable == nil {
		v.AddError("request", "must update at least one field")
	}
	if req.Rarity != nil {
		v.ValidateRarity("rarity", *req.Rarity)
	}

	baseValue := decimal.Zero
	if req.BaseValue != nil {
		baseValue = v.ValidatePositiveAmount("base_value", *req.BaseValue)
	}

	return baseValue, v.GetErrors()
}

// CreateMarketRequest represents a market creation request
type CreateMarketRequest struct {
	ID           string                 `json:"id"`
	RegionID     string                 `json:"region_id" binding:"required"`
	MarketType   string                 `json:"market_type"`
	Name         string                 `json:"name"`
	TaxRate      string                 `json:"tax_rate"`
	SupplyDemand models.SupplyDemandMap `json:"supply_demand"`
}

// ValidateCreateMarketRequest validates a market creation request. The tax
// rate falls back to defaultTaxRate when the request omits it.
func ValidateCreateMarketRequest(req *CreateMarketRequest, defaultTaxRate string) (decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	if req.ID != "" {
		v.ValidateID("id", req.ID)
	}
	v.ValidateID("region_id", req.RegionID)

	taxRate := models.DecimalFromString(defaultTaxRate)
	if req.TaxRate != "" {
		taxRate = v.ValidateAmount("tax_rate", req.TaxRate, false)
		if taxRate.GreaterThan(decimal.NewFromInt(1)) {
			v.AddError("tax_rate", "must be between 0 and 1")
		}
	}

	for resourceID, entry := range req.SupplyDemand {
		if !idRegex.MatchString(resourceID) {
			v.AddError("supply_demand", fmt.Sprintf("invalid resource id %q", resourceID))
		}
		if entry.Supply < 0 || entry.Demand < 0 {
			v.AddError("supply_demand", fmt.Sprintf("supply and demand for %q must not be negative", resourceID))
		}
	}

	return taxRate, v.GetErrors()
}

// AdjustAmountRequest represents a stock adjustment request
type AdjustAmountRequest struct {
	Delta string `json:"delta" binding:"required"`
}

// ValidateAdjustAmountRequest validates a stock adjustment request
func ValidateAdjustAmountRequest(req *AdjustAmountRequest) (decimal.Decimal, ValidationErrors) {
	v := NewValidator()
	delta := v.ValidateAmount("delta", req.Delta, true)
	if !v.HasErrors() && delta.IsZero() {
		v.AddError("delta", "must not be zero")
	}
	return delta, v.GetErrors()
}

// TransferRequest represents a resource transfer request
type TransferRequest struct {
	SourceRegionID      string `json:"source_region_id" binding:"required"`
	DestinationRegionID string `json:"destination_region_id" binding:"required"`
	ResourceID          string `json:"resource_id" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
}

// ValidateTransferRequest validates a resource transfer request
func ValidateTransferRequest(req *TransferRequest) (decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	v.ValidateID("source_region_id", req.SourceRegionID)
	v.ValidateID("destination_region_id", req.DestinationRegionID)
	v.ValidateID("resource_id", req.ResourceID)
	amount := v.ValidatePositiveAmount("amount", req.Amount)

	return amount, v.GetErrors()
}

// PopulationImpactRequest represents a population change to apply to a region
type PopulationImpactRequest struct {
	PreviousPopulation int `json:"previous_population"`
	CurrentPopulation  int `json:"current_population"`
}

// ValidatePopulationImpactRequest validates a population change request
func ValidatePopulationImpactRequest(req *PopulationImpactRequest) ValidationErrors {
	v := NewValidator()

	if req.PreviousPopulation < 0 {
		v.AddError("previous_population", "must not be negative")
	}
	if req.CurrentPopulation < 0 {
		v.AddError("current_population", "must not be negative")
	}

	return v.GetErrors()
}

// MarketConditionsRequest represents a market conditions update request
type MarketConditionsRequest struct {
	Modifiers map[string]float64 `json:"modifiers" binding:"required"`
}

// ValidateMarketConditionsRequest validates a market conditions update request
func ValidateMarketConditionsRequest(req *MarketConditionsRequest) ValidationErrors {
	v := NewValidator()

	if len(req.Modifiers) == 0 {
		v.AddError("modifiers", "must contain at least one entry")
	}
	for resourceID, multiplier := range req.Modifiers {
		if resourceID != "*" && !idRegex.MatchString(resourceID) {
			v.AddError("modifiers", fmt.Sprintf("invalid resource id %q", resourceID))
		}
		if multiplier <= 0 {
			v.AddError("modifiers", fmt.Sprintf("multiplier for %q must be positive", resourceID))
		}
	}

	return v.GetErrors()
}

// CreateFutureRequest represents a futures contract creation request
type CreateFutureRequest struct {
	ResourceID     string `json:"resource_id" binding:"required"`
	MarketID       string `json:"market_id" binding:"required"`
	SellerID       string `json:"seller_id" binding:"required"`
	ContractType   string `json:"contract_type"`
	Quantity       string `json:"quantity" binding:"required"`
	StrikePrice    string `json:"strike_price" binding:"required"`
	Premium        string `json:"premium"`
	ExpirationDate string `json:"expiration_date" binding:"required"`
}

// ValidateCreateFutureRequest validates a futures contract creation request
func ValidateCreateFutureRequest(req *CreateFutureRequest) (decimal.Decimal, decimal.Decimal, decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	v.ValidateID("resource_id", req.ResourceID)
	v.ValidateID("market_id", req.MarketID)
	v.ValidateID("seller_id", req.SellerID)

	if req.ContractType != "" && req.ContractType != "future" && req.ContractType != "option" && req.ContractType != "forward" {
		v.AddError("contract_type", "must be one of future, option, forward")
	}

	quantity := v.ValidatePositiveAmount("quantity", req.Quantity)
	strikePrice := v.ValidatePositiveAmount("strike_price", req.StrikePrice)

	premium := decimal.Zero
	if req.Premium != "" {
		premium = v.ValidateAmount("premium", req.Premium, false)
	}

	return quantity, strikePrice, premium, v.GetErrors()
}

// MatchFutureRequest represents a buyer matching request
type MatchFutureRequest struct {
	BuyerID string `json:"buyer_id" binding:"required"`
}

// ShopQuoteRequest represents a shop price quote request
type ShopQuoteRequest struct {
	ResourceID string `json:"resource_id"`
	MarketID   string `json:"market_id"`
	Rarity     string `json:"rarity"`
	Quantity   string `json:"quantity"`
	Level      int    `json:"level"`
	Charisma   int    `json:"charisma"`
	Reputation int    `json:"reputation"`
}

// ValidateShopQuoteRequest validates a shop quote request
func ValidateShopQuoteRequest(req *ShopQuoteRequest) (decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	if req.ResourceID != "" {
		v.ValidateID("resource_id", req.ResourceID)
	}
	if req.MarketID != "" {
		v.ValidateID("market_id", req.MarketID)
	}
	v.ValidateRarity("rarity", req.Rarity)
	quantity := v.ValidateQuantity("quantity", req.Quantity)

	if req.Level < 0 {
		v.AddError("level", "must not be negative")
	}
	if req.Charisma < 0 || req.Charisma > 30 {
		v.AddError("charisma", "must be between 0 and 30")
	}

	return quantity, v.GetErrors()
}

// CreateTradeRouteRequest represents a trade route creation request
type CreateTradeRouteRequest struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	OriginRegionID      string   `json:"origin_region_id" binding:"required"`
	DestinationRegionID string   `json:"destination_region_id" binding:"required"`
	ResourceIDs         []string `json:"resource_ids" binding:"required"`
	Frequency           int      `json:"frequency"`
	TransferVolume      string   `json:"transfer_volume"`
}

// ValidateCreateTradeRouteRequest validates a trade route creation request
func ValidateCreateTradeRouteRequest(req *CreateTradeRouteRequest) (decimal.Decimal, ValidationErrors) {
	v := NewValidator()

	if req.ID != "" {
		v.ValidateID("id", req.ID)
	}
	v.ValidateID("origin_region_id", req.OriginRegionID)
	v.ValidateID("destination_region_id", req.DestinationRegionID)
	if req.OriginRegionID != "" && req.OriginRegionID == req.DestinationRegionID {
		v.AddError("destination_region_id", "must differ from origin_region_id")
	}
	if len(req.ResourceIDs) == 0 {
		v.AddError("resource_ids", "must contain at least one resource")
	}
	for _, id := range req.ResourceIDs {
		if !idRegex.MatchString(id) {
			v.AddError("resource_ids", fmt.Sprintf("invalid resource id %q", id))
		}
	}
	if req.Frequency < 0 {
		v.AddError("frequency", "must not be negative")
	}

	volume := decimal.Zero
	if req.TransferVolume != "" {
		volume = v.ValidatePositiveAmount("transfer_volume", req.TransferVolume)
	}

	return volume, v.GetErrors()
}
