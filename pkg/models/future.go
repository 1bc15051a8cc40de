package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FutureStatus values for CommodityFuture.Status
type FutureStatus string

const (
	FutureStatusOpen      FutureStatus = "open"
	FutureStatusMatched   FutureStatus = "matched"
	FutureStatusExpired   FutureStatus = "expired"
	FutureStatusSettled   FutureStatus = "settled"
	FutureStatusCancelled FutureStatus = "cancelled"
)

// ContractType values for CommodityFuture.ContractType
const (
	ContractTypeFuture  = "future"
	ContractTypeOption  = "option"
	ContractTypeForward = "forward"
)

// CommodityFuture is a contract to exchange a resource at a strike price on
// an expiration date. Contracts start open, gain a buyer via matching, and
// finish either settled (matched) or expired (never matched).
type CommodityFuture struct {
	ID             string          `gorm:"primaryKey" json:"id"`
	ResourceID     string          `gorm:"not null;index" json:"resource_id"`
	MarketID       string          `gorm:"not null;index" json:"market_id"`
	SellerID       string          `gorm:"not null;index" json:"seller_id"`
	BuyerID        string          `gorm:"index" json:"buyer_id,omitempty"`
	ContractType   string          `gorm:"size:20;default:'future'" json:"contract_type"`
	Status         FutureStatus    `gorm:"size:20;default:'open';index" json:"status"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,8)" json:"quantity"`
	StrikePrice    decimal.Decimal `gorm:"type:decimal(20,8)" json:"strike_price"`
	Premium        decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"premium"`
	ExpirationDate time.Time       `gorm:"not null;index" json:"expiration_date"`
	SettlementDate *time.Time      `json:"settlement_date,omitempty"`
	IsSettled      bool            `gorm:"default:false" json:"is_settled"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (CommodityFuture) TableName() string { return "commodity_futures" }
