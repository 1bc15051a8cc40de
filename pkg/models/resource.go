package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceRarity tiers, lowest to highest
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// Resource represents a tradeable stock of a good held by a region.
//
// Quantity is the discrete unit count used for display; Amount is the
// continuous stock level that pricing and trade logic operate on. The two
// are related but not interchangeable.
type Resource struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	RegionID     string          `gorm:"not null;index" json:"region_id"`
	ResourceType string          `gorm:"not null;size:50;index" json:"resource_type"` // e.g. "ore", "grain"
	Name         string          `gorm:"not null" json:"name"`
	Quantity     int             `gorm:"default:0" json:"quantity"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"amount"`
	BaseValue    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"base_value"`
	Rarity       string          `gorm:"size:20;default:'common'" json:"rarity"`
	IsTradeable  bool            `gorm:"default:true" json:"is_tradeable"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Resource) TableName() string { return "resources" }
