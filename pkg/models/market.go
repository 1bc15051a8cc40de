package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SupplyDemand holds the live supply/demand state for one resource in a
// market. Both values live on a 0-100 scale.
type SupplyDemand struct {
	Supply float64 `json:"supply"`
	Demand float64 `json:"demand"`
}

// Clamped returns the state with both values forced into [0,100].
func (sd SupplyDemand) Clamped() SupplyDemand {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
		return v
	}
	return SupplyDemand{Supply: clamp(sd.Supply), Demand: clamp(sd.Demand)}
}

// SupplyDemandMap maps resource ID to that resource's supply/demand state.
// Stored as a JSON column.
type SupplyDemandMap map[string]SupplyDemand

func (m SupplyDemandMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *SupplyDemandMap) Scan(value interface{}) error {
	if value == nil {
		*m = SupplyDemandMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for SupplyDemandMap: %T", value)
	}
	if len(data) == 0 {
		*m = SupplyDemandMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Market represents a pricing venue within a region
type Market struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	RegionID     string          `gorm:"not null;index" json:"region_id"`
	MarketType   string          `gorm:"not null;size:50" json:"market_type"` // e.g. "bazaar", "exchange", "shop"
	Name         string          `gorm:"not null" json:"name"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(5,4);default:0.05" json:"tax_rate"`
	SupplyDemand SupplyDemandMap `gorm:"type:jsonb" json:"supply_demand"`
	Volume       decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"volume"` // cumulative traded value
	Metadata     datatypes.JSON  `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ShopListing is a display-oriented inventory entry for markets that double
// as shops. It references a Resource by ID instead of duplicating its data.
type ShopListing struct {
	ID         string          `gorm:"primaryKey" json:"id"`
	MarketID   string          `gorm:"not null;index" json:"market_id"`
	ResourceID string          `gorm:"index" json:"resource_id,omitempty"` // empty for flavor-only stock
	Name       string          `gorm:"not null" json:"name"`
	Category   string          `gorm:"size:50" json:"category"`
	Rarity     string          `gorm:"size:20;default:'common'" json:"rarity"`
	Price      decimal.Decimal `gorm:"type:decimal(20,8)" json:"price"`
	AddedAt    time.Time       `json:"added_at"`

	// Relationships
	Market Market `gorm:"foreignKey:MarketID" json:"-"`
}

// TableName methods
func (Market) TableName() string      { return "markets" }
func (ShopListing) TableName() string { return "shop_listings" }
