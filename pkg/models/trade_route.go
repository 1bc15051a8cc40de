package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RouteStatus values for TradeRoute.Status
type RouteStatus string

const (
	RouteStatusActive    RouteStatus = "active"
	RouteStatusDisrupted RouteStatus = "disrupted"
	RouteStatusClosed    RouteStatus = "closed"
)

// TradeRoute moves stock between two regions on a fixed cadence.
type TradeRoute struct {
	ID                  string                         `gorm:"primaryKey" json:"id"`
	Name                string                         `gorm:"not null" json:"name"`
	OriginRegionID      string                         `gorm:"not null;index" json:"origin_region_id"`
	DestinationRegionID string                         `gorm:"not null;index" json:"destination_region_id"`
	ResourceIDs         datatypes.JSONSlice[string]    `json:"resource_ids"`
	Status              RouteStatus                    `gorm:"size:20;default:'active';index" json:"status"`
	Frequency           int                            `gorm:"default:1" json:"frequency"` // run every N ticks
	TransferVolume      decimal.Decimal                `gorm:"type:decimal(20,8);default:0" json:"transfer_volume"`
	Volume              decimal.Decimal                `gorm:"type:decimal(20,8);default:0" json:"volume"` // lifetime transferred amount
	Profit              decimal.Decimal                `gorm:"type:decimal(20,8);default:0" json:"profit"` // lifetime shipment value
	Metadata            datatypes.JSON                 `json:"metadata,omitempty"`
	CreatedAt           time.Time                      `json:"created_at"`
	UpdatedAt           time.Time                      `json:"updated_at"`
}

// PrimaryResourceID returns the first carried resource, or "" when the
// route has nothing assigned.
func (r *TradeRoute) PrimaryResourceID() string {
	if len(r.ResourceIDs) == 0 {
		return ""
	}
	return r.ResourceIDs[0]
}

func (TradeRoute) TableName() string { return "trade_routes" }
