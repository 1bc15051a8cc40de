package models

/*
Emberveil Engine Database Models

This package contains all database models organized by domain:

- resource.go    - Resource stockpiles per region
- market.go      - Market and ShopListing models with supply/demand state
- trade_route.go - TradeRoute model with status enum
- future.go      - CommodityFuture model with contract/status enums
- events.go      - Event envelope and event type constants
- utils.go       - Shared utility functions

To add new models:
1. Create a new file for your domain (e.g., caravan.go, guild.go)
2. Define your models with appropriate GORM tags
3. Add TableName() methods if needed
4. Include the models in database.AutoMigrate()

Example:
```go
// pkg/models/caravan.go
type Caravan struct {
    ID       string `gorm:"primaryKey"`
    RegionID string `gorm:"not null;index"`
    Capacity decimal.Decimal `gorm:"type:decimal(20,8)"`
    // ... other fields
}

func (Caravan) TableName() string { return "caravans" }
```
*/
