package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"emberveil-engine/pkg/config"
	"emberveil-engine/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize database connection
func Initialize(cfg *config.Config) error {
	dsn := cfg.GetDatabaseURL()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Connection pool configuration
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLife)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	log.Println("Database connected successfully")
	return nil
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(
		&models.Resource{},
		&models.Market{},
		&models.ShopListing{},
		&models.TradeRoute{},
		&models.CommodityFuture{},
		&models.RateLimit{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database migration completed successfully")
	return nil
}

// SeedData creates initial data for development
func SeedData() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	resources := []models.Resource{
		{
			ID:           "grain-emberveil",
			RegionID:     "emberveil",
			ResourceType: "food",
			Name:         "Grain",
			Amount:       models.DecimalFromString("500"),
			Quantity:     500,
			BaseValue:    models.DecimalFromString("10"),
			Rarity:       models.RarityCommon,
			IsTradeable:  true,
		},
		{
			ID:           "iron-emberveil",
			RegionID:     "emberveil",
			ResourceType: "metal",
			Name:         "Iron Ingots",
			Amount:       models.DecimalFromString("120"),
			Quantity:     120,
			BaseValue:    models.DecimalFromString("45"),
			Rarity:       models.RarityUncommon,
			IsTradeable:  true,
		},
		{
			ID:           "grain-thornmere",
			RegionID:     "thornmere",
			ResourceType: "food",
			Name:         "Grain",
			Amount:       models.DecimalFromString("80"),
			Quantity:     80,
			BaseValue:    models.DecimalFromString("10"),
			Rarity:       models.RarityCommon,
			IsTradeable:  true,
		},
		{
			ID:           "moonsilk-thornmere",
			RegionID:     "thornmere",
			ResourceType: "luxury",
			Name:         "Moonsilk",
			Amount:       models.DecimalFromString("15"),
			Quantity:     15,
			BaseValue:    models.DecimalFromString("200"),
			Rarity:       models.RarityRare,
			IsTradeable:  true,
		},
	}

	for _, resource := range resources {
		var existing models.Resource
		result := DB.Where("id = ?", resource.ID).First(&existing)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				if err := DB.Create(&resource).Error; err != nil {
					return fmt.Errorf("failed to create resource %s: %w", resource.ID, err)
				}
				log.Printf("Created resource: %s", resource.ID)
			} else {
				return fmt.Errorf("failed to check resource %s: %w", resource.ID, result.Error)
			}
		}
	}

	markets := []models.Market{
		{
			ID:         "emberveil-bazaar",
			RegionID:   "emberveil",
			MarketType: "bazaar",
			Name:       "Emberveil Grand Bazaar",
			IsActive:   true,
			TaxRate:    models.DecimalFromString("0.05"),
			SupplyDemand: models.SupplyDemandMap{
				"grain-emberveil": {Supply: 70, Demand: 40},
				"iron-emberveil":  {Supply: 45, Demand: 60},
			},
		},
		{
			ID:         "thornmere-exchange",
			RegionID:   "thornmere",
			MarketType: "exchange",
			Name:       "Thornmere Merchant Exchange",
			IsActive:   true,
			TaxRate:    models.DecimalFromString("0.08"),
			SupplyDemand: models.SupplyDemandMap{
				"grain-thornmere":    {Supply: 30, Demand: 75},
				"moonsilk-thornmere": {Supply: 20, Demand: 85},
			},
		},
	}

	for _, market := range markets {
		var existing models.Market
		result := DB.Where("id = ?", market.ID).First(&existing)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				if err := DB.Create(&market).Error; err != nil {
					return fmt.Errorf("failed to create market %s: %w", market.ID, err)
				}
				log.Printf("Created market: %s", market.ID)
			} else {
				return fmt.Errorf("failed to check market %s: %w", market.ID, result.Error)
			}
		}
	}

	routes := []models.TradeRoute{
		{
			ID:                  "emberveil-thornmere-grain",
			Name:                "Emberveil Grain Road",
			OriginRegionID:      "emberveil",
			DestinationRegionID: "thornmere",
			ResourceIDs:         []string{"grain-emberveil"},
			Status:              models.RouteStatusActive,
			Frequency:           1,
			TransferVolume:      models.DecimalFromString("25"),
		},
	}

	for _, route := range routes {
		var existing models.TradeRoute
		result := DB.Where("id = ?", route.ID).First(&existing)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				if err := DB.Create(&route).Error; err != nil {
					return fmt.Errorf("failed to create trade route %s: %w", route.ID, err)
				}
				log.Printf("Created trade route: %s", route.ID)
			} else {
				return fmt.Errorf("failed to check trade route %s: %w", route.ID, result.Error)
			}
		}
	}

	futures := []models.CommodityFuture{
		{
			ID:             "grain-harvest-future",
			ResourceID:     "grain-emberveil",
			MarketID:       "emberveil-bazaar",
			SellerID:       "granary-guild",
			ContractType:   models.ContractTypeFuture,
			Status:         models.FutureStatusOpen,
			Quantity:       models.DecimalFromString("100"),
			StrikePrice:    models.DecimalFromString("12"),
			ExpirationDate: time.Now().AddDate(0, 1, 0),
		},
	}

	for _, future := range futures {
		var existing models.CommodityFuture
		result := DB.Where("id = ?", future.ID).First(&existing)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				if err := DB.Create(&future).Error; err != nil {
					return fmt.Errorf("failed to create future %s: %w", future.ID, err)
				}
				log.Printf("Created commodity future: %s", future.ID)
			} else {
				return fmt.Errorf("failed to check future %s: %w", future.ID, result.Error)
			}
		}
	}

	listings := []models.ShopListing{
		{
			ID:         "bazaar-grain-sacks",
			MarketID:   "emberveil-bazaar",
			ResourceID: "grain-emberveil",
			Name:       "Grain Sacks",
			Category:   "provisions",
			Rarity:     models.RarityCommon,
			Price:      models.DecimalFromString("12"),
			AddedAt:    time.Now(),
		},
		{
			ID:         "exchange-moonsilk-bolt",
			MarketID:   "thornmere-exchange",
			ResourceID: "moonsilk-thornmere",
			Name:       "Bolt of Moonsilk",
			Category:   "textiles",
			Rarity:     models.RarityRare,
			Price:      models.DecimalFromString("230"),
			AddedAt:    time.Now(),
		},
		{
			ID:       "bazaar-traveler-charm",
			MarketID: "emberveil-bazaar",
			Name:     "Traveler's Charm",
			Category: "curios",
			Rarity:   models.RarityUncommon,
			Price:    models.DecimalFromString("35"),
			AddedAt:  time.Now(),
		},
	}

	for _, listing := range listings {
		var existing models.ShopListing
		result := DB.Where("id = ?", listing.ID).First(&existing)
		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				if err := DB.Create(&listing).Error; err != nil {
					return fmt.Errorf("failed to create shop listing %s: %w", listing.ID, err)
				}
				log.Printf("Created shop listing: %s", listing.ID)
			} else {
				return fmt.Errorf("failed to check shop listing %s: %w", listing.ID, result.Error)
			}
		}
	}

	log.Println("Database seeding completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Health check for database
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
