package economy

import (
	"context"
	"time"

	"emberveil-engine/pkg/models"
)

// ResourceRepository is the persistence port for Resource rows. Get returns
// (nil, nil) when the resource does not exist; errors are reserved for
// storage failures.
type ResourceRepository interface {
	Get(ctx context.Context, id string) (*models.Resource, error)
	GetByRegionAndType(ctx context.Context, regionID, resourceType string) (*models.Resource, error)
	ListByRegion(ctx context.Context, regionID string) ([]models.Resource, error)
	Create(ctx context.Context, resource *models.Resource) error
	Update(ctx context.Context, resource *models.Resource) error
	Delete(ctx context.Context, id string) error

	// Transaction runs fn atomically. Repository methods invoked through the
	// repository passed to fn take part in the same transaction.
	Transaction(ctx context.Context, fn func(repo ResourceRepository) error) error
}

// MarketRepository is the persistence port for Market rows.
type MarketRepository interface {
	Get(ctx context.Context, id string) (*models.Market, error)
	ListByRegion(ctx context.Context, regionID string) ([]models.Market, error)
	ListAll(ctx context.Context) ([]models.Market, error)
	ListRegions(ctx context.Context) ([]string, error)
	Create(ctx context.Context, market *models.Market) error
	Update(ctx context.Context, market *models.Market) error
	Delete(ctx context.Context, id string) error
}

// TradeRouteRepository is the persistence port for TradeRoute rows.
type TradeRouteRepository interface {
	Get(ctx context.Context, id string) (*models.TradeRoute, error)
	// ListRunnable returns active and disrupted routes ordered by id.
	// Closed routes are excluded.
	ListRunnable(ctx context.Context) ([]models.TradeRoute, error)
	ListAll(ctx context.Context) ([]models.TradeRoute, error)
	Create(ctx context.Context, route *models.TradeRoute) error
	Update(ctx context.Context, route *models.TradeRoute) error
	Delete(ctx context.Context, id string) error
}

// FutureRepository is the persistence port for CommodityFuture rows.
type FutureRepository interface {
	Get(ctx context.Context, id string) (*models.CommodityFuture, error)
	ListByResource(ctx context.Context, resourceID string) ([]models.CommodityFuture, error)
	// ListOpen returns contracts in the open or matched state, optionally
	// filtered by market. Pass "" for all markets.
	ListOpen(ctx context.Context, resourceID, marketID string) ([]models.CommodityFuture, error)
	// ListExpiring returns unsettled contracts whose expiration date is at
	// or before now, ordered by id.
	ListExpiring(ctx context.Context, now time.Time) ([]models.CommodityFuture, error)
	Create(ctx context.Context, future *models.CommodityFuture) error
	Update(ctx context.Context, future *models.CommodityFuture) error
}

// ShopListingRepository is the persistence port for ShopListing rows.
type ShopListingRepository interface {
	ListByMarket(ctx context.Context, marketID string) ([]models.ShopListing, error)
	Create(ctx context.Context, listing *models.ShopListing) error
	Delete(ctx context.Context, id string) error
}
