package repository

import (
	"context"

	"gorm.io/gorm"

	"emberveil-engine/pkg/models"
)

// ShopListingRepo is the gorm-backed economy.ShopListingRepository.
type ShopListingRepo struct {
	db *gorm.DB
}

func NewShopListingRepo(db *gorm.DB) *ShopListingRepo {
	return &ShopListingRepo{db: db}
}

func (r *ShopListingRepo) ListByMarket(ctx context.Context, marketID string) ([]models.ShopListing, error) {
	var listings []models.ShopListing
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).Order("id").Find(&listings).Error
	return listings, err
}

func (r *ShopListingRepo) Create(ctx context.Context, listing *models.ShopListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *ShopListingRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ShopListing{}).Error
}
