package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"emberveil-engine/pkg/models"
)

// MarketRepo is the gorm-backed economy.MarketRepository.
type MarketRepo struct {
	db *gorm.DB
}

func NewMarketRepo(db *gorm.DB) *MarketRepo {
	return &MarketRepo{db: db}
}

func (r *MarketRepo) Get(ctx context.Context, id string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&market).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &market, nil
}

func (r *MarketRepo) ListByRegion(ctx context.Context, regionID string) ([]models.Market, error) {
	var markets []models.Market
	err := r.db.WithContext(ctx).Where("region_id = ?", regionID).Order("id").Find(&markets).Error
	return markets, err
}

func (r *MarketRepo) ListAll(ctx context.Context) ([]models.Market, error) {
	var markets []models.Market
	err := r.db.WithContext(ctx).Order("id").Find(&markets).Error
	return markets, err
}

func (r *MarketRepo) ListRegions(ctx context.Context) ([]string, error) {
	var regions []string
	err := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Distinct("region_id").
		Order("region_id").
		Pluck("region_id", &regions).Error
	return regions, err
}

func (r *MarketRepo) Create(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

func (r *MarketRepo) Update(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

func (r *MarketRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Market{}).Error
}
