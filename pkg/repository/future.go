package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"emberveil-engine/pkg/models"
)

// FutureRepo is the gorm-backed economy.FutureRepository.
type FutureRepo struct {
	db *gorm.DB
}

func NewFutureRepo(db *gorm.DB) *FutureRepo {
	return &FutureRepo{db: db}
}

func (r *FutureRepo) Get(ctx context.Context, id string) (*models.CommodityFuture, error) {
	var future models.CommodityFuture
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&future).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &future, nil
}

func (r *FutureRepo) ListByResource(ctx context.Context, resourceID string) ([]models.CommodityFuture, error) {
	var futures []models.CommodityFuture
	err := r.db.WithContext(ctx).Where("resource_id = ?", resourceID).Order("id").Find(&futures).Error
	return futures, err
}

func (r *FutureRepo) ListOpen(ctx context.Context, resourceID, marketID string) ([]models.CommodityFuture, error) {
	query := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", []models.FutureStatus{models.FutureStatusOpen, models.FutureStatusMatched})
	if marketID != "" {
		query = query.Where("market_id = ?", marketID)
	}
	var futures []models.CommodityFuture
	err := query.Order("id").Find(&futures).Error
	return futures, err
}

func (r *FutureRepo) ListExpiring(ctx context.Context, now time.Time) ([]models.CommodityFuture, error) {
	var futures []models.CommodityFuture
	err := r.db.WithContext(ctx).
		Where("expiration_date <= ?", now).
		Where("is_settled = ?", false).
		Where("status IN ?", []models.FutureStatus{models.FutureStatusOpen, models.FutureStatusMatched}).
		Order("id").
		Find(&futures).Error
	return futures, err
}

func (r *FutureRepo) Create(ctx context.Context, future *models.CommodityFuture) error {
	return r.db.WithContext(ctx).Create(future).Error
}

func (r *FutureRepo) Update(ctx context.Context, future *models.CommodityFuture) error {
	return r.db.WithContext(ctx).Save(future).Error
}
