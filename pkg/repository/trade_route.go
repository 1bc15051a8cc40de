package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"emberveil-engine/pkg/models"
)

// TradeRouteRepo is the gorm-backed economy.TradeRouteRepository.
type TradeRouteRepo struct {
	db *gorm.DB
}

func NewTradeRouteRepo(db *gorm.DB) *TradeRouteRepo {
	return &TradeRouteRepo{db: db}
}

func (r *TradeRouteRepo) Get(ctx context.Context, id string) (*models.TradeRoute, error) {
	var route models.TradeRoute
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *TradeRouteRepo) ListRunnable(ctx context.Context) ([]models.TradeRoute, error) {
	var routes []models.TradeRoute
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.RouteStatus{models.RouteStatusActive, models.RouteStatusDisrupted}).
		Order("id").
		Find(&routes).Error
	return routes, err
}

func (r *TradeRouteRepo) ListAll(ctx context.Context) ([]models.TradeRoute, error) {
	var routes []models.TradeRoute
	err := r.db.WithContext(ctx).Order("id").Find(&routes).Error
	return routes, err
}

func (r *TradeRouteRepo) Create(ctx context.Context, route *models.TradeRoute) error {
	return r.db.WithContext(ctx).Create(route).Error
}

func (r *TradeRouteRepo) Update(ctx context.Context, route *models.TradeRoute) error {
	return r.db.WithContext(ctx).Save(route).Error
}

func (r *TradeRouteRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TradeRoute{}).Error
}
