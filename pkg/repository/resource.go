package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"emberveil-engine/internal/economy"
	"emberveil-engine/pkg/models"
)

// ResourceRepo is the gorm-backed economy.ResourceRepository.
type ResourceRepo struct {
	db *gorm.DB
}

func NewResourceRepo(db *gorm.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

func (r *ResourceRepo) Get(ctx context.Context, id string) (*models.Resource, error) {
	var resource models.Resource
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *ResourceRepo) GetByRegionAndType(ctx context.Context, regionID, resourceType string) (*models.Resource, error) {
	var resource models.Resource
	err := r.db.WithContext(ctx).
		Where("region_id = ? AND resource_type = ?", regionID, resourceType).
		Order("id").
		First(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *ResourceRepo) ListByRegion(ctx context.Context, regionID string) ([]models.Resource, error) {
	var resources []models.Resource
	err := r.db.WithContext(ctx).Where("region_id = ?", regionID).Order("id").Find(&resources).Error
	return resources, err
}

func (r *ResourceRepo) Create(ctx context.Context, resource *models.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *ResourceRepo) Update(ctx context.Context, resource *models.Resource) error {
	return r.db.WithContext(ctx).Save(resource).Error
}

func (r *ResourceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Resource{}).Error
}

func (r *ResourceRepo) Transaction(ctx context.Context, fn func(repo economy.ResourceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ResourceRepo{db: tx})
	})
}
