package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

// ResourceStore owns the Resource row lifecycle: creation, stock
// adjustment, inter-region transfer, and deletion.
type ResourceStore struct {
	resources ResourceRepository
	publisher EventPublisher
	logger    *logrus.Logger
}

func NewResourceStore(resources ResourceRepository, publisher EventPublisher, logger *logrus.Logger) *ResourceStore {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &ResourceStore{
		resources: resources,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *ResourceStore) Get(ctx context.Context, id string) (*models.Resource, error) {
	return s.resources.Get(ctx, id)
}

func (s *ResourceStore) ListByRegion(ctx context.Context, regionID string) ([]models.Resource, error) {
	return s.resources.ListByRegion(ctx, regionID)
}

// Create validates and persists a new resource. RegionID and ResourceType
// are required.
func (s *ResourceStore) Create(ctx context.Context, resource *models.Resource) (*models.Resource, error) {
	if resource.RegionID == "" {
		return nil, &ValidationError{Field: "region_id", Message: "region_id is required"}
	}
	if resource.ResourceType == "" {
		return nil, &ValidationError{Field: "resource_type", Message: "resource_type is required"}
	}
	if resource.Amount.IsNegative() {
		return nil, &ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}

	if resource.ID == "" {
		resource.ID = xid.New().String()
	}
	if resource.Rarity == "" {
		resource.Rarity = models.RarityCommon
	}
	if resource.Name == "" {
		resource.Name = resource.ResourceType
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"resource_id":   resource.ID,
		"region_id":     resource.RegionID,
		"resource_type": resource.ResourceType,
	}).Info("Resource created")

	return resource, nil
}

// AdjustAmount applies a signed delta to a resource's stock. A delta that
// would drive the amount negative is rejected with no mutation.
func (s *ResourceStore) AdjustAmount(ctx context.Context, id string, delta decimal.Decimal) (*models.Resource, error) {
	resource, err := s.resources.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if resource == nil {
		return nil, &NotFoundError{Entity: "resource", ID: id}
	}

	newAmount := resource.Amount.Add(delta)
	if newAmount.IsNegative() {
		return nil, &InsufficientStockError{
			ResourceID: id,
			Available:  resource.Amount,
			Requested:  delta.Neg(),
		}
	}

	before := resource.Amount
	resource.Amount = newAmount
	resource.Quantity = int(newAmount.IntPart())
	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}

	s.publisher.Publish(newEvent(models.EventResourceAmountChanged, map[string]interface{}{
		"resource_id": resource.ID,
		"region_id":   resource.RegionID,
		"before":      before.String(),
		"after":       resource.Amount.String(),
		"delta":       delta.String(),
	}))

	return resource, nil
}

// Transfer atomically moves stock of a resource from one region to another.
// The destination either has a matching resource_type incremented or gets a
// new resource row. On failure neither side is mutated. The boolean result
// and message mirror the shape consumers expect from batch trade processing.
func (s *ResourceStore) Transfer(ctx context.Context, sourceRegionID, destRegionID, resourceID string, amount decimal.Decimal) (bool, string) {
	if sourceRegionID == destRegionID {
		return false, "source and destination regions must differ"
	}
	if !amount.IsPositive() {
		return false, "transfer amount must be positive"
	}

	var message string
	err := s.resources.Transaction(ctx, func(repo ResourceRepository) error {
		source, err := repo.Get(ctx, resourceID)
		if err != nil {
			return fmt.Errorf("failed to load source resource: %w", err)
		}
		if source == nil {
			message = fmt.Sprintf("resource %s not found", resourceID)
			return &NotFoundError{Entity: "resource", ID: resourceID}
		}
		if source.RegionID != sourceRegionID {
			message = fmt.Sprintf("resource %s is not in region %s", resourceID, sourceRegionID)
			return &NotFoundError{Entity: "resource", ID: resourceID}
		}
		if source.Amount.LessThan(amount) {
			message = fmt.Sprintf("insufficient stock: have %s, need %s", source.Amount.String(), amount.String())
			return &InsufficientStockError{ResourceID: resourceID, Available: source.Amount, Requested: amount}
		}

		source.Amount = source.Amount.Sub(amount)
		source.Quantity = int(source.Amount.IntPart())
		if err := repo.Update(ctx, source); err != nil {
			return fmt.Errorf("failed to update source resource: %w", err)
		}

		dest, err := repo.GetByRegionAndType(ctx, destRegionID, source.ResourceType)
		if err != nil {
			return fmt.Errorf("failed to load destination resource: %w", err)
		}
		if dest == nil {
			dest = &models.Resource{
				ID:           xid.New().String(),
				RegionID:     destRegionID,
				ResourceType: source.ResourceType,
				Name:         source.Name,
				Amount:       amount,
				Quantity:     int(amount.IntPart()),
				BaseValue:    source.BaseValue,
				Rarity:       source.Rarity,
				IsTradeable:  source.IsTradeable,
			}
			return repo.Create(ctx, dest)
		}
		dest.Amount = dest.Amount.Add(amount)
		dest.Quantity = int(dest.Amount.IntPart())
		return repo.Update(ctx, dest)
	})
	if err != nil {
		if message == "" {
			message = fmt.Sprintf("transfer failed: %v", err)
		}
		s.logger.WithFields(logrus.Fields{
			"resource_id": resourceID,
			"source":      sourceRegionID,
			"destination": destRegionID,
			"amount":      amount.String(),
		}).WithError(err).Warn("Resource transfer failed")
		return false, message
	}

	s.publisher.Publish(newEvent(models.EventResourceTransferred, map[string]interface{}{
		"resource_id": resourceID,
		"source":      sourceRegionID,
		"destination": destRegionID,
		"amount":      amount.String(),
	}))

	return true, fmt.Sprintf("transferred %s of %s from %s to %s", amount.String(), resourceID, sourceRegionID, destRegionID)
}

func (s *ResourceStore) Delete(ctx context.Context, id string) error {
	resource, err := s.resources.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load resource: %w", err)
	}
	if resource == nil {
		return &NotFoundError{Entity: "resource", ID: id}
	}
	return s.resources.Delete(ctx, id)
}

// populationImpactFactors maps resource types to how strongly their stock
// tracks population swings. Food and water are the most tightly coupled.
var populationImpactFactors = map[string]float64{
	"food":    0.5,
	"water":   0.6,
	"housing": 0.4,
	"luxury":  0.3,
}

const defaultImpactFactor = 0.2

// productionResourceTypes grow with population instead of being consumed.
var productionResourceTypes = map[string]bool{
	"labor":   true,
	"crafted": true,
}

// A swing larger than this share of the previous stock is reported as a
// depletion or abundance event.
var significantSwingRatio = decimal.NewFromFloat(0.2)

// ApplyPopulationImpact scales every resource in a region proportionally to
// the relative population change. Consumed resources shrink with population
// growth while labor and crafted output expand. Stock never goes below zero
// on this path since the drift models gradual depletion, not a transaction.
// A swing of more than 20% of a resource's stock is published as a depletion
// or abundance event.
func (s *ResourceStore) ApplyPopulationImpact(ctx context.Context, regionID string, previousPopulation, currentPopulation int) ([]models.Resource, error) {
	if previousPopulation == currentPopulation {
		return []models.Resource{}, nil
	}
	changePct := decimal.NewFromInt(1)
	if previousPopulation > 0 {
		changePct = decimal.NewFromInt(int64(currentPopulation - previousPopulation)).
			Div(decimal.NewFromInt(int64(previousPopulation)))
	}

	resources, err := s.resources.ListByRegion(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	updated := make([]models.Resource, 0, len(resources))
	for i := range resources {
		r := &resources[i]
		factor, ok := populationImpactFactors[r.ResourceType]
		if !ok {
			factor = defaultImpactFactor
		}
		delta := r.Amount.Mul(changePct).Mul(decimal.NewFromFloat(factor)).Neg()
		if productionResourceTypes[r.ResourceType] {
			delta = delta.Neg()
		}

		before := r.Amount
		newAmount := before.Add(delta)
		if newAmount.IsNegative() {
			newAmount = decimal.Zero
		}
		if newAmount.Equal(before) {
			continue
		}
		r.Amount = newAmount
		r.Quantity = int(newAmount.IntPart())
		if err := s.resources.Update(ctx, r); err != nil {
			s.logger.WithFields(logrus.Fields{
				"resource_id": r.ID,
				"region_id":   regionID,
			}).WithError(err).Warn("Failed to apply population impact")
			continue
		}
		updated = append(updated, *r)

		if delta.Abs().GreaterThan(before.Mul(significantSwingRatio)) {
			eventType := models.EventResourceAbundance
			if delta.IsNegative() {
				eventType = models.EventResourceDepletion
			}
			s.publisher.Publish(newEvent(eventType, map[string]interface{}{
				"resource_id":   r.ID,
				"resource_type": r.ResourceType,
				"region_id":     regionID,
				"before":        before.String(),
				"after":         newAmount.String(),
				"change":        delta.String(),
				"cause":         "population_change",
			}))
		}
	}

	if len(updated) > 0 {
		s.logger.WithFields(logrus.Fields{
			"region_id":           regionID,
			"previous_population": previousPopulation,
			"current_population":  currentPopulation,
			"resources_updated":   len(updated),
			"timestamp":           time.Now().UTC(),
		}).Info("Population impact applied")
	}

	return updated, nil
}
