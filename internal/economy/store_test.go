package economy

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberveil-engine/pkg/models"
)

func TestCreateResource_RequiresRegionAndType(t *testing.T) {
	store := NewResourceStore(newFakeResourceRepo(), nil, testLogger())

	_, err := store.Create(context.Background(), &models.Resource{ResourceType: "food"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "region_id", verr.Field)

	_, err = store.Create(context.Background(), &models.Resource{RegionID: "region-1"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "resource_type", verr.Field)
}

func TestCreateResource_FillsDefaults(t *testing.T) {
	repo := newFakeResourceRepo()
	store := NewResourceStore(repo, nil, testLogger())

	created, err := store.Create(context.Background(), &models.Resource{
		RegionID:     "region-1",
		ResourceType: "food",
		Amount:       decimal.NewFromInt(10),
		BaseValue:    decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RarityCommon, created.Rarity)
	assert.Equal(t, "food", created.Name)

	stored, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestAdjustAmount_RejectsNegativeResult(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("grain", "region-1", "food", 10, 5))
	publisher := &capturePublisher{}
	store := NewResourceStore(repo, publisher, testLogger())

	_, err := store.AdjustAmount(context.Background(), "grain", decimal.NewFromInt(-15))
	var serr *InsufficientStockError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Available.Equal(decimal.NewFromInt(10)))
	assert.True(t, repo.amount("grain").Equal(decimal.NewFromInt(10)), "stock mutated on rejected adjustment")
	assert.Empty(t, publisher.events)
}

func TestAdjustAmount_PublishesChange(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("grain", "region-1", "food", 10, 5))
	publisher := &capturePublisher{}
	store := NewResourceStore(repo, publisher, testLogger())

	updated, err := store.AdjustAmount(context.Background(), "grain", decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(17)))
	assert.Equal(t, 17, updated.Quantity)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventResourceAmountChanged, publisher.events[0].Type)
	assert.Equal(t, "10", publisher.events[0].Data["before"])
	assert.Equal(t, "17", publisher.events[0].Data["after"])
}

func TestAdjustAmount_NotFound(t *testing.T) {
	store := NewResourceStore(newFakeResourceRepo(), nil, testLogger())

	_, err := store.AdjustAmount(context.Background(), "missing", decimal.NewFromInt(1))
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "missing", nferr.ID)
}

func TestTransfer_MovesStockToExistingResource(t *testing.T) {
	repo := newFakeResourceRepo(
		newTestResource("grain-1", "region-1", "food", 100, 5),
		newTestResource("grain-2", "region-2", "food", 20, 5),
	)
	store := NewResourceStore(repo, nil, testLogger())

	ok, msg := store.Transfer(context.Background(), "region-1", "region-2", "grain-1", decimal.NewFromInt(30))
	require.True(t, ok, msg)
	assert.True(t, repo.amount("grain-1").Equal(decimal.NewFromInt(70)))
	assert.True(t, repo.amount("grain-2").Equal(decimal.NewFromInt(50)))
}

func TestTransfer_CreatesResourceAtDestination(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("grain-1", "region-1", "food", 100, 5))
	store := NewResourceStore(repo, nil, testLogger())

	ok, _ := store.Transfer(context.Background(), "region-1", "region-2", "grain-1", decimal.NewFromInt(25))
	require.True(t, ok)

	dest, err := repo.GetByRegionAndType(context.Background(), "region-2", "food")
	require.NoError(t, err)
	require.NotNil(t, dest)
	assert.True(t, dest.Amount.Equal(decimal.NewFromInt(25)))
	assert.True(t, dest.BaseValue.Equal(decimal.NewFromInt(5)))
}

func TestTransfer_InsufficientStockLeavesBothUnchanged(t *testing.T) {
	repo := newFakeResourceRepo(
		newTestResource("grain-1", "region-1", "food", 10, 5),
		newTestResource("grain-2", "region-2", "food", 20, 5),
	)
	store := NewResourceStore(repo, nil, testLogger())

	ok, msg := store.Transfer(context.Background(), "region-1", "region-2", "grain-1", decimal.NewFromInt(15))
	assert.False(t, ok)
	assert.Contains(t, msg, "insufficient")
	assert.True(t, repo.amount("grain-1").Equal(decimal.NewFromInt(10)))
	assert.True(t, repo.amount("grain-2").Equal(decimal.NewFromInt(20)))
}

func TestTransfer_DestinationWriteFailureRollsBackSource(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("grain-1", "region-1", "food", 100, 5))
	repo.failOn["Create"] = true
	store := NewResourceStore(repo, nil, testLogger())

	ok, _ := store.Transfer(context.Background(), "region-1", "region-2", "grain-1", decimal.NewFromInt(30))
	assert.False(t, ok)
	assert.True(t, repo.amount("grain-1").Equal(decimal.NewFromInt(100)), "source debited despite failed destination write")
}

func TestTransfer_RejectsSameRegionAndNonPositiveAmount(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("grain-1", "region-1", "food", 100, 5))
	store := NewResourceStore(repo, nil, testLogger())

	ok, _ := store.Transfer(context.Background(), "region-1", "region-1", "grain-1", decimal.NewFromInt(10))
	assert.False(t, ok)

	ok, _ = store.Transfer(context.Background(), "region-1", "region-2", "grain-1", decimal.Zero)
	assert.False(t, ok)
}

func TestApplyPopulationImpact(t *testing.T) {
	repo := newFakeResourceRepo(
		newTestResource("food-1", "region-1", "food", 100, 5),
		newTestResource("labor-1", "region-1", "labor", 100, 5),
		newTestResource("gems-1", "region-1", "gems", 100, 5),
	)
	publisher := &capturePublisher{}
	store := NewResourceStore(repo, publisher, testLogger())

	// 20% population growth: food shrinks by stock * 0.2 * 0.5, labor grows
	// by stock * 0.2 * 0.2, unknown types shrink by stock * 0.2 * 0.2
	updated, err := store.ApplyPopulationImpact(context.Background(), "region-1", 100, 120)
	require.NoError(t, err)
	assert.Len(t, updated, 3)

	assert.True(t, repo.amount("food-1").Equal(decimal.NewFromInt(90)), "food=%s", repo.amount("food-1"))
	assert.True(t, repo.amount("labor-1").Equal(decimal.NewFromInt(104)), "labor=%s", repo.amount("labor-1"))
	assert.True(t, repo.amount("gems-1").Equal(decimal.NewFromInt(96)), "gems=%s", repo.amount("gems-1"))

	// no swing above 20% of stock, so no depletion or abundance events
	assert.Empty(t, publisher.events)
}

func TestApplyPopulationImpact_NoChange(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("food-1", "region-1", "food", 100, 5))
	store := NewResourceStore(repo, nil, testLogger())

	updated, err := store.ApplyPopulationImpact(context.Background(), "region-1", 50, 50)
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.True(t, repo.amount("food-1").Equal(decimal.NewFromInt(100)))
}

func TestApplyPopulationImpact_FloorsAtZero(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("food-1", "region-1", "food", 3, 5))
	store := NewResourceStore(repo, nil, testLogger())

	_, err := store.ApplyPopulationImpact(context.Background(), "region-1", 100, 400)
	require.NoError(t, err)
	assert.True(t, repo.amount("food-1").IsZero())
}

func TestApplyPopulationImpact_PublishesDepletionOnLargeSwing(t *testing.T) {
	repo := newFakeResourceRepo(
		newTestResource("food-1", "region-1", "food", 100, 5),
		newTestResource("labor-1", "region-1", "labor", 100, 5),
	)
	publisher := &capturePublisher{}
	store := NewResourceStore(repo, publisher, testLogger())

	// doubling the population wipes half the food stock
	_, err := store.ApplyPopulationImpact(context.Background(), "region-1", 100, 200)
	require.NoError(t, err)
	assert.True(t, repo.amount("food-1").Equal(decimal.NewFromInt(50)))

	// labor grows by exactly 20% of stock, which does not cross the threshold
	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, models.EventResourceDepletion, event.Type)
	assert.Equal(t, "food-1", event.Data["resource_id"])
	assert.Equal(t, "population_change", event.Data["cause"])
	assert.Equal(t, "100", event.Data["before"])
	assert.Equal(t, "50", event.Data["after"])
}

func TestApplyPopulationImpact_PublishesAbundanceForProduction(t *testing.T) {
	repo := newFakeResourceRepo(newTestResource("mill-1", "region-1", "crafted", 100, 5))
	publisher := &capturePublisher{}
	store := NewResourceStore(repo, publisher, testLogger())

	// population quadruples, crafted output grows by stock * 3 * 0.2
	_, err := store.ApplyPopulationImpact(context.Background(), "region-1", 50, 200)
	require.NoError(t, err)
	assert.True(t, repo.amount("mill-1").Equal(decimal.NewFromInt(160)))

	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventResourceAbundance, publisher.events[0].Type)
}

func TestDeleteResource_NotFound(t *testing.T) {
	store := NewResourceStore(newFakeResourceRepo(), nil, testLogger())

	err := store.Delete(context.Background(), "missing")
	var nferr *NotFoundError
	assert.True(t, errors.As(err, &nferr))
}
