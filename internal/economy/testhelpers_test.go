package economy

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"emberveil-engine/pkg/models"
)

var errStorage = errors.New("storage failure")

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// capturePublisher records every published event for assertions.
type capturePublisher struct {
	events []models.Event
}

func (p *capturePublisher) Publish(event models.Event) {
	p.events = append(p.events, event)
}

func (p *capturePublisher) typesSeen() []string {
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// fakeResourceRepo is an in-memory ResourceRepository. Transaction snapshots
// state and restores it when fn fails, matching the all-or-nothing contract.
type fakeResourceRepo struct {
	resources map[string]*models.Resource
	failOn    map[string]bool // method name -> force error
}

func newFakeResourceRepo(resources ...*models.Resource) *fakeResourceRepo {
	repo := &fakeResourceRepo{resources: map[string]*models.Resource{}, failOn: map[string]bool{}}
	for _, r := range resources {
		copied := *r
		repo.resources[r.ID] = &copied
	}
	return repo
}

func (f *fakeResourceRepo) Get(ctx context.Context, id string) (*models.Resource, error) {
	if f.failOn["Get"] {
		return nil, errStorage
	}
	r, ok := f.resources[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeResourceRepo) GetByRegionAndType(ctx context.Context, regionID, resourceType string) (*models.Resource, error) {
	var ids []string
	for id := range f.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := f.resources[id]
		if r.RegionID == regionID && r.ResourceType == resourceType {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeResourceRepo) ListByRegion(ctx context.Context, regionID string) ([]models.Resource, error) {
	var out []models.Resource
	var ids []string
	for id := range f.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if f.resources[id].RegionID == regionID {
			out = append(out, *f.resources[id])
		}
	}
	return out, nil
}

func (f *fakeResourceRepo) Create(ctx context.Context, resource *models.Resource) error {
	if f.failOn["Create"] {
		return errStorage
	}
	copied := *resource
	f.resources[resource.ID] = &copied
	return nil
}

func (f *fakeResourceRepo) Update(ctx context.Context, resource *models.Resource) error {
	if f.failOn["Update"] {
		return errStorage
	}
	copied := *resource
	f.resources[resource.ID] = &copied
	return nil
}

func (f *fakeResourceRepo) Delete(ctx context.Context, id string) error {
	delete(f.resources, id)
	return nil
}

func (f *fakeResourceRepo) Transaction(ctx context.Context, fn func(repo ResourceRepository) error) error {
	snapshot := map[string]*models.Resource{}
	for id, r := range f.resources {
		copied := *r
		snapshot[id] = &copied
	}
	if err := fn(f); err != nil {
		f.resources = snapshot
		return err
	}
	return nil
}

func (f *fakeResourceRepo) amount(id string) decimal.Decimal {
	r, ok := f.resources[id]
	if !ok {
		return decimal.Zero
	}
	return r.Amount
}

// fakeMarketRepo is an in-memory MarketRepository.
type fakeMarketRepo struct {
	markets map[string]*models.Market
}

func newFakeMarketRepo(markets ...*models.Market) *fakeMarketRepo {
	repo := &fakeMarketRepo{markets: map[string]*models.Market{}}
	for _, m := range markets {
		repo.markets[m.ID] = cloneMarket(m)
	}
	return repo
}

func cloneMarket(m *models.Market) *models.Market {
	copied := *m
	copied.SupplyDemand = models.SupplyDemandMap{}
	for id, sd := range m.SupplyDemand {
		copied.SupplyDemand[id] = sd
	}
	return &copied
}

func (f *fakeMarketRepo) Get(ctx context.Context, id string) (*models.Market, error) {
	m, ok := f.markets[id]
	if !ok {
		return nil, nil
	}
	return cloneMarket(m), nil
}

func (f *fakeMarketRepo) sortedIDs() []string {
	var ids []string
	for id := range f.markets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeMarketRepo) ListByRegion(ctx context.Context, regionID string) ([]models.Market, error) {
	var out []models.Market
	for _, id := range f.sortedIDs() {
		if f.markets[id].RegionID == regionID {
			out = append(out, *cloneMarket(f.markets[id]))
		}
	}
	return out, nil
}

func (f *fakeMarketRepo) ListAll(ctx context.Context) ([]models.Market, error) {
	var out []models.Market
	for _, id := range f.sortedIDs() {
		out = append(out, *cloneMarket(f.markets[id]))
	}
	return out, nil
}

func (f *fakeMarketRepo) ListRegions(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var regions []string
	for _, id := range f.sortedIDs() {
		regionID := f.markets[id].RegionID
		if !seen[regionID] {
			seen[regionID] = true
			regions = append(regions, regionID)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

func (f *fakeMarketRepo) Create(ctx context.Context, market *models.Market) error {
	f.markets[market.ID] = cloneMarket(market)
	return nil
}

func (f *fakeMarketRepo) Update(ctx context.Context, market *models.Market) error {
	f.markets[market.ID] = cloneMarket(market)
	return nil
}

func (f *fakeMarketRepo) Delete(ctx context.Context, id string) error {
	delete(f.markets, id)
	return nil
}

// fakeRouteRepo is an in-memory TradeRouteRepository.
type fakeRouteRepo struct {
	routes map[string]*models.TradeRoute
}

func newFakeRouteRepo(routes ...*models.TradeRoute) *fakeRouteRepo {
	repo := &fakeRouteRepo{routes: map[string]*models.TradeRoute{}}
	for _, r := range routes {
		copied := *r
		repo.routes[r.ID] = &copied
	}
	return repo
}

func (f *fakeRouteRepo) Get(ctx context.Context, id string) (*models.TradeRoute, error) {
	r, ok := f.routes[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRouteRepo) ListRunnable(ctx context.Context) ([]models.TradeRoute, error) {
	var ids []string
	for id := range f.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []models.TradeRoute
	for _, id := range ids {
		if f.routes[id].Status != models.RouteStatusClosed {
			out = append(out, *f.routes[id])
		}
	}
	return out, nil
}

func (f *fakeRouteRepo) ListAll(ctx context.Context) ([]models.TradeRoute, error) {
	var ids []string
	for id := range f.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []models.TradeRoute
	for _, id := range ids {
		out = append(out, *f.routes[id])
	}
	return out, nil
}

func (f *fakeRouteRepo) Create(ctx context.Context, route *models.TradeRoute) error {
	copied := *route
	f.routes[route.ID] = &copied
	return nil
}

func (f *fakeRouteRepo) Update(ctx context.Context, route *models.TradeRoute) error {
	copied := *route
	f.routes[route.ID] = &copied
	return nil
}

func (f *fakeRouteRepo) Delete(ctx context.Context, id string) error {
	delete(f.routes, id)
	return nil
}

// fakeFutureRepo is an in-memory FutureRepository.
type fakeFutureRepo struct {
	futures map[string]*models.CommodityFuture
}

func newFakeFutureRepo(futures ...*models.CommodityFuture) *fakeFutureRepo {
	repo := &fakeFutureRepo{futures: map[string]*models.CommodityFuture{}}
	for _, fu := range futures {
		copied := *fu
		repo.futures[fu.ID] = &copied
	}
	return repo
}

func (f *fakeFutureRepo) Get(ctx context.Context, id string) (*models.CommodityFuture, error) {
	fu, ok := f.futures[id]
	if !ok {
		return nil, nil
	}
	copied := *fu
	return &copied, nil
}

func (f *fakeFutureRepo) sortedIDs() []string {
	var ids []string
	for id := range f.futures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeFutureRepo) ListByResource(ctx context.Context, resourceID string) ([]models.CommodityFuture, error) {
	var out []models.CommodityFuture
	for _, id := range f.sortedIDs() {
		if f.futures[id].ResourceID == resourceID {
			out = append(out, *f.futures[id])
		}
	}
	return out, nil
}

func (f *fakeFutureRepo) ListOpen(ctx context.Context, resourceID, marketID string) ([]models.CommodityFuture, error) {
	var out []models.CommodityFuture
	for _, id := range f.sortedIDs() {
		fu := f.futures[id]
		if fu.ResourceID != resourceID {
			continue
		}
		if marketID != "" && fu.MarketID != marketID {
			continue
		}
		if fu.Status == models.FutureStatusOpen || fu.Status == models.FutureStatusMatched {
			out = append(out, *fu)
		}
	}
	return out, nil
}

func (f *fakeFutureRepo) ListExpiring(ctx context.Context, now time.Time) ([]models.CommodityFuture, error) {
	var out []models.CommodityFuture
	for _, id := range f.sortedIDs() {
		fu := f.futures[id]
		if fu.IsSettled {
			continue
		}
		if fu.Status != models.FutureStatusOpen && fu.Status != models.FutureStatusMatched {
			continue
		}
		if !fu.ExpirationDate.After(now) {
			out = append(out, *fu)
		}
	}
	return out, nil
}

func (f *fakeFutureRepo) Create(ctx context.Context, future *models.CommodityFuture) error {
	copied := *future
	f.futures[future.ID] = &copied
	return nil
}

func (f *fakeFutureRepo) Update(ctx context.Context, future *models.CommodityFuture) error {
	copied := *future
	f.futures[future.ID] = &copied
	return nil
}

// newTestMarket builds an active market with the given supply/demand state.
func newTestMarket(id, regionID string, sd models.SupplyDemandMap) *models.Market {
	return &models.Market{
		ID:           id,
		RegionID:     regionID,
		MarketType:   "bazaar",
		Name:         "Market " + id,
		IsActive:     true,
		TaxRate:      decimal.NewFromFloat(0.05),
		SupplyDemand: sd,
	}
}

func newTestResource(id, regionID, resourceType string, amount int64, baseValue int64) *models.Resource {
	return &models.Resource{
		ID:           id,
		RegionID:     regionID,
		ResourceType: resourceType,
		Name:         resourceType,
		Amount:       decimal.NewFromInt(amount),
		Quantity:     int(amount),
		BaseValue:    decimal.NewFromInt(baseValue),
		Rarity:       models.RarityCommon,
		IsTradeable:  true,
	}
}
