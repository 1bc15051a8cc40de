package economy

// Engines bundles the economy engines for wiring into transports.
type Engines struct {
	Store       *ResourceStore
	Pricing     *PricingEngine
	Trades      *TradeProcessor
	Futures     *FuturesEngine
	Coordinator *TickCoordinator
	Shop        *ShopPricer
	Listings    ShopListingRepository
}
