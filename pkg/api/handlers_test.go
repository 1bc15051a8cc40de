package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"emberveil-engine/pkg/models"
)

func TestAffectedResourceIDs_NamedModifiers(t *testing.T) {
	market := &models.Market{
		ID: "bazaar-1",
		SupplyDemand: models.SupplyDemandMap{
			"grain":    {Supply: 50, Demand: 50},
			"moonsilk": {Supply: 30, Demand: 70},
		},
	}

	ids := affectedResourceIDs(market, map[string]float64{"grain": 1.5})
	assert.Equal(t, []string{"grain"}, ids)
}

func TestAffectedResourceIDs_WildcardCoversTrackedResources(t *testing.T) {
	market := &models.Market{
		ID: "bazaar-1",
		SupplyDemand: models.SupplyDemandMap{
			"grain":    {Supply: 50, Demand: 50},
			"moonsilk": {Supply: 30, Demand: 70},
		},
	}

	ids := affectedResourceIDs(market, map[string]float64{"*": 1.2, "iron": 0.8})
	assert.Equal(t, []string{"grain", "iron", "moonsilk"}, ids)
}
