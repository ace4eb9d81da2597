// Package testing provides a fake optimization service and fixtures for tests.
package testing

import (
	"encoding/base64"
	"encoding/json"

	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

// PlotBytes is the decoded plot image of SampleResultJSON.
var PlotBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}

// NewCatalogFixture returns a catalog shaped like the real service's.
func NewCatalogFixture() *domain.CatalogParameters {
	return &domain.CatalogParameters{
		Optimizers:           []string{domain.OptimizerMaxSharpe, domain.OptimizerEfficientRisk, domain.OptimizerEfficientReturn},
		DomicileCountries:    []string{"Ireland", "Luxembourg", "Germany"},
		ReplicationMethods:   []string{"Full replication", "Optimized sampling", "Swap-based"},
		DistributionPolicies: []string{"Accumulating", "Distributing"},
		FundCurrencies:       []string{"EUR", "USD", "GBP"},
	}
}

// SampleResultJSON returns an optimize response body with two holdings, a
// plot image and a field the client does not model.
func SampleResultJSON() []byte {
	body := map[string]any{
		"sharpeRatio":             1.4321,
		"expectedReturn":          0.0745,
		"annualVolatility":        0.1123,
		"ETFsMatchingFilters":     812,
		"ETFsUsedForOptimization": 400,
		"portfolioSize":           2,
		"initialValue":            10000,
		"leftoverFunds":           41.27,
		"totalWeight":             1,
		"totalValue":              9958.73,
		"solverStatus":            "optimal",
		"efficientFrontierImage":  base64.StdEncoding.EncodeToString(PlotBytes),
		"portfolio": []map[string]any{
			{"name": "iShares Core MSCI World", "isin": "IE00B4L5Y983", "expectedReturn": 0.081, "volatility": 0.142, "weight": 0.7, "shares": 88, "price": 79.21, "value": 6970.48},
			{"name": "Xtrackers II Eurozone Government Bond", "isin": "LU0290355717", "expectedReturn": 0.021, "volatility": 0.048, "weight": 0.3, "shares": 13, "price": 229.87, "value": 2988.25},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return data
}
