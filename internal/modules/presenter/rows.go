package presenter

import (
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

// AggregateLabel names the totals row.
const AggregateLabel = "Portfolio"

// Columns are the table headers, in Row field order.
var Columns = []string{"Name", "ISIN", "Return", "Volatility", "Weight", "Shares", "Price", "Value (€)"}

// Row is one formatted table row.
type Row struct {
	Name       string `json:"name"`
	ISIN       string `json:"isin"`
	Return     string `json:"return"`
	Volatility string `json:"volatility"`
	Weight     string `json:"weight"`
	Shares     string `json:"shares"`
	Price      string `json:"price"`
	Value      string `json:"value"`
	Bold       bool   `json:"bold,omitempty"` // the aggregate row
}

// Cells returns the row's cells in column order.
func (r Row) Cells() []string {
	return []string{r.Name, r.ISIN, r.Return, r.Volatility, r.Weight, r.Shares, r.Price, r.Value}
}

// ToRows formats one row per holding followed by the bold aggregate row.
// Returns nil for a nil result.
func ToRows(result *domain.OptimizationResult, assetRounding int) []Row {
	if result == nil {
		return nil
	}

	weightDecimals := WeightDecimals(assetRounding)
	rows := make([]Row, 0, len(result.Holdings)+1)
	for _, h := range result.Holdings {
		price := ""
		if h.Price != nil {
			price = FormatFixed(*h.Price, 2)
		}
		rows = append(rows, Row{
			Name:       h.Name,
			ISIN:       h.ISIN,
			Return:     FormatPercent(h.ExpectedReturn, 2),
			Volatility: FormatPercent(h.Volatility, 2),
			Weight:     FormatPercent(h.Weight, weightDecimals),
			Shares:     FormatInteger(h.Shares),
			Price:      price,
			Value:      FormatGrouped(h.Value),
		})
	}

	rows = append(rows, Row{
		Name:   AggregateLabel,
		Weight: FormatPercent(result.TotalWeight, 2),
		Value:  FormatGrouped(result.TotalValue),
		Bold:   true,
	})
	return rows
}

// Summary holds the formatted headline figures shown above the table.
type Summary struct {
	SharpeRatio             string `json:"sharpeRatio"`
	ExpectedReturn          string `json:"expectedReturn"`
	AnnualVolatility        string `json:"annualVolatility"`
	ETFsMatchingFilters     string `json:"ETFsMatchingFilters"`
	ETFsUsedForOptimization string `json:"ETFsUsedForOptimization"`
	PortfolioSize           string `json:"portfolioSize"`
	InitialValue            string `json:"initialValue"`
	LeftoverFunds           string `json:"leftoverFunds"`
}

// Summarize formats the result's headline figures.
func Summarize(result *domain.OptimizationResult) Summary {
	if result == nil {
		return Summary{}
	}
	return Summary{
		SharpeRatio:             FormatFixed(result.SharpeRatio, 2),
		ExpectedReturn:          FormatPercent(result.ExpectedReturn, 2),
		AnnualVolatility:        FormatPercent(result.AnnualVolatility, 2),
		ETFsMatchingFilters:     strconv.Itoa(result.ETFsMatchingFilters),
		ETFsUsedForOptimization: strconv.Itoa(result.ETFsUsedForOptimization),
		PortfolioSize:           strconv.Itoa(result.PortfolioSize),
		InitialValue:            FormatGrouped(result.InitialValue) + "€",
		LeftoverFunds:           FormatGrouped(result.LeftoverFunds) + "€",
	}
}

// Aggregates are figures recomputed from the holdings themselves, useful to
// cross-check the totals the service reports.
type Aggregates struct {
	WeightSum          float64 `json:"weightSum"`
	ValueSum           float64 `json:"valueSum"`
	Concentration      float64 `json:"concentration"` // Herfindahl index of the weights
	WeightedReturn     float64 `json:"weightedReturn"`
	WeightedVolatility float64 `json:"weightedVolatility"` // upper bound, ignores correlation
}

// ComputeAggregates derives Aggregates from the holdings. All fields are zero
// for an empty portfolio.
func ComputeAggregates(result *domain.OptimizationResult) Aggregates {
	if result == nil || len(result.Holdings) == 0 {
		return Aggregates{}
	}

	n := len(result.Holdings)
	weights := make([]float64, n)
	values := make([]float64, n)
	returns := make([]float64, n)
	vols := make([]float64, n)
	for i, h := range result.Holdings {
		weights[i] = h.Weight
		values[i] = h.Value
		returns[i] = h.ExpectedReturn
		vols[i] = h.Volatility
	}

	agg := Aggregates{
		WeightSum:     floats.Sum(weights),
		ValueSum:      floats.Sum(values),
		Concentration: floats.Dot(weights, weights),
	}
	if agg.WeightSum != 0 {
		agg.WeightedReturn = stat.Mean(returns, weights)
		agg.WeightedVolatility = stat.Mean(vols, weights)
	}
	return agg
}
