package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// CatalogParameters lists the selectable values the service accepts.
// It is fetched once and never mutated locally.
type CatalogParameters struct {
	Optimizers           []string `json:"optimizers"`
	DomicileCountries    []string `json:"domicileCountries"`
	ReplicationMethods   []string `json:"replicationMethods"`
	DistributionPolicies []string `json:"distributionPolicies"`
	FundCurrencies       []string `json:"fundCurrencies"`
}

// Options returns the ordered values for an enumeration kind, or nil for an unknown kind.
func (c *CatalogParameters) Options(kind EnumKind) []string {
	if c == nil {
		return nil
	}
	switch kind {
	case EnumOptimizer:
		return c.Optimizers
	case EnumDomicileCountry:
		return c.DomicileCountries
	case EnumReplicationMethod:
		return c.ReplicationMethods
	case EnumDistributionPolicy:
		return c.DistributionPolicies
	case EnumFundCurrency:
		return c.FundCurrencies
	}
	return nil
}

// Contains reports whether value is a valid option of kind.
func (c *CatalogParameters) Contains(kind EnumKind, value string) bool {
	return slices.Contains(c.Options(kind), value)
}

// EnumKind names one of the catalog enumerations.
type EnumKind string

const (
	EnumOptimizer          EnumKind = "optimizers"
	EnumDomicileCountry    EnumKind = "domicileCountries"
	EnumReplicationMethod  EnumKind = "replicationMethods"
	EnumDistributionPolicy EnumKind = "distributionPolicies"
	EnumFundCurrency       EnumKind = "fundCurrencies"
)

// PreviewCount is the number of ETFs matching the current filters.
type PreviewCount struct {
	Matching int `json:"etfsMatchingFilters"`
	Total    int `json:"totalETFs"`
}

// Holding is one asset of a computed portfolio.
type Holding struct {
	Name           string   `json:"name"`
	ISIN           string   `json:"isin"`
	ExpectedReturn float64  `json:"expectedReturn"`
	Volatility     float64  `json:"volatility"`
	Weight         float64  `json:"weight"`
	Shares         float64  `json:"shares"`
	Price          *float64 `json:"price"`
	Value          float64  `json:"value"`
}

// PlotImageField is the response key carrying the base64 efficient-frontier plot.
const PlotImageField = "efficientFrontierImage"

// OptimizationResult is a successful optimize response.
type OptimizationResult struct {
	SharpeRatio             float64   `json:"sharpeRatio"`
	ExpectedReturn          float64   `json:"expectedReturn"`
	AnnualVolatility        float64   `json:"annualVolatility"`
	ETFsMatchingFilters     int       `json:"ETFsMatchingFilters"`
	ETFsUsedForOptimization int       `json:"ETFsUsedForOptimization"`
	PortfolioSize           int       `json:"portfolioSize"`
	InitialValue            float64   `json:"initialValue"`
	LeftoverFunds           float64   `json:"leftoverFunds"`
	TotalWeight             float64   `json:"totalWeight"`
	TotalValue              float64   `json:"totalValue"`
	Holdings                []Holding `json:"portfolio"`
	PlotImage               string    `json:"efficientFrontierImage,omitempty"`

	// Raw is the response body as received. Exports are built from it so
	// fields this client doesn't model survive the round trip.
	Raw json.RawMessage `json:"-"`
}

// RequestPhase names the variant of a RequestState.
type RequestPhase string

const (
	PhaseIdle      RequestPhase = "idle"
	PhasePending   RequestPhase = "pending"
	PhaseSucceeded RequestPhase = "succeeded"
	PhaseFailed    RequestPhase = "failed"
)

// RequestState is the lifecycle state of the optimize request. It is one of
// Idle, Pending, Succeeded or Failed.
type RequestState interface {
	Phase() RequestPhase
	isRequestState()
}

// Idle means no submission is in flight and nothing is held.
type Idle struct{}

// Pending means a submission is in flight.
type Pending struct {
	StartedAt      time.Time
	ElapsedSeconds int
}

// Succeeded holds the result of the last authoritative submission.
type Succeeded struct {
	Result *OptimizationResult
}

// Failed holds the user-visible message of the last authoritative submission.
type Failed struct {
	Message string
}

func (Idle) Phase() RequestPhase      { return PhaseIdle }
func (Pending) Phase() RequestPhase   { return PhasePending }
func (Succeeded) Phase() RequestPhase { return PhaseSucceeded }
func (Failed) Phase() RequestPhase    { return PhaseFailed }

func (Idle) isRequestState()      {}
func (Pending) isRequestState()   {}
func (Succeeded) isRequestState() {}
func (Failed) isRequestState()    {}
