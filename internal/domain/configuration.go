// Package domain contains the data model exchanged between the orchestration
// components and the optimization service.
package domain

// Optimizer kinds the service is known to accept. The authoritative list comes
// from the catalog; these names are only used for defaults and target-field logic.
const (
	OptimizerMaxSharpe       = "MaxSharpe"
	OptimizerEfficientRisk   = "EfficientRisk"
	OptimizerEfficientReturn = "EfficientReturn"
)

// OptimizerParameters configures one optimization run. A nil field is absent
// and is omitted from the request body.
type OptimizerParameters struct {
	InitialValue        *int64   `json:"initialValue,omitempty" yaml:"initialValue,omitempty"`
	Optimizer           *string  `json:"optimizer,omitempty" yaml:"optimizer,omitempty"`
	TargetVolatility    *float64 `json:"targetVolatility,omitempty" yaml:"targetVolatility,omitempty"` // meaningful for EfficientRisk
	TargetReturn        *float64 `json:"targetReturn,omitempty" yaml:"targetReturn,omitempty"`         // meaningful for EfficientReturn
	AssetCutoff         *float64 `json:"assetCutoff,omitempty" yaml:"assetCutoff,omitempty"`
	AssetRounding       *int     `json:"assetRounding,omitempty" yaml:"assetRounding,omitempty"`
	RiskFreeRate        *float64 `json:"riskFreeRate,omitempty" yaml:"riskFreeRate,omitempty"`
	Shorting            *bool    `json:"shorting,omitempty" yaml:"shorting,omitempty"`
	RemoveTER           *bool    `json:"removeTER,omitempty" yaml:"removeTER,omitempty"`
	RollingWindowInDays *int     `json:"rollingWindowInDays,omitempty" yaml:"rollingWindowInDays,omitempty"` // 0 disables
	MaxETFListSize      *int     `json:"maxETFListSize,omitempty" yaml:"maxETFListSize,omitempty"`
}

// ETFFilters narrows the candidate universe. Enum fields hold catalog values.
// A nil IsinList means no list was uploaded and is omitted from the body; an
// uploaded empty list is sent as [].
type ETFFilters struct {
	MinimumDaysWithData *int     `json:"minimumDaysWithData,omitempty" yaml:"minimumDaysWithData,omitempty"`
	DomicileCountry     *string  `json:"domicileCountry,omitempty" yaml:"domicileCountry,omitempty"`
	ReplicationMethod   *string  `json:"replicationMethod,omitempty" yaml:"replicationMethod,omitempty"`
	DistributionPolicy  *string  `json:"distributionPolicy,omitempty" yaml:"distributionPolicy,omitempty"`
	FundCurrency        *string  `json:"fundCurrency,omitempty" yaml:"fundCurrency,omitempty"`
	IsinList            []string `json:"isinList,omitzero" yaml:"isinList,omitempty"`
}

// DefaultOptimizerParameters returns the parameters a new session starts with.
func DefaultOptimizerParameters() OptimizerParameters {
	return OptimizerParameters{
		InitialValue:        ptr(int64(10000)),
		Optimizer:           ptr(OptimizerMaxSharpe),
		TargetVolatility:    ptr(0.1),
		TargetReturn:        ptr(0.1),
		AssetCutoff:         ptr(0.01),
		AssetRounding:       ptr(4),
		RiskFreeRate:        ptr(0.02),
		Shorting:            ptr(false),
		RemoveTER:           ptr(true),
		RollingWindowInDays: ptr(0),
		MaxETFListSize:      ptr(400),
	}
}

// DefaultETFFilters returns the filters a new session starts with.
func DefaultETFFilters() ETFFilters {
	return ETFFilters{
		MinimumDaysWithData: ptr(1000),
	}
}

// Clone returns a deep copy so snapshots never alias store state.
func (p OptimizerParameters) Clone() OptimizerParameters {
	return OptimizerParameters{
		InitialValue:        clonePtr(p.InitialValue),
		Optimizer:           clonePtr(p.Optimizer),
		TargetVolatility:    clonePtr(p.TargetVolatility),
		TargetReturn:        clonePtr(p.TargetReturn),
		AssetCutoff:         clonePtr(p.AssetCutoff),
		AssetRounding:       clonePtr(p.AssetRounding),
		RiskFreeRate:        clonePtr(p.RiskFreeRate),
		Shorting:            clonePtr(p.Shorting),
		RemoveTER:           clonePtr(p.RemoveTER),
		RollingWindowInDays: clonePtr(p.RollingWindowInDays),
		MaxETFListSize:      clonePtr(p.MaxETFListSize),
	}
}

// Clone returns a deep copy so snapshots never alias store state.
func (f ETFFilters) Clone() ETFFilters {
	out := ETFFilters{
		MinimumDaysWithData: clonePtr(f.MinimumDaysWithData),
		DomicileCountry:     clonePtr(f.DomicileCountry),
		ReplicationMethod:   clonePtr(f.ReplicationMethod),
		DistributionPolicy:  clonePtr(f.DistributionPolicy),
		FundCurrency:        clonePtr(f.FundCurrency),
	}
	if f.IsinList != nil {
		out.IsinList = append([]string{}, f.IsinList...)
	}
	return out
}

// OptimizeRequest is the body of the optimize call.
type OptimizeRequest struct {
	OptimizerParameters OptimizerParameters `json:"optimizerParameters"`
	ETFFilters          ETFFilters          `json:"etfFilters"`
}

// PreviewRequest is the body of the preview-count call.
type PreviewRequest struct {
	ETFFilters ETFFilters `json:"etfFilters"`
}

func ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
