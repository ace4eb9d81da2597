package configuration

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

// Kind is the declared type of an editable field.
type Kind string

const (
	KindInteger  Kind = "integer"
	KindCurrency Kind = "currency" // integer amount, grouping separators allowed
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindEnum     Kind = "enum"
)

// FieldInfo describes one editable field for frontends.
type FieldInfo struct {
	Name  string          `json:"name"`
	Label string          `json:"label"`
	Kind  Kind            `json:"kind"`
	Enum  domain.EnumKind `json:"enum,omitempty"`
}

type parameterField struct {
	FieldInfo
	valid func(float64) bool
	get   func(p *domain.OptimizerParameters) any
	set   func(p *domain.OptimizerParameters, v any) // nil deletes
}

type filterField struct {
	FieldInfo
	valid func(float64) bool
	get   func(f *domain.ETFFilters) any
	set   func(f *domain.ETFFilters, v any)
}

func positive(v float64) bool    { return v > 0 }
func nonNegative(v float64) bool { return v >= 0 }

var parameterFields = []parameterField{
	{
		FieldInfo: FieldInfo{Name: "initialValue", Label: "Initial Value (€)", Kind: KindCurrency},
		valid:     positive,
		get:       func(p *domain.OptimizerParameters) any { return deref(p.InitialValue) },
		set:       func(p *domain.OptimizerParameters, v any) { p.InitialValue = asPtr[int64](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "optimizer", Label: "Optimizer", Kind: KindEnum, Enum: domain.EnumOptimizer},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.Optimizer) },
		set:       func(p *domain.OptimizerParameters, v any) { p.Optimizer = asPtr[string](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "targetVolatility", Label: "Target Volatility", Kind: KindFloat},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.TargetVolatility) },
		set:       func(p *domain.OptimizerParameters, v any) { p.TargetVolatility = asPtr[float64](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "targetReturn", Label: "Target Return", Kind: KindFloat},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.TargetReturn) },
		set:       func(p *domain.OptimizerParameters, v any) { p.TargetReturn = asPtr[float64](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "assetCutoff", Label: "Asset Cutoff", Kind: KindFloat},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.AssetCutoff) },
		set:       func(p *domain.OptimizerParameters, v any) { p.AssetCutoff = asPtr[float64](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "assetRounding", Label: "Asset Rounding", Kind: KindInteger},
		valid:     nonNegative,
		get:       func(p *domain.OptimizerParameters) any { return deref(p.AssetRounding) },
		set:       func(p *domain.OptimizerParameters, v any) { p.AssetRounding = asPtr[int](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "riskFreeRate", Label: "Risk free Rate", Kind: KindFloat},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.RiskFreeRate) },
		set:       func(p *domain.OptimizerParameters, v any) { p.RiskFreeRate = asPtr[float64](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "shorting", Label: "Shorting", Kind: KindBool},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.Shorting) },
		set:       func(p *domain.OptimizerParameters, v any) { p.Shorting = asPtr[bool](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "removeTER", Label: "Remove TER", Kind: KindBool},
		get:       func(p *domain.OptimizerParameters) any { return deref(p.RemoveTER) },
		set:       func(p *domain.OptimizerParameters, v any) { p.RemoveTER = asPtr[bool](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "rollingWindowInDays", Label: "Rolling window in days", Kind: KindInteger},
		valid:     nonNegative,
		get:       func(p *domain.OptimizerParameters) any { return deref(p.RollingWindowInDays) },
		set:       func(p *domain.OptimizerParameters, v any) { p.RollingWindowInDays = asPtr[int](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "maxETFListSize", Label: "Max ETF list size", Kind: KindInteger},
		valid:     positive,
		get:       func(p *domain.OptimizerParameters) any { return deref(p.MaxETFListSize) },
		set:       func(p *domain.OptimizerParameters, v any) { p.MaxETFListSize = asPtr[int](v) },
	},
}

var filterFields = []filterField{
	{
		FieldInfo: FieldInfo{Name: "minimumDaysWithData", Label: "Minimum days with data", Kind: KindInteger},
		valid:     nonNegative,
		get:       func(f *domain.ETFFilters) any { return deref(f.MinimumDaysWithData) },
		set:       func(f *domain.ETFFilters, v any) { f.MinimumDaysWithData = asPtr[int](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "domicileCountry", Label: "Domicile Country", Kind: KindEnum, Enum: domain.EnumDomicileCountry},
		get:       func(f *domain.ETFFilters) any { return deref(f.DomicileCountry) },
		set:       func(f *domain.ETFFilters, v any) { f.DomicileCountry = asPtr[string](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "replicationMethod", Label: "Replication Method", Kind: KindEnum, Enum: domain.EnumReplicationMethod},
		get:       func(f *domain.ETFFilters) any { return deref(f.ReplicationMethod) },
		set:       func(f *domain.ETFFilters, v any) { f.ReplicationMethod = asPtr[string](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "distributionPolicy", Label: "Distribution Policy", Kind: KindEnum, Enum: domain.EnumDistributionPolicy},
		get:       func(f *domain.ETFFilters) any { return deref(f.DistributionPolicy) },
		set:       func(f *domain.ETFFilters, v any) { f.DistributionPolicy = asPtr[string](v) },
	},
	{
		FieldInfo: FieldInfo{Name: "fundCurrency", Label: "Fund Currency", Kind: KindEnum, Enum: domain.EnumFundCurrency},
		get:       func(f *domain.ETFFilters) any { return deref(f.FundCurrency) },
		set:       func(f *domain.ETFFilters, v any) { f.FundCurrency = asPtr[string](v) },
	},
}

// ParameterFields lists the editable optimizer parameters in display order.
func ParameterFields() []FieldInfo {
	out := make([]FieldInfo, len(parameterFields))
	for i, f := range parameterFields {
		out[i] = f.FieldInfo
	}
	return out
}

// FilterFields lists the editable filters in display order. The ISIN list is
// not among them; it is loaded with LoadIsinList.
func FilterFields() []FieldInfo {
	out := make([]FieldInfo, len(filterFields))
	for i, f := range filterFields {
		out[i] = f.FieldInfo
	}
	return out
}

func findParameter(name string) (*parameterField, bool) {
	for i := range parameterFields {
		if parameterFields[i].Name == name {
			return &parameterFields[i], true
		}
	}
	return nil, false
}

func findFilter(name string) (*filterField, bool) {
	for i := range filterFields {
		if filterFields[i].Name == name {
			return &filterFields[i], true
		}
	}
	return nil, false
}

var (
	errEmpty      = errors.New("empty input")
	errNotNumber  = errors.New("not a number")
	errNotBool    = errors.New("not a boolean")
	errOutOfRange = errors.New("out of range")
	errNotOption  = errors.New("not a catalog option")
)

// parseRaw converts raw input to the Go value of kind. Integers accept a
// fractional part and truncate it.
func parseRaw(kind Kind, raw string, valid func(float64) bool) (any, error) {
	s := strings.TrimSpace(raw)
	if kind == KindCurrency {
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	}
	if s == "" {
		return nil, errEmpty
	}

	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errNotBool
		}
		return b, nil

	case KindEnum:
		return s, nil

	case KindFloat, KindInteger, KindCurrency:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errNotNumber
		}
		if kind != KindFloat {
			f = math.Trunc(f)
			if math.Abs(f) > math.MaxInt32 && kind == KindInteger {
				return nil, errOutOfRange
			}
		}
		if valid != nil && !valid(f) {
			return nil, errOutOfRange
		}
		switch kind {
		case KindInteger:
			return int(f), nil
		case KindCurrency:
			if math.Abs(f) > math.MaxInt64/2 {
				return nil, errOutOfRange
			}
			return int64(f), nil
		}
		return f, nil
	}

	return nil, errNotNumber
}

func asPtr[T any](v any) *T {
	if v == nil {
		return nil
	}
	t, ok := v.(T)
	if !ok {
		return nil
	}
	return &t
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
