package configuration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

const worldEquityPreset = `
name: world-equity
parameters:
  optimizer: EfficientRisk
  targetVolatility: 0.15
  assetCutoff: none
  initialValue: "50.000"
filters:
  fundCurrency: EUR
isinList:
  - IE00B4L5Y983
`

func TestParsePreset(t *testing.T) {
	preset, err := ParsePreset([]byte(worldEquityPreset))
	require.NoError(t, err)

	assert.Equal(t, "world-equity", preset.Name)
	assert.Equal(t, "0.15", preset.Parameters["targetVolatility"])
	assert.Equal(t, []string{"IE00B4L5Y983"}, preset.IsinList)
}

func TestParsePreset_UnknownField(t *testing.T) {
	_, err := ParsePreset([]byte("parameters:\n  leverage: 2\n"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPreset))

	_, err = ParsePreset([]byte("filters:\n  sector: tech\n"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPreset))

	_, err = ParsePreset([]byte("parameters: [1, 2"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidPreset))
}

func TestApplyPreset(t *testing.T) {
	store, listener, _ := newTestStore(t, nil)
	require.NoError(t, store.SetParameter("riskFreeRate", "0.05"))

	preset, err := ParsePreset([]byte(worldEquityPreset))
	require.NoError(t, err)
	store.ApplyPreset(preset)

	params, filters := store.Snapshot()
	assert.Equal(t, domain.OptimizerEfficientRisk, *params.Optimizer)
	assert.InDelta(t, 0.15, *params.TargetVolatility, 1e-12)
	assert.Nil(t, params.AssetCutoff)
	assert.Equal(t, int64(50000), *params.InitialValue)
	// Values outside the preset come from the defaults, not the previous edits.
	assert.InDelta(t, 0.02, *params.RiskFreeRate, 1e-12)

	assert.Equal(t, "EUR", *filters.FundCurrency)
	assert.Equal(t, 1000, *filters.MinimumDaysWithData)
	assert.Equal(t, []string{"IE00B4L5Y983"}, filters.IsinList)
	assert.Equal(t, 1, listener.count())
}

func TestLoadPresetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(worldEquityPreset), 0o600))

	preset, err := LoadPresetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "world-equity", preset.Name)

	_, err = LoadPresetFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
