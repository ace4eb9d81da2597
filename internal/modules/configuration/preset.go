package configuration

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
)

// Preset is a named starting configuration. Values are raw strings and go
// through the same parse/delete rules as interactive edits.
//
//	name: world-equity
//	parameters:
//	  optimizer: EfficientRisk
//	  targetVolatility: 0.15
//	filters:
//	  fundCurrency: EUR
//	isinList: [IE00B4L5Y983]
type Preset struct {
	Name       string            `yaml:"name"`
	Parameters map[string]string `yaml:"parameters"`
	Filters    map[string]string `yaml:"filters"`
	IsinList   []string          `yaml:"isinList"`
}

// ParsePreset decodes a YAML preset and checks that every field name is known.
func ParsePreset(data []byte) (*Preset, error) {
	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPreset, err)
	}
	for name := range preset.Parameters {
		if _, ok := findParameter(name); !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", apperrors.ErrInvalidPreset, name)
		}
	}
	for name := range preset.Filters {
		if _, ok := findFilter(name); !ok {
			return nil, fmt.Errorf("%w: unknown filter %q", apperrors.ErrInvalidPreset, name)
		}
	}
	return &preset, nil
}

// LoadPresetFile reads and parses a preset file.
func LoadPresetFile(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}
	return ParsePreset(data)
}

// ApplyPreset replaces the configuration with the defaults overlaid by the
// preset's values, then requests exactly one preview count.
func (s *Store) ApplyPreset(preset *Preset) {
	params := domain.DefaultOptimizerParameters()
	filters := domain.DefaultETFFilters()

	for _, name := range sortedKeys(preset.Parameters) {
		field, ok := findParameter(name)
		if !ok {
			continue
		}
		raw := preset.Parameters[name]
		value, err := s.parse(field.FieldInfo, raw, field.valid)
		s.logParse(name, raw, err)
		field.set(&params, value)
	}
	for _, name := range sortedKeys(preset.Filters) {
		field, ok := findFilter(name)
		if !ok {
			continue
		}
		raw := preset.Filters[name]
		value, err := s.parse(field.FieldInfo, raw, field.valid)
		s.logParse(name, raw, err)
		field.set(&filters, value)
	}
	if preset.IsinList != nil {
		filters.IsinList = append([]string{}, preset.IsinList...)
	}

	s.mu.Lock()
	s.params = params
	s.filters = filters
	s.notifyLocked()
	s.mu.Unlock()

	s.log.Info().Str("preset", preset.Name).Msg("Preset applied")
	s.emitChanged(events.ScopePreset, preset.Name, true)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
