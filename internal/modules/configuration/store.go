// Package configuration owns the optimizer parameters and ETF filters of a
// session and normalizes every field edit.
package configuration

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
)

// FilterListener is told about every filter change. The preview
// synchronizer implements it. RequestCountUpdate is called with the store
// lock held, so calls arrive in mutation order; it must not call back into
// the store.
type FilterListener interface {
	RequestCountUpdate(filters domain.ETFFilters)
}

// CatalogSource returns the loaded catalog, or nil while it is unavailable.
type CatalogSource interface {
	Snapshot() *domain.CatalogParameters
}

// Store holds the editable configuration of one session.
type Store struct {
	mu      sync.Mutex
	params  domain.OptimizerParameters
	filters domain.ETFFilters

	catalog  CatalogSource
	listener FilterListener
	events   *events.Manager
	log      zerolog.Logger
}

// NewStore creates a store holding the default configuration.
// catalog and eventManager may be nil.
func NewStore(catalog CatalogSource, listener FilterListener, eventManager *events.Manager, log zerolog.Logger) *Store {
	return &Store{
		params:   domain.DefaultOptimizerParameters(),
		filters:  domain.DefaultETFFilters(),
		catalog:  catalog,
		listener: listener,
		events:   eventManager,
		log:      log.With().Str("component", "configuration_store").Logger(),
	}
}

// Parameters returns a copy of the current optimizer parameters.
func (s *Store) Parameters() domain.OptimizerParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// Filters returns a copy of the current filters.
func (s *Store) Filters() domain.ETFFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Snapshot returns copies of both structures taken under one lock.
func (s *Store) Snapshot() (domain.OptimizerParameters, domain.ETFFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone(), s.filters.Clone()
}

// IsinList returns the uploaded ISIN list, nil when none was loaded.
func (s *Store) IsinList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filters.IsinList == nil {
		return nil
	}
	return append([]string{}, s.filters.IsinList...)
}

// SetParameter parses raw per the parameter's kind and stores it, or deletes
// the parameter when raw does not parse. The error is non-nil only for an
// unknown parameter name.
func (s *Store) SetParameter(name, raw string) error {
	field, ok := findParameter(name)
	if !ok {
		return fmt.Errorf("%w: parameter %q", apperrors.ErrUnknownField, name)
	}

	value, err := s.parse(field.FieldInfo, raw, field.valid)

	s.mu.Lock()
	field.set(&s.params, value)
	s.mu.Unlock()

	s.logParse(name, raw, err)
	s.emitChanged(events.ScopeParameter, name, value != nil)
	return nil
}

// SetFilter parses raw like SetParameter and then requests a preview count
// for the new filters.
func (s *Store) SetFilter(name, raw string) error {
	field, ok := findFilter(name)
	if !ok {
		return fmt.Errorf("%w: filter %q", apperrors.ErrUnknownField, name)
	}

	value, err := s.parse(field.FieldInfo, raw, field.valid)

	s.mu.Lock()
	field.set(&s.filters, value)
	s.notifyLocked()
	s.mu.Unlock()

	s.logParse(name, raw, err)
	s.emitChanged(events.ScopeFilter, name, value != nil)
	return nil
}

// ResetToDefaults restores the default parameters and filters and requests
// exactly one preview count.
func (s *Store) ResetToDefaults() {
	s.mu.Lock()
	s.params = domain.DefaultOptimizerParameters()
	s.filters = domain.DefaultETFFilters()
	s.notifyLocked()
	s.mu.Unlock()

	s.log.Info().Msg("Configuration reset to defaults")
	s.emitChanged(events.ScopeReset, "", true)
}

// RequestPreview requests a preview count for the current filters without
// changing them.
func (s *Store) RequestPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked()
}

// LoadIsinList replaces the ISIN list with the string elements of the JSON
// array in raw. Anything that is not a JSON array is rejected with an
// *IsinListFormatError and the list is left unchanged.
func (s *Store) LoadIsinList(raw []byte) error {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return s.rejectIsinList(fmt.Sprintf("invalid JSON: %v", err))
	}

	elements, ok := decoded.([]any)
	if !ok {
		return s.rejectIsinList(fmt.Sprintf("got %s", jsonKind(decoded)))
	}

	list := make([]string, 0, len(elements))
	for _, element := range elements {
		if isin, ok := element.(string); ok {
			list = append(list, isin)
		}
	}

	s.mu.Lock()
	s.filters.IsinList = list
	s.notifyLocked()
	s.mu.Unlock()

	s.log.Info().
		Int("isins", len(list)).
		Int("dropped", len(elements)-len(list)).
		Msg("ISIN list loaded")
	s.emitChanged(events.ScopeIsinList, "isinList", true)
	return nil
}

// DisplayValue renders a field's stored value for an input box, empty when absent.
func (s *Store) DisplayValue(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v any
	if field, ok := findParameter(name); ok {
		v = field.get(&s.params)
	} else if field, ok := findFilter(name); ok {
		v = field.get(&s.filters)
	}

	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (s *Store) parse(info FieldInfo, raw string, valid func(float64) bool) (any, error) {
	value, err := parseRaw(info.Kind, raw, valid)
	if err != nil {
		return nil, &ConfigParseError{Field: info.Name, Raw: raw, Reason: err.Error()}
	}

	if info.Kind == KindEnum && s.catalog != nil {
		catalog := s.catalog.Snapshot()
		if catalog != nil && !catalog.Contains(info.Enum, value.(string)) {
			return nil, &ConfigParseError{Field: info.Name, Raw: raw, Reason: errNotOption.Error()}
		}
	}
	return value, nil
}

func (s *Store) rejectIsinList(reason string) error {
	err := &IsinListFormatError{Reason: reason}
	s.log.Warn().Err(err).Msg("ISIN list rejected")
	if s.events != nil {
		s.events.EmitDiagnostic("configuration", "isinList", err)
	}
	return err
}

func (s *Store) logParse(name, raw string, err error) {
	if err == nil {
		return
	}
	s.log.Debug().Err(err).Str("field", name).Str("raw", raw).Msg("Field removed")
}

func (s *Store) emitChanged(scope, field string, present bool) {
	if s.events == nil {
		return
	}
	s.events.EmitTyped(events.ConfigurationChanged, "configuration", &events.ConfigurationChangedData{
		Scope:   scope,
		Field:   field,
		Present: present,
	})
}

// notifyLocked hands the listener a copy of the filters. s.mu must be held.
func (s *Store) notifyLocked() {
	if s.listener != nil {
		s.listener.RequestCountUpdate(s.filters.Clone())
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return "an unsupported value"
}
