package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscribers.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// EmitTyped emits an event with typed data to the bus and logs it
func (m *Manager) EmitTyped(eventType EventType, module string, data EventData) {
	dataMap := convertEventDataToMap(data)

	m.bus.Emit(eventType, module, dataMap)

	// Elapsed ticks arrive every second while a request is pending.
	level := zerolog.DebugLevel
	if eventType == Diagnostic {
		level = zerolog.WarnLevel
	}
	if e := m.log.WithLevel(level); e.Enabled() {
		eventJSON, _ := json.Marshal(Event{
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      dataMap,
			Module:    module,
		})
		e.Str("event_type", string(eventType)).
			Str("module", module).
			RawJSON("event", eventJSON).
			Msg("Event emitted")
	}
}

// EmitDiagnostic reports an absorbed failure on the diagnostic channel.
func (m *Manager) EmitDiagnostic(module, field string, err error) {
	m.EmitTyped(Diagnostic, module, &DiagnosticData{
		Source:  module,
		Message: err.Error(),
		Field:   field,
	})
}
