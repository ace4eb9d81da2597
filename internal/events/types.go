// Package events provides the in-process event bus the session components
// publish their state changes on.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	ConfigurationChanged EventType = "CONFIGURATION_CHANGED"
	PreviewCountUpdated  EventType = "PREVIEW_COUNT_UPDATED"
	CatalogLoaded        EventType = "CATALOG_LOADED"
	RequestStateChanged  EventType = "REQUEST_STATE_CHANGED"
	RequestElapsed       EventType = "REQUEST_ELAPSED"
	Diagnostic           EventType = "DIAGNOSTIC"
)

// AllEventTypes lists every type the session emits, in a stable order.
var AllEventTypes = []EventType{
	ConfigurationChanged,
	PreviewCountUpdated,
	CatalogLoaded,
	RequestStateChanged,
	RequestElapsed,
	Diagnostic,
}

// Event represents a published event.
// Data is the JSON object form of the typed payload; GetTypedData converts it back.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Module    string                 `json:"module"`
	Data      map[string]interface{} `json:"data"`
}

// GetTypedData converts Data to the payload type registered for the event type.
// Returns nil when the data does not fit.
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case ConfigurationChanged:
		data = &ConfigurationChangedData{}
	case PreviewCountUpdated:
		data = &PreviewCountUpdatedData{}
	case CatalogLoaded:
		data = &CatalogLoadedData{}
	case RequestStateChanged:
		data = &RequestStateChangedData{}
	case RequestElapsed:
		data = &RequestElapsedData{}
	case Diagnostic:
		data = &DiagnosticData{}
	default:
		return nil
	}

	if err := convertMapToStruct(e.Data, data); err != nil {
		return nil
	}
	return data
}

// convertMapToStruct converts a map[string]interface{} to a struct
func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}

// convertEventDataToMap converts typed EventData to its JSON object form
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}
	return result
}
