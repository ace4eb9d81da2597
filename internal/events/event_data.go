package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// Configuration change scopes.
const (
	ScopeParameter = "parameter"
	ScopeFilter    = "filter"
	ScopeIsinList  = "isinList"
	ScopeReset     = "reset"
	ScopePreset    = "preset"
)

// ConfigurationChangedData contains data for ConfigurationChanged events
type ConfigurationChangedData struct {
	Scope   string `json:"scope"`
	Field   string `json:"field,omitempty"`
	Present bool   `json:"present"` // false when the edit removed the field
}

// EventType returns the event type for ConfigurationChangedData
func (d *ConfigurationChangedData) EventType() EventType {
	return ConfigurationChanged
}

// PreviewCountUpdatedData contains data for PreviewCountUpdated events
type PreviewCountUpdatedData struct {
	Matching int `json:"etfsMatchingFilters"`
	Total    int `json:"totalETFs"`
}

// EventType returns the event type for PreviewCountUpdatedData
func (d *PreviewCountUpdatedData) EventType() EventType {
	return PreviewCountUpdated
}

// CatalogLoadedData contains data for CatalogLoaded events
type CatalogLoadedData struct {
	Optimizers           int `json:"optimizers"`
	DomicileCountries    int `json:"domicile_countries"`
	ReplicationMethods   int `json:"replication_methods"`
	DistributionPolicies int `json:"distribution_policies"`
	FundCurrencies       int `json:"fund_currencies"`
}

// EventType returns the event type for CatalogLoadedData
func (d *CatalogLoadedData) EventType() EventType {
	return CatalogLoaded
}

// RequestStateChangedData contains data for RequestStateChanged events
type RequestStateChangedData struct {
	Seq     uint64 `json:"seq"`
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"` // set for the failed phase
}

// EventType returns the event type for RequestStateChangedData
func (d *RequestStateChangedData) EventType() EventType {
	return RequestStateChanged
}

// RequestElapsedData contains data for RequestElapsed events
type RequestElapsedData struct {
	Seq            uint64 `json:"seq"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
}

// EventType returns the event type for RequestElapsedData
func (d *RequestElapsedData) EventType() EventType {
	return RequestElapsed
}

// DiagnosticData contains data for Diagnostic events.
// Diagnostics never change state; they only describe a failure that was absorbed.
type DiagnosticData struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// EventType returns the event type for DiagnosticData
func (d *DiagnosticData) EventType() EventType {
	return Diagnostic
}
