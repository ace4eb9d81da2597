// Package apperrors holds the sentinel errors shared across packages.
package apperrors

import "errors"

// Configuration errors are non-fatal: the offending input is dropped.
var (
	// ErrUnknownField indicates a parameter or filter name the configuration store does not know.
	ErrUnknownField = errors.New("unknown configuration field")

	// ErrInvalidIsinList indicates an uploaded ISIN list that is not a JSON array.
	ErrInvalidIsinList = errors.New("the JSON file is not in the right format, it needs to be a JSON list containing the ETF ISINs")

	// ErrInvalidPreset indicates a preset file that could not be decoded.
	ErrInvalidPreset = errors.New("invalid configuration preset")
)

// Transport errors describe failures talking to the optimization service.
var (
	// ErrServiceUnreachable indicates the request never produced an HTTP response.
	ErrServiceUnreachable = errors.New("optimization service unreachable")

	// ErrInvalidResponse indicates a 2xx response whose body could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from optimization service")
)

// Session errors are returned by operations that need state the session does not hold.
var (
	// ErrNoResult indicates an export was requested without a successful result.
	ErrNoResult = errors.New("no optimization result available")

	// ErrNoPlot indicates the result carries no plot image.
	ErrNoPlot = errors.New("optimization result has no plot image")

	// ErrSessionClosed indicates an operation on a torn-down session.
	ErrSessionClosed = errors.New("session closed")

	// ErrExportUnavailable indicates the session has no artifact sink configured.
	ErrExportUnavailable = errors.New("artifact export not configured")

	// ErrCatalogUnavailable indicates the catalog has not been fetched successfully.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
