package configuration

import (
	"fmt"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
)

// ConfigParseError describes a field edit that was dropped because the raw
// input did not parse. It is only ever logged.
type ConfigParseError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("field %s: cannot use %q: %s", e.Field, e.Raw, e.Reason)
}

// IsinListFormatError is returned when an uploaded ISIN list is not a JSON array.
type IsinListFormatError struct {
	Reason string
}

func (e *IsinListFormatError) Error() string {
	return "the ISIN list must be a JSON array of ISIN strings: " + e.Reason
}

func (e *IsinListFormatError) Unwrap() error {
	return apperrors.ErrInvalidIsinList
}
