package optimization

import (
	"errors"
	"net/http"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/clients/optimizer"
)

const (
	transportFailureMessage = "There was an error reaching the optimization service"
	invalidResponseMessage  = "The optimization service returned an invalid response"
)

// FailureMessage turns a failed optimize call into the message shown to the
// user: the response body's error field, else the HTTP status text, else a
// generic description.
func FailureMessage(err error) string {
	if apiErr, ok := optimizer.IsAPIError(err); ok {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.StatusText != "" {
			return apiErr.StatusText
		}
		if text := http.StatusText(apiErr.StatusCode); text != "" {
			return text
		}
		return transportFailureMessage
	}
	if errors.Is(err, apperrors.ErrInvalidResponse) {
		return invalidResponseMessage
	}
	return transportFailureMessage
}
