package brokerapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthentication = fmt.Errorf("authentication failed")
	ErrRateLimited    = fmt.Errorf("rate limited by broker")
)

// DefaultRetryAfterSeconds is the back-off hint attached to rate-limit failures.
const DefaultRetryAfterSeconds = 1.0

// ApiError is any failed call to the brokerage API. StatusCode is 0 when the request
// never produced a response (connection failure, timeout).
type ApiError struct {
	StatusCode        int
	Message           string
	RetryAfterSeconds float64
	cause             error
}

func (e *ApiError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("broker api error: %s", e.Message)
	}

	return fmt.Sprintf("broker api error [%d]: %s", e.StatusCode, e.Message)
}

func (e *ApiError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}

	return e.cause
}

func newApiError(status int, message string) *ApiError {
	apiErr := &ApiError{StatusCode: status, Message: message}
	if status == http.StatusTooManyRequests {
		apiErr.RetryAfterSeconds = DefaultRetryAfterSeconds
	}

	return apiErr
}

func newTransportError(err error) *ApiError {
	return &ApiError{Message: err.Error(), cause: err}
}

// IsAuthenticationError reports whether err is a 401 from the broker.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
