package client

import (
	"errors"
	"fmt"
)

var (
	// ErrInFlight means the same operation is already running; the
	// second trigger is dropped without a network call.
	ErrInFlight = errors.New("operation already in flight")

	// ErrConfirmationDeclined means the attestation prompt was answered
	// with no, so no call was made.
	ErrConfirmationDeclined = errors.New("confirmation declined")

	// ErrPaymentRequired is the local payment gate: the cached payment
	// state is invalid, so the request is not sent at all.
	ErrPaymentRequired = errors.New("valid payment required")

	ErrNotLoggedIn = errors.New("not logged in")
)

// HTTPError is a transport-level failure: the server answered with an
// unexpected status and no decodable envelope.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Status)
}

// APIError is a well-formed envelope whose code is not SUCCESS.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError carrying the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError

	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}

	return false
}
