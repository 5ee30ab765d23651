package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// UnknownErrorMessage is the message of an APIError whose response carried
// no usable detail.
const UnknownErrorMessage = "Unknown error"

// APIError is a request the backend answered with a non-success status.
// Failures without a response (timeouts, refused connections) are never
// APIErrors.
type APIError struct {
	Status  int
	Message string
}

// Error returns the server-provided message.
func (e *APIError) Error() string {
	return e.Message
}

// String includes the status for logs.
func (e *APIError) String() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// AsAPIError returns the *APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// newAPIError builds an APIError from a failed response. The message is the
// body's "detail" field: a string is used verbatim, any other JSON value is
// kept as its JSON text, and a missing detail gives UnknownErrorMessage.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 ||
		bytes.Equal(payload.Detail, []byte("null")) {
		return &APIError{Status: status, Message: UnknownErrorMessage}
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		if detail == "" {
			detail = UnknownErrorMessage
		}
		return &APIError{Status: status, Message: detail}
	}

	return &APIError{Status: status, Message: string(payload.Detail)}
}
