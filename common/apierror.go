package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error codes produced by Normalize and the gateway.
const (
	CodeUnknown        = "UNKNOWN"
	CodeNetwork        = "NETWORK_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeNoRefreshToken = "NO_REFRESH_TOKEN"
	CodeDecode         = "DECODE_ERROR"
	CodeRejected       = "REQUEST_REJECTED"
)

const (
	defaultResponseMessage = "An error occurred"
	networkMessage         = "Network error. Please check your connection."
	unknownMessage         = "An unknown error occurred"
)

var (
	// ErrSessionExpired is wrapped by errors after which the caller must log in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrNoRefreshToken is wrapped when a refresh is needed but none is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrNetwork is wrapped when a request was sent but no response arrived.
	ErrNetwork = errors.New("network error")
)

// APIError is the single failure shape returned to callers of the API client.
// Status is 0 when no response was received.
type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details,omitempty"`

	Err error `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// errorBody matches both camel and Pascal casing; encoding/json field matching
// is case-insensitive.
type errorBody struct {
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code"`
	Details any             `json:"details"`
}

// Normalize converts any failure into an *APIError. It never returns nil for a
// non-nil err, and an error that is already normalized is returned unchanged.
func Normalize(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return FromResponse(httpErr.StatusCode, httpErr.Body, err)
	}

	if isNetworkFailure(err) {
		return &APIError{
			Message: networkMessage,
			Code:    CodeNetwork,
			Status:  0,
			Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
		}
	}

	msg := err.Error()
	if msg == "" {
		msg = unknownMessage
	}
	return &APIError{
		Message: msg,
		Code:    CodeUnknown,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// FromResponse builds an APIError from a server response body and status.
func FromResponse(status int, body []byte, cause error) *APIError {
	out := &APIError{
		Message: defaultResponseMessage,
		Code:    CodeUnknown,
		Status:  status,
		Err:     cause,
	}

	var parsed errorBody
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil {
		return out
	}
	if parsed.Message != "" {
		out.Message = parsed.Message
	}
	if code := decodeCode(parsed.Code); code != "" {
		out.Code = code
	}
	out.Details = detailsMap(parsed.Details)
	return out
}

// NewValidationError reports client-side field errors in the same shape the
// server uses for validation failures.
func NewValidationError(fields map[string]string) *APIError {
	validation := make(map[string]any, len(fields))
	for k, v := range fields {
		validation[k] = v
	}
	return &APIError{
		Message: "Validation failed",
		Code:    CodeValidation,
		Status:  http.StatusBadRequest,
		Details: map[string]any{"validationErrors": validation},
	}
}

// ValidationErrors extracts field-level messages from details.validationErrors.
func ValidationErrors(err error) map[string]string {
	out := map[string]string{}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Details == nil {
		return out
	}
	raw, ok := apiErr.Details["validationErrors"].(map[string]any)
	if !ok {
		return out
	}
	for field, msg := range raw {
		out[field] = fmt.Sprint(msg)
	}
	return out
}

// IsAuth reports an authentication failure (401).
func IsAuth(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsValidation reports a validation or business failure: any 4xx other than 401.
func IsValidation(err error) bool {
	s := statusOf(err)
	return s >= 400 && s < 500 && s != http.StatusUnauthorized
}

// IsNetwork reports a failure where no response was received.
func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeNetwork
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func isNetworkFailure(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func decodeCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// numeric or other scalar codes are kept verbatim
	return string(raw)
}

func detailsMap(v any) map[string]any {
	switch d := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return d
	default:
		return map[string]any{"value": d}
	}
}
