package marketapi

import (
	"encoding/json"
	"io"
	"net/http"
)

// ErrorType classifies marketplace API failures.
type ErrorType int

const (
	ErrorUnknown ErrorType = iota
	ErrorRateLimited
	ErrorNotFound
	ErrorForbidden
	ErrorServerError
	ErrorBadRequest
	ErrorUnauthorized
)

// APIError represents a marketplace API error with classification.
type APIError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *APIError) Error() string {
	return e.Message
}

// upstreamError is the JSON shape the marketplace API uses for errors.
type upstreamError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ClassifyError determines the error type from an HTTP response. The
// response body is consumed.
func ClassifyError(resp *http.Response) *APIError {
	if resp == nil {
		return &APIError{
			Type:      ErrorUnknown,
			Message:   "nil response",
			Retryable: false,
		}
	}

	var upErr upstreamError
	if resp.Body != nil {
		if bodyBytes, err := io.ReadAll(resp.Body); err == nil {
			_ = json.Unmarshal(bodyBytes, &upErr)
		}
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Type:       ErrorUnknown,
		Retryable:  false,
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.Type = ErrorRateLimited
		apiErr.Message = "rate limited by marketplace API"
		apiErr.Retryable = true

	case resp.StatusCode == http.StatusNotFound:
		apiErr.Type = ErrorNotFound
		apiErr.Message = "resource not found (404)"

	case resp.StatusCode == http.StatusForbidden:
		apiErr.Type = ErrorForbidden
		apiErr.Message = "forbidden (403)"

	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.Type = ErrorUnauthorized
		apiErr.Message = "unauthorized (401)"

	case resp.StatusCode == http.StatusBadRequest:
		apiErr.Type = ErrorBadRequest
		apiErr.Message = "bad request (400)"

	case resp.StatusCode >= 500:
		apiErr.Type = ErrorServerError
		apiErr.Message = "marketplace server error"
		apiErr.Retryable = true

	case resp.StatusCode >= 400:
		apiErr.Type = ErrorBadRequest
		apiErr.Message = "client error"
	}

	if upErr.Message != "" {
		apiErr.Message += ": " + upErr.Message
	} else if upErr.Error != "" {
		apiErr.Message += ": " + upErr.Error
	}

	return apiErr
}

// IsRetryable reports whether the error is worth retrying.
func IsRetryable(err *APIError) bool {
	return err != nil && err.Retryable
}
