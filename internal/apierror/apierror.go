package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Status  int         `json:"status,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// FromStatus classifies a non-2xx platform response.
func FromStatus(status int, message string) APIError {
	code := ErrInternalServer
	switch {
	case status == http.StatusNotFound:
		code = ErrNotFound
	case status == http.StatusConflict:
		code = ErrConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = ErrUnauthorized
	case status == http.StatusTooManyRequests:
		code = ErrRateLimited
	case status >= 400 && status < 500:
		code = ErrBadRequest
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return APIError{Code: code, Status: status, Message: message}
}

// IsRetryable reports whether the error is worth another attempt later.
func IsRetryable(err error) bool {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Code == ErrRateLimited || apiErr.Code == ErrInternalServer
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest:
			return http.StatusBadRequest
		case ErrUnauthorized:
			return http.StatusUnauthorized
		case ErrRateLimited:
			return http.StatusTooManyRequests
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
