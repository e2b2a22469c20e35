// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindParameter         ErrorKind = "parameter"
	KindConfiguration     ErrorKind = "configuration"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindExternalService   ErrorKind = "external_service"
	KindRateLimited       ErrorKind = "rate_limited"
	KindPayload           ErrorKind = "payload"
	KindInternal          ErrorKind = "internal"
)

// Machine-stable error codes.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeParameter         = "PARAMETER_ERROR"
	CodeConfiguration     = "CONFIGURATION_ERROR"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeExternalService   = "EXTERNAL_SERVICE_ERROR"
	CodeRateLimited       = "RATE_LIMITED"
	CodePayloadRejected   = "PAYLOAD_REJECTED"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is the single error type surfaced to clients.
type AppError struct {
	Kind      ErrorKind
	Code      string
	Message   string
	Details   map[string]any
	Retryable bool
	Status    int

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

// WithDetail returns e with key set in its details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newAppError(kind ErrorKind, code string, status int, retryable bool, message string, cause error) *AppError {
	return &AppError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Status:    status,
		cause:     cause,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	e := newAppError(KindValidation, CodeValidation, http.StatusBadRequest, false, message, nil)
	e.Details = details
	return e
}

// NewParameterError reports a protocol rule violation or an unresolvable
// contract address.
func NewParameterError(message string, details map[string]any) *AppError {
	e := newAppError(KindParameter, CodeParameter, http.StatusUnprocessableEntity, false, message, nil)
	e.Details = details
	return e
}

func NewConfigurationError(message string, cause error) *AppError {
	return newAppError(KindConfiguration, CodeConfiguration, http.StatusInternalServerError, false, message, cause)
}

func NewInsufficientFundsError(message string, details map[string]any) *AppError {
	e := newAppError(KindInsufficientFunds, CodeInsufficientFunds, http.StatusBadRequest, false, message, nil)
	e.Details = details
	return e
}

// NewExternalServiceError marks a failure of the content store or chain RPC.
func NewExternalServiceError(service, message string, cause error) *AppError {
	e := newAppError(KindExternalService, CodeExternalService, http.StatusBadGateway, true, message, cause)
	return e.WithDetail("service", service)
}

func NewRateLimitedError(retryAfterSeconds int) *AppError {
	e := newAppError(KindRateLimited, CodeRateLimited, http.StatusTooManyRequests, true, "rate limit exceeded", nil)
	return e.WithDetail("retryAfterSeconds", retryAfterSeconds)
}

func NewPayloadError(status int, message string) *AppError {
	return newAppError(KindPayload, CodePayloadRejected, status, false, message, nil)
}

func NewInternalError(cause error) *AppError {
	return newAppError(KindInternal, CodeInternal, http.StatusInternalServerError, true, "internal error", cause)
}

// AsAppError classifies err, treating anything unrecognised as internal.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
