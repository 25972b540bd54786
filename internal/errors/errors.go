package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pngcrypt-go/internal/container"
	"github.com/pngcrypt-go/internal/encryption"
	"github.com/pngcrypt-go/internal/fetch"
)

// ErrorCode represents application error codes
type ErrorCode int

const (
	// Client errors (4xx)
	ErrCodeBadRequest   ErrorCode = 400
	ErrCodeUnauthorized ErrorCode = 401
	ErrCodeNotFound     ErrorCode = 404
	ErrCodeTooLarge     ErrorCode = 413

	// Server errors (5xx)
	ErrCodeInternal   ErrorCode = 500
	ErrCodeUpstream   ErrorCode = 502
	ErrCodeEncryption ErrorCode = 510
	ErrCodeDecryption ErrorCode = 511
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, status int, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Cause:      cause,
	}
}

// NewBadRequest creates a bad request error
func NewBadRequest(message string) *AppError {
	return newError(ErrCodeBadRequest, http.StatusBadRequest, message, nil)
}

// NewBadRequestWithCause creates a bad request error with cause
func NewBadRequestWithCause(message string, cause error) *AppError {
	return newError(ErrCodeBadRequest, http.StatusBadRequest, message, cause)
}

// NewUnauthorized creates an unauthorized error
func NewUnauthorized(message string) *AppError {
	return newError(ErrCodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// NewNotFound creates a not found error
func NewNotFound(message string) *AppError {
	return newError(ErrCodeNotFound, http.StatusNotFound, message, nil)
}

// NewTooLarge creates a payload too large error
func NewTooLarge(message string) *AppError {
	return newError(ErrCodeTooLarge, http.StatusRequestEntityTooLarge, message, nil)
}

// NewInternal creates an internal server error
func NewInternal(message string) *AppError {
	return newError(ErrCodeInternal, http.StatusInternalServerError, message, nil)
}

// NewInternalWithCause creates an internal server error with cause
func NewInternalWithCause(message string, cause error) *AppError {
	return newError(ErrCodeInternal, http.StatusInternalServerError, message, cause)
}

// NewUpstreamErrorWithCause creates an error for a failed source fetch
func NewUpstreamErrorWithCause(message string, cause error) *AppError {
	return newError(ErrCodeUpstream, http.StatusBadGateway, message, cause)
}

// NewEncryptionErrorWithCause creates an encryption error with cause
func NewEncryptionErrorWithCause(message string, cause error) *AppError {
	return newError(ErrCodeEncryption, http.StatusUnprocessableEntity, message, cause)
}

// NewDecryptionErrorWithCause creates a decryption error with cause
func NewDecryptionErrorWithCause(message string, cause error) *AppError {
	return newError(ErrCodeDecryption, http.StatusUnprocessableEntity, message, cause)
}

// FromCrypto maps errors from the encryption and container packages to an
// AppError. Caller mistakes become 400s, everything else is attributed to
// the operation.
func FromCrypto(err error, decrypt bool) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, encryption.ErrEmptyBlock):
		return NewBadRequestWithCause("empty input", err)
	case stderrors.Is(err, container.ErrNotPNG),
		stderrors.Is(err, container.ErrNotContainer),
		stderrors.Is(err, container.ErrUnsupportedVersion),
		stderrors.Is(err, container.ErrAlgorithmMismatch),
		stderrors.Is(err, container.ErrTruncated):
		return NewBadRequestWithCause("invalid input", err)
	case stderrors.Is(err, container.ErrChunkTooLarge):
		return newError(ErrCodeTooLarge, http.StatusRequestEntityTooLarge, "chunk too large", err)
	}

	if decrypt {
		return NewDecryptionErrorWithCause("decryption failed", err)
	}
	return NewEncryptionErrorWithCause("encryption failed", err)
}

// FromFetch maps a source fetch failure to an AppError
func FromFetch(err error) *AppError {
	switch {
	case stderrors.Is(err, fetch.ErrBadURL):
		return NewBadRequestWithCause("invalid src", err)
	case stderrors.Is(err, fetch.ErrTooLarge):
		return newError(ErrCodeTooLarge, http.StatusRequestEntityTooLarge, "source too large", err)
	}
	return NewUpstreamErrorWithCause("failed to fetch src", err)
}

// ToHTTPStatus converts an error to HTTP status code
func ToHTTPStatus(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ToJSON converts an error to JSON bytes
func ToJSON(err error) []byte {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		data, _ := json.Marshal(map[string]interface{}{
			"code": appErr.Code,
			"msg":  appErr.Message,
		})
		return data
	}
	data, _ := json.Marshal(map[string]interface{}{
		"code": ErrCodeInternal,
		"msg":  err.Error(),
	})
	return data
}
