package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in JSON error bodies.
const (
	CodeValidationFailed          = "VALIDATION_FAILED"
	CodeConflict                  = "CONFLICT"
	CodeUnauthenticated           = "UNAUTHENTICATED"
	CodeForbidden                 = "FORBIDDEN"
	CodeNotFound                  = "NOT_FOUND"
	CodeAccountProvisioningFailed = "ACCOUNT_PROVISIONING_FAILED"
	CodeInternal                  = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports malformed or missing input fields.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewConflict reports a uniqueness violation such as a duplicate username.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewUnauthenticated reports a credential mismatch.
func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// NewForbidden reports a missing or unverifiable bearer token.
func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewNotFound reports that the named resource does not exist.
func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

// NewAccountProvisioningError reports that a user row exists without its
// account. The store needs operator attention.
func NewAccountProvisioningError(userID string, err error) error {
	return &DomainError{
		Code:       CodeAccountProvisioningFailed,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"user_id": userID},
		Err:        err,
	}
}

// NewDependencyError wraps a store or other unexpected failure.
func NewDependencyError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
