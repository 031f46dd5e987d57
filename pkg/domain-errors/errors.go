// Package domainerrors provides code-carrying errors for domain and
// validation failures. Infrastructure facts (not found, expired) live in
// pkg/platform/sentinel; services translate sentinels into these codes before
// they cross the module boundary.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error for callers and for HTTP translation.
type Code string

const (
	// Spending taxonomy.
	CodePermissionDenied        Code = "permission_denied"
	CodeLimitExceeded           Code = "limit_exceeded"
	CodeInsufficientFunds       Code = "insufficient_funds"
	CodeInsufficientGuardianGas Code = "insufficient_guardian_gas"
	CodeExternalServiceFailure  Code = "external_service_failure"
	CodeUnknown                 Code = "unknown"

	// Transport and validation.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// DomainError pairs a machine-readable code with a human-readable
// description. The description is safe to show to end users for policy and
// limit denials; internal and external-service errors omit it at the HTTP
// boundary so collaborator details never leak.
type DomainError struct {
	Code        Code
	Description string
}

func (e DomainError) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Description
}

// New constructs a DomainError with the given code and description.
func New(code Code, description string) DomainError {
	return DomainError{Code: code, Description: description}
}

// HasCode reports whether err is (or wraps) a DomainError with the code.
func HasCode(err error, code Code) bool {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that are not DomainErrors.
func CodeOf(err error) Code {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied, CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeLimitExceeded, CodeInsufficientFunds, CodeInsufficientGuardianGas:
		return http.StatusUnprocessableEntity
	case CodeExternalServiceFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// leaksInternals reports whether a code's description must be suppressed at
// the HTTP boundary.
func leaksInternals(code Code) bool {
	return code == CodeInternal || code == CodeUnknown || code == CodeExternalServiceFailure
}

// SafeDescription returns the description callers may surface, or "" when the
// code's details must stay internal.
func SafeDescription(err error) string {
	var de DomainError
	if !errors.As(err, &de) {
		return ""
	}
	if leaksInternals(de.Code) {
		return ""
	}
	return de.Description
}
