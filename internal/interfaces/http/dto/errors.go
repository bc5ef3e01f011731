package dto

import (
	"net/http"

	"github.com/erp/fulfillment/internal/domain/shared"
)

// Domain error codes surface unchanged in the envelope
const (
	ErrCodeIllegalTransition   = shared.CodeIllegalTransition
	ErrCodeInsufficientStock   = shared.CodeInsufficientStock
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeInvalidQuantity     = shared.CodeInvalidQuantity
	ErrCodeAlreadyReceived     = shared.CodeAlreadyReceived
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeForbidden           = shared.CodeForbidden
	ErrCodeInvalidInput        = shared.CodeInvalidInput
	ErrCodeAlreadyExists       = shared.CodeAlreadyExists
)

// Transport error codes
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeIllegalTransition:   http.StatusConflict,
	ErrCodeInsufficientStock:   http.StatusConflict,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeInvalidQuantity:     http.StatusBadRequest,
	ErrCodeAlreadyReceived:     http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeAlreadyExists:       http.StatusConflict,

	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:      http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode returns code if it is a known code and INTERNAL_ERROR otherwise
func NormalizeErrorCode(code string) string {
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
