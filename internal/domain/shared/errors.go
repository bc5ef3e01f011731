package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrNotFound) matches enriched instances of the same kind.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail field
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeForbidden           = "FORBIDDEN"
	CodeIllegalTransition   = "ILLEGAL_TRANSITION"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeAlreadyReceived     = "ALREADY_RECEIVED"
	CodeAlreadyExists       = "ALREADY_EXISTS"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrIllegalTransition   = NewDomainError(CodeIllegalTransition, "Transition not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidQuantity     = NewDomainError(CodeInvalidQuantity, "Quantity must be a positive integer")
	ErrAlreadyReceived     = NewDomainError(CodeAlreadyReceived, "Return has already been received")
)

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// NewInvalidQuantityError creates an INVALID_QUANTITY error for the given value
func NewInvalidQuantityError(qty int64) *DomainError {
	return &DomainError{
		Code:    CodeInvalidQuantity,
		Message: fmt.Sprintf("Quantity must be positive, got %d", qty),
		Details: map[string]any{"quantity": qty},
	}
}

// NewForbiddenError creates a FORBIDDEN error naming the missing capability
func NewForbiddenError(permission string) *DomainError {
	return &DomainError{
		Code:    CodeForbidden,
		Message: fmt.Sprintf("Missing capability %s", permission),
		Details: map[string]any{"permission": permission},
	}
}

// IsNotFound reports whether err is a NOT_FOUND domain error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
