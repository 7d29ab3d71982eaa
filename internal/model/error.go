package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Kind          Kind   `json:"kind"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Kind is the machine-readable failure category reported to callers.
type Kind string

// Failure kinds.
const (
	KindNotFound          Kind = "NotFound"
	KindOrderActivated    Kind = "OrderActivated"
	KindNotActivatable    Kind = "NotActivatable"
	KindAlreadyActivated  Kind = "AlreadyActivated"
	KindInvalidQuantity   Kind = "InvalidQuantity"
	KindSelectionConflict Kind = "SelectionConflict"
	KindInvalidRequest    Kind = "InvalidRequest"
	KindUnexpected        Kind = "Unexpected"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidID         = "INVALID_ID"
	ErrCodeInvalidPagination = "INVALID_PAGINATION"
	ErrCodeEmptyBatch        = "EMPTY_BATCH"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeOrderItemNotFound = "ORDER_ITEM_NOT_FOUND"
	ErrCodePriceBookNotFound = "PRICE_BOOK_NOT_FOUND"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeOrderActivated    = "ORDER_ACTIVATED"
	ErrCodeNotActivatable    = "NOT_ACTIVATABLE"
	ErrCodeAlreadyActivated  = "ALREADY_ACTIVATED"
	ErrCodeSelectionConflict = "SELECTION_CONFLICT"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so errors built with a
// more specific message still satisfy errors.Is against the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrOrderNotFound     = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrProductNotFound   = NewDomainError(KindNotFound, ErrCodeProductNotFound, "One or more products not found in the order's price book")
	ErrOrderItemNotFound = NewDomainError(KindNotFound, ErrCodeOrderItemNotFound, "One or more order items not found")
	ErrPriceBookNotFound = NewDomainError(KindNotFound, ErrCodePriceBookNotFound, "Price book not found or inactive")
	ErrInvalidQuantity   = NewDomainError(KindInvalidQuantity, ErrCodeInvalidQuantity, "Quantity must be at least 1")
	ErrOrderActivated    = NewDomainError(KindOrderActivated, ErrCodeOrderActivated, "Order is activated and its items can no longer be changed")
	ErrNotActivatable    = NewDomainError(KindNotActivatable, ErrCodeNotActivatable, "Order does not meet the activation requirements")
	ErrAlreadyActivated  = NewDomainError(KindAlreadyActivated, ErrCodeAlreadyActivated, "Order is already activated")
	ErrSelectionConflict = NewDomainError(KindSelectionConflict, ErrCodeSelectionConflict, "Only one product per parent can be selected")
	ErrInvalidPagination = NewDomainError(KindInvalidRequest, ErrCodeInvalidPagination, "Offset must be zero or greater and page size must be within bounds")
	ErrEmptyBatch        = NewDomainError(KindInvalidRequest, ErrCodeEmptyBatch, "At least one entry is required")
	ErrInvalidJSON       = NewDomainError(KindInvalidRequest, ErrCodeInvalidJSON, "Invalid request body")
	ErrInvalidID         = NewDomainError(KindInvalidRequest, ErrCodeInvalidID, "Invalid ID format")
)

// KindOf reports the failure kind of err. Errors that are not domain errors
// are collaborator or storage failures and map to KindUnexpected.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}
