package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorKind classifies a redemption failure.
type ErrorKind string

// Failure kinds surfaced to callers.
const (
	KindNotFound       ErrorKind = "NotFound"
	KindCapExceeded    ErrorKind = "CapExceeded"
	KindAlreadyUsed    ErrorKind = "AlreadyUsed"
	KindTransientError ErrorKind = "TransientError"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeDiscountNotFound = "DISCOUNT_NOT_FOUND"
	ErrCodeTotalCapExceeded = "TOTAL_CAP_EXCEEDED"
	ErrCodeUserCapExceeded  = "USER_CAP_EXCEEDED"
	ErrCodeAlreadyUsed      = "ALREADY_USED"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// DomainError is an expected, named business failure.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Redemption failures
var (
	ErrDiscountNotFound = NewDomainError(KindNotFound, ErrCodeDiscountNotFound, "discount not found")
	ErrTotalCapExceeded = NewDomainError(KindCapExceeded, ErrCodeTotalCapExceeded, "discount usage limit reached")
	ErrUserCapExceeded  = NewDomainError(KindCapExceeded, ErrCodeUserCapExceeded, "discount usage limit reached for this user")
	ErrAlreadyUsed      = NewDomainError(KindAlreadyUsed, ErrCodeAlreadyUsed, "discount already used by this user")
)

// TransientError wraps an infrastructure failure of the store.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a transient failure of operation op.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}
