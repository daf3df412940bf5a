package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/hpungsan/capped"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrAmbiguousAddressing ErrorCode = "AMBIGUOUS_ADDRESSING" // 400
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrNameAlreadyExists   ErrorCode = "NAME_ALREADY_EXISTS"  // 409
	ErrCapacityExceeded    ErrorCode = "CAPACITY_EXCEEDED"    // 413
	ErrCancelled           ErrorCode = "CANCELLED"            // 499
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// CappedError is a structured error with code, status, and details.
type CappedError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAmbiguousAddressing creates a 400 error for when both ID and name are provided.
func NewAmbiguousAddressing() *CappedError {
	return &CappedError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and name; use one addressing mode",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CappedError {
	return &CappedError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a note cannot be found.
func NewNotFound(identifier string) *CappedError {
	return &CappedError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("note not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *CappedError {
	return &CappedError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNameAlreadyExists creates a 409 error for name collisions.
func NewNameAlreadyExists(workspace, name string) *CappedError {
	return &CappedError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("note with name %q already exists in workspace %q", name, workspace),
		Details: map[string]any{"workspace": workspace, "name": name},
	}
}

// NewCapacityExceeded creates a 413 error for a field that does not fit its limit.
func NewCapacityExceeded(field string, limit, attempted int) *CappedError {
	return &CappedError{
		Code:    ErrCapacityExceeded,
		Status:  413,
		Message: fmt.Sprintf("%s exceeds capacity: size %d (max %d)", field, attempted, limit),
		Details: map[string]any{"field": field, "limit": limit, "attempted": attempted},
	}
}

// FromCapacity converts a capacity violation from the capped package into a
// CAPACITY_EXCEEDED error for field. Any other error becomes INVALID_REQUEST,
// and nil stays nil.
func FromCapacity(field string, err error) error {
	if err == nil {
		return nil
	}
	if capErr, ok := capped.AsCapacityError(err); ok {
		return NewCapacityExceeded(field, capErr.Limit, capErr.Attempted)
	}
	var cErr *CappedError
	if stderrors.As(err, &cErr) {
		return cErr
	}
	return NewInvalidRequest(fmt.Sprintf("invalid %s: %v", field, err))
}

// NewCancelled creates an error for an operation stopped by its context.
func NewCancelled(op string) *CappedError {
	return &CappedError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors. The
// message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *CappedError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &CappedError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if err (or any error it wraps) is a CappedError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *CappedError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}
