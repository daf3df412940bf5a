package capped

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded matches every *CapacityError under errors.Is.
var ErrCapacityExceeded = errors.New("capped: capacity exceeded")

// ErrOutOfRange matches every *RangeError under errors.Is.
var ErrOutOfRange = errors.New("capped: value out of range")

// CapacityError reports a value or mutation that does not fit its limit.
type CapacityError struct {
	// Attempted is the size the value would have had.
	Attempted int
	// Limit is the inclusive bound that was exceeded.
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capped: size %d must be in range 0..=%d", e.Attempted, e.Limit)
}

// Is reports whether target is ErrCapacityExceeded.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// RangeError reports a number outside the half-open range [0, Bound).
type RangeError struct {
	Value uint64
	Bound uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("capped: value %d is not in range 0..%d", e.Value, e.Bound)
}

// Is reports whether target is ErrOutOfRange.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// AsCapacityError extracts a *CapacityError from err's chain.
func AsCapacityError(err error) (*CapacityError, bool) {
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		return capErr, true
	}
	return nil, false
}
