package capped

import "fmt"

// Value holds an inner value of type T whose size, as measured by K, never
// exceeds the limit fixed at construction.
//
// Stored data is never written after it is set, so copies of a Value are
// independent of each other. The zero Value is empty with a limit of 0.
type Value[T any, K Kind[T]] struct {
	inner T
	limit int
}

// TryNew wraps v if its size is at most limit. Otherwise it returns a
// *CapacityError and no value.
//
// TryNew panics if limit is negative.
func TryNew[T any, K Kind[T]](v T, limit int) (Value[T, K], error) {
	checkLimit(limit)
	var k K
	if n := k.Size(v); n > limit {
		return Value[T, K]{}, &CapacityError{Attempted: n, Limit: limit}
	}
	return Value[T, K]{inner: k.Clone(v), limit: limit}, nil
}

// NewTruncated wraps v, shortening it to fit limit if needed.
//
// NewTruncated panics if limit is negative.
func NewTruncated[T any, K Kind[T]](v T, limit int) Value[T, K] {
	checkLimit(limit)
	var k K
	return Value[T, K]{inner: k.Clone(k.Truncate(v, limit)), limit: limit}
}

// Empty returns an empty value with the given limit. A limit of 0 yields a
// value that can never grow.
//
// Empty panics if limit is negative.
func Empty[T any, K Kind[T]](limit int) Value[T, K] {
	checkLimit(limit)
	return Value[T, K]{limit: limit}
}

func checkLimit(limit int) {
	if limit < 0 {
		panic(fmt.Sprintf("capped: negative limit %d", limit))
	}
}

// Inner returns the wrapped value. The result must be treated as read-only
// and is valid until the next mutation of v.
func (v Value[T, K]) Inner() T {
	var k K
	return k.View(v.inner)
}

// IntoInner returns a copy of the wrapped value that is no longer bound by
// the limit.
func (v Value[T, K]) IntoInner() T {
	var k K
	return k.Clone(v.inner)
}

// Cap returns the limit.
func (v Value[T, K]) Cap() int { return v.limit }

// Len returns the current size.
func (v Value[T, K]) Len() int {
	var k K
	return k.Size(v.inner)
}

// Remaining returns how much more the value can grow.
func (v Value[T, K]) Remaining() int { return v.limit - v.Len() }

// IsEmpty reports whether the size is 0.
func (v Value[T, K]) IsEmpty() bool { return v.Len() == 0 }

// String formats the inner value with the default verb.
func (v Value[T, K]) String() string { return fmt.Sprint(v.inner) }

// TryPush appends add if the result fits. On failure v is unchanged.
func (v *Value[T, K]) TryPush(add T) error {
	var k K
	n := k.Size(v.inner) + k.Size(add)
	if n > v.limit {
		return &CapacityError{Attempted: n, Limit: v.limit}
	}
	v.inner = k.Concat(v.inner, add)
	return nil
}

// TrySet replaces the inner value if x fits. On failure v is unchanged.
func (v *Value[T, K]) TrySet(x T) error {
	var k K
	if n := k.Size(x); n > v.limit {
		return &CapacityError{Attempted: n, Limit: v.limit}
	}
	v.inner = k.Clone(x)
	return nil
}

// Clear empties the value. The limit is kept.
func (v *Value[T, K]) Clear() {
	var k K
	v.inner = k.Truncate(v.inner, 0)
}

// Truncate shortens the value to at most n. It never grows the value; a
// negative n clears it.
func (v *Value[T, K]) Truncate(n int) {
	var k K
	v.inner = k.Truncate(v.inner, max(n, 0))
}

// WithLimit returns a copy of v checked against a different limit.
func (v Value[T, K]) WithLimit(limit int) (Value[T, K], error) {
	return TryNew[T, K](v.inner, limit)
}
