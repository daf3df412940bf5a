package capped

// Slice is a slice capped in elements.
type Slice[E any] = Value[[]E, Elems[E]]

// TrySlice wraps a copy of s if len(s) <= limit.
func TrySlice[E any](s []E, limit int) (Slice[E], error) {
	return TryNew[[]E, Elems[E]](s, limit)
}

// TruncSlice wraps a copy of the first limit elements of s.
func TruncSlice[E any](s []E, limit int) Slice[E] {
	return NewTruncated[[]E, Elems[E]](s, limit)
}

// EmptySlice returns an empty Slice with the given limit.
func EmptySlice[E any](limit int) Slice[E] {
	return Empty[[]E, Elems[E]](limit)
}

// Append adds elems to s if they all fit. Either every element is added or
// none is.
func Append[E any](s *Slice[E], elems ...E) error {
	return s.TryPush(elems)
}

// Pop removes and returns the last element of s. ok is false if s is empty.
func Pop[E any](s *Slice[E]) (e E, ok bool) {
	n := len(s.inner)
	if n == 0 {
		return e, false
	}
	e = s.inner[n-1]
	s.inner = s.inner[:n-1]
	return e, true
}

// Get returns the element at index i.
func Get[E any](s Slice[E], i int) (e E, ok bool) {
	if i < 0 || i >= len(s.inner) {
		return e, false
	}
	return s.inner[i], true
}
