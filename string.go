package capped

import "unicode/utf8"

// String is a string capped in bytes.
type String = Value[string, Bytes]

// Text is a string capped in runes.
type Text = Value[string, Runes]

// Blob is a byte slice capped in bytes.
type Blob = Value[[]byte, Raw]

// TryString wraps s if len(s) <= limit.
func TryString(s string, limit int) (String, error) { return TryNew[string, Bytes](s, limit) }

// TruncString wraps s, cutting it to at most limit bytes without splitting a
// UTF-8 sequence.
func TruncString(s string, limit int) String { return NewTruncated[string, Bytes](s, limit) }

// EmptyString returns an empty String with the given limit.
func EmptyString(limit int) String { return Empty[string, Bytes](limit) }

// TryText wraps s if it has at most limit runes.
func TryText(s string, limit int) (Text, error) { return TryNew[string, Runes](s, limit) }

// TruncText wraps the first limit runes of s.
func TruncText(s string, limit int) Text { return NewTruncated[string, Runes](s, limit) }

// EmptyText returns an empty Text with the given limit.
func EmptyText(limit int) Text { return Empty[string, Runes](limit) }

// TryBlob wraps a copy of b if len(b) <= limit.
func TryBlob(b []byte, limit int) (Blob, error) { return TryNew[[]byte, Raw](b, limit) }

// TruncBlob wraps a copy of the first limit bytes of b.
func TruncBlob(b []byte, limit int) Blob { return NewTruncated[[]byte, Raw](b, limit) }

// EmptyBlob returns an empty Blob with the given limit.
func EmptyBlob(limit int) Blob { return Empty[[]byte, Raw](limit) }

// PushRune appends r to s if its UTF-8 encoding fits.
func PushRune(s *String, r rune) error {
	return s.TryPush(string(r))
}

// PopRune removes the last rune of s and returns it. ok is false if s is
// empty.
func PopRune[K Kind[string]](s *Value[string, K]) (r rune, ok bool) {
	inner := s.inner
	if inner == "" {
		return 0, false
	}
	r, size := utf8.DecodeLastRuneInString(inner)
	s.inner = inner[:len(inner)-size]
	return r, true
}
