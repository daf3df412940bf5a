package capped

import "encoding/json"

// MarshalJSON encodes the inner value as if it were not wrapped.
//
// encoding/json replaces each invalid UTF-8 byte of a string with U+FFFD,
// which is three bytes long. String and Text values therefore round-trip
// only when they hold valid UTF-8; callers that accept raw bytes should
// check with utf8.ValidString first or use Blob.
func (v Value[T, K]) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.inner)
}

// UnmarshalJSON decodes into a plain T and then applies the receiver's
// limit. An oversize payload returns a *CapacityError and leaves v unchanged.
func (v *Value[T, K]) UnmarshalJSON(data []byte) error {
	var raw T
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return v.TrySet(raw)
}

// DecodeJSON decodes data into a Value with the given limit.
func DecodeJSON[T any, K Kind[T]](data []byte, limit int) (Value[T, K], error) {
	out := Empty[T, K](limit)
	if err := json.Unmarshal(data, &out); err != nil {
		return Value[T, K]{}, err
	}
	return out, nil
}
