package capped

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// Value implements driver.Valuer. Strings are stored as TEXT, Blob values as
// BLOB and slices as JSON text.
func (v Value[T, K]) Value() (driver.Value, error) {
	switch inner := any(v.inner).(type) {
	case string:
		return inner, nil
	case []byte:
		return inner, nil
	}
	b, err := json.Marshal(v.inner)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. The column is converted to a plain T and then
// checked against the receiver's limit; NULL scans as an empty value.
func (v *Value[T, K]) Scan(src any) error {
	var raw T
	if err := fromColumn(src, &raw); err != nil {
		return err
	}
	return v.TrySet(raw)
}

func fromColumn(src any, dst any) error {
	if src == nil {
		return nil
	}
	var b []byte
	switch s := src.(type) {
	case string:
		b = []byte(s)
	case []byte:
		b = s
	default:
		return fmt.Errorf("capped: cannot scan %T", src)
	}
	switch d := dst.(type) {
	case *string:
		*d = string(b)
		return nil
	case *[]byte:
		*d = slices.Clone(b)
		return nil
	}
	return json.Unmarshal(b, dst)
}
