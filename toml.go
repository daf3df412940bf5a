package capped

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
)

// MarshalTOML encodes the inner value as a TOML value. Blob values are
// written as strings.
func (v Value[T, K]) MarshalTOML() ([]byte, error) {
	var inner any = v.inner
	if b, ok := inner.([]byte); ok {
		inner = string(b)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]any{"v": inner}); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		// The encoder drops nil slices.
		return []byte("[]"), nil
	}
	out, ok := bytes.CutPrefix(buf.Bytes(), []byte("v = "))
	if !ok {
		return nil, fmt.Errorf("capped: %T is not a TOML value", v.inner)
	}
	return bytes.TrimRight(out, "\n"), nil
}

// UnmarshalTOML converts the decoded TOML value into a plain T and then
// applies the receiver's limit.
func (v *Value[T, K]) UnmarshalTOML(data any) error {
	var raw T
	if err := fromTOML(data, &raw); err != nil {
		return err
	}
	return v.TrySet(raw)
}

// DecodeTOML decodes the value stored under key in a TOML document. A
// missing key yields an empty value.
func DecodeTOML[T any, K Kind[T]](doc, key string, limit int) (Value[T, K], error) {
	var prims map[string]toml.Primitive
	md, err := toml.Decode(doc, &prims)
	if err != nil {
		return Value[T, K]{}, err
	}
	out := Empty[T, K](limit)
	prim, ok := prims[key]
	if !ok {
		return out, nil
	}
	if err := md.PrimitiveDecode(prim, &out); err != nil {
		return Value[T, K]{}, err
	}
	return out, nil
}

// fromTOML assigns a value produced by the TOML decoder to dst. Strings map
// directly; arrays and tables go through JSON, whose data model they share.
func fromTOML(data any, dst any) error {
	switch d := dst.(type) {
	case *string:
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("capped: cannot decode TOML %T into string", data)
		}
		*d = s
		return nil
	case *[]byte:
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("capped: cannot decode TOML %T into []byte", data)
		}
		*d = []byte(s)
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
