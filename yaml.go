package capped

import "gopkg.in/yaml.v3"

// MarshalYAML encodes the inner value as if it were not wrapped.
func (v Value[T, K]) MarshalYAML() (any, error) {
	return v.inner, nil
}

// UnmarshalYAML decodes the node into a plain T and then applies the
// receiver's limit.
func (v *Value[T, K]) UnmarshalYAML(node *yaml.Node) error {
	var raw T
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return v.TrySet(raw)
}

// DecodeYAML decodes data into a Value with the given limit.
func DecodeYAML[T any, K Kind[T]](data []byte, limit int) (Value[T, K], error) {
	out := Empty[T, K](limit)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Value[T, K]{}, err
	}
	return out, nil
}
