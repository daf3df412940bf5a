package capped

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/constraints"
	"gopkg.in/yaml.v3"
)

// Num is an unsigned integer kept in the half-open range [0, Bound()).
//
// Unlike the container kinds, the bound is exclusive: a Num with bound 10
// holds 0 through 9. The zero Num has bound 0 and holds 0; it rejects every
// decode and ignores arithmetic.
type Num[U constraints.Unsigned] struct {
	v U
	n U
}

// TryNum returns v as a Num if v < bound.
//
// TryNum panics if bound is 0.
func TryNum[U constraints.Unsigned](v, bound U) (Num[U], error) {
	checkBound(bound)
	if v >= bound {
		return Num[U]{}, &RangeError{Value: uint64(v), Bound: uint64(bound)}
	}
	return Num[U]{v: v, n: bound}, nil
}

// WrapNum returns v modulo bound.
//
// WrapNum panics if bound is 0.
func WrapNum[U constraints.Unsigned](v, bound U) Num[U] {
	checkBound(bound)
	return Num[U]{v: v % bound, n: bound}
}

func checkBound[U constraints.Unsigned](bound U) {
	if bound == 0 {
		panic("capped: zero bound")
	}
}

// Get returns the value.
func (x Num[U]) Get() U { return x.v }

// Bound returns the exclusive upper bound.
func (x Num[U]) Bound() U { return x.n }

// WrappingAdd returns (x + rhs) modulo the bound without intermediate
// overflow.
func (x Num[U]) WrappingAdd(rhs U) Num[U] {
	if x.n == 0 {
		return x
	}
	r := rhs % x.n
	if x.v >= x.n-r {
		return Num[U]{v: x.v - (x.n - r), n: x.n}
	}
	return Num[U]{v: x.v + r, n: x.n}
}

// TakeIncrement returns the current value and advances x by one, wrapping
// to 0 at the bound.
func (x *Num[U]) TakeIncrement() Num[U] {
	out := *x
	*x = x.WrappingAdd(1)
	return out
}

// TrySet replaces the value if v < Bound(). On failure x is unchanged.
func (x *Num[U]) TrySet(v U) error {
	if v >= x.n {
		return &RangeError{Value: uint64(v), Bound: uint64(x.n)}
	}
	x.v = v
	return nil
}

func (x Num[U]) String() string { return fmt.Sprint(x.v) }

func (x Num[U]) MarshalJSON() ([]byte, error) { return json.Marshal(x.v) }

// UnmarshalJSON decodes a number and checks it against the receiver's bound.
func (x *Num[U]) UnmarshalJSON(data []byte) error {
	var raw U
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return x.TrySet(raw)
}

func (x Num[U]) MarshalYAML() (any, error) { return x.v, nil }

// UnmarshalYAML decodes a number and checks it against the receiver's bound.
func (x *Num[U]) UnmarshalYAML(node *yaml.Node) error {
	var raw U
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return x.TrySet(raw)
}
