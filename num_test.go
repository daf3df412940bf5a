package capped

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTryNum(t *testing.T) {
	n, err := TryNum[uint8](4, 5)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), n.Get())
	assert.Equal(t, uint8(5), n.Bound())

	_, err = TryNum[uint8](5, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = TryNum[uint8](250, 240)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in range 0..240")
}

func TestWrapNum(t *testing.T) {
	n := WrapNum[uint16](29, 10)
	assert.Equal(t, uint16(9), n.Get())
	assert.Panics(t, func() { WrapNum[uint32](1, 0) })
}

func TestNum_WrappingAdd(t *testing.T) {
	four, err := TryNum[uint8](4, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), four.WrappingAdd(15).Get())
	assert.Equal(t, uint8(8), WrapNum[uint8](9, 10).WrappingAdd(249).Get())
	assert.Equal(t, uint8(14), WrapNum[uint8](239, 240).WrappingAdd(255).Get())

	// 254 + 254 overflows uint8 if added directly.
	assert.Equal(t, uint8(253), WrapNum[uint8](254, 255).WrappingAdd(254).Get())

	var zero Num[uint64]
	assert.Equal(t, zero, zero.WrappingAdd(3))
}

func TestNum_TakeIncrement(t *testing.T) {
	c := WrapNum[uint8](1, 3)
	assert.Equal(t, uint8(1), c.TakeIncrement().Get())
	assert.Equal(t, uint8(2), c.TakeIncrement().Get())
	assert.Equal(t, uint8(0), c.TakeIncrement().Get())
	assert.Equal(t, uint8(1), c.Get())
}

func TestNum_TrySet(t *testing.T) {
	n := WrapNum[uint32](0, 100)
	require.NoError(t, n.TrySet(99))
	require.Error(t, n.TrySet(100))
	assert.Equal(t, uint32(99), n.Get())
}

func TestNum_JSON(t *testing.T) {
	type slot struct {
		Index Num[uint16] `json:"index"`
	}

	s := slot{Index: WrapNum[uint16](0, 8)}
	require.NoError(t, json.Unmarshal([]byte(`{"index":7}`), &s))
	assert.Equal(t, uint16(7), s.Index.Get())

	err := json.Unmarshal([]byte(`{"index":8}`), &s)
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, uint64(8), rangeErr.Value)
	assert.Equal(t, uint16(7), s.Index.Get())

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":7}`, string(out))
}

func TestNum_YAML(t *testing.T) {
	type slot struct {
		Index Num[uint8] `yaml:"index"`
	}

	s := slot{Index: WrapNum[uint8](0, 4)}
	require.NoError(t, yaml.Unmarshal([]byte("index: 3\n"), &s))
	assert.Equal(t, uint8(3), s.Index.Get())

	err := yaml.Unmarshal([]byte("index: 4\n"), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "index: 3\n", string(out))
}

func TestNum_String(t *testing.T) {
	assert.Equal(t, "42", WrapNum[uint64](42, 1000).String())
}
