package capped

import (
	"slices"
	"unicode/utf8"
)

// Kind defines how a wrapped type is measured, shortened and extended.
//
// Kinds are zero-size types used only as type parameters; their methods must
// not depend on receiver state.
type Kind[T any] interface {
	// Size returns the size of v under this kind's metric.
	Size(v T) int
	// Truncate returns a prefix of v whose size is at most n.
	// If n >= Size(v), v is returned unchanged.
	Truncate(v T, n int) T
	// Concat returns v followed by add in new storage. Neither argument is
	// modified or retained.
	Concat(v, add T) T
	// Clone returns a copy of v that shares no mutable storage with it.
	Clone(v T) T
	// View returns v in a form that cannot be used to write past its end.
	View(v T) T
}

// Bytes measures strings in bytes.
//
// Truncation cuts at n bytes and then backs up to the start of the rune
// that was split, so a valid UTF-8 input stays valid. The result may
// therefore be up to utf8.UTFMax-1 bytes shorter than n.
type Bytes struct{}

func (Bytes) Size(s string) int { return len(s) }

func (Bytes) Truncate(s string, n int) string {
	if n >= len(s) {
		return s
	}
	cut := n
	for cut > 0 && cut > n-utf8.UTFMax && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if !utf8.RuneStart(s[cut]) {
		// s[cut] is not part of a valid sequence; cut at n.
		cut = n
	}
	return s[:cut]
}

func (Bytes) Concat(s, add string) string { return s + add }
func (Bytes) Clone(s string) string       { return s }
func (Bytes) View(s string) string        { return s }

// Runes measures strings in Unicode code points.
type Runes struct{}

func (Runes) Size(s string) int { return utf8.RuneCountInString(s) }

func (Runes) Truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func (Runes) Concat(s, add string) string { return s + add }
func (Runes) Clone(s string) string       { return s }
func (Runes) View(s string) string        { return s }

// Raw measures byte slices in bytes. No encoding is assumed.
type Raw struct{}

func (Raw) Size(b []byte) int { return len(b) }

func (Raw) Truncate(b []byte, n int) []byte {
	if n >= len(b) {
		return b
	}
	return b[:n]
}

func (Raw) Concat(b, add []byte) []byte { return slices.Concat(b, add) }
func (Raw) Clone(b []byte) []byte       { return slices.Clone(b) }
func (Raw) View(b []byte) []byte        { return slices.Clip(b) }

// Elems measures slices in elements.
type Elems[E any] struct{}

func (Elems[E]) Size(s []E) int { return len(s) }

func (Elems[E]) Truncate(s []E, n int) []E {
	if n >= len(s) {
		return s
	}
	return s[:n]
}

func (Elems[E]) Concat(s, add []E) []E { return slices.Concat(s, add) }
func (Elems[E]) Clone(s []E) []E       { return slices.Clone(s) }
func (Elems[E]) View(s []E) []E        { return slices.Clip(s) }
