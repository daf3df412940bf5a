// Package capped provides wrapper types that hold a value together with a
// maximum size and refuse to exceed it.
//
// A [Value] pairs an inner value with a limit. Every constructor and every
// mutating method checks the limit before committing, so for any Value v
//
//	v.Len() <= v.Cap()
//
// holds whenever v is observable. Rejected operations return a
// [*CapacityError] and leave v exactly as it was.
//
// How size is measured depends on the kind:
//
//	String     bytes of a string (UTF-8 storage units)
//	Text       runes of a string
//	Blob       bytes of a []byte
//	Slice[E]   elements of a []E
//
// Values are built with a fallible constructor or a truncating one:
//
//	s, err := capped.TryString("hello", 5)   // ok
//	err = s.TryPush("!")                       // *CapacityError{Attempted: 6, Limit: 5}
//	t := capped.TruncString("hello world", 5) // "hello"
//
// Decoding (JSON, YAML, TOML, database/sql) goes through the same check. The
// bound comes from the receiver, so prepare it with the Empty constructor
// of the kind before decoding:
//
//	name := capped.EmptyString(5)
//	err := json.Unmarshal([]byte(`"hello world"`), &name) // *CapacityError
//
// Encoding writes the inner value verbatim; no capacity metadata is emitted.
//
// A Value carries no locks. It is safe to share exactly when its inner value
// is.
package capped
