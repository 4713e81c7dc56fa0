// Package opt provides a tagged optional value that keeps "absent" distinct
// from the zero value of T.
package opt

import (
	"encoding/json"
	"fmt"
)

// Value is either Present(v) or Absent. The zero Value is Absent.
type Value[T any] struct {
	v   T
	set bool
}

// Some returns a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// None returns an absent value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPtr converts a nil pointer to Absent.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

func (o Value[T]) Get() (T, bool) {
	return o.v, o.set
}

func (o Value[T]) IsSet() bool {
	return o.set
}

func (o Value[T]) OrElse(def T) T {
	if !o.set {
		return def
	}
	return o.v
}

// Ptr returns nil when absent. Useful for nullable SQL columns.
func (o Value[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}

func (o Value[T]) String() string {
	if !o.set {
		return "<absent>"
	}
	return fmt.Sprint(o.v)
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
