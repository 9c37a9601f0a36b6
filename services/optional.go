package services

import (
	"bytes"
	"encoding/json"
)

// Optional carries a field of a partial update. Set is true when the key was present in
// the payload; Null is true when it was present with a JSON null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some builds an Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null builds an Optional that explicitly clears the field
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON only runs for keys present in the payload, which is what marks Set
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns nil when cleared, otherwise a pointer to the value
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
