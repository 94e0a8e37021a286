// Package option holds the runtime representation of the optional-value
// container and its conversion to the external nullable representation.
package option

// Optional is implemented by every Option value regardless of its type
// parameter.
type Optional interface {
	Get() (any, bool)
}

// Option is either present with a value or absent.
type Option[T any] struct {
	value T
	valid bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, valid: true} }

func None[T any]() Option[T] { return Option[T]{} }

// FromPointer maps nil to absent and anything else to present.
func FromPointer[T any](p *T) Option[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

func (o Option[T]) IsSome() bool { return o.valid }

func (o Option[T]) Value() (T, bool) { return o.value, o.valid }

func (o Option[T]) OrElse(v T) T {
	if o.valid {
		return o.value
	}
	return v
}

func (o Option[T]) Get() (any, bool) {
	if !o.valid {
		return nil, false
	}
	return o.value, true
}

// Encode converts an internal optional value into its external form: absent
// becomes nil and present(x) becomes x. Values that are not optional pass
// through unchanged.
func Encode(v any) any {
	o, ok := v.(Optional)
	if !ok {
		return v
	}
	inner, present := o.Get()
	if !present {
		return nil
	}
	return inner
}
