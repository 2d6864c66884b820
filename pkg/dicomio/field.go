package dicomio

// Field is the result of reading one tag: either a value or nothing. The zero
// Field is absent.
type Field[T any] struct {
	value T
	ok    bool
}

// Present wraps a value that was read successfully.
func Present[T any](v T) Field[T] {
	return Field[T]{value: v, ok: true}
}

// Absent returns a Field with no value.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the value and whether it was present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.ok
}

// IsPresent reports whether the field holds a value.
func (f Field[T]) IsPresent() bool {
	return f.ok
}
