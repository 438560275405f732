package containers

import "github.com/cockroachdb/errors"

// Ring is a fixed-size cyclic sequence with a cursor. Advancing past the last
// element wraps to the first.
type Ring[T any] struct {
	data  []T
	index int
}

// NewRing builds a ring of size elements, each produced by fill.
// On error the elements created so far are returned for cleanup.
func NewRing[T any](size int, fill func(i int) (T, error)) (*Ring[T], []T, error) {
	if size <= 0 {
		return nil, nil, errors.Newf("ring size must be positive, got %d", size)
	}
	data := make([]T, 0, size)
	for i := 0; i < size; i++ {
		v, err := fill(i)
		if err != nil {
			return nil, data, err
		}
		data = append(data, v)
	}
	return &Ring[T]{data: data}, nil, nil
}

// Current returns the element under the cursor.
func (r *Ring[T]) Current() T {
	return r.data[r.index]
}

// Index returns the cursor position.
func (r *Ring[T]) Index() int {
	return r.index
}

// Advance moves the cursor one step and wraps.
func (r *Ring[T]) Advance() {
	r.index = (r.index + 1) % len(r.data)
}

func (r *Ring[T]) Len() int {
	return len(r.data)
}

// Each visits every element in storage order.
func (r *Ring[T]) Each(fn func(i int, v T)) {
	for i, v := range r.data {
		fn(i, v)
	}
}
