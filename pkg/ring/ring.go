// SPDX-License-Identifier: MIT
/*
Package ring provides a fixed-capacity circular buffer with overwrite-oldest
eviction, used both for the analyzer's sample history and for the capture
hand-off queue.

Design Principles:
  - Zero Allocations: storage is allocated once in New
  - O(1) Push, Pop and At
  - No locking; callers that share a Buffer across goroutines must guard it

Indexing:

	logical index i maps to physical slot (start + i) % Cap()

At does not check i against Len(). Reading Len() <= i < Cap() returns a stale
slot left by an earlier push (or the fill value), which lets fixed-size
analysis windows run over a partially filled history. Indices outside
[0, Cap()) are a programming error and panic.
*/
package ring

import "fmt"

// Buffer is a bounded FIFO of T that evicts the oldest element when full.
type Buffer[T any] struct {
	start int
	count int
	data  []T
}

// New allocates a Buffer with capacity slots, each pre-filled with fill.
// The buffer starts logically empty.
func New[T any](capacity int, fill T) *Buffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ring: capacity must be positive, got %d", capacity))
	}
	data := make([]T, capacity)
	for i := range data {
		data[i] = fill
	}
	return &Buffer[T]{data: data}
}

// Push appends v at the logical end, evicting the oldest element if the
// buffer is full.
func (b *Buffer[T]) Push(v T) {
	n := len(b.data)
	if b.count == n {
		b.start++
		if b.start == n {
			b.start = 0
		}
		b.count--
	}
	b.data[(b.start+b.count)%n] = v
	b.count++
}

// Pop removes and returns the oldest element. The boolean is false when the
// buffer is empty.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}
	v := b.data[b.start]
	b.start++
	if b.start == len(b.data) {
		b.start = 0
	}
	b.count--
	return v, true
}

// At returns the element at logical offset i from the oldest retained
// element. See the package documentation for the indexing contract.
func (b *Buffer[T]) At(i int) T {
	n := len(b.data)
	if i < 0 || i >= n {
		panic(fmt.Sprintf("ring: index %d out of range [0, %d)", i, n))
	}
	j := b.start + i
	if j >= n {
		j -= n
	}
	return b.data[j]
}

// Drain pops every element into dst in arrival order and returns the
// extended slice. Passing dst[:0] reuses its storage.
func (b *Buffer[T]) Drain(dst []T) []T {
	n := len(b.data)
	for b.count > 0 {
		dst = append(dst, b.data[b.start])
		b.start++
		if b.start == n {
			b.start = 0
		}
		b.count--
	}
	return dst
}

// Reset empties the buffer logically. Storage is left untouched.
func (b *Buffer[T]) Reset() {
	b.start = 0
	b.count = 0
}

// Len returns the number of retained elements.
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Full reports whether Len() == Cap().
func (b *Buffer[T]) Full() bool { return b.count == len(b.data) }

// Start returns the physical slot of the oldest element.
func (b *Buffer[T]) Start() int { return b.start }

// Data returns the backing storage for zero-copy indexed reads. Callers must
// not modify it.
func (b *Buffer[T]) Data() []T { return b.data }
