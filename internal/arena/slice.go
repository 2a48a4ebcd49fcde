// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package arena

import (
	"fmt"
	"iter"
	"math"

	"github.com/gogpu/overlay/internal/memops"
)

// Codec encodes values of type T into fixed-size byte records.
type Codec[T any] interface {
	// Size returns the encoded size of one value in bytes.
	Size() int

	// Encode writes v into dst[:Size()].
	Encode(dst []byte, v T)

	// Decode reads a value from src[:Size()].
	Decode(src []byte) T
}

// Slice is a growable sequence of T stored as encoded records in an arena
// block. Growth allocates a larger block, copies, and frees the old one.
// Clear keeps the backing block so steady-state frames do not allocate.
type Slice[T any] struct {
	arena *Arena
	codec Codec[T]
	ref   Ref
	data  []byte
	n     int
}

// NewSlice creates an empty slice backed by a. No memory is allocated until
// the first Reserve or Append.
func NewSlice[T any](a *Arena, c Codec[T]) *Slice[T] {
	return &Slice[T]{arena: a, codec: c}
}

// Len returns the number of elements.
func (s *Slice[T]) Len() int { return s.n }

// Cap returns the number of elements the backing block can hold.
func (s *Slice[T]) Cap() int { return len(s.data) / s.codec.Size() }

// Reserve makes room for at least n elements. On failure the slice is left
// unchanged.
func (s *Slice[T]) Reserve(n int) error {
	if n <= s.Cap() {
		return nil
	}
	elem := s.codec.Size()
	if n > math.MaxInt/elem {
		memops.LengthError("arena: slice length overflows")
		return fmt.Errorf("%w: %d elements of %d bytes", ErrExhausted, n, elem)
	}

	ref, err := s.arena.Alloc(n * elem)
	if err != nil {
		return fmt.Errorf("grow slice to %d elements: %w", n, err)
	}
	data := s.arena.Bytes(ref)
	memops.Copy(data, s.data[:s.n*elem])

	if s.ref != Nil {
		if err := s.arena.Free(s.ref); err != nil {
			_ = s.arena.Free(ref)
			return fmt.Errorf("release old slice block: %w", err)
		}
	}
	s.ref = ref
	s.data = data
	return nil
}

// Append adds vs to the end of the slice. Capacity doubles when possible; if
// the doubled block does not fit, an exact-size block is tried before giving
// up. On failure nothing is appended.
func (s *Slice[T]) Append(vs ...T) error {
	need := s.n + len(vs)
	if need > s.Cap() {
		grown := max(need, 2*s.Cap(), 4)
		if err := s.Reserve(grown); err != nil {
			if err := s.Reserve(need); err != nil {
				return err
			}
		}
	}

	elem := s.codec.Size()
	for _, v := range vs {
		s.codec.Encode(s.data[s.n*elem:(s.n+1)*elem], v)
		s.n++
	}
	return nil
}

// At returns the element at index i. It panics if i is out of range.
func (s *Slice[T]) At(i int) T {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("arena: index %d out of range [0:%d]", i, s.n))
	}
	elem := s.codec.Size()
	return s.codec.Decode(s.data[i*elem : (i+1)*elem])
}

// All iterates over the elements in order.
func (s *Slice[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.n; i++ {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}

// Bytes returns the encoded records of the live elements.
func (s *Slice[T]) Bytes() []byte {
	return s.data[:s.n*s.codec.Size()]
}

// Clear drops all elements but keeps the backing block.
func (s *Slice[T]) Clear() { s.n = 0 }

// Release frees the backing block. The slice can be reused afterwards.
func (s *Slice[T]) Release() error {
	if s.ref == Nil {
		return nil
	}
	err := s.arena.Free(s.ref)
	s.ref = Nil
	s.data = nil
	s.n = 0
	return err
}
