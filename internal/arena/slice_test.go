// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package arena

import (
	"encoding/binary"
	"errors"
	"testing"
)

// u32Codec stores uint32 values as 4 little-endian bytes.
type u32Codec struct{}

func (u32Codec) Size() int { return 4 }

func (u32Codec) Encode(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }

func (u32Codec) Decode(src []byte) uint32 { return binary.LittleEndian.Uint32(src) }

func TestSliceAppendAndAt(t *testing.T) {
	a := New(1024)
	s := NewSlice[uint32](a, u32Codec{})

	for i := uint32(0); i < 10; i++ {
		if err := s.Append(i * 3); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}
	if s.Len() != 10 {
		t.Fatalf("Len = %d, want 10", s.Len())
	}
	for i := 0; i < s.Len(); i++ {
		if got, want := s.At(i), uint32(i*3); got != want {
			t.Errorf("At(%d) = %d, want %d", i, got, want)
		}
	}
	if got := len(s.Bytes()); got != 40 {
		t.Errorf("len(Bytes) = %d, want 40", got)
	}
}

func TestSliceGrowthFreesOldBlock(t *testing.T) {
	a := New(1024)
	s := NewSlice[uint32](a, u32Codec{})

	for i := uint32(0); i < 20; i++ {
		if err := s.Append(i); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	stats := a.Stats()
	if stats.LiveBytes != s.Cap()*4 {
		t.Errorf("LiveBytes = %d, want only the current block (%d)", stats.LiveBytes, s.Cap()*4)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSliceClearKeepsCapacity(t *testing.T) {
	a := New(1024)
	s := NewSlice[uint32](a, u32Codec{})
	if err := s.Reserve(16); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	_ = s.Append(1, 2, 3)
	before := a.Stats()

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", s.Len())
	}
	if s.Cap() != 16 {
		t.Errorf("Cap after Clear = %d, want 16", s.Cap())
	}
	for i := 0; i < 16; i++ {
		if err := s.Append(uint32(i)); err != nil {
			t.Fatalf("Append after Clear failed: %v", err)
		}
	}
	if after := a.Stats(); after != before {
		t.Errorf("stats changed within capacity: %v -> %v", before, after)
	}
}

func TestSliceAppendExhausted(t *testing.T) {
	a := New(64)
	s := NewSlice[uint32](a, u32Codec{})

	if err := s.Append(1, 2); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	big := make([]uint32, 20)
	err := s.Append(big...)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Append err = %v, want ErrExhausted", err)
	}
	if s.Len() != 2 || s.At(0) != 1 || s.At(1) != 2 {
		t.Errorf("slice modified by failed Append: len=%d", s.Len())
	}
}

func TestSliceExactFallback(t *testing.T) {
	// 4 elements fit but doubling to 8 while the old block is live does not.
	a := New(16 + 16 + 16 + 20)
	s := NewSlice[uint32](a, u32Codec{})
	if err := s.Reserve(4); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	_ = s.Append(1, 2, 3, 4)
	if err := s.Append(5); err != nil {
		t.Fatalf("Append with exact fallback failed: %v", err)
	}
	if s.Cap() != 5 {
		t.Errorf("Cap = %d, want exact 5", s.Cap())
	}
}

func TestSliceRelease(t *testing.T) {
	a := New(256)
	s := NewSlice[uint32](a, u32Codec{})
	_ = s.Append(7)
	if err := s.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if a.Stats().LiveBytes != 0 {
		t.Errorf("LiveBytes after Release = %d, want 0", a.Stats().LiveBytes)
	}
	if err := s.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
	if err := s.Append(8); err != nil {
		t.Errorf("Append after Release failed: %v", err)
	}
}

func TestSliceAll(t *testing.T) {
	a := New(256)
	s := NewSlice[uint32](a, u32Codec{})
	_ = s.Append(10, 20, 30)

	var got []uint32
	for i, v := range s.All() {
		if i != len(got) {
			t.Fatalf("index = %d, want %d", i, len(got))
		}
		got = append(got, v)
		if v == 20 {
			break
		}
	}
	if len(got) != 2 {
		t.Errorf("iterated %d values before break, want 2", len(got))
	}
}
