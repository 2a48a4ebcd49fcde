// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package arena implements the fixed-capacity block allocator that backs the
// overlay's per-frame containers.
//
// The arena is a single byte buffer subdivided into an address-ordered,
// singly linked chain of blocks. Every block starts with a 16-byte header
// {size, next}; size == 0 marks a free block and next is the offset of the
// following header, 0 meaning "end of chain" (offset 0 is always the head,
// so it can never be a successor).
//
// Allocation is first-fit from the head. Freeing zeroes the block and marks
// it free; neighbouring free blocks are never merged, so a long sequence of
// differently sized allocations can exhaust the arena even though few bytes
// are live. The capacity is fixed at construction.
//
// Every traversal step is bounds-checked against the buffer. A chain that
// fails a check is reported as ErrCorrupt instead of being followed.
//
// Arena is NOT safe for concurrent use.
package arena

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/overlay/internal/memops"
)

// Arena errors.
var (
	// ErrZeroSize is returned for allocations of zero (or negative) bytes.
	ErrZeroSize = errors.New("arena: zero-size allocation")

	// ErrExhausted is returned when no block in the chain can hold the request.
	ErrExhausted = errors.New("arena: exhausted")

	// ErrBadRef is returned when a Ref does not name an in-use block.
	ErrBadRef = errors.New("arena: invalid reference")

	// ErrCorrupt is returned when the block chain violates its invariants.
	ErrCorrupt = errors.New("arena: corrupt block chain")
)

// HeaderSize is the size in bytes of the header prefixed to every block.
const HeaderSize = 16

// DefaultSize is the arena capacity used when none is configured.
const DefaultSize = 0x10000

// Ref is the offset of an allocation's payload inside the arena.
// The zero Ref is the null result.
type Ref int

// Nil is the null Ref.
const Nil Ref = 0

// Stats describes the current shape of the block chain.
type Stats struct {
	// Capacity is the arena size in bytes.
	Capacity int

	// Blocks is the number of blocks in the chain, free or in use.
	Blocks int

	// FreeBlocks is the number of blocks marked free.
	FreeBlocks int

	// LiveBytes is the sum of the payload sizes of in-use blocks.
	LiveBytes int

	// HighWater is the offset one past the last byte the chain has claimed.
	// It only grows until Reset.
	HighWater int
}

// String returns a human-readable summary of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Arena[%d/%d bytes live, %d blocks (%d free), high-water %d]",
		s.LiveBytes, s.Capacity, s.Blocks, s.FreeBlocks, s.HighWater)
}

// Arena is a fixed-size block allocator.
type Arena struct {
	buf []byte
}

// New creates an arena with the given capacity in bytes. Capacities smaller
// than one header are raised to one header, which leaves no usable space.
func New(size int) *Arena {
	if size < HeaderSize {
		size = HeaderSize
	}
	// The zeroed head header is a free tail block: {size: 0, next: 0}.
	return &Arena{buf: make([]byte, size)}
}

// Cap returns the arena capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Reset zeroes the whole buffer, invalidating every outstanding Ref.
func (a *Arena) Reset() {
	memops.Set(a.buf, 0)
}

// Alloc returns a Ref to size usable bytes. The bytes are zero: fresh space
// has never been written and freed blocks are zeroed by Free.
func (a *Arena) Alloc(size int) (Ref, error) {
	if size <= 0 {
		return Nil, ErrZeroSize
	}
	if size > len(a.buf)-HeaderSize {
		return Nil, fmt.Errorf("%w: %d bytes exceed capacity %d", ErrExhausted, size, len(a.buf))
	}

	cur := 0
	for {
		if err := a.checkHeader(cur); err != nil {
			return Nil, err
		}
		bsize, next := a.header(cur)
		if err := a.checkBlock(cur, bsize, next); err != nil {
			return Nil, err
		}
		if bsize == 0 && (next == 0 || next-(cur+HeaderSize) >= size) {
			break
		}
		if next == 0 {
			return Nil, fmt.Errorf("%w: no block for %d bytes", ErrExhausted, size)
		}
		cur = next
	}

	payload := cur + HeaderSize
	end := payload + size
	_, next := a.header(cur)

	if next == 0 {
		// Tail block: claim fresh space.
		if end > len(a.buf) {
			return Nil, fmt.Errorf("%w: %d bytes at offset %d exceed capacity %d",
				ErrExhausted, size, payload, len(a.buf))
		}
		newTail := 0
		if end+HeaderSize <= len(a.buf) {
			a.putHeader(end, 0, 0)
			newTail = end
		}
		a.putHeader(cur, size, newTail)
		return Ref(payload), nil
	}

	switch {
	case end == next:
		a.putHeader(cur, size, next)
	case next-end >= HeaderSize:
		// Split: the remainder becomes a free block that keeps the old link.
		a.putHeader(end, 0, next)
		a.putHeader(cur, size, end)
	default:
		// The remainder cannot hold a header; it stays inside this block.
		a.putHeader(cur, size, next)
	}
	return Ref(payload), nil
}

// Free zeroes the block named by r and marks it free. Adjacent free blocks
// are not merged.
func (a *Arena) Free(r Ref) error {
	h, err := a.find(r)
	if err != nil {
		return err
	}
	size, next := a.header(h)
	payload := h + HeaderSize
	end := payload + size
	if next != 0 {
		end = next
	}
	memops.Set(a.buf[payload:end], 0)
	a.putHeader(h, 0, next)
	return nil
}

// Bytes returns the payload of the block named by r, or nil if r is not an
// in-use block. The slice stays valid until the block is freed.
func (a *Arena) Bytes(r Ref) []byte {
	h, err := a.find(r)
	if err != nil {
		return nil
	}
	size, _ := a.header(h)
	payload := h + HeaderSize
	return a.buf[payload : payload+size : payload+size]
}

// Size returns the payload size of the block named by r, or 0 if r is not an
// in-use block.
func (a *Arena) Size(r Ref) int {
	h, err := a.find(r)
	if err != nil {
		return 0
	}
	size, _ := a.header(h)
	return size
}

// Stage allocates a temporary buffer. The release function frees it.
func (a *Arena) Stage(n int) ([]byte, func(), error) {
	r, err := a.Alloc(n)
	if err != nil {
		return nil, nil, err
	}
	return a.Bytes(r), func() { _ = a.Free(r) }, nil
}

// Stats walks the chain and reports its shape. A corrupt chain is reported
// up to the first bad block.
func (a *Arena) Stats() Stats {
	s := Stats{Capacity: len(a.buf)}
	_ = a.walk(func(h, size, next int) {
		s.Blocks++
		if size == 0 {
			s.FreeBlocks++
		} else {
			s.LiveBytes += size
		}
		if next == 0 {
			s.HighWater = h + HeaderSize + size
		}
	})
	return s
}

// Validate checks the block chain invariants: headers lie inside the buffer,
// offsets strictly increase, in-use payloads end at or before the next header
// and the chain terminates.
func (a *Arena) Validate() error {
	return a.walk(nil)
}

// walk visits every block in chain order, validating each step.
func (a *Arena) walk(visit func(h, size, next int)) error {
	cur := 0
	for {
		if err := a.checkHeader(cur); err != nil {
			return err
		}
		size, next := a.header(cur)
		if err := a.checkBlock(cur, size, next); err != nil {
			return err
		}
		if visit != nil {
			visit(cur, size, next)
		}
		if next == 0 {
			return nil
		}
		cur = next
	}
}

// find returns the header offset of the in-use block whose payload is r.
func (a *Arena) find(r Ref) (int, error) {
	target := int(r) - HeaderSize
	if target < 0 || int(r) > len(a.buf) {
		return 0, fmt.Errorf("%w: %d", ErrBadRef, r)
	}
	found := -1
	err := a.walk(func(h, size, _ int) {
		if h == target && size != 0 {
			found = h
		}
	})
	if err != nil {
		return 0, err
	}
	if found < 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadRef, r)
	}
	return found, nil
}

func (a *Arena) checkHeader(h int) error {
	if h < 0 || h+HeaderSize > len(a.buf) {
		return fmt.Errorf("%w: header %d outside buffer of %d bytes", ErrCorrupt, h, len(a.buf))
	}
	return nil
}

// checkBlock validates one block's header against the buffer bounds and its
// successor.
func (a *Arena) checkBlock(h, size, next int) error {
	if size < 0 || h+HeaderSize+size > len(a.buf) {
		return fmt.Errorf("%w: block %d size %d overruns buffer", ErrCorrupt, h, size)
	}
	if next == 0 {
		return nil
	}
	if next <= h {
		return fmt.Errorf("%w: block %d links backwards to %d", ErrCorrupt, h, next)
	}
	if next > len(a.buf)-HeaderSize {
		return fmt.Errorf("%w: block %d links outside buffer to %d", ErrCorrupt, h, next)
	}
	if h+HeaderSize+size > next {
		return fmt.Errorf("%w: block %d size %d overlaps next block %d", ErrCorrupt, h, size, next)
	}
	return nil
}

func (a *Arena) header(h int) (size, next int) {
	//nolint:gosec // G115: header offsets are bounds-checked against the buffer
	size = int(binary.LittleEndian.Uint64(a.buf[h:]))
	//nolint:gosec // G115: see above
	next = int(binary.LittleEndian.Uint64(a.buf[h+8:]))
	return size, next
}

func (a *Arena) putHeader(h, size, next int) {
	//nolint:gosec // G115: sizes and offsets are non-negative
	binary.LittleEndian.PutUint64(a.buf[h:], uint64(size))
	//nolint:gosec // G115: see above
	binary.LittleEndian.PutUint64(a.buf[h+8:], uint64(next))
}
