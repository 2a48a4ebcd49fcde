// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package arena

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestAllocZeroSize(t *testing.T) {
	a := New(256)
	for _, size := range []int{0, -1} {
		r, err := a.Alloc(size)
		if !errors.Is(err, ErrZeroSize) {
			t.Errorf("Alloc(%d) err = %v, want ErrZeroSize", size, err)
		}
		if r != Nil {
			t.Errorf("Alloc(%d) = %d, want Nil", size, r)
		}
	}
}

func TestAllocLayout(t *testing.T) {
	a := New(256)

	r1, err := a.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc(10) failed: %v", err)
	}
	r2, err := a.Alloc(20)
	if err != nil {
		t.Fatalf("Alloc(20) failed: %v", err)
	}

	if r1 != HeaderSize {
		t.Errorf("first Ref = %d, want %d", r1, HeaderSize)
	}
	if want := r1 + 10 + HeaderSize; r2 != want {
		t.Errorf("second Ref = %d, want %d", r2, want)
	}
	if got := len(a.Bytes(r1)); got != 10 {
		t.Errorf("len(Bytes(r1)) = %d, want 10", got)
	}
	if got := a.Size(r2); got != 20 {
		t.Errorf("Size(r2) = %d, want 20", got)
	}

	stats := a.Stats()
	if stats.Blocks != 3 || stats.FreeBlocks != 1 {
		t.Errorf("blocks = %d (%d free), want 3 (1 free)", stats.Blocks, stats.FreeBlocks)
	}
	if stats.LiveBytes != 30 {
		t.Errorf("LiveBytes = %d, want 30", stats.LiveBytes)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAllocExhausted(t *testing.T) {
	a := New(64)

	if _, err := a.Alloc(64); !errors.Is(err, ErrExhausted) {
		t.Errorf("Alloc(64) err = %v, want ErrExhausted", err)
	}
	r, err := a.Alloc(48)
	if err != nil {
		t.Fatalf("Alloc(48) failed: %v", err)
	}
	// No room is left for a tail header; the block terminates the chain.
	if _, err := a.Alloc(1); !errors.Is(err, ErrExhausted) {
		t.Errorf("Alloc(1) on full arena err = %v, want ErrExhausted", err)
	}
	if err := a.Free(r); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if _, err := a.Alloc(48); err != nil {
		t.Errorf("Alloc(48) after Free failed: %v", err)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFreeReusesSameAddress(t *testing.T) {
	a := New(512)
	r1, _ := a.Alloc(32)
	_, _ = a.Alloc(16)

	if err := a.Free(r1); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	r3, err := a.Alloc(32)
	if err != nil {
		t.Fatalf("Alloc after Free failed: %v", err)
	}
	if r3 != r1 {
		t.Errorf("reallocated Ref = %d, want %d", r3, r1)
	}
}

func TestReuseDoesNotGrowHighWater(t *testing.T) {
	tests := []struct {
		name    string
		n, m, k int
	}{
		{"same size", 64, 32, 64},
		{"split remainder", 64, 32, 16},
		{"slack remainder", 64, 32, 60},
		{"one byte", 64, 32, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(1024)
			first, err := a.Alloc(tt.n)
			if err != nil {
				t.Fatalf("Alloc(%d) failed: %v", tt.n, err)
			}
			if _, err := a.Alloc(tt.m); err != nil {
				t.Fatalf("Alloc(%d) failed: %v", tt.m, err)
			}
			before := a.Stats().HighWater

			if err := a.Free(first); err != nil {
				t.Fatalf("Free failed: %v", err)
			}
			r, err := a.Alloc(tt.k)
			if err != nil {
				t.Fatalf("Alloc(%d) after Free failed: %v", tt.k, err)
			}
			if r != first {
				t.Errorf("Ref = %d, want reuse of %d", r, first)
			}
			if after := a.Stats().HighWater; after != before {
				t.Errorf("HighWater = %d, want unchanged %d", after, before)
			}
			if err := a.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestSplitCreatesReusableRemainder(t *testing.T) {
	a := New(1024)
	first, _ := a.Alloc(100)
	_, _ = a.Alloc(8)
	_ = a.Free(first)

	small, err := a.Alloc(20)
	if err != nil {
		t.Fatalf("Alloc(20) failed: %v", err)
	}
	// The split remainder is 100-20-16 = 64 bytes.
	rest, err := a.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc(64) into remainder failed: %v", err)
	}
	if want := small + 20 + HeaderSize; rest != want {
		t.Errorf("remainder Ref = %d, want %d", rest, want)
	}
}

func TestFreedBytesAreZeroOnReuse(t *testing.T) {
	a := New(256)
	r, _ := a.Alloc(16)
	_, _ = a.Alloc(16)
	for i := range a.Bytes(r) {
		a.Bytes(r)[i] = 0xFF
	}
	_ = a.Free(r)

	r2, _ := a.Alloc(16)
	for i, b := range a.Bytes(r2) {
		if b != 0 {
			t.Fatalf("byte %d = %#x after reuse, want 0", i, b)
		}
	}
}

func TestFreeBadRef(t *testing.T) {
	a := New(256)
	r, _ := a.Alloc(8)

	tests := []struct {
		name string
		ref  Ref
	}{
		{"nil", Nil},
		{"inside payload", r + 1},
		{"past end", 4096},
		{"free block", r + 8 + HeaderSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.Free(tt.ref); !errors.Is(err, ErrBadRef) {
				t.Errorf("Free(%d) err = %v, want ErrBadRef", tt.ref, err)
			}
		})
	}

	if err := a.Free(r); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if err := a.Free(r); !errors.Is(err, ErrBadRef) {
		t.Errorf("double Free err = %v, want ErrBadRef", err)
	}
	if a.Bytes(r) != nil {
		t.Error("Bytes of freed block should be nil")
	}
}

func TestFragmentationExhausts(t *testing.T) {
	a := New(256)
	var refs []Ref
	for {
		r, err := a.Alloc(8)
		if err != nil {
			break
		}
		refs = append(refs, r)
	}
	for _, r := range refs {
		_ = a.Free(r)
	}

	// Plenty of free bytes in total, but no single block is large enough.
	if _, err := a.Alloc(64); !errors.Is(err, ErrExhausted) {
		t.Errorf("Alloc(64) on fragmented arena err = %v, want ErrExhausted", err)
	}
	if stats := a.Stats(); stats.LiveBytes != 0 {
		t.Errorf("LiveBytes = %d, want 0", stats.LiveBytes)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	a := New(256)
	_, _ = a.Alloc(8)
	r, _ := a.Alloc(8)

	// Point the second block back into the first.
	h := int(r) - HeaderSize
	a.putHeader(h, 8, 8)
	if err := a.Validate(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Validate err = %v, want ErrCorrupt", err)
	}
	if _, err := a.Alloc(8); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Alloc on corrupt chain err = %v, want ErrCorrupt", err)
	}

	a.Reset()
	if err := a.Validate(); err != nil {
		t.Errorf("Validate after Reset: %v", err)
	}
	a.putHeader(0, 0, 1<<20)
	if _, err := a.Alloc(8); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Alloc following a link outside the buffer err = %v, want ErrCorrupt", err)
	}
}

func TestStage(t *testing.T) {
	a := New(256)
	buf, release, err := a.Stage(32)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if len(buf) != 32 {
		t.Errorf("len(buf) = %d, want 32", len(buf))
	}
	if a.Stats().LiveBytes != 32 {
		t.Errorf("LiveBytes = %d, want 32", a.Stats().LiveBytes)
	}
	release()
	if a.Stats().LiveBytes != 0 {
		t.Errorf("LiveBytes after release = %d, want 0", a.Stats().LiveBytes)
	}
}

// TestLiveAllocationsDisjoint runs a deterministic random allocate/free
// sequence and checks that live payload ranges never overlap.
func TestLiveAllocationsDisjoint(t *testing.T) {
	a := New(4096)
	rng := rand.New(rand.NewPCG(1, 2))
	live := make(map[Ref]int)

	for step := 0; step < 2000; step++ {
		if len(live) > 0 && rng.IntN(3) == 0 {
			for r := range live {
				if err := a.Free(r); err != nil {
					t.Fatalf("step %d: Free(%d): %v", step, r, err)
				}
				delete(live, r)
				break
			}
			continue
		}
		size := 1 + rng.IntN(96)
		r, err := a.Alloc(size)
		if errors.Is(err, ErrExhausted) {
			continue
		}
		if err != nil {
			t.Fatalf("step %d: Alloc(%d): %v", step, size, err)
		}
		for other, n := range live {
			if int(r) < int(other)+n && int(other) < int(r)+size {
				t.Fatalf("step %d: [%d,%d) overlaps [%d,%d)", step, r, int(r)+size, other, int(other)+n)
			}
		}
		live[r] = size
		if err := a.Validate(); err != nil {
			t.Fatalf("step %d: Validate: %v", step, err)
		}
	}
}
