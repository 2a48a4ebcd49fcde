// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package memops provides the byte fill, copy and move primitives used by
// the arena and its containers.
//
// The primitives are plain byte loops. They never call into the runtime's
// memmove, so the arena behaves the same regardless of what the host process
// has initialised at the point the overlay runs.
package memops

// Stager hands out a temporary buffer for overlap-safe moves.
// The returned release function must be called exactly once.
type Stager interface {
	Stage(n int) (buf []byte, release func(), err error)
}

// Set fills dst with c.
func Set(dst []byte, c byte) {
	for i := range dst {
		dst[i] = c
	}
}

// Copy copies min(len(dst), len(src)) bytes from src to dst and returns the
// number of bytes copied. The regions must not overlap.
func Copy(dst, src []byte) int {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = src[i]
	}
	return n
}

// Move copies src into dst like Copy, but is correct when the regions
// overlap. The source is first copied into a staging buffer obtained from s.
func Move(s Stager, dst, src []byte) (int, error) {
	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}
	if n == 0 {
		return 0, nil
	}
	buf, release, err := s.Stage(n)
	if err != nil {
		return 0, err
	}
	defer release()

	Copy(buf, src[:n])
	return Copy(dst, buf[:n]), nil
}

// LengthError is called by containers when a requested length cannot be
// represented. It is a deliberate no-op: the overlay cannot assume the host
// provides any diagnostic channel at that point.
func LengthError(msg string) {
	_ = msg
}
