// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the GPU contract the overlay renders through.
//
// The overlay never owns the graphics pipeline it draws into. It is handed a
// device and an immediate context by the host (directly, or through a swap
// chain) and must leave every binding it touches exactly as it found it.
// This package describes that collaborator as a small set of interfaces so
// the renderer can run on any backend that implements them:
//
//   - backend/soft: a software reference device that records bindings and
//     rasterises into an image, used by tests and the demo host.
//   - backend/wgpu: an adapter over gogpu/wgpu HAL devices.
//
// # Reference Counting
//
// Objects returned by the contract are reference counted. Every getter that
// returns an [Object] hands the caller one reference, which the caller must
// release. Setters retain their arguments; the context releases the previous
// binding. [Refs] collects references acquired along a code path and
// releases them together, so early returns cannot leak them.
//
// An empty binding is always a nil interface value, never a typed nil.
//
// # Vertex Format
//
// The overlay uses a single vertex format, described by [VertexLayout]:
// a float32x2 position at offset 0 and a float32x4 color at offset 8,
// 24 bytes per vertex.
package gpucore
