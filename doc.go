// Package overlay draws batched 2D primitives on top of a host application's
// frames without disturbing the host's pipeline state.
//
// # Overview
//
// The overlay runs at the host's presentation point. Once per frame it backs
// up the pipeline bindings it is about to overwrite, binds its own shaders,
// input layout and vertex buffer, accumulates lines and boxes, flushes them
// to the GPU and restores the host's bindings before the frame is presented.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/overlay"
//		"github.com/gogpu/overlay/backend/soft"
//	)
//
//	dev := soft.NewDevice()
//	sc := soft.NewSwapChain(dev, 800, 600)
//
//	r, err := overlay.New(overlay.FromSwapChain(sc))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	if err := r.Begin(); err == nil {
//		r.DrawBox(overlay.V2(50, 50), overlay.V2(50, 50), overlay.Red)
//		r.DrawLine(overlay.V2(50, 125), overlay.V2(100, 125), overlay.Blue)
//		r.DrawFilledBox(overlay.V2(50, 150), overlay.V2(50, 50), overlay.Red)
//	}
//	r.End()
//
// # Hooking Presentation
//
// [Hook] owns the renderer for the lifetime of the hook: it constructs it on
// the first presented frame, runs Begin, the draw callback and End every
// frame, and always forwards to the original present function. A failing
// overlay never prevents the host from presenting.
//
// # Memory
//
// Per-frame vertices and batches live in a fixed-capacity arena allocated
// once at construction (see [WithArenaSize]). Containers are reserved up
// front, so steady-state frames do not allocate. If the arena or the GPU
// fails mid-frame, the frame is skipped: draws return [ErrFrameSkipped],
// geometry not yet flushed is discarded and the host's bindings are
// restored. Batches flushed earlier in the frame have already been drawn.
//
// # Coordinates
//
// Positions and sizes are in pixels relative to the viewport bound on the
// host's context, origin at the top-left. Colors are straight RGBA with
// channels in [0, 1].
//
// # Logging
//
// The overlay is silent by default. Call [SetLogger] to enable logging.
//
// # Concurrency
//
// A [Renderer] and a [Hook] must be used from the thread that presents.
// Only [SetLogger] and [Logger] are safe for concurrent use.
package overlay
