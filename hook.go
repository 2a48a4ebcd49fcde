package overlay

import (
	"github.com/gogpu/overlay/gpucore"
)

// PresentFunc is the host's presentation function the hook forwards to.
type PresentFunc func(sc gpucore.SwapChain, syncInterval, flags uint32) error

// DrawFunc draws one frame of overlay content. It runs between Begin and
// End; its error only marks the frame as skipped.
type DrawFunc func(r *Renderer) error

// Hook runs the overlay at a presentation point. It constructs its renderer
// on the first presented frame, reuses it for every later frame and closes
// it in Close.
//
// Whatever happens to the overlay, Present forwards to the original
// function. A renderer that cannot be constructed disables the overlay for
// the lifetime of the hook; the failure is logged once and reported by Err.
type Hook struct {
	original PresentFunc
	draw     DrawFunc
	opts     []Option

	renderer *Renderer
	initErr  error
	closed   bool

	frames  int
	skipped int
}

// NewHook creates a hook that draws with draw before calling original.
func NewHook(original PresentFunc, draw DrawFunc, opts ...Option) *Hook {
	return &Hook{original: original, draw: draw, opts: opts}
}

// Present draws the overlay onto the swap chain's back buffer and then
// calls the original present function, returning its result.
func (h *Hook) Present(sc gpucore.SwapChain, syncInterval, flags uint32) error {
	if !h.closed {
		h.overlay(sc)
	}
	if h.original == nil {
		return nil
	}
	return h.original(sc, syncInterval, flags)
}

// overlay runs one overlay frame. Failures are logged, never returned.
func (h *Hook) overlay(sc gpucore.SwapChain) {
	if h.renderer == nil {
		if h.initErr != nil {
			return
		}
		r, err := New(FromSwapChain(sc), h.opts...)
		if err != nil {
			h.initErr = err
			Logger().Error("overlay: renderer construction failed, overlay disabled", "err", err)
			return
		}
		h.renderer = r
	}

	r := h.renderer
	h.frames++
	err := r.Begin()
	if r.Begun() {
		if err == nil && h.draw != nil {
			err = h.draw(r)
		}
		if endErr := r.End(); err == nil {
			err = endErr
		}
	}
	if err != nil {
		h.skipped++
		Logger().Warn("overlay: frame not drawn", "frame", h.frames, "err", err)
	}
}

// Renderer returns the hook's renderer, or nil before the first frame or
// after a failed construction.
func (h *Hook) Renderer() *Renderer { return h.renderer }

// Err returns the renderer construction error, if any.
func (h *Hook) Err() error { return h.initErr }

// Frames returns the number of frames the overlay ran on.
func (h *Hook) Frames() int { return h.frames }

// SkippedFrames returns the number of frames that were not drawn.
func (h *Hook) SkippedFrames() int { return h.skipped }

// Close closes the renderer. Later presents are forwarded without drawing.
func (h *Hook) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.renderer == nil {
		return nil
	}
	err := h.renderer.Close()
	h.renderer = nil
	return err
}
