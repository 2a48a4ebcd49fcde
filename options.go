package overlay

import (
	"github.com/gogpu/overlay/gpucore"
	"github.com/gogpu/overlay/internal/arena"
)

// Default capacities.
const (
	// DefaultMaxVertices is the number of vertices accumulated before a
	// forced flush.
	DefaultMaxVertices = 1000

	// DefaultArenaSize is the size in bytes of the per-renderer arena.
	DefaultArenaSize = arena.DefaultSize

	// minVertices is the vertex count of the largest shape, an outlined box.
	minVertices = 5
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := overlay.New(overlay.FromSwapChain(sc),
//		overlay.WithMaxVertices(4096),
//		overlay.WithArenaSize(1<<18),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	maxVertices int
	arenaSize   int
	vsBlob      []byte
	psBlob      []byte
	viewport    *gpucore.Viewport
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		maxVertices: DefaultMaxVertices,
		arenaSize:   DefaultArenaSize,
	}
}

// WithMaxVertices sets how many vertices are accumulated before the renderer
// flushes mid-frame. It also sizes the GPU vertex buffer. Values below five,
// the size of the largest shape, are rejected by New.
func WithMaxVertices(n int) Option {
	return func(o *options) {
		o.maxVertices = n
	}
}

// WithArenaSize sets the capacity in bytes of the arena backing the
// per-frame vertex and batch storage. The arena must hold maxVertices
// vertices of 24 bytes and maxVertices/2 batches of 8 bytes plus one 16-byte
// header each.
func WithArenaSize(bytes int) Option {
	return func(o *options) {
		o.arenaSize = bytes
	}
}

// WithShaders supplies precompiled vertex and pixel shader blobs in the
// backend's format instead of compiling the built-in WGSL programs.
func WithShaders(vs, ps []byte) Option {
	return func(o *options) {
		o.vsBlob = vs
		o.psBlob = ps
	}
}

// WithViewport sets the viewport used for coordinate conversion until the
// host binds one. A viewport bound on the context always takes precedence.
func WithViewport(vp gpucore.Viewport) Option {
	return func(o *options) {
		o.viewport = &vp
	}
}
