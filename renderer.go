package overlay

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/gpucore"
	"github.com/gogpu/overlay/internal/arena"
	"github.com/gogpu/overlay/internal/memops"
	"github.com/gogpu/overlay/internal/shader"
)

// rendererState is the renderer's lifecycle state.
type rendererState uint8

const (
	stateReady rendererState = iota
	stateBegun
	stateClosed
)

// FrameStats describes the current or last finished frame.
type FrameStats struct {
	// Shapes is the number of shapes accepted.
	Shapes int

	// Vertices is the number of vertices submitted to the GPU.
	Vertices int

	// DrawCalls is the number of draw calls submitted.
	DrawCalls int

	// Flushes is the number of non-empty flushes.
	Flushes int

	// PartialFlushes counts flushes forced by a full vertex buffer.
	PartialFlushes int

	// Skipped is the failure that skipped the frame, or nil.
	Skipped error
}

// String returns a human-readable summary of the stats.
func (s FrameStats) String() string {
	status := "ok"
	if s.Skipped != nil {
		status = "skipped: " + s.Skipped.Error()
	}
	return fmt.Sprintf("Frame[%d shapes, %d vertices, %d draws, %d flushes (%d partial), %s]",
		s.Shapes, s.Vertices, s.DrawCalls, s.Flushes, s.PartialFlushes, status)
}

// Renderer accumulates lines and boxes during a frame and draws them in
// submission order with one draw call per shape.
//
// A frame is Begin, any number of Draw calls, End. Begin backs up the host's
// bindings and End always restores them, also when the frame failed.
//
// Renderer is NOT safe for concurrent use.
type Renderer struct {
	dev    gpucore.Device
	ctx    gpucore.Context
	vs     gpucore.Shader
	ps     gpucore.Shader
	layout gpucore.InputLayout
	vbuf   gpucore.Buffer

	arena    *arena.Arena
	vertices *arena.Slice[Vertex]
	batches  *arena.Slice[Batch]

	saver       StateSaver
	viewport    gpucore.Viewport
	hasViewport bool
	maxVertices int

	state   rendererState
	skipped error
	stats   FrameStats
}

// New creates a renderer on the device and context described by src.
//
// It compiles (or takes, see WithShaders) the two overlay programs, creates
// the input layout and a dynamic vertex buffer of maxVertices vertices and
// reserves the per-frame storage in a fresh arena. On failure everything
// acquired so far is released.
func New(src Source, opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxVertices < minVertices {
		return nil, fmt.Errorf("%w: max vertices %d is below %d", ErrInvalidOption, o.maxVertices, minVertices)
	}
	if o.arenaSize <= arena.HeaderSize {
		return nil, fmt.Errorf("%w: arena size %d", ErrInvalidOption, o.arenaSize)
	}

	dev, ctx, err := src.resolve()
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		dev:         dev,
		ctx:         ctx,
		arena:       arena.New(o.arenaSize),
		maxVertices: o.maxVertices,
	}
	if o.viewport != nil {
		r.viewport, r.hasViewport = *o.viewport, true
	}
	if vp, ok := ctx.Viewport(); ok && vp.Width > 0 && vp.Height > 0 {
		r.viewport, r.hasViewport = vp, true
	}

	if err := r.init(o); err != nil {
		r.release()
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	track(r)

	Logger().Info("overlay: renderer created",
		"source", src.String(),
		"maxVertices", r.maxVertices,
		"arena", r.arena.Cap())
	return r, nil
}

// init creates the GPU objects and reserves the containers.
func (r *Renderer) init(o options) error {
	vsBlob, psBlob := o.vsBlob, o.psBlob
	if vsBlob == nil || psBlob == nil {
		blobs, err := shader.Compile()
		if err != nil {
			return err
		}
		vsBlob, psBlob = blobs.Vertex, blobs.Pixel
	}

	var err error
	if r.vs, err = r.dev.CreateVertexShader(vsBlob); err != nil {
		return fmt.Errorf("create vertex shader: %w", err)
	}
	if r.ps, err = r.dev.CreatePixelShader(psBlob); err != nil {
		return fmt.Errorf("create pixel shader: %w", err)
	}
	if r.layout, err = r.dev.CreateInputLayout(gpucore.VertexLayout(), vsBlob); err != nil {
		return fmt.Errorf("create input layout: %w", err)
	}
	if r.vbuf, err = r.dev.CreateBuffer(gpucore.BufferDesc{
		Label:   "overlay vertices",
		Size:    r.maxVertices * gpucore.VertexStride,
		Usage:   gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		Dynamic: true,
	}); err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}

	r.vertices = arena.NewSlice[Vertex](r.arena, vertexCodec{})
	if err := r.vertices.Reserve(r.maxVertices); err != nil {
		return fmt.Errorf("reserve vertex storage: %w", err)
	}
	r.batches = arena.NewSlice[Batch](r.arena, batchCodec{})
	if err := r.batches.Reserve(r.maxVertices / 2); err != nil {
		return fmt.Errorf("reserve batch storage: %w", err)
	}
	return nil
}

// Viewport returns the viewport used for coordinate conversion.
func (r *Renderer) Viewport() (gpucore.Viewport, bool) {
	return r.viewport, r.hasViewport
}

// MaxVertices returns the vertex capacity between flushes.
func (r *Renderer) MaxVertices() int { return r.maxVertices }

// Stats returns the statistics of the current frame, or of the last one
// outside a frame.
func (r *Renderer) Stats() FrameStats { return r.stats }

// Begun reports whether a frame is in progress.
func (r *Renderer) Begun() bool { return r.state == stateBegun }

// Begin starts a frame: it backs up the host's bindings, refreshes the
// viewport and binds the overlay pipeline.
//
// If no viewport has ever been known, the frame is begun but skipped and
// Begin returns ErrFrameSkipped; End must still be called to restore the
// host's state.
func (r *Renderer) Begin() error {
	switch r.state {
	case stateClosed:
		return ErrClosed
	case stateBegun:
		return ErrAlreadyBegun
	}
	if err := r.saver.Backup(r.ctx); err != nil {
		return err
	}
	r.state = stateBegun
	r.skipped = nil
	r.stats = FrameStats{}

	if vp, ok := r.ctx.Viewport(); ok && vp.Width > 0 && vp.Height > 0 {
		r.viewport, r.hasViewport = vp, true
	}
	if !r.hasViewport {
		return r.skip(ErrNoViewport)
	}

	r.ctx.SetVertexShader(gpucore.ShaderBinding{Shader: r.vs})
	r.ctx.SetPixelShader(gpucore.ShaderBinding{Shader: r.ps})
	r.ctx.SetInputLayout(r.layout)
	r.ctx.SetVertexBuffer(0, gpucore.VertexBufferBinding{Buffer: r.vbuf, Stride: gpucore.VertexStride})
	return nil
}

// DrawLine draws a line from start to end as a two-vertex line list.
func (r *Renderer) DrawLine(start, end Vec2, c Color) error {
	return r.add(gputypes.PrimitiveTopologyLineList, c, start, end)
}

// DrawBox draws the outline of the box at pos with the given size as a
// closed five-vertex line strip.
func (r *Renderer) DrawBox(pos, size Vec2, c Color) error {
	return r.add(gputypes.PrimitiveTopologyLineStrip, c,
		pos,
		Vec2{X: pos.X, Y: pos.Y + size.Y},
		pos.Add(size),
		Vec2{X: pos.X + size.X, Y: pos.Y},
		pos,
	)
}

// DrawFilledBox fills the box at pos with the given size as a four-vertex
// triangle strip.
func (r *Renderer) DrawFilledBox(pos, size Vec2, c Color) error {
	return r.add(gputypes.PrimitiveTopologyTriangleStrip, c,
		pos,
		Vec2{X: pos.X + size.X, Y: pos.Y},
		Vec2{X: pos.X, Y: pos.Y + size.Y},
		pos.Add(size),
	)
}

// add converts pts to vertices and appends them as one batch, flushing
// first if they would not fit.
func (r *Renderer) add(topo gputypes.PrimitiveTopology, c Color, pts ...Vec2) error {
	if err := r.checkBegun(); err != nil {
		return err
	}
	if r.skipped != nil {
		return r.skipErr()
	}

	n := len(pts)
	if r.vertices.Len()+n > r.maxVertices {
		if err := r.flush(); err != nil {
			return r.skip(err)
		}
		r.stats.PartialFlushes++
	}

	var buf [minVertices]Vertex
	vs := buf[:n]
	for i, p := range pts {
		vs[i] = Vertex{Pos: PixelToNDC(p, r.viewport), Color: c}
	}
	if err := r.vertices.Append(vs...); err != nil {
		return r.skip(fmt.Errorf("append vertices: %w", err))
	}
	//nolint:gosec // G115: n is at most minVertices
	if err := r.batches.Append(Batch{Count: uint32(n), Topology: topo}); err != nil {
		return r.skip(fmt.Errorf("append batch: %w", err))
	}
	r.stats.Shapes++
	return nil
}

// Flush submits the accumulated shapes now.
func (r *Renderer) Flush() error {
	if err := r.checkBegun(); err != nil {
		return err
	}
	if r.skipped != nil {
		return r.skipErr()
	}
	if err := r.flush(); err != nil {
		return r.skip(err)
	}
	return nil
}

// flush writes all accumulated vertices with one Map and issues one draw
// per batch in insertion order. The containers are cleared either way.
func (r *Renderer) flush() error {
	if r.vertices.Len() == 0 {
		return nil
	}
	defer r.discard()

	data, err := r.ctx.Map(r.vbuf)
	if err != nil {
		return fmt.Errorf("map vertex buffer: %w", err)
	}
	src := r.vertices.Bytes()
	n := memops.Copy(data, src)
	if err := r.ctx.Unmap(r.vbuf); err != nil {
		return fmt.Errorf("upload vertex buffer: %w", err)
	}
	if n != len(src) {
		return fmt.Errorf("%w: vertex buffer holds %d of %d bytes", gpucore.ErrMapFailed, n, len(src))
	}

	var start uint32
	for i, b := range r.batches.All() {
		r.ctx.SetPrimitiveTopology(b.Topology)
		if err := r.ctx.Draw(b.Count, start); err != nil {
			return fmt.Errorf("draw batch %d (%s): %w", i, gpucore.TopologyName(b.Topology), err)
		}
		start += b.Count
		r.stats.DrawCalls++
	}
	r.stats.Vertices += r.vertices.Len()
	r.stats.Flushes++
	Logger().Debug("overlay: flush",
		"vertices", r.vertices.Len(),
		"batches", r.batches.Len())
	return nil
}

func (r *Renderer) discard() {
	r.vertices.Clear()
	r.batches.Clear()
}

// End flushes the frame and restores the host's bindings. The bindings are
// restored even when the frame was skipped, in which case the skip error is
// returned.
func (r *Renderer) End() error {
	if err := r.checkBegun(); err != nil {
		return err
	}

	var err error
	if r.skipped == nil {
		if ferr := r.flush(); ferr != nil {
			err = r.skip(ferr)
		}
	} else {
		err = r.skipErr()
	}
	r.discard()

	if rerr := r.saver.Restore(); rerr != nil && err == nil {
		err = rerr
	}
	r.state = stateReady
	Logger().Debug("overlay: frame end", "stats", r.stats.String())
	return err
}

// Close releases the renderer's GPU objects and storage. A frame in
// progress is abandoned and the host's bindings are restored.
func (r *Renderer) Close() error {
	if r.state == stateClosed {
		return ErrClosed
	}
	var err error
	if r.state == stateBegun {
		r.discard()
		err = r.saver.Restore()
	}
	r.state = stateClosed
	untrack(r)
	r.release()
	Logger().Info("overlay: renderer closed")
	return err
}

// release drops every object acquired by New.
func (r *Renderer) release() {
	var errs []error
	if r.vertices != nil {
		errs = append(errs, r.vertices.Release())
	}
	if r.batches != nil {
		errs = append(errs, r.batches.Release())
	}
	if err := errors.Join(errs...); err != nil {
		Logger().Warn("overlay: release storage", "err", err)
	}

	for _, o := range []gpucore.Object{r.vbuf, r.layout, r.ps, r.vs, r.ctx, r.dev} {
		if o != nil {
			o.Release()
		}
	}
	r.vbuf, r.layout, r.ps, r.vs, r.ctx, r.dev = nil, nil, nil, nil, nil, nil
}

func (r *Renderer) checkBegun() error {
	switch r.state {
	case stateClosed:
		return ErrClosed
	case stateReady:
		return ErrNotBegun
	}
	return nil
}

// skip marks the frame skipped by cause, unless it already is, and returns
// the frame's skip error.
func (r *Renderer) skip(cause error) error {
	if r.skipped == nil {
		r.skipped = cause
		r.stats.Skipped = cause
		Logger().Warn("overlay: frame skipped", "err", cause)
	}
	return r.skipErr()
}

func (r *Renderer) skipErr() error {
	return fmt.Errorf("%w: %w", ErrFrameSkipped, r.skipped)
}
