// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/gpucore"
)

// Slot counts of the immediate context.
const (
	ConstantSlots = 14
	VertexSlots   = 32
)

// State is the binding state of an immediate context.
type State struct {
	Topology  gputypes.PrimitiveTopology
	VS        gpucore.ShaderBinding
	PS        gpucore.ShaderBinding
	Layout    gpucore.InputLayout
	Constants [ConstantSlots]gpucore.Buffer
	Vertex    [VertexSlots]gpucore.VertexBufferBinding
	Viewports []gpucore.Viewport
}

// Equal reports whether two states bind the same objects with the same
// parameters.
func (s State) Equal(o State) bool {
	return s.Topology == o.Topology &&
		bindingEqual(s.VS, o.VS) &&
		bindingEqual(s.PS, o.PS) &&
		s.Layout == o.Layout &&
		s.Constants == o.Constants &&
		s.Vertex == o.Vertex &&
		slices.Equal(s.Viewports, o.Viewports)
}

func bindingEqual(a, b gpucore.ShaderBinding) bool {
	return a.Shader == b.Shader && slices.Equal(a.Instances, b.Instances)
}

// String describes the state in one line.
func (s State) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "topology=%s vs=%s", gpucore.TopologyName(s.Topology), bindingLabel(s.VS))
	fmt.Fprintf(&sb, " ps=%s layout=%s cb0=%s", bindingLabel(s.PS), label(s.Layout), label(s.Constants[0]))
	vb := s.Vertex[0]
	fmt.Fprintf(&sb, " vb0=%s/%d/%d viewports=%d", label(vb.Buffer), vb.Stride, vb.Offset, len(s.Viewports))
	return sb.String()
}

func bindingLabel(b gpucore.ShaderBinding) string {
	if len(b.Instances) == 0 {
		return label(b.Shader)
	}
	names := make([]string, len(b.Instances))
	for i, inst := range b.Instances {
		names[i] = label(inst)
	}
	return label(b.Shader) + "[" + strings.Join(names, ",") + "]"
}

// Vertex is a decoded overlay vertex.
type Vertex struct {
	X, Y  float32
	Color [4]float32
}

// DrawCall is one entry of the draw log.
type DrawCall struct {
	Topology gputypes.PrimitiveTopology
	Start    uint32
	Count    uint32
	Vertices []Vertex
}

// Context is the immediate context of a software device.
type Context struct {
	refCount

	state  State
	target *image.RGBA
	draws  []DrawCall
	maps   int

	failMap   error
	failUnmap error
	failDraw  error
}

func newContext(d *Device) *Context {
	c := &Context{}
	c.refCount.init(d, "context")
	return c
}

// Snapshot returns a copy of the binding state without adding references.
func (c *Context) Snapshot() State {
	s := c.state
	s.VS.Instances = slices.Clone(s.VS.Instances)
	s.PS.Instances = slices.Clone(s.PS.Instances)
	s.Viewports = slices.Clone(s.Viewports)
	return s
}

// SetRenderTarget binds the image draws are rasterised into. Nil disables
// rasterisation; draws are still logged.
func (c *Context) SetRenderTarget(dst *image.RGBA) { c.target = dst }

// RenderTarget returns the bound render target.
func (c *Context) RenderTarget() *image.RGBA { return c.target }

// SetViewports replaces the bound viewports.
func (c *Context) SetViewports(vps ...gpucore.Viewport) {
	c.state.Viewports = append(c.state.Viewports[:0], vps...)
}

// Draws returns the draw log.
func (c *Context) Draws() []DrawCall { return c.draws }

// ResetDraws clears the draw log.
func (c *Context) ResetDraws() { c.draws = c.draws[:0] }

// Maps returns the number of completed Map/Unmap pairs.
func (c *Context) Maps() int { return c.maps }

// FailMap makes Map fail with err wrapped in gpucore.ErrMapFailed.
// Nil clears the fault.
func (c *Context) FailMap(err error) { c.failMap = err }

// FailUnmap makes Unmap fail with err wrapped in gpucore.ErrMapFailed and
// discard the written bytes. Nil clears the fault.
func (c *Context) FailUnmap(err error) { c.failUnmap = err }

// FailDraw makes Draw fail with err wrapped in gpucore.ErrDeviceLost.
// Nil clears the fault.
func (c *Context) FailDraw(err error) { c.failDraw = err }

// PrimitiveTopology returns the bound topology.
func (c *Context) PrimitiveTopology() gputypes.PrimitiveTopology { return c.state.Topology }

// SetPrimitiveTopology binds a topology.
func (c *Context) SetPrimitiveTopology(t gputypes.PrimitiveTopology) { c.state.Topology = t }

// VertexShader returns the bound vertex shader and its instances.
func (c *Context) VertexShader() gpucore.ShaderBinding { return acquireBinding(c.state.VS) }

// SetVertexShader binds a vertex shader.
func (c *Context) SetVertexShader(b gpucore.ShaderBinding) {
	c.state.VS = replaceBinding(c.state.VS, b)
}

// PixelShader returns the bound pixel shader and its instances.
func (c *Context) PixelShader() gpucore.ShaderBinding { return acquireBinding(c.state.PS) }

// SetPixelShader binds a pixel shader.
func (c *Context) SetPixelShader(b gpucore.ShaderBinding) {
	c.state.PS = replaceBinding(c.state.PS, b)
}

// InputLayout returns the bound input layout.
func (c *Context) InputLayout() gpucore.InputLayout {
	if c.state.Layout != nil {
		c.state.Layout.AddRef()
	}
	return c.state.Layout
}

// SetInputLayout binds an input layout.
func (c *Context) SetInputLayout(l gpucore.InputLayout) {
	if l != nil {
		l.AddRef()
	}
	if c.state.Layout != nil {
		c.state.Layout.Release()
	}
	c.state.Layout = l
}

// ConstantBuffer returns the vertex-stage constant buffer at slot.
func (c *Context) ConstantBuffer(slot int) gpucore.Buffer {
	if slot < 0 || slot >= ConstantSlots {
		return nil
	}
	b := c.state.Constants[slot]
	if b != nil {
		b.AddRef()
	}
	return b
}

// SetConstantBuffer binds a vertex-stage constant buffer. Out-of-range
// slots are ignored.
func (c *Context) SetConstantBuffer(slot int, b gpucore.Buffer) {
	if slot < 0 || slot >= ConstantSlots {
		return
	}
	if b != nil {
		b.AddRef()
	}
	if old := c.state.Constants[slot]; old != nil {
		old.Release()
	}
	c.state.Constants[slot] = b
}

// VertexBuffer returns the vertex buffer binding at slot.
func (c *Context) VertexBuffer(slot int) gpucore.VertexBufferBinding {
	if slot < 0 || slot >= VertexSlots {
		return gpucore.VertexBufferBinding{}
	}
	vb := c.state.Vertex[slot]
	if vb.Buffer != nil {
		vb.Buffer.AddRef()
	}
	return vb
}

// SetVertexBuffer binds a vertex buffer. Out-of-range slots are ignored.
func (c *Context) SetVertexBuffer(slot int, b gpucore.VertexBufferBinding) {
	if slot < 0 || slot >= VertexSlots {
		return
	}
	if b.Buffer != nil {
		b.Buffer.AddRef()
	}
	if old := c.state.Vertex[slot].Buffer; old != nil {
		old.Release()
	}
	c.state.Vertex[slot] = b
}

// Viewport returns the first bound viewport.
func (c *Context) Viewport() (gpucore.Viewport, bool) {
	if len(c.state.Viewports) == 0 {
		return gpucore.Viewport{}, false
	}
	return c.state.Viewports[0], true
}

// Map maps a dynamic buffer for writing. The returned bytes are zeroed.
func (c *Context) Map(b gpucore.Buffer) ([]byte, error) {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil {
		return nil, fmt.Errorf("%w: buffer %T not created by this backend", gpucore.ErrMapFailed, b)
	}
	if c.failMap != nil {
		return nil, fmt.Errorf("%w: %w", gpucore.ErrMapFailed, c.failMap)
	}
	if !buf.desc.Dynamic {
		return nil, fmt.Errorf("%w: buffer %q is not dynamic", gpucore.ErrMapFailed, buf.desc.Label)
	}
	if buf.mapped {
		return nil, fmt.Errorf("%w: buffer %q is already mapped", gpucore.ErrMapFailed, buf.desc.Label)
	}
	buf.mapped = true
	clear(buf.data)
	return buf.data, nil
}

// Unmap ends a Map.
func (c *Context) Unmap(b gpucore.Buffer) error {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil || !buf.mapped {
		return fmt.Errorf("%w: buffer %T is not mapped", gpucore.ErrMapFailed, b)
	}
	buf.mapped = false
	if c.failUnmap != nil {
		clear(buf.data)
		return fmt.Errorf("%w: %w", gpucore.ErrMapFailed, c.failUnmap)
	}
	c.maps++
	return nil
}

// Draw decodes count vertices starting at start from vertex buffer slot 0,
// appends them to the draw log and rasterises them into the render target.
func (c *Context) Draw(count, start uint32) error {
	if c.failDraw != nil {
		return fmt.Errorf("%w: %w", gpucore.ErrDeviceLost, c.failDraw)
	}
	s := &c.state
	if s.VS.Shader == nil || s.PS.Shader == nil {
		return fmt.Errorf("%w: shader stage not bound", ErrIncomplete)
	}
	if s.Layout == nil {
		return fmt.Errorf("%w: no input layout", ErrIncomplete)
	}
	vb := s.Vertex[0]
	buf, ok := vb.Buffer.(*Buffer)
	if !ok || buf == nil {
		return fmt.Errorf("%w: no vertex buffer in slot 0", ErrIncomplete)
	}
	if buf.mapped {
		return fmt.Errorf("%w: vertex buffer %q is mapped", ErrIncomplete, buf.desc.Label)
	}
	end := uint64(vb.Offset) + (uint64(start)+uint64(count))*uint64(vb.Stride)
	if end > uint64(len(buf.data)) {
		return fmt.Errorf("%w: draw reads %d bytes from a %d-byte buffer", ErrIncomplete, end, len(buf.data))
	}

	call := DrawCall{
		Topology: s.Topology,
		Start:    start,
		Count:    count,
		Vertices: decodeVertices(buf.data, s.Layout.Layout(), vb, start, count),
	}
	c.draws = append(c.draws, call)
	slogger().Debug("soft: draw", "topology", gpucore.TopologyName(call.Topology),
		"start", start, "count", count)

	if vp, ok := c.Viewport(); ok && c.target != nil {
		rasterize(c.target, vp, call.Topology, call.Vertices)
	}
	return nil
}

// decodeVertices reads position (location 0) and color (location 1) as
// described by layout.
func decodeVertices(data []byte, layout gputypes.VertexBufferLayout, vb gpucore.VertexBufferBinding, start, count uint32) []Vertex {
	posOff, colOff := -1, -1
	for _, a := range layout.Attributes {
		switch a.ShaderLocation {
		case gpucore.LocationPosition:
			posOff = int(a.Offset) //nolint:gosec // G115: offsets are small
		case gpucore.LocationColor:
			colOff = int(a.Offset) //nolint:gosec // G115: see above
		}
	}

	out := make([]Vertex, count)
	for i := range out {
		base := int(vb.Offset) + (int(start)+i)*int(vb.Stride)
		if posOff >= 0 {
			out[i].X = readFloat(data, base+posOff)
			out[i].Y = readFloat(data, base+posOff+4)
		}
		if colOff >= 0 {
			for k := range out[i].Color {
				out[i].Color[k] = readFloat(data, base+colOff+4*k)
			}
		}
	}
	return out
}

func readFloat(data []byte, off int) float32 {
	if off < 0 || off+4 > len(data) {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

// acquireBinding copies a binding and adds a reference to each object in it.
func acquireBinding(b gpucore.ShaderBinding) gpucore.ShaderBinding {
	out := gpucore.ShaderBinding{Shader: b.Shader, Instances: slices.Clone(b.Instances)}
	if out.Shader != nil {
		out.Shader.AddRef()
	}
	for _, inst := range out.Instances {
		if inst != nil {
			inst.AddRef()
		}
	}
	return out
}

// replaceBinding retains next, releases old and returns the stored copy.
func replaceBinding(old, next gpucore.ShaderBinding) gpucore.ShaderBinding {
	stored := acquireBinding(next)
	if old.Shader != nil {
		old.Shader.Release()
	}
	for _, inst := range old.Instances {
		if inst != nil {
			inst.Release()
		}
	}
	return stored
}
