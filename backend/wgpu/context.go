package wgpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay/gpucore"
)

// Slot counts of the immediate context.
const (
	ConstantSlots = 14
	VertexSlots   = 32
)

// target is the bound color attachment.
type target struct {
	view   hal.TextureView
	format gputypes.TextureFormat
}

// Context is the immediate context of a Device.
type Context struct {
	object

	topology  gputypes.PrimitiveTopology
	vs        gpucore.ShaderBinding
	ps        gpucore.ShaderBinding
	layout    gpucore.InputLayout
	constants [ConstantSlots]gpucore.Buffer
	vertex    [VertexSlots]gpucore.VertexBufferBinding
	viewports []gpucore.Viewport
	target    *target

	draws int
	maps  int
}

func newContext(d *Device) *Context {
	c := &Context{}
	c.object.init(d, "context", c.unbindAll)
	return c
}

// SetRenderTarget binds the color attachment draws render into.
func (c *Context) SetRenderTarget(view hal.TextureView, format gputypes.TextureFormat) {
	c.target = &target{view: view, format: format}
}

// SetViewports binds the viewports. Only the first is used.
func (c *Context) SetViewports(vps ...gpucore.Viewport) {
	c.viewports = append(c.viewports[:0], vps...)
}

// Draws returns the number of successful draw calls.
func (c *Context) Draws() int { return c.draws }

// Maps returns the number of completed Map/Unmap pairs.
func (c *Context) Maps() int { return c.maps }

// String describes the binding state in one line.
func (c *Context) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "topology=%s vs=%s ps=%s", gpucore.TopologyName(c.topology), objLabel(c.vs.Shader), objLabel(c.ps.Shader))
	fmt.Fprintf(&sb, " layout=%s cb0=%s", objLabel(c.layout), objLabel(c.constants[0]))
	vb := c.vertex[0]
	fmt.Fprintf(&sb, " vb0=%s/%d/%d viewports=%d", objLabel(vb.Buffer), vb.Stride, vb.Offset, len(c.viewports))
	return sb.String()
}

func objLabel(o gpucore.Object) string {
	switch v := o.(type) {
	case nil:
		return "-"
	case *Shader:
		return fmt.Sprintf("%s@%p", v.kind, v)
	case *InputLayout:
		return fmt.Sprintf("%s@%p", v.kind, v)
	case *Buffer:
		return fmt.Sprintf("%s(%s)@%p", v.kind, v.desc.Label, v)
	default:
		return fmt.Sprintf("%T", o)
	}
}

// PrimitiveTopology returns the bound topology.
func (c *Context) PrimitiveTopology() gputypes.PrimitiveTopology { return c.topology }

// SetPrimitiveTopology binds the topology.
func (c *Context) SetPrimitiveTopology(t gputypes.PrimitiveTopology) { c.topology = t }

// VertexShader returns the vertex stage binding with references added.
func (c *Context) VertexShader() gpucore.ShaderBinding { return acquireBinding(c.vs) }

// SetVertexShader binds the vertex stage.
func (c *Context) SetVertexShader(b gpucore.ShaderBinding) { replaceBinding(&c.vs, b) }

// PixelShader returns the pixel stage binding with references added.
func (c *Context) PixelShader() gpucore.ShaderBinding { return acquireBinding(c.ps) }

// SetPixelShader binds the pixel stage.
func (c *Context) SetPixelShader(b gpucore.ShaderBinding) { replaceBinding(&c.ps, b) }

// InputLayout returns the bound layout with a reference added.
func (c *Context) InputLayout() gpucore.InputLayout {
	if c.layout != nil {
		c.layout.AddRef()
	}
	return c.layout
}

// SetInputLayout binds the layout.
func (c *Context) SetInputLayout(l gpucore.InputLayout) {
	if l != nil {
		l.AddRef()
	}
	if c.layout != nil {
		c.layout.Release()
	}
	c.layout = l
}

// ConstantBuffer returns the vertex-stage constant buffer in slot with a
// reference added.
func (c *Context) ConstantBuffer(slot int) gpucore.Buffer {
	if slot < 0 || slot >= ConstantSlots || c.constants[slot] == nil {
		return nil
	}
	c.constants[slot].AddRef()
	return c.constants[slot]
}

// SetConstantBuffer binds a vertex-stage constant buffer.
func (c *Context) SetConstantBuffer(slot int, b gpucore.Buffer) {
	if slot < 0 || slot >= ConstantSlots {
		return
	}
	if b != nil {
		b.AddRef()
	}
	if c.constants[slot] != nil {
		c.constants[slot].Release()
	}
	c.constants[slot] = b
}

// VertexBuffer returns the binding of slot with a reference added.
func (c *Context) VertexBuffer(slot int) gpucore.VertexBufferBinding {
	if slot < 0 || slot >= VertexSlots {
		return gpucore.VertexBufferBinding{}
	}
	b := c.vertex[slot]
	if b.Buffer != nil {
		b.Buffer.AddRef()
	}
	return b
}

// SetVertexBuffer binds a vertex buffer.
func (c *Context) SetVertexBuffer(slot int, b gpucore.VertexBufferBinding) {
	if slot < 0 || slot >= VertexSlots {
		return
	}
	if b.Buffer != nil {
		b.Buffer.AddRef()
	}
	if old := c.vertex[slot].Buffer; old != nil {
		old.Release()
	}
	c.vertex[slot] = b
}

// Viewport returns the first bound viewport.
func (c *Context) Viewport() (gpucore.Viewport, bool) {
	if len(c.viewports) == 0 {
		return gpucore.Viewport{}, false
	}
	return c.viewports[0], true
}

// Map returns the buffer's staging bytes, zeroed. The bytes are uploaded by
// Unmap.
func (c *Context) Map(b gpucore.Buffer) ([]byte, error) {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil || buf.dev != c.dev {
		return nil, fmt.Errorf("%w: buffer %T not created by this device", gpucore.ErrMapFailed, b)
	}
	if !buf.desc.Dynamic {
		return nil, fmt.Errorf("%w: buffer %q is not dynamic", gpucore.ErrMapFailed, buf.desc.Label)
	}
	if buf.mapped {
		return nil, fmt.Errorf("%w: buffer %q is already mapped", gpucore.ErrMapFailed, buf.desc.Label)
	}
	if buf.staging == nil {
		buf.staging = make([]byte, buf.size)
	} else {
		clear(buf.staging)
	}
	buf.mapped = true
	return buf.staging[:buf.desc.Size], nil
}

// Unmap uploads the staging bytes of a mapped buffer.
func (c *Context) Unmap(b gpucore.Buffer) error {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil || !buf.mapped {
		return fmt.Errorf("%w: buffer %T is not mapped", gpucore.ErrMapFailed, b)
	}
	buf.mapped = false
	if err := c.dev.queue.WriteBuffer(buf.buf, 0, buf.staging); err != nil {
		return fmt.Errorf("%w: upload %q: %w", gpucore.ErrMapFailed, buf.desc.Label, err)
	}
	c.maps++
	return nil
}

// Draw renders count vertices starting at start from vertex buffer slot 0
// into the bound target with the bound pipeline state. The pass loads the
// target, so earlier content is kept.
func (c *Context) Draw(count, start uint32) error {
	vs, _ := c.vs.Shader.(*Shader)
	ps, _ := c.ps.Shader.(*Shader)
	layout, _ := c.layout.(*InputLayout)
	vb := c.vertex[0]
	buf, _ := vb.Buffer.(*Buffer)
	switch {
	case vs == nil || ps == nil:
		return fmt.Errorf("%w: shader stage unbound", ErrIncomplete)
	case layout == nil:
		return fmt.Errorf("%w: input layout unbound", ErrIncomplete)
	case buf == nil || vb.Stride == 0:
		return fmt.Errorf("%w: vertex buffer 0 unbound", ErrIncomplete)
	case c.target == nil:
		return ErrNoTarget
	}
	if count == 0 {
		return nil
	}
	end := uint64(vb.Offset) + (uint64(start)+uint64(count))*uint64(vb.Stride)
	if end > buf.size {
		return fmt.Errorf("%w: draw [%d,+%d) reads past buffer %q", ErrIncomplete, start, count, buf.desc.Label)
	}

	pipeline, err := c.dev.pipelines.get(pipelineKey{
		vs:       vs,
		ps:       ps,
		layout:   layout,
		topology: c.topology,
		stride:   vb.Stride,
		format:   c.target.format,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", gpucore.ErrDeviceLost, err)
	}
	if err := c.submit(pipeline, buf, vb.Offset, count, start); err != nil {
		return fmt.Errorf("%w: %w", gpucore.ErrDeviceLost, err)
	}

	c.draws++
	slogger().Debug("wgpu: draw",
		"topology", gpucore.TopologyName(c.topology),
		"start", start,
		"count", count)
	return nil
}

// Clear fills the bound render target with c.
func (c *Context) Clear(color gputypes.Color) error {
	if c.target == nil {
		return ErrNoTarget
	}
	return c.encode("overlay_clear", hal.RenderPassColorAttachment{
		View:       c.target.view,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: color,
	}, nil)
}

// submit encodes one render pass with a single draw and waits for it.
func (c *Context) submit(pipeline hal.RenderPipeline, buf *Buffer, offset, count, start uint32) error {
	return c.encode("overlay_draw", hal.RenderPassColorAttachment{
		View:    c.target.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}, func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(pipeline)
		rp.SetVertexBuffer(0, buf.buf, uint64(offset))
		rp.Draw(count, 1, start, 0)
	})
}

// encode records one render pass on the attachment, submits it and waits
// for the GPU.
func (c *Context) encode(label string, attachment hal.RenderPassColorAttachment, record func(hal.RenderPassEncoder)) error {
	return c.dev.run(label, func(encoder hal.CommandEncoder) {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label:            label + "_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{attachment},
		})
		if record != nil {
			record(rp)
		}
		rp.End()
	})
}

// unbindAll drops every binding. It runs when the context is destroyed.
func (c *Context) unbindAll() {
	c.SetVertexShader(gpucore.ShaderBinding{})
	c.SetPixelShader(gpucore.ShaderBinding{})
	c.SetInputLayout(nil)
	for i := range c.constants {
		c.SetConstantBuffer(i, nil)
	}
	for i := range c.vertex {
		c.SetVertexBuffer(i, gpucore.VertexBufferBinding{})
	}
	c.target = nil
}

func acquireBinding(b gpucore.ShaderBinding) gpucore.ShaderBinding {
	if b.Shader != nil {
		b.Shader.AddRef()
	}
	for _, inst := range b.Instances {
		if inst != nil {
			inst.AddRef()
		}
	}
	b.Instances = append([]gpucore.ClassInstance(nil), b.Instances...)
	return b
}

func replaceBinding(dst *gpucore.ShaderBinding, b gpucore.ShaderBinding) {
	b = acquireBinding(b)
	old := *dst
	*dst = b
	if old.Shader != nil {
		old.Shader.Release()
	}
	for _, inst := range old.Instances {
		if inst != nil {
			inst.Release()
		}
	}
}
