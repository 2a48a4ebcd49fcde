// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// init registers the soft host on package import.
func init() {
	backend.Register(backend.NameSoft, func(width, height int) (backend.Host, error) {
		return NewHost(width, height)
	})
}

// Host simulates an application on a software device: every frame it clears
// its back buffer, draws a backdrop triangle with its own pipeline and
// leaves that pipeline bound for whoever runs before Present.
type Host struct {
	dev *Device
	sc  *SwapChain

	vs, ps   gpucore.Shader
	instance *ClassInstance
	layout   gpucore.InputLayout
	vertices gpucore.Buffer
	params   gpucore.Buffer

	background color.RGBA
	closed     bool
}

// hostStride is wider than the overlay's vertex so a restored binding is
// distinguishable from the overlay's own.
const hostStride = 32

// NewHost creates a host with a back buffer of the given size.
func NewHost(width, height int) (*Host, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("soft: invalid host size %dx%d", width, height)
	}
	h := &Host{
		dev:        NewDevice(),
		background: color.RGBA{R: 0x20, G: 0x24, B: 0x30, A: 0xff},
	}
	h.sc = NewSwapChain(h.dev, width, height)
	if err := h.init(); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Host) init() error {
	var err error
	if h.vs, err = h.dev.CreateVertexShader([]byte("host-vs")); err != nil {
		return err
	}
	if h.ps, err = h.dev.CreatePixelShader([]byte("host-ps")); err != nil {
		return err
	}
	if h.instance, err = h.dev.CreateClassInstance("host-lighting"); err != nil {
		return err
	}
	layout := gpucore.VertexLayout()
	layout.ArrayStride = hostStride
	if h.layout, err = h.dev.CreateInputLayout(layout, []byte("host-vs")); err != nil {
		return err
	}
	if h.vertices, err = h.dev.CreateBuffer(gpucore.BufferDesc{
		Label: "host vertices",
		Size:  3 * hostStride,
		Usage: gputypes.BufferUsageVertex,
	}); err != nil {
		return err
	}
	if h.params, err = h.dev.CreateBuffer(gpucore.BufferDesc{
		Label: "host params",
		Size:  64,
		Usage: gputypes.BufferUsageUniform,
	}); err != nil {
		return err
	}

	// Backdrop triangle in the lower-right half, semi-transparent teal.
	tri := [3][2]float32{{1, 1}, {1, -1}, {-1, -1}}
	data := h.vertices.(*Buffer).data
	for i, p := range tri {
		base := i * hostStride
		putFloats(data[base:], p[0], p[1], 0.1, 0.5, 0.5, 0.6)
	}
	return nil
}

func putFloats(dst []byte, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}

// Device returns the host's device without adding a reference.
func (h *Host) Device() *Device { return h.dev }

// Name returns "soft".
func (h *Host) Name() string { return backend.NameSoft }

// Size returns the back buffer size.
func (h *Host) Size() (int, int) {
	b := h.sc.back.Bounds()
	return b.Dx(), b.Dy()
}

// SwapChain returns the host's swap chain.
func (h *Host) SwapChain() gpucore.SwapChain { return h.sc }

// RenderFrame clears the back buffer, draws the backdrop and leaves the host
// pipeline bound.
func (h *Host) RenderFrame(frame int) error {
	if h.closed {
		return backend.ErrClosed
	}
	bg := h.background
	bg.B += uint8(frame % 16) //nolint:gosec // G115: bounded by 16
	draw.Draw(h.sc.back, h.sc.back.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	ctx := h.dev.ctx
	b := h.sc.back.Bounds()
	ctx.SetViewports(gpucore.Viewport{Width: float32(b.Dx()), Height: float32(b.Dy()), MaxDepth: 1})
	ctx.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	ctx.SetVertexShader(gpucore.ShaderBinding{Shader: h.vs, Instances: []gpucore.ClassInstance{h.instance}})
	ctx.SetPixelShader(gpucore.ShaderBinding{Shader: h.ps})
	ctx.SetInputLayout(h.layout)
	ctx.SetConstantBuffer(0, h.params)
	ctx.SetVertexBuffer(0, gpucore.VertexBufferBinding{Buffer: h.vertices, Stride: hostStride})
	return ctx.Draw(3, 0)
}

// Bindings describes the context's binding state.
func (h *Host) Bindings() string { return h.dev.ctx.state.String() }

// Present presents the back buffer.
func (h *Host) Present(syncInterval, flags uint32) error {
	if h.closed {
		return backend.ErrClosed
	}
	return h.sc.Present(syncInterval, flags)
}

// Snapshot returns the back buffer.
func (h *Host) Snapshot() image.Image { return h.sc.back }

// Close unbinds and releases the host's objects. It reports objects that
// are still alive afterwards, which means someone leaked a reference.
func (h *Host) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	ctx := h.dev.ctx
	ctx.SetVertexShader(gpucore.ShaderBinding{})
	ctx.SetPixelShader(gpucore.ShaderBinding{})
	ctx.SetInputLayout(nil)
	ctx.SetConstantBuffer(0, nil)
	ctx.SetVertexBuffer(0, gpucore.VertexBufferBinding{})

	for _, o := range []gpucore.Object{h.vs, h.ps, h.layout, h.vertices, h.params} {
		if o != nil {
			o.Release()
		}
	}
	if h.instance != nil {
		h.instance.Release()
	}
	ctx.Release()
	h.dev.Release()

	var errs []error
	if n := h.dev.LiveObjects(); n != 0 {
		errs = append(errs, fmt.Errorf("soft: %d objects still alive after close", n))
	}
	if n := h.dev.OverReleases(); n != 0 {
		errs = append(errs, fmt.Errorf("soft: %d over-releases", n))
	}
	return errors.Join(errs...)
}
