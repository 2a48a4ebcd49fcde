package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
	"github.com/gogpu/overlay/internal/shader"
)

// init registers the headless wgpu host on package import.
func init() {
	backend.Register(backend.NameWGPU, func(width, height int) (backend.Host, error) {
		return NewHost(width, height)
	})
}

// hostStride is wider than the overlay's vertex so a restored binding is
// distinguishable from the overlay's own.
const hostStride = 32

// Host is an application on the HAL noop device. Every frame it clears its
// back buffer, draws a backdrop triangle with its own pipeline and leaves
// that pipeline bound.
type Host struct {
	dev *Device
	sc  *SwapChain

	vs, ps   gpucore.Shader
	layout   gpucore.InputLayout
	vertices gpucore.Buffer
	params   gpucore.Buffer

	closed bool
}

// NewHost opens a noop HAL device and creates a host on it.
func NewHost(width, height int) (*Host, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters", backend.ErrBackendNotAvailable)
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open adapter: %w", err)
	}

	dev, err := NewDevice(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	dev.onDestroy = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}

	h := &Host{dev: dev}
	if h.sc, err = NewSwapChain(dev, width, height); err != nil {
		dev.Release()
		return nil, err
	}
	if err := h.init(); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Host) init() error {
	blobs, err := shader.Compile()
	if err != nil {
		return err
	}
	if h.vs, err = h.dev.CreateVertexShader(blobs.Vertex); err != nil {
		return err
	}
	if h.ps, err = h.dev.CreatePixelShader(blobs.Pixel); err != nil {
		return err
	}
	layout := gpucore.VertexLayout()
	layout.ArrayStride = hostStride
	if h.layout, err = h.dev.CreateInputLayout(layout, blobs.Vertex); err != nil {
		return err
	}
	if h.vertices, err = h.dev.CreateBuffer(gpucore.BufferDesc{
		Label:   "host vertices",
		Size:    3 * hostStride,
		Usage:   gputypes.BufferUsageVertex,
		Dynamic: true,
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

	ctx := h.dev.ctx
	data, err := ctx.Map(h.vertices)
	if err != nil {
		return err
	}
	tri := [3][2]float32{{1, 1}, {1, -1}, {-1, -1}}
	for i, p := range tri {
		putFloats(data[i*hostStride:], p[0], p[1], 0.1, 0.5, 0.5, 0.6)
	}
	return ctx.Unmap(h.vertices)
}

func putFloats(dst []byte, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}

// Device returns the host's device without adding a reference.
func (h *Host) Device() *Device { return h.dev }

// Name returns "wgpu".
func (h *Host) Name() string { return backend.NameWGPU }

// Size returns the back buffer size.
func (h *Host) Size() (int, int) { return h.sc.Size() }

// SwapChain returns the host's swap chain.
func (h *Host) SwapChain() gpucore.SwapChain { return h.sc }

// RenderFrame clears the back buffer, draws the backdrop and leaves the host
// pipeline bound. Every frame looks the same.
func (h *Host) RenderFrame(_ int) error {
	if h.closed {
		return backend.ErrClosed
	}
	ctx := h.dev.ctx
	if err := ctx.Clear(gputypes.Color{R: 0.125, G: 0.14, B: 0.19, A: 1}); err != nil {
		return err
	}
	w, ht := h.sc.Size()
	ctx.SetViewports(gpucore.Viewport{Width: float32(w), Height: float32(ht), MaxDepth: 1})
	ctx.SetPrimitiveTopology(gputypes.PrimitiveTopologyTriangleList)
	ctx.SetVertexShader(gpucore.ShaderBinding{Shader: h.vs})
	ctx.SetPixelShader(gpucore.ShaderBinding{Shader: h.ps})
	ctx.SetInputLayout(h.layout)
	ctx.SetConstantBuffer(0, h.params)
	ctx.SetVertexBuffer(0, gpucore.VertexBufferBinding{Buffer: h.vertices, Stride: hostStride})
	return ctx.Draw(3, 0)
}

// Bindings describes the context's binding state.
func (h *Host) Bindings() string { return h.dev.ctx.String() }

// Present presents the back buffer.
func (h *Host) Present(syncInterval, flags uint32) error {
	if h.closed {
		return backend.ErrClosed
	}
	return h.sc.Present(syncInterval, flags)
}

// Snapshot reads the back buffer back. It returns nil if the read fails.
func (h *Host) Snapshot() image.Image {
	img, err := h.sc.ReadPixels()
	if err != nil {
		slogger().Warn("wgpu: snapshot failed", "err", err)
		return nil
	}
	return img
}

// Close unbinds and releases the host's objects and the device. It reports
// objects that were still alive, which means someone leaked a reference.
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
	h.sc.Destroy()

	var errs []error
	// The device and its context remain.
	if n := h.dev.LiveObjects(); n != 2 {
		errs = append(errs, fmt.Errorf("wgpu: %d objects still alive after close", n-2))
	}
	if n := h.dev.OverReleases(); n != 0 {
		errs = append(errs, fmt.Errorf("wgpu: %d over-releases", n))
	}
	h.dev.Release()
	return errors.Join(errs...)
}
