package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay/gpucore"
	"github.com/gogpu/overlay/internal/shader"
)

// Entry points of the overlay programs.
const (
	vertexEntryPoint   = shader.VertexEntryPoint
	fragmentEntryPoint = shader.FragmentEntryPoint
)

var (
	// ErrNoHAL is returned when a device provider does not expose HAL
	// objects.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL device and queue")

	// ErrIncomplete is returned by Draw when the bound state cannot produce
	// a pipeline.
	ErrIncomplete = errors.New("wgpu: incomplete pipeline state")

	// ErrNoTarget is returned by Draw when no render target is bound.
	ErrNoTarget = errors.New("wgpu: no render target bound")

	// ErrTimeout is returned when a submission does not complete in time.
	ErrTimeout = errors.New("wgpu: GPU wait timed out")
)

const (
	// submitTimeout bounds the wait for one submission.
	submitTimeout = 5 * time.Second

	// pollInterval is the sleep between completion polls.
	pollInterval = 100 * time.Microsecond
)

// Device adapts a HAL device and queue to gpucore.Device.
type Device struct {
	object

	device    hal.Device
	queue     hal.Queue
	ctx       *Context
	pipelines *pipelineCache
	onDestroy func()
	timeout   time.Duration

	live         int
	overReleases int
}

// NewDevice wraps a HAL device and queue. The caller keeps ownership of
// both; they must outlive the returned device.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", gpucore.ErrResourceUnavailable)
	}
	d := &Device{device: device, queue: queue, timeout: submitTimeout}
	d.object.init(d, "device", d.destroyDevice)
	d.pipelines = newPipelineCache(device)
	d.ctx = newContext(d)
	return d, nil
}

// NewDeviceFromProvider wraps the HAL device of a host application, for
// example a gogpu window. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return NewDevice(device, queue)
}

// SetLogger sets the logger used by the wgpu backend.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// LiveObjects returns the number of objects of this device, itself and its
// context included, that still hold references.
func (d *Device) LiveObjects() int { return d.live }

// OverReleases returns how many times an object without references was
// released.
func (d *Device) OverReleases() int { return d.overReleases }

// Pipelines returns the number of cached render pipelines.
func (d *Device) Pipelines() int { return d.pipelines.len() }

// Context returns the immediate context without adding a reference.
func (d *Device) Context() *Context { return d.ctx }

// ImmediateContext returns the immediate context with one reference added.
func (d *Device) ImmediateContext() gpucore.Context {
	d.ctx.AddRef()
	return d.ctx
}

// CreateVertexShader creates a vertex-stage module from a SPIR-V blob.
func (d *Device) CreateVertexShader(blob []byte) (gpucore.Shader, error) {
	return d.createShader(gpucore.StageVertex, blob)
}

// CreatePixelShader creates a fragment-stage module from a SPIR-V blob.
func (d *Device) CreatePixelShader(blob []byte) (gpucore.Shader, error) {
	return d.createShader(gpucore.StagePixel, blob)
}

func (d *Device) createShader(stage gpucore.Stage, blob []byte) (gpucore.Shader, error) {
	if !shader.IsSPIRV(blob) {
		return nil, fmt.Errorf("%w: %s blob is not SPIR-V", gpucore.ErrInvalidShader, stage)
	}
	words, err := shader.Words(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpucore.ErrInvalidShader, err)
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "overlay_" + stage.String(),
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s module: %w", gpucore.ErrInvalidShader, stage, err)
	}
	s := &Shader{stage: stage, module: module}
	s.object.init(d, stage.String()+"-shader", func() {
		d.pipelines.evict(s)
		d.device.DestroyShaderModule(module)
	})
	return s, nil
}

// CreateInputLayout records the vertex format. The SPIR-V of the vertex
// program is only checked for validity.
func (d *Device) CreateInputLayout(layout gputypes.VertexBufferLayout, vsBlob []byte) (gpucore.InputLayout, error) {
	if !shader.IsSPIRV(vsBlob) {
		return nil, fmt.Errorf("%w: input layout needs a SPIR-V vertex program", gpucore.ErrInvalidShader)
	}
	if layout.ArrayStride == 0 || len(layout.Attributes) == 0 {
		return nil, fmt.Errorf("%w: empty input layout", gpucore.ErrResourceUnavailable)
	}
	l := &InputLayout{layout: layout}
	l.layout.Attributes = append([]gputypes.VertexAttribute(nil), layout.Attributes...)
	l.object.init(d, "layout", func() { d.pipelines.evict(l) })
	return l, nil
}

// CreateBuffer creates a HAL buffer. Its size is rounded up to a multiple
// of four bytes so it can be written with Queue.WriteBuffer.
func (d *Device) CreateBuffer(desc gpucore.BufferDesc) (gpucore.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("%w: buffer %q has size %d", gpucore.ErrResourceUnavailable, desc.Label, desc.Size)
	}
	size := (uint64(desc.Size) + 3) &^ 3 //nolint:gosec // G115: Size checked positive
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create buffer %q: %w", gpucore.ErrResourceUnavailable, desc.Label, err)
	}
	b := &Buffer{desc: desc, buf: buf, size: size}
	b.object.init(d, "buffer", func() { d.device.DestroyBuffer(buf) })
	return b, nil
}

// destroyDevice runs when the last device reference is dropped.
func (d *Device) destroyDevice() {
	d.ctx.Release()
	d.pipelines.destroy()
	if d.onDestroy != nil {
		d.onDestroy()
	}
}

// run records commands with one encoder, submits them and waits until the
// queue reports the submission complete.
func (d *Device) run(label string, record func(hal.CommandEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return d.waitSubmission(index)
}

// waitSubmission polls the queue until submission index has completed or
// the device timeout elapses.
func (d *Device) waitSubmission(index uint64) error {
	deadline := time.Now().Add(d.timeout)
	for d.queue.PollCompleted() < index {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: submission %d not complete after %v", ErrTimeout, index, d.timeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}
