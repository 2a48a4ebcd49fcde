package overlay

import (
	"fmt"

	"github.com/gogpu/overlay/gpucore"
)

type sourceKind uint8

const (
	sourceNone sourceKind = iota
	sourceSwapChain
	sourceDevice
	sourceDeviceContext
)

// Source is what a Renderer is constructed from: a swap chain, a device, or
// a device together with the context to draw on.
type Source struct {
	kind sourceKind
	sc   gpucore.SwapChain
	dev  gpucore.Device
	ctx  gpucore.Context
}

// FromSwapChain draws on the immediate context of the swap chain's device.
func FromSwapChain(sc gpucore.SwapChain) Source {
	return Source{kind: sourceSwapChain, sc: sc}
}

// FromDevice draws on the device's immediate context.
func FromDevice(dev gpucore.Device) Source {
	return Source{kind: sourceDevice, dev: dev}
}

// FromDeviceContext draws on ctx, which must belong to dev.
func FromDeviceContext(dev gpucore.Device, ctx gpucore.Context) Source {
	return Source{kind: sourceDeviceContext, dev: dev, ctx: ctx}
}

// String returns the source kind.
func (s Source) String() string {
	switch s.kind {
	case sourceSwapChain:
		return "swap chain"
	case sourceDevice:
		return "device"
	case sourceDeviceContext:
		return "device+context"
	default:
		return "none"
	}
}

// resolve normalizes the source to a device and context, each carrying one
// reference owned by the caller.
func (s Source) resolve() (gpucore.Device, gpucore.Context, error) {
	var dev gpucore.Device
	var ctx gpucore.Context

	switch s.kind {
	case sourceSwapChain:
		if s.sc == nil {
			return nil, nil, fmt.Errorf("%w: nil swap chain", ErrNilSource)
		}
		d, err := s.sc.Device()
		if err != nil {
			return nil, nil, fmt.Errorf("query swap chain device: %w", err)
		}
		if d == nil {
			return nil, nil, fmt.Errorf("%w: swap chain returned no device", ErrNilSource)
		}
		dev = d
	case sourceDevice, sourceDeviceContext:
		if s.dev == nil {
			return nil, nil, ErrNilSource
		}
		s.dev.AddRef()
		dev = s.dev
	default:
		return nil, nil, ErrNilSource
	}

	if s.kind == sourceDeviceContext && s.ctx != nil {
		s.ctx.AddRef()
		ctx = s.ctx
	} else {
		ctx = dev.ImmediateContext()
	}
	if ctx == nil {
		dev.Release()
		return nil, nil, fmt.Errorf("%w: device has no immediate context", ErrNilSource)
	}
	return dev, ctx, nil
}
