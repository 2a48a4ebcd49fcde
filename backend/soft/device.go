// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft provides a software reference implementation of the gpucore
// contract.
//
// The device keeps the full binding state of an immediate context with the
// reference semantics of a D3D11-style API: setters retain, getters add a
// reference, objects are destroyed when their count reaches zero. It counts
// live objects and over-releases so tests can check that code running on a
// borrowed context leaves reference counts as it found them.
//
// Draws are decoded from the bound vertex buffer, appended to a draw log and
// rasterised into the bound render target with golang.org/x/image/vector.
// Shader blobs are accepted as opaque bytes; the fixed-function behavior is
// "position in NDC, flat color per draw".
//
// Errors can be injected with [Device.FailCreate], [Context.FailMap],
// [Context.FailUnmap] and [Context.FailDraw] to exercise failure paths.
package soft

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/gpucore"
)

// ErrIncomplete is returned by Draw when the bound pipeline state cannot
// produce a draw.
var ErrIncomplete = errors.New("soft: incomplete pipeline state")

// Device is a software GPU device.
type Device struct {
	refCount

	ctx          *Context
	nextID       int
	live         int
	overReleases int
	failCreate   error
}

// NewDevice creates a device and its immediate context. The caller owns one
// reference to the device.
func NewDevice() *Device {
	d := &Device{}
	d.refCount.init(d, "device")
	d.ctx = newContext(d)
	return d
}

// SetLogger sets the logger used by the soft backend.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// LiveObjects returns the number of objects created by this device, itself
// and its context included, that still hold references.
func (d *Device) LiveObjects() int { return d.live }

// OverReleases returns how many times an object without references was
// released.
func (d *Device) OverReleases() int { return d.overReleases }

// FailCreate makes every following Create call fail with err wrapped in
// gpucore.ErrResourceUnavailable. Nil clears the fault.
func (d *Device) FailCreate(err error) { d.failCreate = err }

// Context returns the immediate context without adding a reference.
func (d *Device) Context() *Context { return d.ctx }

// ImmediateContext returns the immediate context with one reference added.
func (d *Device) ImmediateContext() gpucore.Context {
	d.ctx.AddRef()
	return d.ctx
}

func (d *Device) checkCreate(what string) error {
	if d.failCreate != nil {
		return fmt.Errorf("%w: create %s: %w", gpucore.ErrResourceUnavailable, what, d.failCreate)
	}
	return nil
}

// CreateVertexShader creates a vertex-stage program.
func (d *Device) CreateVertexShader(blob []byte) (gpucore.Shader, error) {
	return d.createShader(gpucore.StageVertex, blob)
}

// CreatePixelShader creates a pixel-stage program.
func (d *Device) CreatePixelShader(blob []byte) (gpucore.Shader, error) {
	return d.createShader(gpucore.StagePixel, blob)
}

func (d *Device) createShader(stage gpucore.Stage, blob []byte) (gpucore.Shader, error) {
	if err := d.checkCreate(stage.String() + " shader"); err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty %s blob", gpucore.ErrInvalidShader, stage)
	}
	s := &Shader{stage: stage, blob: append([]byte(nil), blob...)}
	s.refCount.init(d, stage.String()+"-shader")
	return s, nil
}

// CreateClassInstance creates a named class instance.
func (d *Device) CreateClassInstance(name string) (*ClassInstance, error) {
	if err := d.checkCreate("class instance"); err != nil {
		return nil, err
	}
	c := &ClassInstance{name: name}
	c.refCount.init(d, "instance")
	return c, nil
}

// CreateInputLayout creates an input layout.
func (d *Device) CreateInputLayout(layout gputypes.VertexBufferLayout, vsBlob []byte) (gpucore.InputLayout, error) {
	if err := d.checkCreate("input layout"); err != nil {
		return nil, err
	}
	if len(vsBlob) == 0 {
		return nil, fmt.Errorf("%w: input layout needs a vertex shader blob", gpucore.ErrInvalidShader)
	}
	if layout.ArrayStride == 0 || len(layout.Attributes) == 0 {
		return nil, fmt.Errorf("%w: empty input layout", gpucore.ErrResourceUnavailable)
	}
	l := &InputLayout{layout: layout}
	l.layout.Attributes = append([]gputypes.VertexAttribute(nil), layout.Attributes...)
	l.refCount.init(d, "layout")
	return l, nil
}

// CreateBuffer creates a buffer of desc.Size zero bytes.
func (d *Device) CreateBuffer(desc gpucore.BufferDesc) (gpucore.Buffer, error) {
	if err := d.checkCreate("buffer"); err != nil {
		return nil, err
	}
	if desc.Size <= 0 {
		return nil, fmt.Errorf("%w: buffer %q has size %d", gpucore.ErrResourceUnavailable, desc.Label, desc.Size)
	}
	b := &Buffer{desc: desc, data: make([]byte, desc.Size)}
	b.refCount.init(d, "buffer")
	return b, nil
}
