// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Contract errors. Backends wrap these with detail.
var (
	// ErrDeviceLost is returned when the device can no longer execute work.
	ErrDeviceLost = errors.New("gpucore: device lost")

	// ErrResourceUnavailable is returned when a GPU object cannot be created.
	ErrResourceUnavailable = errors.New("gpucore: resource unavailable")

	// ErrInvalidShader is returned for shader blobs the device rejects.
	ErrInvalidShader = errors.New("gpucore: invalid shader")

	// ErrMapFailed is returned when a buffer cannot be mapped for writing.
	ErrMapFailed = errors.New("gpucore: buffer map failed")
)

// Object is a reference-counted GPU object.
type Object interface {
	// AddRef adds a reference and returns the new count.
	AddRef() uint32

	// Release drops a reference and returns the new count. The object is
	// destroyed when the count reaches zero.
	Release() uint32
}

// Stage identifies a programmable pipeline stage.
type Stage uint8

// Pipeline stages.
const (
	StageVertex Stage = iota
	StagePixel
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	default:
		return "unknown"
	}
}

// Shader is a compiled program for one stage.
type Shader interface {
	Object
	Stage() Stage
}

// ClassInstance is a sub-instance bound together with a shader.
type ClassInstance interface {
	Object
	Name() string
}

// InputLayout describes how vertex buffer bytes feed the vertex stage.
type InputLayout interface {
	Object
	Layout() gputypes.VertexBufferLayout
}

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  int
	Usage gputypes.BufferUsage

	// Dynamic buffers are written by the CPU every frame through Map.
	Dynamic bool
}

// Buffer is a GPU buffer.
type Buffer interface {
	Object
	Desc() BufferDesc
}

// ShaderBinding is a shader together with its class instances.
type ShaderBinding struct {
	Shader    Shader
	Instances []ClassInstance
}

// VertexBufferBinding is a vertex buffer bound to an input slot.
type VertexBufferBinding struct {
	Buffer Buffer
	Stride uint32
	Offset uint32
}

// Viewport is the rectangle vertices are mapped to, in pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Device creates GPU objects.
type Device interface {
	Object

	// CreateVertexShader creates a vertex-stage program from a compiled blob.
	CreateVertexShader(blob []byte) (Shader, error)

	// CreatePixelShader creates a pixel-stage program from a compiled blob.
	CreatePixelShader(blob []byte) (Shader, error)

	// CreateInputLayout creates an input layout validated against the
	// vertex shader blob it will be used with.
	CreateInputLayout(layout gputypes.VertexBufferLayout, vsBlob []byte) (InputLayout, error)

	// CreateBuffer creates a buffer.
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// ImmediateContext returns the device's immediate context with one
	// reference added.
	ImmediateContext() Context
}

// Context is an immediate device context: the live binding state of the
// pipeline plus draw submission.
//
// Getters that return objects add a reference to each of them. Setters
// retain what they bind and release what they replace.
type Context interface {
	Object

	PrimitiveTopology() gputypes.PrimitiveTopology
	SetPrimitiveTopology(t gputypes.PrimitiveTopology)

	VertexShader() ShaderBinding
	SetVertexShader(b ShaderBinding)

	PixelShader() ShaderBinding
	SetPixelShader(b ShaderBinding)

	InputLayout() InputLayout
	SetInputLayout(l InputLayout)

	// ConstantBuffer returns the vertex-stage constant buffer at slot.
	ConstantBuffer(slot int) Buffer
	SetConstantBuffer(slot int, b Buffer)

	VertexBuffer(slot int) VertexBufferBinding
	SetVertexBuffer(slot int, b VertexBufferBinding)

	// Viewport returns the first bound viewport, if any.
	Viewport() (Viewport, bool)

	// Map maps a dynamic buffer for writing, discarding its contents.
	Map(b Buffer) ([]byte, error)

	// Unmap ends a Map. The written bytes become visible to draws only if
	// it returns nil; on error the buffer is unmapped and its contents are
	// undefined.
	Unmap(b Buffer) error

	// Draw submits count vertices starting at start using the bound state.
	Draw(count, start uint32) error
}

// SwapChain is the host's presentation object.
type SwapChain interface {
	// Device returns the device that owns the swap chain, with one
	// reference added.
	Device() (Device, error)
}
