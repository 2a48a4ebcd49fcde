// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/gpucore"
)

// refCount implements gpucore.Object with the device's live-object
// accounting. Objects start with one reference owned by their creator.
type refCount struct {
	dev  *Device
	id   int
	kind string
	refs uint32
}

func (r *refCount) init(dev *Device, kind string) {
	dev.nextID++
	r.dev = dev
	r.id = dev.nextID
	r.kind = kind
	r.refs = 1
	dev.live++
}

// AddRef adds a reference and returns the new count.
func (r *refCount) AddRef() uint32 {
	r.refs++
	return r.refs
}

// Release drops a reference and returns the new count. Releasing an object
// that has no references left is counted as an over-release on the device.
func (r *refCount) Release() uint32 {
	if r.refs == 0 {
		r.dev.overReleases++
		slogger().Warn("soft: over-release", "object", r.label())
		return 0
	}
	r.refs--
	if r.refs == 0 {
		r.dev.live--
	}
	return r.refs
}

// ID returns the object's creation sequence number on its device.
func (r *refCount) ID() int { return r.id }

func (r *refCount) count() uint32 { return r.refs }

func (r *refCount) label() string { return fmt.Sprintf("%s#%d", r.kind, r.id) }

// RefCount returns the reference count of an object created by this
// package, or 0 for nil and foreign objects.
func RefCount(o gpucore.Object) uint32 {
	if c, ok := o.(interface{ count() uint32 }); ok {
		return c.count()
	}
	return 0
}

// Shader is a program for one stage. The blob is kept but not executed.
type Shader struct {
	refCount
	stage gpucore.Stage
	blob  []byte
}

// Stage returns the pipeline stage.
func (s *Shader) Stage() gpucore.Stage { return s.stage }

// ClassInstance is a named shader sub-instance.
type ClassInstance struct {
	refCount
	name string
}

// Name returns the instance name.
func (c *ClassInstance) Name() string { return c.name }

// InputLayout is a vertex input layout.
type InputLayout struct {
	refCount
	layout gputypes.VertexBufferLayout
}

// Layout returns the vertex buffer layout.
func (l *InputLayout) Layout() gputypes.VertexBufferLayout { return l.layout }

// Buffer is a CPU-resident GPU buffer.
type Buffer struct {
	refCount
	desc   gpucore.BufferDesc
	data   []byte
	mapped bool
}

// Desc returns the buffer descriptor.
func (b *Buffer) Desc() gpucore.BufferDesc { return b.desc }

// Data returns the buffer contents.
func (b *Buffer) Data() []byte { return b.data }

// label names an object for state dumps.
func label(o any) string {
	if o == nil {
		return "-"
	}
	if l, ok := o.(interface{ label() string }); ok {
		return l.label()
	}
	return fmt.Sprintf("%T", o)
}
