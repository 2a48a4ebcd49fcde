package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay/gpucore"
)

// object is the reference count shared by all device children.
type object struct {
	dev     *Device
	kind    string
	refs    uint32
	destroy func()
}

func (o *object) init(dev *Device, kind string, destroy func()) {
	o.dev = dev
	o.kind = kind
	o.refs = 1
	o.destroy = destroy
	dev.live++
}

// AddRef adds a reference and returns the new count.
func (o *object) AddRef() uint32 {
	o.refs++
	return o.refs
}

// Release drops a reference and destroys the object when none remain.
func (o *object) Release() uint32 {
	if o.refs == 0 {
		o.dev.overReleases++
		slogger().Warn("wgpu: release of destroyed object", "kind", o.kind)
		return 0
	}
	o.refs--
	if o.refs == 0 {
		o.dev.live--
		if o.destroy != nil {
			o.destroy()
		}
	}
	return o.refs
}

// Shader is a SPIR-V shader module for one stage.
type Shader struct {
	object
	stage  gpucore.Stage
	module hal.ShaderModule
}

// Stage returns the pipeline stage.
func (s *Shader) Stage() gpucore.Stage { return s.stage }

// entryPoint returns the name of the stage's entry point.
func (s *Shader) entryPoint() string {
	if s.stage == gpucore.StageVertex {
		return vertexEntryPoint
	}
	return fragmentEntryPoint
}

// InputLayout describes the vertex format of slot 0.
type InputLayout struct {
	object
	layout gputypes.VertexBufferLayout
}

// Layout returns the vertex buffer layout.
func (l *InputLayout) Layout() gputypes.VertexBufferLayout { return l.layout }

// Buffer is a HAL buffer with a CPU staging copy for Map.
type Buffer struct {
	object
	desc    gpucore.BufferDesc
	buf     hal.Buffer
	size    uint64
	staging []byte
	mapped  bool
}

// Desc returns the creation parameters.
func (b *Buffer) Desc() gpucore.BufferDesc { return b.desc }
