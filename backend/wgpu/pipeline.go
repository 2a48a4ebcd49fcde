package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipelineKey identifies a render pipeline by the bound state it was
// created from.
type pipelineKey struct {
	vs       *Shader
	ps       *Shader
	layout   *InputLayout
	topology gputypes.PrimitiveTopology
	stride   uint32
	format   gputypes.TextureFormat
}

// pipelineCache creates render pipelines on first use and keeps them until
// one of the objects they were built from is destroyed.
//
// All pipelines share one empty pipeline layout: the overlay programs bind
// no resources.
type pipelineCache struct {
	device hal.Device
	layout hal.PipelineLayout
	pipes  map[pipelineKey]hal.RenderPipeline
}

func newPipelineCache(device hal.Device) *pipelineCache {
	return &pipelineCache{
		device: device,
		pipes:  make(map[pipelineKey]hal.RenderPipeline),
	}
}

func (pc *pipelineCache) len() int { return len(pc.pipes) }

// get returns the pipeline for key, creating it if needed.
func (pc *pipelineCache) get(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := pc.pipes[key]; ok {
		return p, nil
	}
	if pc.layout == nil {
		layout, err := pc.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label: "overlay_pipe_layout",
		})
		if err != nil {
			return nil, fmt.Errorf("create overlay pipeline layout: %w", err)
		}
		pc.layout = layout
	}

	buffers := key.layout.layout
	buffers.ArrayStride = uint64(key.stride)

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := pc.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "overlay_pipeline",
		Layout: pc.layout,
		Vertex: hal.VertexState{
			Module:     key.vs.module,
			EntryPoint: key.vs.entryPoint(),
			Buffers:    []gputypes.VertexBufferLayout{buffers},
		},
		Fragment: &hal.FragmentState{
			Module:     key.ps.module,
			EntryPoint: key.ps.entryPoint(),
			Targets: []gputypes.ColorTargetState{
				{
					Format:    key.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: key.topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create overlay pipeline: %w", err)
	}
	pc.pipes[key] = pipeline
	slogger().Debug("wgpu: pipeline created", "pipelines", len(pc.pipes))
	return pipeline, nil
}

// evict destroys every pipeline built from obj, a *Shader or *InputLayout.
func (pc *pipelineCache) evict(obj any) {
	for key, p := range pc.pipes {
		if any(key.vs) == obj || any(key.ps) == obj || any(key.layout) == obj {
			pc.device.DestroyRenderPipeline(p)
			delete(pc.pipes, key)
		}
	}
}

// destroy releases all pipelines and the shared layout.
func (pc *pipelineCache) destroy() {
	for key, p := range pc.pipes {
		pc.device.DestroyRenderPipeline(p)
		delete(pc.pipes, key)
	}
	if pc.layout != nil {
		pc.device.DestroyPipelineLayout(pc.layout)
		pc.layout = nil
	}
}
