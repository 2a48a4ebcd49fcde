// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "github.com/gogpu/gputypes"

// VertexStride is the size in bytes of one overlay vertex.
const VertexStride = 24

// Shader locations of the overlay vertex attributes.
const (
	LocationPosition = 0
	LocationColor    = 1
)

// VertexLayout returns the input layout of the overlay vertex format.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: LocationPosition},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: LocationColor},
		},
	}
}

// TopologyName returns a short name for the overlay topologies.
func TopologyName(t gputypes.PrimitiveTopology) string {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return "point-list"
	case gputypes.PrimitiveTopologyLineList:
		return "line-list"
	case gputypes.PrimitiveTopologyLineStrip:
		return "line-strip"
	case gputypes.PrimitiveTopologyTriangleList:
		return "triangle-list"
	case gputypes.PrimitiveTopologyTriangleStrip:
		return "triangle-strip"
	default:
		return "unknown"
	}
}
