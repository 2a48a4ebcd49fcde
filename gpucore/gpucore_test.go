// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"testing"

	"github.com/gogpu/gputypes"
)

// countedObject records releases in a shared log.
type countedObject struct {
	name string
	refs uint32
	log  *[]string
}

func (o *countedObject) AddRef() uint32 { o.refs++; return o.refs }

func (o *countedObject) Release() uint32 {
	o.refs--
	*o.log = append(*o.log, o.name)
	return o.refs
}

func (o *countedObject) Stage() Stage { return StageVertex }

func (o *countedObject) Name() string { return o.name }

func TestRefsReleasesInReverseOrder(t *testing.T) {
	var log []string
	a := &countedObject{name: "a", refs: 1, log: &log}
	b := &countedObject{name: "b", refs: 1, log: &log}

	var refs Refs
	refs.Hold(a)
	refs.Hold(nil)
	refs.Hold(b)
	if refs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", refs.Len())
	}

	refs.Release()
	if len(log) != 2 || log[0] != "b" || log[1] != "a" {
		t.Errorf("release order = %v, want [b a]", log)
	}

	refs.Release()
	if len(log) != 2 {
		t.Errorf("second Release released again: %v", log)
	}
}

func TestRefsHoldBinding(t *testing.T) {
	var log []string
	sh := &countedObject{name: "shader", refs: 1, log: &log}
	inst := &countedObject{name: "inst", refs: 1, log: &log}

	var refs Refs
	refs.HoldBinding(ShaderBinding{Shader: sh, Instances: []ClassInstance{inst, nil}})
	refs.HoldBinding(ShaderBinding{})
	if refs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", refs.Len())
	}
	refs.Release()
	if sh.refs != 0 || inst.refs != 0 {
		t.Errorf("refs after Release = %d/%d, want 0/0", sh.refs, inst.refs)
	}
}

func TestVertexLayout(t *testing.T) {
	l := VertexLayout()
	if l.ArrayStride != VertexStride {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, VertexStride)
	}
	if len(l.Attributes) != 2 {
		t.Fatalf("attributes = %d, want 2", len(l.Attributes))
	}
	pos, col := l.Attributes[0], l.Attributes[1]
	if pos.Format != gputypes.VertexFormatFloat32x2 || pos.Offset != 0 || pos.ShaderLocation != LocationPosition {
		t.Errorf("position attribute = %+v", pos)
	}
	if col.Format != gputypes.VertexFormatFloat32x4 || col.Offset != 8 || col.ShaderLocation != LocationColor {
		t.Errorf("color attribute = %+v", col)
	}
}

func TestTopologyName(t *testing.T) {
	tests := []struct {
		topo gputypes.PrimitiveTopology
		want string
	}{
		{gputypes.PrimitiveTopologyPointList, "point-list"},
		{gputypes.PrimitiveTopologyLineList, "line-list"},
		{gputypes.PrimitiveTopologyLineStrip, "line-strip"},
		{gputypes.PrimitiveTopologyTriangleStrip, "triangle-strip"},
	}
	for _, tt := range tests {
		if got := TopologyName(tt.topo); got != tt.want {
			t.Errorf("TopologyName(%v) = %q, want %q", tt.topo, got, tt.want)
		}
	}
}

func TestStageString(t *testing.T) {
	if StageVertex.String() != "vertex" || StagePixel.String() != "pixel" {
		t.Errorf("stage names = %q, %q", StageVertex, StagePixel)
	}
}
