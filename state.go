package overlay

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/gpucore"
)

// StateSaver captures the pipeline bindings the renderer overwrites and puts
// them back afterwards.
//
// Backup takes one reference to every object it reads; Restore rebinds all
// captured values in their original slots, empty ones included, and then
// drops those references. The context's reference counts are therefore the
// same after a Backup/Restore pair as before it.
//
// The zero value is ready to use.
type StateSaver struct {
	ctx   gpucore.Context
	saved bool

	topology  gputypes.PrimitiveTopology
	vs        gpucore.ShaderBinding
	ps        gpucore.ShaderBinding
	layout    gpucore.InputLayout
	constants gpucore.Buffer
	vertex    gpucore.VertexBufferBinding

	refs gpucore.Refs
}

// Saved reports whether a snapshot is held.
func (s *StateSaver) Saved() bool { return s.saved }

// Backup captures the primitive topology, both shader stages with their
// class instances, the input layout, vertex-stage constant buffer slot 0
// and vertex buffer slot 0 of ctx.
func (s *StateSaver) Backup(ctx gpucore.Context) error {
	if s.saved {
		return ErrStateSaved
	}
	s.ctx = ctx
	s.topology = ctx.PrimitiveTopology()

	s.vs = ctx.VertexShader()
	s.refs.HoldBinding(s.vs)
	s.ps = ctx.PixelShader()
	s.refs.HoldBinding(s.ps)

	s.layout = ctx.InputLayout()
	s.refs.Hold(s.layout)
	s.constants = ctx.ConstantBuffer(0)
	s.refs.Hold(s.constants)
	s.vertex = ctx.VertexBuffer(0)
	s.refs.Hold(s.vertex.Buffer)

	s.saved = true
	return nil
}

// Restore rebinds the captured state and releases the snapshot.
func (s *StateSaver) Restore() error {
	if !s.saved {
		return ErrStateNotSaved
	}
	ctx := s.ctx
	ctx.SetPrimitiveTopology(s.topology)
	ctx.SetVertexShader(s.vs)
	ctx.SetPixelShader(s.ps)
	ctx.SetInputLayout(s.layout)
	ctx.SetConstantBuffer(0, s.constants)
	ctx.SetVertexBuffer(0, s.vertex)

	s.refs.Release()
	*s = StateSaver{refs: s.refs}
	return nil
}
