// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Refs holds references acquired along one code path and releases them
// together. The zero value is ready to use.
//
//	var refs gpucore.Refs
//	defer refs.Release()
//	refs.Hold(ctx.InputLayout())
type Refs struct {
	objs []Object
}

// Hold takes ownership of one reference to o. Nil is ignored.
func (r *Refs) Hold(o Object) {
	if o == nil {
		return
	}
	r.objs = append(r.objs, o)
}

// HoldBinding takes ownership of the references in a shader binding.
func (r *Refs) HoldBinding(b ShaderBinding) {
	if b.Shader != nil {
		r.Hold(b.Shader)
	}
	for _, inst := range b.Instances {
		if inst != nil {
			r.Hold(inst)
		}
	}
}

// Len returns the number of references held.
func (r *Refs) Len() int { return len(r.objs) }

// Release releases every held reference in reverse order of acquisition.
// It is safe to call more than once.
func (r *Refs) Release() {
	for i := len(r.objs) - 1; i >= 0; i-- {
		r.objs[i].Release()
		r.objs[i] = nil
	}
	r.objs = r.objs[:0]
}
