// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader holds the overlay's two fixed GPU programs and compiles
// them to SPIR-V blobs with naga.
//
// The vertex stage passes position and color through, the pixel stage
// outputs the interpolated color. Positions are already in normalized device
// coordinates when they reach the GPU.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

//go:embed shaders/overlay_vs.wgsl
var vertexSource string

//go:embed shaders/overlay_fs.wgsl
var fragmentSource string

// Entry point names of the two programs.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// ErrCompile is returned when a program fails to compile.
var ErrCompile = errors.New("shader: compilation failed")

// Blobs are the compiled programs.
type Blobs struct {
	Vertex []byte
	Pixel  []byte
}

var (
	compileMu sync.Mutex
	compiled  *Blobs
)

// Compile returns the compiled overlay programs. The first successful result
// is cached; a failure is retried on the next call.
func Compile() (Blobs, error) {
	compileMu.Lock()
	defer compileMu.Unlock()

	if compiled != nil {
		return *compiled, nil
	}

	vs, err := CompileSource("overlay_vs", vertexSource)
	if err != nil {
		return Blobs{}, err
	}
	ps, err := CompileSource("overlay_fs", fragmentSource)
	if err != nil {
		return Blobs{}, err
	}
	compiled = &Blobs{Vertex: vs, Pixel: ps}
	return *compiled, nil
}

// CompileSource compiles one WGSL program to SPIR-V bytes.
func CompileSource(name, wgsl string) ([]byte, error) {
	spirv, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	return spirv, nil
}

// VertexSource returns the WGSL source of the vertex program.
func VertexSource() string { return vertexSource }

// FragmentSource returns the WGSL source of the pixel program.
func FragmentSource() string { return fragmentSource }

// Words converts SPIR-V bytes to the little-endian 32-bit words HAL shader
// modules take.
func Words(blob []byte) ([]uint32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V blob length %d is not a positive multiple of 4", len(blob))
	}
	words := make([]uint32, len(blob)/4)
	for i := range words {
		words[i] = uint32(blob[i*4]) |
			uint32(blob[i*4+1])<<8 |
			uint32(blob[i*4+2])<<16 |
			uint32(blob[i*4+3])<<24
	}
	return words, nil
}

// IsSPIRV reports whether blob starts with the SPIR-V magic number.
func IsSPIRV(blob []byte) bool {
	words, err := Words(blob)
	return err == nil && words[0] == SPIRVMagic
}
