package overlay

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/overlay/gpucore"
)

// Vertex is one overlay vertex: a position in normalized device coordinates
// and a color. Its encoding is the gpucore vertex layout.
type Vertex struct {
	Pos   Vec2
	Color Color
}

// Batch is a run of consecutive vertices drawn with one topology.
type Batch struct {
	Count    uint32
	Topology gputypes.PrimitiveTopology
}

// vertexCodec encodes a Vertex as six little-endian float32 values.
type vertexCodec struct{}

func (vertexCodec) Size() int { return gpucore.VertexStride }

func (vertexCodec) Encode(dst []byte, v Vertex) {
	putFloat(dst[0:], v.Pos.X)
	putFloat(dst[4:], v.Pos.Y)
	putFloat(dst[8:], v.Color.R)
	putFloat(dst[12:], v.Color.G)
	putFloat(dst[16:], v.Color.B)
	putFloat(dst[20:], v.Color.A)
}

func (vertexCodec) Decode(src []byte) Vertex {
	return Vertex{
		Pos: Vec2{X: getFloat(src[0:]), Y: getFloat(src[4:])},
		Color: Color{
			R: getFloat(src[8:]),
			G: getFloat(src[12:]),
			B: getFloat(src[16:]),
			A: getFloat(src[20:]),
		},
	}
}

// batchCodec encodes a Batch as two little-endian uint32 values.
type batchCodec struct{}

func (batchCodec) Size() int { return 8 }

func (batchCodec) Encode(dst []byte, b Batch) {
	binary.LittleEndian.PutUint32(dst[0:], b.Count)
	binary.LittleEndian.PutUint32(dst[4:], uint32(b.Topology))
}

func (batchCodec) Decode(src []byte) Batch {
	return Batch{
		Count:    binary.LittleEndian.Uint32(src[0:]),
		Topology: gputypes.PrimitiveTopology(binary.LittleEndian.Uint32(src[4:])),
	}
}

func putFloat(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func getFloat(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}
