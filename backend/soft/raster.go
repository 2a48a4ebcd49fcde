// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/vector"

	"github.com/gogpu/overlay/gpucore"
)

// point is a position in render-target pixels.
type point struct{ x, y float32 }

// rasterize draws one draw call into dst. All primitives of the call are
// accumulated into a single coverage mask and composited once with the color
// of the first vertex, so shared triangle edges do not blend twice.
func rasterize(dst *image.RGBA, vp gpucore.Viewport, topo gputypes.PrimitiveTopology, verts []Vertex) {
	if len(verts) == 0 || vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}

	pts := make([]point, len(verts))
	for i, v := range verts {
		pts[i] = point{
			x: clamp(vp.X+(v.X+1)*vp.Width/2, 0, float32(w)),
			y: clamp(vp.Y+(1-v.Y)*vp.Height/2, 0, float32(h)),
		}
	}

	z := vector.NewRasterizer(w, h)
	drawn := false
	switch topo {
	case gputypes.PrimitiveTopologyTriangleList:
		for i := 0; i+2 < len(pts); i += 3 {
			drawn = addTriangle(z, pts[i], pts[i+1], pts[i+2]) || drawn
		}
	case gputypes.PrimitiveTopologyTriangleStrip:
		for i := 0; i+2 < len(pts); i++ {
			drawn = addTriangle(z, pts[i], pts[i+1], pts[i+2]) || drawn
		}
	case gputypes.PrimitiveTopologyLineList:
		for i := 0; i+1 < len(pts); i += 2 {
			drawn = addLine(z, pts[i], pts[i+1]) || drawn
		}
	case gputypes.PrimitiveTopologyLineStrip:
		for i := 0; i+1 < len(pts); i++ {
			drawn = addLine(z, pts[i], pts[i+1]) || drawn
		}
	case gputypes.PrimitiveTopologyPointList:
		for _, p := range pts {
			addPoint(z, p)
		}
		drawn = true
	}
	if !drawn {
		return
	}

	src := image.NewUniform(toColor(verts[0].Color))
	z.Draw(dst, b, src, image.Point{})
}

// addTriangle adds a counter-clockwise triangle. Degenerate triangles are
// skipped.
func addTriangle(z *vector.Rasterizer, a, b, c point) bool {
	area := (b.x-a.x)*(c.y-a.y) - (c.x-a.x)*(b.y-a.y)
	if area == 0 {
		return false
	}
	if area < 0 {
		b, c = c, b
	}
	z.MoveTo(a.x, a.y)
	z.LineTo(b.x, b.y)
	z.LineTo(c.x, c.y)
	z.ClosePath()
	return true
}

// addLine adds a one-pixel-wide quad centred on the pixel centres the
// segment passes through.
func addLine(z *vector.Rasterizer, a, b point) bool {
	a = point{a.x + 0.5, a.y + 0.5}
	b = point{b.x + 0.5, b.y + 0.5}
	dx, dy := b.x-a.x, b.y-a.y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		addPoint(z, point{a.x - 0.5, a.y - 0.5})
		return true
	}
	// Half-pixel normal and half-pixel extension at both ends.
	nx, ny := -dy/length*0.5, dx/length*0.5
	ex, ey := dx/length*0.5, dy/length*0.5
	p0 := point{a.x - ex + nx, a.y - ey + ny}
	p1 := point{b.x + ex + nx, b.y + ey + ny}
	p2 := point{b.x + ex - nx, b.y + ey - ny}
	p3 := point{a.x - ex - nx, a.y - ey - ny}
	addTriangle(z, p0, p1, p2)
	addTriangle(z, p0, p2, p3)
	return true
}

// addPoint adds the pixel containing p.
func addPoint(z *vector.Rasterizer, p point) {
	x := float32(math.Floor(float64(p.x)))
	y := float32(math.Floor(float64(p.y)))
	z.MoveTo(x, y)
	z.LineTo(x+1, y)
	z.LineTo(x+1, y+1)
	z.LineTo(x, y+1)
	z.ClosePath()
}

func toColor(c [4]float32) color.NRGBA64 {
	ch := func(v float32) uint16 {
		return uint16(clamp(v, 0, 1)*0xffff + 0.5)
	}
	return color.NRGBA64{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
