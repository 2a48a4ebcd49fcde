package overlay

import "github.com/gogpu/overlay/gpucore"

// PixelToNDC maps a pixel position inside vp to normalized device
// coordinates. The viewport centre maps to (0, 0) and its top-left corner
// to (-1, 1).
func PixelToNDC(p Vec2, vp gpucore.Viewport) Vec2 {
	return Vec2{
		X: (p.X-vp.X)/(vp.Width/2) - 1,
		Y: 1 - (p.Y-vp.Y)/(vp.Height/2),
	}
}

// NDCToPixel is the inverse of PixelToNDC.
func NDCToPixel(p Vec2, vp gpucore.Viewport) Vec2 {
	return Vec2{
		X: vp.X + (p.X+1)*vp.Width/2,
		Y: vp.Y + (1-p.Y)*vp.Height/2,
	}
}
