package overlay

import (
	"testing"

	"github.com/gogpu/overlay/gpucore"
)

func TestPixelToNDC(t *testing.T) {
	vp := gpucore.Viewport{Width: 640, Height: 480, MaxDepth: 1}
	offset := gpucore.Viewport{X: 100, Y: 50, Width: 200, Height: 100, MaxDepth: 1}

	tests := []struct {
		name string
		vp   gpucore.Viewport
		p    Vec2
		want Vec2
	}{
		{"centre", vp, V2(320, 240), V2(0, 0)},
		{"top left", vp, V2(0, 0), V2(-1, 1)},
		{"bottom right", vp, V2(640, 480), V2(1, -1)},
		{"quarter", vp, V2(160, 120), V2(-0.5, 0.5)},
		{"offset origin", offset, V2(100, 50), V2(-1, 1)},
		{"offset centre", offset, V2(200, 100), V2(0, 0)},
		{"outside", vp, V2(-320, 0), V2(-2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelToNDC(tt.p, tt.vp)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
				t.Errorf("PixelToNDC(%v) = %v, want %v", tt.p, got, tt.want)
			}
			back := NDCToPixel(got, tt.vp)
			if !near(back.X, tt.p.X) || !near(back.Y, tt.p.Y) {
				t.Errorf("NDCToPixel(%v) = %v, want %v", got, back, tt.p)
			}
		})
	}
}
