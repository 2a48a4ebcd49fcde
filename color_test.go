package overlay

import (
	"image/color"
	"testing"
)

func TestColorNRGBA(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		want color.NRGBA
	}{
		{"black", Black, color.NRGBA{A: 255}},
		{"white", White, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"half red", RGBA(1, 0, 0, 0.5), color.NRGBA{R: 255, A: 128}},
		{"out of range", RGBA(2, -1, 0.5, 1), color.NRGBA{R: 255, G: 0, B: 128, A: 255}},
		{"transparent", Transparent, color.NRGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.NRGBA(); got != tt.want {
				t.Errorf("NRGBA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorClamped(t *testing.T) {
	got := RGBA(1.5, -0.25, 0.25, 3).Clamped()
	if want := RGBA(1, 0, 0.25, 1); got != want {
		t.Errorf("Clamped() = %v, want %v", got, want)
	}
}

func TestRGB(t *testing.T) {
	if got := RGB(0.1, 0.2, 0.3); got.A != 1 {
		t.Errorf("RGB alpha = %v, want 1", got.A)
	}
}

func TestColorString(t *testing.T) {
	if got, want := Red.String(), "rgba(1, 0, 0, 1)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
