package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/overlay"
)

// Scene is the overlay content drawn every frame.
//
// Example:
//
//	[[shape]]
//	kind  = "box"
//	pos   = [50.0, 50.0]
//	size  = [50.0, 50.0]
//	color = [1.0, 0.0, 0.0, 1.0]
//
//	[[shape]]
//	kind  = "line"
//	pos   = [50.0, 125.0]
//	end   = [100.0, 125.0]
//	color = [0.0, 0.0, 1.0, 1.0]
type Scene struct {
	Shapes []Shape `toml:"shape"`
}

// Shape is one scene entry. Kind is "line", "box" or "filled".
type Shape struct {
	Kind  string    `toml:"kind"`
	Pos   []float32 `toml:"pos"`
	Size  []float32 `toml:"size"`
	End   []float32 `toml:"end"`
	Color []float32 `toml:"color"`
}

// defaultScene is an outlined box, a line under it and a filled box below.
const defaultScene = `
[[shape]]
kind  = "box"
pos   = [50.0, 50.0]
size  = [50.0, 50.0]
color = [1.0, 0.0, 0.0, 1.0]

[[shape]]
kind  = "line"
pos   = [50.0, 125.0]
end   = [100.0, 125.0]
color = [0.0, 0.0, 1.0, 1.0]

[[shape]]
kind  = "filled"
pos   = [50.0, 150.0]
size  = [50.0, 50.0]
color = [1.0, 0.0, 0.0, 1.0]
`

var errBadShape = errors.New("overlaydemo: bad shape")

// DefaultScene returns the built-in scene.
func DefaultScene() *Scene {
	s, err := ParseScene(bytes.NewReader([]byte(defaultScene)))
	if err != nil {
		panic(err)
	}
	return s
}

// ParseScene decodes and validates a TOML scene.
func ParseScene(r io.Reader) (*Scene, error) {
	var s Scene
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	for i, sh := range s.Shapes {
		if err := sh.validate(); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return &s, nil
}

func (sh Shape) validate() error {
	if len(sh.Pos) != 2 {
		return fmt.Errorf("%w: pos needs 2 values, has %d", errBadShape, len(sh.Pos))
	}
	if len(sh.Color) != 4 && len(sh.Color) != 3 {
		return fmt.Errorf("%w: color needs 3 or 4 values, has %d", errBadShape, len(sh.Color))
	}
	switch sh.Kind {
	case "line":
		if len(sh.End) != 2 {
			return fmt.Errorf("%w: line needs end = [x, y]", errBadShape)
		}
	case "box", "filled":
		if len(sh.Size) != 2 {
			return fmt.Errorf("%w: %s needs size = [w, h]", errBadShape, sh.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", errBadShape, sh.Kind)
	}
	return nil
}

func (sh Shape) color() overlay.Color {
	c := overlay.RGB(sh.Color[0], sh.Color[1], sh.Color[2])
	if len(sh.Color) == 4 {
		c.A = sh.Color[3]
	}
	return c
}

// Draw draws every shape in order.
func (s *Scene) Draw(r *overlay.Renderer) error {
	for _, sh := range s.Shapes {
		pos := overlay.V2(sh.Pos[0], sh.Pos[1])
		var err error
		switch sh.Kind {
		case "line":
			err = r.DrawLine(pos, overlay.V2(sh.End[0], sh.End[1]), sh.color())
		case "box":
			err = r.DrawBox(pos, overlay.V2(sh.Size[0], sh.Size[1]), sh.color())
		case "filled":
			err = r.DrawFilledBox(pos, overlay.V2(sh.Size[0], sh.Size[1]), sh.color())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
