package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/backend/soft"
)

func TestDefaultScene(t *testing.T) {
	s := DefaultScene()
	if len(s.Shapes) != 3 {
		t.Fatalf("shapes = %d, want 3", len(s.Shapes))
	}
	kinds := []string{"box", "line", "filled"}
	for i, sh := range s.Shapes {
		if sh.Kind != kinds[i] {
			t.Errorf("shape %d kind = %q, want %q", i, sh.Kind, kinds[i])
		}
	}
	if c := s.Shapes[1].color(); c != overlay.Blue {
		t.Errorf("line color = %v, want %v", c, overlay.Blue)
	}
}

func TestParseSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"unknown kind", "[[shape]]\nkind = \"circle\"\npos = [1.0, 2.0]\ncolor = [1.0, 1.0, 1.0]\n"},
		{"line without end", "[[shape]]\nkind = \"line\"\npos = [1.0, 2.0]\ncolor = [1.0, 1.0, 1.0]\n"},
		{"box without size", "[[shape]]\nkind = \"box\"\npos = [1.0, 2.0]\ncolor = [1.0, 1.0, 1.0]\n"},
		{"short color", "[[shape]]\nkind = \"line\"\npos = [1.0, 2.0]\nend = [3.0, 4.0]\ncolor = [1.0]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScene(strings.NewReader(tt.toml)); !errors.Is(err, errBadShape) {
				t.Errorf("ParseScene err = %v, want errBadShape", err)
			}
		})
	}

	if _, err := ParseScene(strings.NewReader("[[shape]]\nradius = 3\n")); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestSceneDraw(t *testing.T) {
	dev := soft.NewDevice()
	sc := soft.NewSwapChain(dev, 256, 256)
	r, err := overlay.New(overlay.FromSwapChain(sc), overlay.WithShaders([]byte("vs"), []byte("ps")))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	if err := r.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := DefaultScene().Draw(r); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if err := r.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if got := len(dev.Context().Draws()); got != 3 {
		t.Errorf("draws = %d, want 3", got)
	}
}

func TestRunSoft(t *testing.T) {
	out := t.TempDir() + "/overlay.png"
	logger := newLogger("", false)
	if err := run(logger, backend.NameSoft, 128, 128, 2, "", out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}
