// Command overlaydemo draws an overlay scene over a simulated application.
//
// The host renders its own frame, then presents through an overlay hook
// that draws the scene on top and restores the host's pipeline state. The
// last frame is written as a PNG.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	_ "github.com/gogpu/overlay/backend/soft"
	_ "github.com/gogpu/overlay/backend/wgpu"
	"github.com/gogpu/overlay/gpucore"
)

func main() {
	var (
		hostName  = flag.String("backend", "", "host backend (soft, wgpu); empty picks the default")
		width     = flag.Int("width", 256, "back buffer width")
		height    = flag.Int("height", 256, "back buffer height")
		frames    = flag.Int("frames", 3, "number of frames to present")
		scenePath = flag.String("scene", "", "TOML scene file; empty uses the built-in scene")
		output    = flag.String("out", "overlay.png", "output PNG file; empty skips writing")
		logFile   = flag.String("logfile", "", "rotate logs into this file instead of stderr")
		verbose   = flag.Bool("v", false, "log per-frame diagnostics")
	)
	flag.Parse()

	logger := newLogger(*logFile, *verbose)
	overlay.SetLogger(logger)

	if err := run(logger, *hostName, *width, *height, *frames, *scenePath, *output); err != nil {
		logger.Error("overlaydemo failed", "err", err)
		fmt.Fprintln(os.Stderr, "overlaydemo:", err)
		os.Exit(1)
	}
}

func newLogger(path string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    16, // MB
			MaxBackups: 2,
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(logger *slog.Logger, hostName string, width, height, frames int, scenePath, output string) error {
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}

	var host backend.Host
	if hostName == "" {
		host, err = backend.Default(width, height)
	} else {
		host, err = backend.Get(hostName, width, height)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			logger.Error("host close", "err", err)
		}
	}()
	logger.Info("host ready", "backend", host.Name(), "available", backend.Available())

	present := func(_ gpucore.SwapChain, syncInterval, flags uint32) error {
		return host.Present(syncInterval, flags)
	}
	hook := overlay.NewHook(present, scene.Draw)
	defer hook.Close()

	for frame := range frames {
		if err := host.RenderFrame(frame); err != nil {
			return fmt.Errorf("frame %d: host render: %w", frame, err)
		}
		before := host.Bindings()
		if err := hook.Present(host.SwapChain(), 1, 0); err != nil {
			return fmt.Errorf("frame %d: present: %w", frame, err)
		}
		if after := host.Bindings(); after != before {
			return fmt.Errorf("frame %d: host state not restored:\n before %s\n after  %s", frame, before, after)
		}
	}
	if err := hook.Err(); err != nil {
		return err
	}
	if r := hook.Renderer(); r != nil {
		logger.Info("overlay done",
			"frames", hook.Frames(),
			"skipped", hook.SkippedFrames(),
			"last", r.Stats().String())
	}

	if output == "" {
		return nil
	}
	return writePNG(host, output, logger)
}

func loadScene(path string) (*Scene, error) {
	if path == "" {
		return DefaultScene(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseScene(f)
}

func writePNG(host backend.Host, path string, logger *slog.Logger) error {
	img := host.Snapshot()
	if img == nil {
		logger.Warn("host cannot read back, no image written", "backend", host.Name())
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("image written", "path", path)
	return nil
}
