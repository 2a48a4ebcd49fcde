package wgpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay/gpucore"
)

// copyPitchAlignment is the row alignment of texture-to-buffer copies.
const copyPitchAlignment = 256

// SwapChain is an offscreen RGBA8 back buffer bound as the device's render
// target.
type SwapChain struct {
	dev      *Device
	tex      hal.Texture
	view     hal.TextureView
	width    uint32
	height   uint32
	presents int
}

// NewSwapChain creates a width x height back buffer, binds it as the render
// target of dev's immediate context and sets a matching viewport.
func NewSwapChain(dev *Device, width, height int) (*SwapChain, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: swap chain size %dx%d", gpucore.ErrResourceUnavailable, width, height)
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // G115: checked positive

	tex, err := dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "overlay_back_buffer",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create back buffer: %w", gpucore.ErrResourceUnavailable, err)
	}
	view, err := dev.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "overlay_back_buffer_view",
	})
	if err != nil {
		dev.device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: create back buffer view: %w", gpucore.ErrResourceUnavailable, err)
	}

	sc := &SwapChain{dev: dev, tex: tex, view: view, width: w, height: h}
	dev.ctx.SetRenderTarget(view, gputypes.TextureFormatRGBA8Unorm)
	dev.ctx.SetViewports(gpucore.Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1})
	return sc, nil
}

// Device returns the swap chain's device with a reference added.
func (s *SwapChain) Device() (gpucore.Device, error) {
	s.dev.AddRef()
	return s.dev, nil
}

// Size returns the back buffer size.
func (s *SwapChain) Size() (int, int) { return int(s.width), int(s.height) }

// Present counts a presented frame. The back buffer stays offscreen.
func (s *SwapChain) Present(_, _ uint32) error {
	s.presents++
	return nil
}

// Presents returns the number of presented frames.
func (s *SwapChain) Presents() int { return s.presents }

// ReadPixels copies the back buffer to the CPU.
func (s *SwapChain) ReadPixels() (*image.RGBA, error) {
	device := s.dev.device
	bytesPerRow := s.width * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(s.height)

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "overlay_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	err = s.dev.run("overlay_readback", func(encoder hal.CommandEncoder) {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: s.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		encoder.CopyTextureToBuffer(s.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: s.height},
			TextureBase:  hal.ImageCopyTexture{Texture: s.tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: s.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	})
	if err != nil {
		return nil, err
	}

	mapping, err := device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	readback := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)

	img := image.NewRGBA(image.Rect(0, 0, int(s.width), int(s.height)))
	for row := 0; row < int(s.height); row++ {
		src := readback[row*int(alignedBytesPerRow):]
		copy(img.Pix[row*img.Stride:(row+1)*img.Stride], src[:bytesPerRow])
	}
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap readback buffer: %w", err)
	}
	return img, nil
}

// Destroy unbinds the back buffer and frees it.
func (s *SwapChain) Destroy() {
	if s.view == nil {
		return
	}
	if t := s.dev.ctx.target; t != nil && t.view == s.view {
		s.dev.ctx.target = nil
	}
	s.dev.device.DestroyTextureView(s.view)
	s.dev.device.DestroyTexture(s.tex)
	s.view, s.tex = nil, nil
}
