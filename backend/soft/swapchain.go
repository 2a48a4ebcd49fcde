// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"image"

	"github.com/gogpu/overlay/gpucore"
)

// SwapChain presents an RGBA back buffer.
type SwapChain struct {
	dev      *Device
	back     *image.RGBA
	presents int
}

// NewSwapChain creates a swap chain on dev and binds its back buffer as the
// context's render target, with a viewport covering it.
func NewSwapChain(dev *Device, width, height int) *SwapChain {
	sc := &SwapChain{
		dev:  dev,
		back: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	dev.ctx.SetRenderTarget(sc.back)
	dev.ctx.SetViewports(gpucore.Viewport{
		Width:    float32(width),
		Height:   float32(height),
		MaxDepth: 1,
	})
	return sc
}

// Device returns the owning device with one reference added.
func (s *SwapChain) Device() (gpucore.Device, error) {
	s.dev.AddRef()
	return s.dev, nil
}

// BackBuffer returns the back buffer image.
func (s *SwapChain) BackBuffer() *image.RGBA { return s.back }

// Present counts a presented frame.
func (s *SwapChain) Present(syncInterval, flags uint32) error {
	s.presents++
	slogger().Debug("soft: present", "frame", s.presents, "sync", syncInterval, "flags", flags)
	return nil
}

// Presents returns the number of presented frames.
func (s *SwapChain) Presents() int { return s.presents }
