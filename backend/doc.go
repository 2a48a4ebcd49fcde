// Package backend provides a registry of overlay hosts.
//
// A host is the presentation side the overlay attaches to: it owns a swap
// chain and an immediate context, renders its own content each frame with
// its own pipeline state, and presents. The overlay draws between the host's
// rendering and its present, and must leave the host's bindings unchanged.
//
// # Host Registration
//
// Host implementations register a factory from an init() function and are
// selected at runtime:
//
//	import _ "github.com/gogpu/overlay/backend/soft"
//
//	host, err := backend.Default(800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer host.Close()
//
// # Available Hosts
//
//   - soft: software device rendering into an image, with exact binding
//     and reference-count tracking.
//   - wgpu: gogpu/wgpu HAL device. The registered factory opens a headless
//     device; real applications hand their own device to
//     backend/wgpu.NewSwapChain.
package backend
