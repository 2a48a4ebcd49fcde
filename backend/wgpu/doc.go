// Package wgpu implements the gpucore contract on a gogpu/wgpu HAL device.
//
// The binding state of the immediate context is kept on the CPU with the
// same reference semantics as the software backend: setters retain, getters
// add a reference, and an object is destroyed on the HAL device when its
// count reaches zero. Draw turns the bound state into a render pipeline
// (cached per shader pair, layout, topology, stride and target format) and
// submits one render pass that loads and stores the bound target.
//
// # Devices
//
// A Device wraps a HAL device and queue. Use [NewDevice] with HAL objects
// you own, or [NewDeviceFromProvider] with a gpucontext.DeviceProvider that
// exposes HalDevice() and HalQueue(), such as a gogpu application.
//
// # Differences from the software backend
//
//   - Shader blobs must be SPIR-V. internal/shader produces them from the
//     overlay WGSL sources with naga.
//   - Class instances do not exist; bindings carry them only so they can be
//     saved and restored.
//   - Constant buffers are binding state only. The overlay programs read no
//     uniforms, so pipelines are created with an empty layout.
//   - Map returns a CPU staging slice; Unmap uploads it with
//     Queue.WriteBuffer and reports a failed upload.
//   - Every pass is submitted on its own and waited for by polling the
//     queue's completed submission index, bounded by [ErrTimeout].
//
// # Headless host
//
// The package registers a "wgpu" backend host that runs on the HAL noop
// device. It exercises pipeline creation, submission and read-back without
// a GPU.
package wgpu
