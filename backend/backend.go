package backend

import (
	"errors"
	"image"

	"github.com/gogpu/overlay/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested host is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrClosed is returned by hosts used after Close.
	ErrClosed = errors.New("backend: host closed")
)

// Host name constants.
const (
	// NameSoft is the name of the software host.
	NameSoft = "soft"
	// NameWGPU is the name of the gogpu/wgpu HAL host.
	NameWGPU = "wgpu"
)

// Host is an application the overlay draws into.
type Host interface {
	// Name returns the host identifier (e.g. "soft", "wgpu").
	Name() string

	// Size returns the back buffer size in pixels.
	Size() (width, height int)

	// SwapChain returns the host's swap chain.
	SwapChain() gpucore.SwapChain

	// RenderFrame renders the host's own content for one frame and leaves
	// the host's pipeline state bound, as a real application would right
	// before presenting.
	RenderFrame(frame int) error

	// Bindings describes the binding state of the host's immediate context.
	// Two calls return the same string only if the bindings are identical.
	Bindings() string

	// Present presents the back buffer. It is the function an overlay hook
	// forwards to.
	Present(syncInterval, flags uint32) error

	// Snapshot returns the last presented image, or nil if the host cannot
	// read back.
	Snapshot() image.Image

	// Close releases the host's resources.
	Close() error
}

// HostFactory creates a host with a back buffer of the given size.
type HostFactory func(width, height int) (Host, error)
