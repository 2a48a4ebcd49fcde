package overlay

import "errors"

// Renderer and hook errors.
var (
	// ErrNilSource is returned by New for a Source without a device.
	ErrNilSource = errors.New("overlay: source has no device")

	// ErrInvalidOption is returned by New for out-of-range options.
	ErrInvalidOption = errors.New("overlay: invalid option")

	// ErrNotReady is returned when the renderer's GPU objects could not be
	// created.
	ErrNotReady = errors.New("overlay: renderer not ready")

	// ErrAlreadyBegun is returned by Begin inside a frame.
	ErrAlreadyBegun = errors.New("overlay: frame already begun")

	// ErrNotBegun is returned by draws, Flush and End outside a frame.
	ErrNotBegun = errors.New("overlay: frame not begun")

	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("overlay: renderer closed")

	// ErrNoViewport is the skip cause when no viewport was ever bound.
	ErrNoViewport = errors.New("overlay: no viewport")

	// ErrFrameSkipped is returned for a frame whose geometry was discarded.
	// It wraps the first failure of the frame.
	ErrFrameSkipped = errors.New("overlay: frame skipped")

	// ErrStateSaved is returned by Backup while a snapshot is held.
	ErrStateSaved = errors.New("overlay: pipeline state already saved")

	// ErrStateNotSaved is returned by Restore without a snapshot.
	ErrStateNotSaved = errors.New("overlay: pipeline state not saved")
)
