package overlay

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// liveRenderers maps open renderers to their devices so SetLogger can reach
// them.
var (
	liveMu        sync.Mutex
	liveRenderers = make(map[*Renderer]any)
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for the overlay and the backends of all
// open renderers. By default, the overlay produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by the overlay:
//   - [slog.LevelDebug]: per-frame diagnostics (flushes, draw calls, viewport)
//   - [slog.LevelInfo]: lifecycle events (renderer created and closed)
//   - [slog.LevelWarn]: skipped frames and release errors
//   - [slog.LevelError]: a hook that could not construct its renderer
//
// Example:
//
//	overlay.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for _, dev := range liveRenderers {
		propagateLogger(dev, l)
	}
}

// Logger returns the current logger used by the overlay.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements the
// loggerSetter interface.
func propagateLogger(dev any, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// track registers an open renderer's device for logger propagation and
// hands it the current logger.
func track(r *Renderer) {
	liveMu.Lock()
	liveRenderers[r] = r.dev
	liveMu.Unlock()
	propagateLogger(r.dev, Logger())
}

func untrack(r *Renderer) {
	liveMu.Lock()
	delete(liveRenderers, r)
	liveMu.Unlock()
}
