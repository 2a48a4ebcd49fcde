package overlay

import (
	"errors"
	"testing"

	"github.com/gogpu/overlay/backend/soft"
	"github.com/gogpu/overlay/gpucore"
)

// presentRecorder forwards to a soft host and counts calls.
type presentRecorder struct {
	host  *soft.Host
	calls int
	err   error
}

func (p *presentRecorder) present(_ gpucore.SwapChain, syncInterval, flags uint32) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	return p.host.Present(syncInterval, flags)
}

func drawScene(r *Renderer) error {
	return errors.Join(
		r.DrawBox(V2(10, 10), V2(20, 20), Red),
		r.DrawLine(V2(10, 40), V2(30, 40), Blue),
		r.DrawFilledBox(V2(10, 50), V2(20, 20), Red),
	)
}

func TestHookDrawsAndForwards(t *testing.T) {
	host := newTestHost(t)
	rec := &presentRecorder{host: host}
	hook := NewHook(rec.present, drawScene, WithShaders(testVS, testPS))

	host.Device().Context().ResetDraws()
	var first *Renderer
	for frame := range 3 {
		if err := host.RenderFrame(frame); err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
		before := host.Bindings()
		if err := hook.Present(host.SwapChain(), 1, 0); err != nil {
			t.Fatalf("frame %d: Present failed: %v", frame, err)
		}
		if after := host.Bindings(); after != before {
			t.Errorf("frame %d: bindings changed:\n got %s\nwant %s", frame, after, before)
		}
		if first == nil {
			first = hook.Renderer()
		} else if hook.Renderer() != first {
			t.Errorf("frame %d: renderer was reconstructed", frame)
		}
	}

	if rec.calls != 3 {
		t.Errorf("original present calls = %d, want 3", rec.calls)
	}
	if hook.Frames() != 3 || hook.SkippedFrames() != 0 {
		t.Errorf("Frames = %d, SkippedFrames = %d, want 3 and 0", hook.Frames(), hook.SkippedFrames())
	}
	if got := first.Stats().DrawCalls; got != 3 {
		t.Errorf("last frame draw calls = %d, want 3", got)
	}
	// Backdrop plus three overlay shapes per frame.
	if got := len(host.Device().Context().Draws()); got != 3*4 {
		t.Errorf("draws = %d, want %d", got, 3*4)
	}
	if err := hook.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestHookConstructionFailureDisablesOverlay(t *testing.T) {
	host := newTestHost(t)
	rec := &presentRecorder{host: host}
	drawn := 0
	hook := NewHook(rec.present, func(*Renderer) error {
		drawn++
		return nil
	}, WithShaders(testVS, testPS))

	host.Device().FailCreate(errors.New("out of memory"))
	for range 2 {
		if err := hook.Present(host.SwapChain(), 0, 0); err != nil {
			t.Fatalf("Present failed: %v", err)
		}
	}
	// Construction is not retried once the fault clears.
	host.Device().FailCreate(nil)
	if err := hook.Present(host.SwapChain(), 0, 0); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	if rec.calls != 3 {
		t.Errorf("original present calls = %d, want 3", rec.calls)
	}
	if !errors.Is(hook.Err(), ErrNotReady) || !errors.Is(hook.Err(), gpucore.ErrResourceUnavailable) {
		t.Errorf("Err = %v, want ErrNotReady wrapping ErrResourceUnavailable", hook.Err())
	}
	if hook.Renderer() != nil || hook.Frames() != 0 || drawn != 0 {
		t.Errorf("disabled hook drew: renderer=%v frames=%d drawn=%d", hook.Renderer(), hook.Frames(), drawn)
	}
}

func TestHookDrawErrorSkipsFrame(t *testing.T) {
	host := newTestHost(t)
	rec := &presentRecorder{host: host}
	boom := errors.New("boom")
	hook := NewHook(rec.present, func(*Renderer) error { return boom }, WithShaders(testVS, testPS))
	defer hook.Close()

	before := host.Bindings()
	if err := hook.Present(host.SwapChain(), 0, 0); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if hook.SkippedFrames() != 1 {
		t.Errorf("SkippedFrames = %d, want 1", hook.SkippedFrames())
	}
	if rec.calls != 1 {
		t.Errorf("original present calls = %d, want 1", rec.calls)
	}
	if host.Bindings() != before {
		t.Error("bindings not restored after a failed draw")
	}
}

func TestHookReturnsOriginalError(t *testing.T) {
	host := newTestHost(t)
	occluded := errors.New("occluded")
	rec := &presentRecorder{host: host, err: occluded}
	hook := NewHook(rec.present, drawScene, WithShaders(testVS, testPS))
	defer hook.Close()

	if err := hook.Present(host.SwapChain(), 1, 0); !errors.Is(err, occluded) {
		t.Errorf("Present err = %v, want %v", err, occluded)
	}
	if hook.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", hook.Frames())
	}
}

func TestHookClose(t *testing.T) {
	host := newTestHost(t)
	rec := &presentRecorder{host: host}
	hook := NewHook(rec.present, drawScene, WithShaders(testVS, testPS))

	if err := hook.Close(); err != nil {
		t.Fatalf("Close before any frame failed: %v", err)
	}
	if err := hook.Present(host.SwapChain(), 0, 0); err != nil {
		t.Fatalf("Present after Close failed: %v", err)
	}
	if rec.calls != 1 || hook.Frames() != 0 || hook.Renderer() != nil {
		t.Errorf("closed hook: calls=%d frames=%d renderer=%v", rec.calls, hook.Frames(), hook.Renderer())
	}
	if err := hook.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestHookNilOriginal(t *testing.T) {
	host := newTestHost(t)
	hook := NewHook(nil, drawScene, WithShaders(testVS, testPS))
	defer hook.Close()

	if err := hook.Present(host.SwapChain(), 0, 0); err != nil {
		t.Errorf("Present failed: %v", err)
	}
	if hook.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", hook.Frames())
	}
}
