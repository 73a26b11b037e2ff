package waveform

import (
	"image"
	"log/slog"
	"sync"
	"time"
)

// FrameSink receives encoded PNG frames from the render loop.
type FrameSink interface {
	WriteFrame(frame []byte)
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(frame []byte)

// WriteFrame implements FrameSink.
func (f FrameSinkFunc) WriteFrame(frame []byte) { f(frame) }

// Snapshotter provides sample data for the live render path.
type Snapshotter interface {
	// Snapshot returns a flattened copy of all buffered samples.
	Snapshot() []float32
	// LastFrame returns the most recent frame for the live overlay.
	LastFrame() []float32
}

// Loop drives rendering on a fixed frame rate. At most one loop runs
// at a time: starting a new one cancels the previous loop before the
// first frame, so two loops never draw concurrently.
type Loop struct {
	renderer *Renderer
	sink     FrameSink
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

// NewLoop creates a render loop producing fps frames per second.
func NewLoop(renderer *Renderer, sink FrameSink, fps int, logger *slog.Logger) *Loop {
	if fps < 1 {
		fps = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		renderer: renderer,
		sink:     sink,
		interval: time.Second / time.Duration(fps),
		logger:   logger,
	}
}

// StartLive begins the live/recording render path: each tick draws
// the decimated buffer snapshot, the live overlay, and a progress bar.
func (l *Loop) StartLive(src Snapshotter, progress func() float64) {
	l.run(func() {
		img := l.renderer.RenderLive(src.Snapshot(), src.LastFrame(), progress())
		l.emit(img)
	})
}

// StartPlayback begins the playback/static render path: each tick
// blits the cached static waveform and draws the position cursor.
// Call Renderer.RenderStatic once before starting this loop.
func (l *Loop) StartPlayback(position func() float64) {
	l.run(func() {
		l.emit(l.renderer.RenderCursor(position()))
	})
}

// run replaces any active loop with a new one executing frame each
// tick.
func (l *Loop) run(frame func()) {
	l.Stop()

	l.mu.Lock()
	cancel := make(chan struct{})
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				frame()
			}
		}
	}()
}

// Stop cancels the active loop and waits for its last frame to
// finish. Safe to call when no loop is running.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	close(cancel)
	<-done
}

func (l *Loop) emit(img *image.RGBA) {
	data, err := EncodePNG(img)
	if err != nil {
		l.logger.Error("frame encode failed", "error", err)
		return
	}
	l.sink.WriteFrame(data)
}
