package waveform

import (
	"bytes"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"
)

func testRendererConfig() Config {
	return Config{Width: 80, Height: 40, LineWidth: 2, Amplify: 3.0, Dark: true}
}

func sineSamples(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(2*math.Pi*float64(i)/100))
	}
	return out
}

func TestRenderLiveCanvasSize(t *testing.T) {
	r := NewRenderer(testRendererConfig())
	img := r.RenderLive(sineSamples(4000), sineSamples(100), 0.5)

	b := img.Bounds()
	if b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("canvas = %dx%d, want 80x40", b.Dx(), b.Dy())
	}
}

func TestRenderLiveProgressBar(t *testing.T) {
	cfg := testRendererConfig()
	r := NewRenderer(cfg)
	theme := ThemeFor(true)

	img := r.RenderLive(nil, nil, 0.5)

	y := cfg.Height - 2
	if img.RGBAAt(10, y) != theme.Progress {
		t.Error("pixel left of the progress midpoint should be progress-colored")
	}
	if img.RGBAAt(cfg.Width-5, y) == theme.Progress {
		t.Error("pixel right of the progress midpoint should not be progress-colored")
	}
}

func TestRenderSilenceDrawsFlatLine(t *testing.T) {
	cfg := testRendererConfig()
	r := NewRenderer(cfg)
	theme := ThemeFor(true)

	img := r.RenderLive(make([]float32, 4000), nil, 0)

	// Silence decimates to zero peaks: every segment strokes the
	// center row, so the waveform is a flat line, not absent.
	centerY := cfg.Height / 2
	for x := 0; x < cfg.Width; x++ {
		got := img.RGBAAt(x, centerY)
		if got != theme.Wave && got != theme.Live {
			t.Fatalf("center pixel at x=%d is %v, want wave color", x, got)
		}
	}
}

func TestThemeChangePreservesGeometry(t *testing.T) {
	samples := sineSamples(4000)

	dark := NewRenderer(Config{Width: 80, Height: 40, LineWidth: 2, Amplify: 3.0, Dark: true})
	light := NewRenderer(Config{Width: 80, Height: 40, LineWidth: 2, Amplify: 3.0, Dark: false})

	darkImg := dark.RenderLive(samples, nil, 0)
	lightImg := light.RenderLive(samples, nil, 0)

	darkTheme, lightTheme := ThemeFor(true), ThemeFor(false)

	// Same pixels must be wave-colored in both renders: theming
	// changes paint, never decimation.
	for y := 0; y < 40; y++ {
		for x := 0; x < 80; x++ {
			isWaveDark := darkImg.RGBAAt(x, y) == darkTheme.Wave
			isWaveLight := lightImg.RGBAAt(x, y) == lightTheme.Wave
			if isWaveDark != isWaveLight {
				t.Fatalf("wave geometry differs between themes at (%d,%d)", x, y)
			}
		}
	}
}

func TestRenderCursorUsesCache(t *testing.T) {
	cfg := testRendererConfig()
	r := NewRenderer(cfg)
	theme := ThemeFor(true)

	r.RenderStatic(sineSamples(4000))
	img := r.RenderCursor(0.25)

	x := int(float64(cfg.Width) * 0.25)
	for y := 0; y < cfg.Height; y++ {
		if img.RGBAAt(x, y) != theme.Cursor {
			t.Fatalf("cursor column x=%d missing cursor color at y=%d", x, y)
		}
	}
}

func TestRenderCursorClampsPosition(t *testing.T) {
	r := NewRenderer(testRendererConfig())
	r.RenderStatic(sineSamples(1000))

	// Out-of-range positions must not panic or draw off-canvas.
	for _, pos := range []float64{-1, 0, 1, 2.5} {
		img := r.RenderCursor(pos)
		if img == nil {
			t.Fatalf("RenderCursor(%f) returned nil", pos)
		}
	}
}

func TestRenderStaticReturnsIndependentCopy(t *testing.T) {
	r := NewRenderer(testRendererConfig())
	img := r.RenderStatic(sineSamples(1000))
	img.Pix[0] = 0xAA

	// Cursor renders must come from the unmodified cache.
	cursor := r.RenderCursor(0.9)
	if cursor.Pix[0] == 0xAA {
		t.Error("mutating the returned static image corrupted the cache")
	}
}

func TestEncodePNG(t *testing.T) {
	r := NewRenderer(testRendererConfig())
	data, err := EncodePNG(r.RenderLive(sineSamples(500), nil, 0.1))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 80 {
		t.Errorf("decoded width = %d, want 80", decoded.Bounds().Dx())
	}
}

type countingSink struct {
	mu     sync.Mutex
	frames int
}

func (s *countingSink) WriteFrame([]byte) {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

type staticSnapshotter struct{ samples []float32 }

func (s staticSnapshotter) Snapshot() []float32  { return s.samples }
func (s staticSnapshotter) LastFrame() []float32 { return nil }

func TestLoopProducesFrames(t *testing.T) {
	r := NewRenderer(testRendererConfig())
	sink := &countingSink{}
	loop := NewLoop(r, sink, 50, nil)

	loop.StartLive(staticSnapshotter{samples: sineSamples(1000)}, func() float64 { return 0.5 })
	time.Sleep(200 * time.Millisecond)
	loop.Stop()

	if sink.count() < 3 {
		t.Errorf("got %d frames in 200ms at 50fps, want at least 3", sink.count())
	}
}

func TestLoopRestartCancelsPrevious(t *testing.T) {
	r := NewRenderer(testRendererConfig())
	sink := &countingSink{}
	loop := NewLoop(r, sink, 100, nil)

	src := staticSnapshotter{samples: sineSamples(1000)}
	loop.StartLive(src, func() float64 { return 0 })
	loop.StartLive(src, func() float64 { return 0 })
	loop.StartPlayback(func() float64 { return 0 })

	time.Sleep(100 * time.Millisecond)
	loop.Stop()

	// Stop must be idempotent and leave no loop running.
	loop.Stop()
	settled := sink.count()
	time.Sleep(100 * time.Millisecond)
	if sink.count() != settled {
		t.Error("frames still being produced after Stop")
	}
}
