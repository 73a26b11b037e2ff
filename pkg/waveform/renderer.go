// Package waveform renders decimated min/max peak waveforms for the
// capture dashboard. Rendering targets an in-memory RGBA image which
// is PNG-encoded and streamed to clients over the websocket hub.
package waveform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
)

// Config holds renderer geometry and paint parameters.
type Config struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	LineWidth int     `yaml:"line_width"`
	Amplify   float64 `yaml:"amplify"` // vertical gain for low-amplitude signals
	Dark      bool    `yaml:"dark"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Width:     800,
		Height:    200,
		LineWidth: 2,
		Amplify:   3.0,
		Dark:      true,
	}
}

// Validate checks renderer parameters.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Height < 2 {
		return fmt.Errorf("canvas must be at least 1x2, got %dx%d", c.Width, c.Height)
	}
	if c.LineWidth < 1 || c.LineWidth > c.Width {
		return fmt.Errorf("line_width must be between 1 and width, got %d", c.LineWidth)
	}
	if c.Amplify <= 0 {
		return fmt.Errorf("amplify must be positive, got %f", c.Amplify)
	}
	return nil
}

// Renderer draws live and static waveform frames.
//
// The live path re-decimates the buffer snapshot every frame. The
// static path decimates once per artifact, caches the rendered image,
// and only blits it plus a cursor line on each position update.
type Renderer struct {
	cfg   Config
	theme Theme

	mu     sync.Mutex
	cached *image.RGBA // static waveform, nil until RenderStatic
}

// NewRenderer creates a renderer.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{
		cfg:   cfg,
		theme: ThemeFor(cfg.Dark),
	}
}

// SetDark switches the theme and invalidates the static cache.
// Decimation geometry is unchanged; only colors differ.
func (r *Renderer) SetDark(dark bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.theme = ThemeFor(dark)
	r.cached = nil
}

// Segments returns the number of display segments for this canvas.
func (r *Renderer) Segments() int {
	return SegmentCount(r.cfg.Width, r.cfg.LineWidth)
}

// RenderLive draws one live frame: background, decimated waveform
// from the buffer snapshot, the instantaneous signal overlaid in a
// distinct color, and a progress bar of width*progress pixels.
func (r *Renderer) RenderLive(snapshot, live []float32, progress float64) *image.RGBA {
	r.mu.Lock()
	theme := r.theme
	r.mu.Unlock()

	img := r.newCanvas(theme)
	r.drawPeaks(img, Decimate(snapshot, r.Segments()), theme.Wave)
	if len(live) > 0 {
		r.drawPeaks(img, Decimate(live, r.Segments()), theme.Live)
	}
	r.drawProgressBar(img, progress, theme)
	return img
}

// RenderStatic decimates the full sample sequence once, renders it
// and caches the result for cursor redraws.
func (r *Renderer) RenderStatic(samples []float32) *image.RGBA {
	r.mu.Lock()
	theme := r.theme
	r.mu.Unlock()

	img := r.newCanvas(theme)
	r.drawPeaks(img, Decimate(samples, r.Segments()), theme.Wave)

	r.mu.Lock()
	r.cached = img
	r.mu.Unlock()

	return cloneRGBA(img)
}

// RenderCursor blits the cached static waveform and draws a vertical
// cursor at width*position. It falls back to a bare canvas when no
// static render has happened yet.
func (r *Renderer) RenderCursor(position float64) *image.RGBA {
	r.mu.Lock()
	cached := r.cached
	theme := r.theme
	r.mu.Unlock()

	var img *image.RGBA
	if cached != nil {
		img = cloneRGBA(cached)
	} else {
		img = r.newCanvas(theme)
	}

	x := int(float64(r.cfg.Width) * clamp01(position))
	if x >= r.cfg.Width {
		x = r.cfg.Width - 1
	}
	r.vline(img, x, 0, r.cfg.Height-1, theme.Cursor)
	return img
}

// EncodePNG encodes a rendered frame.
func EncodePNG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("waveform: png encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) newCanvas(theme Theme) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, r.cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: theme.Background}, image.Point{}, draw.Src)

	// Center grid line.
	centerY := r.cfg.Height / 2
	for x := 0; x < r.cfg.Width; x++ {
		img.SetRGBA(x, centerY, theme.Grid)
	}
	return img
}

// drawPeaks draws one vertical stroke per segment from yLow to yHigh.
func (r *Renderer) drawPeaks(img *image.RGBA, peaks []Peak, c color.RGBA) {
	centerY := float64(r.cfg.Height) / 2
	halfH := float64(r.cfg.Height) / 2

	for i, p := range peaks {
		yHigh := int(centerY - float64(p.Max)*halfH*r.cfg.Amplify)
		yLow := int(centerY - float64(p.Min)*halfH*r.cfg.Amplify)
		yHigh = clampInt(yHigh, 0, r.cfg.Height-1)
		yLow = clampInt(yLow, 0, r.cfg.Height-1)

		x0 := i * r.cfg.LineWidth
		for dx := 0; dx < r.cfg.LineWidth; dx++ {
			r.vline(img, x0+dx, yHigh, yLow, c)
		}
	}
}

func (r *Renderer) drawProgressBar(img *image.RGBA, progress float64, theme Theme) {
	w := int(float64(r.cfg.Width) * clamp01(progress))
	for y := r.cfg.Height - 4; y < r.cfg.Height; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, theme.Progress)
		}
	}
}

func (r *Renderer) vline(img *image.RGBA, x, y0, y1 int, c color.RGBA) {
	if x < 0 || x >= r.cfg.Width {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, c)
	}
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
