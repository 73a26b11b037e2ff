package waveform

import "image/color"

// Theme holds the colors used by the renderer. Colors are a pure
// function of the light/dark flag; switching themes never changes
// decimation geometry, only paint.
type Theme struct {
	Background color.RGBA
	Grid       color.RGBA
	Wave       color.RGBA
	Live       color.RGBA
	Progress   color.RGBA
	Cursor     color.RGBA
}

// ThemeFor returns the theme for the given mode.
func ThemeFor(dark bool) Theme {
	if dark {
		return Theme{
			Background: color.RGBA{R: 0x12, G: 0x14, B: 0x18, A: 0xFF},
			Grid:       color.RGBA{R: 0x2A, G: 0x2E, B: 0x36, A: 0xFF},
			Wave:       color.RGBA{R: 0x4F, G: 0xC3, B: 0xF7, A: 0xFF},
			Live:       color.RGBA{R: 0xFF, G: 0x8A, B: 0x65, A: 0xFF},
			Progress:   color.RGBA{R: 0x66, G: 0xBB, B: 0x6A, A: 0xFF},
			Cursor:     color.RGBA{R: 0xEF, G: 0x53, B: 0x50, A: 0xFF},
		}
	}
	return Theme{
		Background: color.RGBA{R: 0xFA, G: 0xFA, B: 0xFA, A: 0xFF},
		Grid:       color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF},
		Wave:       color.RGBA{R: 0x03, G: 0x69, B: 0xA1, A: 0xFF},
		Live:       color.RGBA{R: 0xE6, G: 0x51, B: 0x00, A: 0xFF},
		Progress:   color.RGBA{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF},
		Cursor:     color.RGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF},
	}
}
