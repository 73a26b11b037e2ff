//go:build !cgo

package audioio

import (
	"errors"
	"log/slog"
)

// newPortAudioSource is unavailable without cgo; the PortAudio backend
// requires linking against the system PortAudio library.
func newPortAudioSource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, errors.New("portaudio backend unavailable: built without cgo")
}
