//go:build !cgo

package playback

import (
	"errors"

	"github.com/gopxl/beep/v2"
)

// SpeakerOutput is unavailable without cgo; the beep speaker backend
// requires linking against the system audio libraries.
type SpeakerOutput struct{}

// NewSpeakerOutput creates the default system output.
func NewSpeakerOutput() *SpeakerOutput {
	return &SpeakerOutput{}
}

// Init always fails in builds without cgo.
func (o *SpeakerOutput) Init(sr beep.SampleRate) error {
	return errors.New("speaker output unavailable: built without cgo")
}

// Play is a no-op without cgo.
func (o *SpeakerOutput) Play(s beep.Streamer) {}

// Lock is a no-op without cgo.
func (o *SpeakerOutput) Lock() {}

// Unlock is a no-op without cgo.
func (o *SpeakerOutput) Unlock() {}

// Clear is a no-op without cgo.
func (o *SpeakerOutput) Clear() {}

// Close is a no-op without cgo.
func (o *SpeakerOutput) Close() error { return nil }

// Ensure SpeakerOutput implements Output.
var _ Output = (*SpeakerOutput)(nil)
