//go:build cgo

package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// speakerBuffer is the output latency buffer.
const speakerBuffer = 100 * time.Millisecond

// SpeakerOutput plays through the system audio device via the beep
// speaker.
type SpeakerOutput struct {
	mu   sync.Mutex
	rate beep.SampleRate
}

// NewSpeakerOutput creates the default system output.
func NewSpeakerOutput() *SpeakerOutput {
	return &SpeakerOutput{}
}

// Init initializes the speaker at the given sample rate. Re-init at
// the same rate is a no-op.
func (o *SpeakerOutput) Init(sr beep.SampleRate) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.rate == sr {
		return nil
	}
	if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	o.rate = sr
	return nil
}

// Play starts pulling from the streamer.
func (o *SpeakerOutput) Play(s beep.Streamer) { speaker.Play(s) }

// Lock suspends speaker pulls.
func (o *SpeakerOutput) Lock() { speaker.Lock() }

// Unlock resumes speaker pulls.
func (o *SpeakerOutput) Unlock() { speaker.Unlock() }

// Clear drops all playing streamers.
func (o *SpeakerOutput) Clear() { speaker.Clear() }

// Close shuts the speaker down.
func (o *SpeakerOutput) Close() error {
	speaker.Close()
	return nil
}

// Ensure SpeakerOutput implements Output.
var _ Output = (*SpeakerOutput)(nil)
