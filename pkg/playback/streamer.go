package playback

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep/v2"
)

// sampleStreamer streams mono float32 samples to both output channels
// and tracks its playback position. The speaker pulls from it on its
// own goroutine, so position access is guarded.
type sampleStreamer struct {
	mu      sync.Mutex
	samples []float32
	pos     int
}

func newSampleStreamer(samples []float32) *sampleStreamer {
	return &sampleStreamer{samples: samples}
}

// Stream implements beep.Streamer.
func (s *sampleStreamer) Stream(buf [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.samples) {
		return 0, false
	}

	for n = 0; n < len(buf) && s.pos < len(s.samples); n++ {
		v := float64(s.samples[s.pos])
		buf[n][0] = v
		buf[n][1] = v
		s.pos++
	}
	return n, true
}

// Err implements beep.Streamer.
func (s *sampleStreamer) Err() error { return nil }

// Len implements beep.StreamSeeker.
func (s *sampleStreamer) Len() int {
	return len(s.samples)
}

// Position implements beep.StreamSeeker.
func (s *sampleStreamer) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Seek implements beep.StreamSeeker.
func (s *sampleStreamer) Seek(p int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p < 0 || p > len(s.samples) {
		return fmt.Errorf("playback: seek position %d out of range [0, %d]", p, len(s.samples))
	}
	s.pos = p
	return nil
}

// Ensure sampleStreamer implements beep.StreamSeeker.
var _ beep.StreamSeeker = (*sampleStreamer)(nil)
