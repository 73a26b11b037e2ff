package capture

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is the immutable result of a completed capture session: a
// canonical WAV byte container plus the retained float samples it was
// encoded from. Downstream consumers (playback, renderer, upload) only
// read it.
type Artifact struct {
	id         string
	data       []byte
	samples    []float32
	sampleRate int
	channels   int
	createdAt  time.Time
}

// NewArtifact creates an artifact. The caller hands over ownership of
// both slices; they must not be mutated afterwards.
func NewArtifact(data []byte, samples []float32, sampleRate, channels int) *Artifact {
	return &Artifact{
		id:         uuid.NewString(),
		data:       data,
		samples:    samples,
		sampleRate: sampleRate,
		channels:   channels,
		createdAt:  time.Now(),
	}
}

// ID returns the artifact's unique identifier.
func (a *Artifact) ID() string { return a.id }

// Bytes returns a copy of the encoded WAV container.
func (a *Artifact) Bytes() []byte {
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out
}

// Size returns the encoded container size in bytes.
func (a *Artifact) Size() int { return len(a.data) }

// Samples returns a copy of the decoded float samples.
func (a *Artifact) Samples() []float32 {
	out := make([]float32, len(a.samples))
	copy(out, a.samples)
	return out
}

// SampleRate returns the capture sample rate in Hz.
func (a *Artifact) SampleRate() int { return a.sampleRate }

// Channels returns the channel count.
func (a *Artifact) Channels() int { return a.channels }

// CreatedAt returns the artifact creation time.
func (a *Artifact) CreatedAt() time.Time { return a.createdAt }

// Duration returns the audio duration.
func (a *Artifact) Duration() time.Duration {
	if a.sampleRate == 0 || a.channels == 0 {
		return 0
	}
	frames := len(a.samples) / a.channels
	return time.Duration(float64(frames) / float64(a.sampleRate) * float64(time.Second))
}
