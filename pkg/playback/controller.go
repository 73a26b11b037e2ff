// Package playback plays captured artifacts back through the audio
// output, reports position for the static waveform cursor, and
// re-materializes artifact bytes for download.
package playback

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/capture"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/wav"
)

// PollInterval is the position reporting period (20 Hz).
const PollInterval = 50 * time.Millisecond

// State is the externally visible playback state. It is reset
// whenever the loaded artifact changes.
type State struct {
	ArtifactID    string `json:"artifact_id"`
	CurrentTimeMs int64  `json:"current_time_ms"`
	DurationMs    int64  `json:"duration_ms"`
	IsPlaying     bool   `json:"is_playing"`
}

// Controller plays one artifact at a time.
type Controller struct {
	out    Output
	logger *slog.Logger

	mu       sync.Mutex
	artifact *capture.Artifact
	streamer *sampleStreamer
	ctrl     *beep.Ctrl
	attached bool // streamer handed to the output
	playing  bool

	onPosition func(State)

	pollCancel chan struct{}
	pollDone   chan struct{}
}

// NewController creates a playback controller using the given output.
// Pass NewSpeakerOutput() for the system device.
func NewController(out Output, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{out: out, logger: logger}
}

// OnPosition registers a callback invoked on every position update.
func (c *Controller) OnPosition(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPosition = fn
}

// Load replaces the current artifact and resets playback state.
func (c *Controller) Load(a *capture.Artifact) {
	c.stopPoller()

	c.mu.Lock()
	c.out.Clear()
	c.artifact = a
	c.streamer = nil
	c.ctrl = nil
	c.attached = false
	c.playing = false
	c.mu.Unlock()

	c.emit()
}

// Toggle plays or pauses the loaded artifact.
func (c *Controller) Toggle() error {
	c.mu.Lock()

	if c.artifact == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPlayback, ErrNoArtifact)
	}

	if c.playing {
		c.out.Lock()
		c.ctrl.Paused = true
		c.out.Unlock()
		c.playing = false
		c.mu.Unlock()

		c.stopPoller()
		c.emit()
		return nil
	}

	if c.streamer == nil {
		c.streamer = newSampleStreamer(c.artifact.Samples())
		c.ctrl = &beep.Ctrl{Streamer: c.streamer}
	}
	if !c.attached {
		rate := beep.SampleRate(c.artifact.SampleRate())
		if err := c.out.Init(rate); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrPlayback, err)
		}
		c.out.Play(c.ctrl)
		c.attached = true
	}

	c.out.Lock()
	// Replay from the start when the previous run reached the end.
	if c.streamer.Position() >= c.streamer.Len() {
		c.streamer.Seek(0)
	}
	c.ctrl.Paused = false
	c.out.Unlock()

	c.playing = true
	c.mu.Unlock()

	c.startPoller()
	c.emit()
	return nil
}

// Seek moves the playback position. Valid for a loaded artifact
// whether playing or paused.
func (c *Controller) Seek(pos time.Duration) error {
	c.mu.Lock()

	if c.artifact == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPlayback, ErrNoArtifact)
	}
	if c.streamer == nil {
		// Not started yet: prepare the streamer so the seek sticks.
		c.streamer = newSampleStreamer(c.artifact.Samples())
		c.ctrl = &beep.Ctrl{Streamer: c.streamer, Paused: true}
	}

	idx := int(float64(c.artifact.SampleRate()) * pos.Seconds())
	if idx < 0 {
		idx = 0
	}
	if idx > c.streamer.Len() {
		idx = c.streamer.Len()
	}

	c.out.Lock()
	err := c.streamer.Seek(idx)
	c.out.Unlock()
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	c.emit()
	return nil
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	var st State
	if c.artifact == nil {
		return st
	}
	st.ArtifactID = c.artifact.ID()
	st.DurationMs = c.artifact.Duration().Milliseconds()
	st.IsPlaying = c.playing
	if c.streamer != nil {
		rate := c.artifact.SampleRate()
		st.CurrentTimeMs = int64(float64(c.streamer.Position()) / float64(rate) * 1000)
	}
	return st
}

// Progress returns playback position as a fraction in [0, 1], for
// the renderer's cursor.
func (c *Controller) Progress() float64 {
	st := c.State()
	if st.DurationMs == 0 {
		return 0
	}
	p := float64(st.CurrentTimeMs) / float64(st.DurationMs)
	if p > 1 {
		p = 1
	}
	return p
}

// Download re-materializes the artifact as a canonical WAV. The
// stored artifact is never mutated.
func (c *Controller) Download() ([]byte, string, error) {
	c.mu.Lock()
	a := c.artifact
	c.mu.Unlock()

	if a == nil {
		return nil, "", ErrNoArtifact
	}

	data, err := wav.Encode(a.Samples(), a.SampleRate(), a.Channels())
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	name := fmt.Sprintf("recording-%s.wav", a.ID())
	return data, name, nil
}

// Close stops playback and releases the output device.
func (c *Controller) Close() error {
	c.stopPoller()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.out.Clear()
	return c.out.Close()
}

func (c *Controller) startPoller() {
	c.stopPoller()

	c.mu.Lock()
	cancel := make(chan struct{})
	done := make(chan struct{})
	c.pollCancel = cancel
	c.pollDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				if c.checkFinished() {
					c.emit()
					return
				}
				c.emit()
			}
		}
	}()
}

// checkFinished detects end of playback and rewinds for replay.
func (c *Controller) checkFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streamer == nil || c.streamer.Position() < c.streamer.Len() {
		return false
	}

	c.out.Lock()
	c.ctrl.Paused = true
	c.streamer.Seek(0)
	c.out.Unlock()
	c.playing = false
	c.pollCancel = nil
	c.pollDone = nil
	return true
}

func (c *Controller) stopPoller() {
	c.mu.Lock()
	cancel, done := c.pollCancel, c.pollDone
	c.pollCancel, c.pollDone = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	close(cancel)
	<-done
}

func (c *Controller) emit() {
	c.mu.Lock()
	fn := c.onPosition
	st := c.stateLocked()
	c.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}
