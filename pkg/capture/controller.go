// Package capture owns the recording lifecycle: device acquisition,
// the dual-timer auto-stop mechanism, the bounded sample buffer, and
// the hand-off to the PCM encoder.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lakindu-banneheka/medical-diagnostic-app/internal/metrics"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/audioio"
	"github.com/lakindu-banneheka/medical-diagnostic-app/pkg/wav"
)

// State represents the capture lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateAcquiring  State = "acquiring"
	StateRecording  State = "recording"
	StateStopping   State = "stopping"
	StateProcessing State = "processing"
	StateError      State = "error"
)

// Timing constants for the auto-stop mechanism.
const (
	// TickInterval is the period of the cooperative progress tick.
	TickInterval = 100 * time.Millisecond

	// GracePeriod is added to the target duration for the hard
	// deadline. The hard deadline guarantees termination even if the
	// cooperative tick is starved.
	GracePeriod = 500 * time.Millisecond
)

// ValidDurations lists the recognized target durations in seconds.
var ValidDurations = []int{5, 10, 15, 30}

// Progress reports elapsed capture time.
type Progress struct {
	SessionID string        `json:"session_id"`
	Elapsed   time.Duration `json:"elapsed"`
	Target    time.Duration `json:"target"`
}

// SourceFactory creates an audio source. Swappable for tests.
type SourceFactory func(cfg audioio.Config, logger *slog.Logger) (audioio.Source, error)

// Controller drives capture sessions. At most one session is active
// at any time; starting a new session force-stops the previous one.
type Controller struct {
	cfg       audioio.Config
	newSource SourceFactory
	logger    *slog.Logger
	metrics   *metrics.Metrics

	bufferCapacity int

	// disableTick suppresses the cooperative tick so tests can prove
	// the hard deadline alone terminates a session.
	disableTick bool

	mu       sync.Mutex
	closed   bool
	state    State
	session  *session
	artifact *Artifact

	onState    func(State, error)
	onProgress func(Progress)
	onArtifact func(*Artifact)
}

// session holds the resources owned by one capture attempt.
type session struct {
	id        string
	source    audioio.Source
	buffer    *SampleFrameBuffer
	startTime time.Time
	target    time.Duration

	cancelTick   chan struct{}
	deadline     *time.Timer
	consumerDone chan struct{}
	stopped      atomic.Bool
	stopDone     chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithSourceFactory replaces the audio source factory.
func WithSourceFactory(f SourceFactory) Option {
	return func(c *Controller) { c.newSource = f }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithBufferCapacity overrides the sample buffer capacity in frames.
func WithBufferCapacity(n int) Option {
	return func(c *Controller) { c.bufferCapacity = n }
}

// NewController creates a capture controller.
func NewController(cfg audioio.Config, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		cfg:            cfg,
		newSource:      audioio.NewSource,
		logger:         logger,
		bufferCapacity: DefaultCapacity,
		state:          StateIdle,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// OnStateChange registers a callback invoked on every state
// transition. For StateError the accompanying error is non-nil.
func (c *Controller) OnStateChange(fn func(State, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// OnProgress registers a callback invoked on each cooperative tick
// while recording.
func (c *Controller) OnProgress(fn func(Progress)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProgress = fn
}

// OnArtifact registers a callback invoked when a session completes
// and produces an artifact.
func (c *Controller) OnArtifact(fn func(*Artifact)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onArtifact = fn
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Artifact returns the artifact of the last completed session, or nil.
func (c *Controller) Artifact() *Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Buffer returns the active session's sample buffer, or nil when no
// session is active. The renderer reads snapshots from it.
func (c *Controller) Buffer() *SampleFrameBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.buffer
}

// Elapsed returns the elapsed time of the active session.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return time.Since(c.session.startTime)
}

// Target returns the target duration of the active session.
func (c *Controller) Target() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.target
}

// StartCapture begins a new capture session with the given target
// duration in seconds. Only the recognized durations are accepted.
// If a session is already active it is force-stopped first.
func (c *Controller) StartCapture(ctx context.Context, targetSeconds int) error {
	valid := false
	for _, d := range ValidDurations {
		if targetSeconds == d {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %d seconds (valid: %v)", ErrInvalidDuration, targetSeconds, ValidDurations)
	}

	return c.start(ctx, time.Duration(targetSeconds)*time.Second)
}

// start runs the session with an arbitrary target duration. The
// public entry point validates against the recognized options first.
func (c *Controller) start(ctx context.Context, target time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	prev := c.session
	c.mu.Unlock()

	// At most one active session: force-stop the previous one
	// synchronously before acquiring new resources.
	if prev != nil {
		c.logger.Warn("starting capture with a session active, force-stopping", "session_id", prev.id)
		c.stopSession(prev)
	}

	c.setState(StateAcquiring, nil)

	src, err := c.newSource(c.cfg, c.logger)
	if err != nil {
		werr := WrapDeviceError(string(c.cfg.Backend), err)
		c.setState(StateError, werr)
		c.recordFailure("device")
		return werr
	}
	if err := src.Start(ctx); err != nil {
		src.Close()
		werr := WrapDeviceError(src.Name(), err)
		c.setState(StateError, werr)
		c.recordFailure("device")
		return werr
	}

	s := &session{
		id:           uuid.NewString(),
		source:       src,
		buffer:       NewSampleFrameBuffer(c.bufferCapacity),
		startTime:    time.Now(),
		target:       target,
		cancelTick:   make(chan struct{}),
		consumerDone: make(chan struct{}),
		stopDone:     make(chan struct{}),
	}

	c.mu.Lock()
	c.session = s
	c.artifact = nil
	c.mu.Unlock()

	go c.consumeFrames(s)

	// Dual-timer auto-stop: the cooperative tick issues a normal stop
	// at the target, and the hard deadline forces one at target plus
	// grace. Both call the same idempotent stop routine; the deadline
	// is authoritative when the tick stalls.
	s.deadline = time.AfterFunc(target+GracePeriod, func() {
		c.logger.Warn("hard deadline fired, forcing stop", "session_id", s.id)
		c.stopSession(s)
	})
	if !c.disableTick {
		go c.tickLoop(s)
	}

	c.setState(StateRecording, nil)
	if c.metrics != nil {
		c.metrics.SessionsStarted.Inc()
		c.metrics.SessionActive.Set(1)
	}

	c.logger.Info("capture started",
		"session_id", s.id,
		"target", target,
		"backend", src.Name(),
	)

	return nil
}

// consumeFrames drains the source's frame channel into the buffer.
// It exits when the source stops and its channel closes, at which
// point all buffered device data has been flushed.
func (c *Controller) consumeFrames(s *session) {
	defer close(s.consumerDone)

	for frame := range s.source.Frames() {
		s.buffer.Append(frame.Samples)
		if c.metrics != nil {
			c.metrics.FramesCaptured.Inc()
		}
	}
}

// tickLoop updates progress every TickInterval and issues a normal
// stop when elapsed reaches the target.
func (c *Controller) tickLoop(s *session) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.cancelTick:
			return
		case <-ticker.C:
			elapsed := time.Since(s.startTime)

			c.mu.Lock()
			fn := c.onProgress
			c.mu.Unlock()
			if fn != nil {
				fn(Progress{SessionID: s.id, Elapsed: elapsed, Target: s.target})
			}

			if elapsed >= s.target {
				c.stopSession(s)
				return
			}
		}
	}
}

// StopCapture stops the active session. Calling it when no session is
// active is a no-op.
func (c *Controller) StopCapture() {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return
	}
	c.stopSession(s)
}

// stopSession is the single stop routine shared by the cooperative
// tick, the hard deadline, explicit StopCapture, and force-stop on
// restart. It is idempotent: only the first caller proceeds.
//
// Teardown is best-effort: a failure in one step never prevents the
// others, so no live device handle survives a partial failure.
func (c *Controller) stopSession(s *session) {
	if !s.stopped.CompareAndSwap(false, true) {
		// Another caller is already tearing this session down. Wait
		// for it so every stop path, force-stop on restart included,
		// returns only after teardown and processing have finished.
		<-s.stopDone
		return
	}
	defer close(s.stopDone)

	c.setState(StateStopping, nil)

	// Cancel both timers.
	close(s.cancelTick)
	if s.deadline != nil {
		s.deadline.Stop()
	}

	// Halt the device stream; the frame channel closes and the
	// consumer flushes any final buffered data.
	if err := s.source.Stop(); err != nil {
		c.logger.Error("failed to stop audio source", "session_id", s.id, "error", err)
	}
	<-s.consumerDone
	if err := s.source.Close(); err != nil {
		c.logger.Error("failed to close audio source", "session_id", s.id, "error", err)
	}

	c.mu.Lock()
	if c.session == s {
		c.session = nil
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SessionActive.Set(0)
		c.metrics.FramesEvicted.Add(float64(s.buffer.Evicted()))
		if sws, ok := s.source.(audioio.SourceWithStats); ok {
			c.metrics.FramesDropped.Add(float64(sws.Stats().Overruns))
		}
	}

	c.process(s)
}

// process encodes the session's buffered samples into an artifact.
func (c *Controller) process(s *session) {
	if s.buffer.SampleCount() == 0 {
		c.logger.Error("capture produced no data", "session_id", s.id)
		c.setState(StateError, ErrNoData)
		c.recordFailure("no_data")
		return
	}

	c.setState(StateProcessing, nil)

	samples := s.buffer.Snapshot()
	encodeStart := time.Now()
	data, err := wav.Encode(samples, c.cfg.SampleRate, c.cfg.Channels)
	if err != nil {
		c.logger.Error("encode failed", "session_id", s.id, "error", err)
		c.setState(StateError, fmt.Errorf("%w: %v", ErrEncoding, err))
		c.recordFailure("encoding")
		return
	}

	art := NewArtifact(data, samples, c.cfg.SampleRate, c.cfg.Channels)

	c.mu.Lock()
	c.artifact = art
	fn := c.onArtifact
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SessionsCompleted.Inc()
		c.metrics.RecordEncode(time.Since(encodeStart), len(data))
	}

	c.logger.Info("capture complete",
		"session_id", s.id,
		"artifact_id", art.ID(),
		"duration", art.Duration(),
		"bytes", art.Size(),
	)

	c.setState(StateIdle, nil)
	if fn != nil {
		fn(art)
	}
}

// Close stops any active session and prevents further captures.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.session
	c.mu.Unlock()

	if s != nil {
		c.stopSession(s)
	}
	return nil
}

func (c *Controller) setState(st State, err error) {
	c.mu.Lock()
	c.state = st
	fn := c.onState
	c.mu.Unlock()

	if fn != nil {
		fn(st, err)
	}
}

func (c *Controller) recordFailure(reason string) {
	if c.metrics != nil {
		c.metrics.RecordSessionFailed(reason)
	}
}
